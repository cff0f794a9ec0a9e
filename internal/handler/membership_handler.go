package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MembershipHandler struct {
	membershipService service.MembershipService
}

func NewMembershipHandler(membershipService service.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: membershipService}
}

func (h *MembershipHandler) RegisterRoutes(router *gin.RouterGroup) {
	memberships := router.Group("/api/memberships")
	memberships.Use(middleware.RequireAuth())
	{
		memberships.POST("", h.AssignMember)
		memberships.DELETE("/:id", h.RemoveMember)
	}
	router.GET("/api/organizations/:id/members", middleware.RequireAuth(), h.ListMembers)
}

// AssignMember assigns a user to an organization node
// @Summary      Assign member
// @Tags         memberships
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.AssignMemberRequest  true  "Assignment payload"
// @Success      201  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/memberships [post]
func (h *MembershipHandler) AssignMember(c *gin.Context) {
	var req service.AssignMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	membership, err := h.membershipService.AssignMember(c.Request.Context(), middleware.CurrentTenantID(c), req, middleware.CurrentUserID(c))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, membership))
}

// RemoveMember deactivates a membership
// @Summary      Remove member
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Membership ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/memberships/{id} [delete]
func (h *MembershipHandler) RemoveMember(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid membership ID"))
		return
	}

	if err := h.membershipService.RemoveMember(c.Request.Context(), middleware.CurrentTenantID(c), id, middleware.CurrentUserID(c)); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Member removed successfully"}))
}

// ListMembers returns paginated members of an organization
// @Summary      List members
// @Tags         memberships
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Organization ID"
// @Param        page   query  int     false  "Page number (default: 1)"
// @Param        limit  query  int     false  "Items per page (default: 20)"
// @Success      200  {object}  response.Response
// @Router       /api/organizations/{id}/members [get]
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return
	}

	params := pagination.Parse(c)
	members, total, err := h.membershipService.ListMembers(c.Request.Context(), orgID, params.Page, params.Limit)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, members, params.Page, params.Limit, total))
}
