package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrganizationHandler struct {
	orgService service.OrganizationService
}

func NewOrganizationHandler(orgService service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

func (h *OrganizationHandler) RegisterRoutes(router *gin.RouterGroup) {
	orgs := router.Group("/api/organizations")
	orgs.Use(middleware.RequireAuth())
	{
		orgs.POST("", h.CreateOrganization)
		orgs.GET("/tree", h.GetTree)
		orgs.GET("/:id", h.GetOrganization)
		orgs.PATCH("/:id", h.UpdateOrganization)
		orgs.POST("/:id/move", h.MoveOrganization)
		orgs.DELETE("/:id", h.DeleteOrganization)
		orgs.POST("/bulk", h.BulkCreate)
		orgs.PATCH("/bulk", h.BulkUpdate)
		orgs.DELETE("/bulk", h.BulkDelete)
	}
}

// CreateOrganization creates a root node (no parent_id) or a child node
// @Summary      Create organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateOrganizationRequest  true  "Organization payload"
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tenantID := middleware.CurrentTenantID(c)
	actorID := middleware.CurrentUserID(c)

	var (
		org service.OrganizationResponse
		err error
	)
	if req.ParentID == nil {
		org, err = h.orgService.CreateRoot(c.Request.Context(), tenantID, req, actorID)
	} else {
		var parentID uuid.UUID
		parentID, err = uuid.Parse(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid parent_id"))
			return
		}
		org, err = h.orgService.CreateChild(c.Request.Context(), parentID, req, actorID)
	}
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, org))
}

// GetTree returns the tenant's organization forest
// @Summary      Get organization tree
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/organizations/tree [get]
func (h *OrganizationHandler) GetTree(c *gin.Context) {
	tenantID := middleware.CurrentTenantID(c)

	tree, err := h.orgService.BuildTree(c.Request.Context(), tenantID, nil)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// GetOrganization returns a single organization node
// @Summary      Get organization
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return
	}

	org, err := h.orgService.Get(c.Request.Context(), id)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// UpdateOrganization updates name, description, or tax code
// @Summary      Update organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                             true  "Organization ID"
// @Param        payload  body  service.UpdateOrganizationRequest  true  "Update payload"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/organizations/{id} [patch]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return
	}

	var req service.UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), id, req, middleware.CurrentUserID(c))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// MoveOrganization relocates a node under a new parent (or to root)
// @Summary      Move organization
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Organization ID"
// @Param        payload  body  service.MoveOrganizationRequest  true  "Move payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/organizations/{id}/move [post]
func (h *OrganizationHandler) MoveOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return
	}

	var req service.MoveOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	var newParentID *uuid.UUID
	if req.NewParentID != nil {
		parsed, err := uuid.Parse(*req.NewParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid new_parent_id"))
			return
		}
		newParentID = &parsed
	}

	org, err := h.orgService.Move(c.Request.Context(), id, newParentID, middleware.CurrentUserID(c))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, org))
}

// DeleteOrganization soft-deletes a leaf node
// @Summary      Delete organization
// @Tags         organizations
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Organization ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/organizations/{id} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID"))
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Organization deleted successfully"}))
}

// BulkCreate creates many nodes, reporting per-item success/failure
// @Summary      Bulk create organizations
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  []service.CreateOrganizationRequest  true  "Items"
// @Success      200  {object}  response.Response
// @Router       /api/organizations/bulk [post]
func (h *OrganizationHandler) BulkCreate(c *gin.Context) {
	var items []service.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result := h.orgService.BulkCreate(c.Request.Context(), middleware.CurrentTenantID(c), items, middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BulkUpdate updates many nodes, reporting per-item success/failure
// @Summary      Bulk update organizations
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  []service.BulkUpdateItem  true  "Items"
// @Success      200  {object}  response.Response
// @Router       /api/organizations/bulk [patch]
func (h *OrganizationHandler) BulkUpdate(c *gin.Context) {
	var items []service.BulkUpdateItem
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result := h.orgService.BulkUpdate(c.Request.Context(), items, middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// BulkDelete deletes many nodes, reporting per-item success/failure
// @Summary      Bulk delete organizations
// @Tags         organizations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  []string  true  "Organization IDs"
// @Success      200  {object}  response.Response
// @Router       /api/organizations/bulk [delete]
func (h *OrganizationHandler) BulkDelete(c *gin.Context) {
	var rawIDs []string
	if err := c.ShouldBindJSON(&rawIDs); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ids := make([]uuid.UUID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid organization ID: "+raw))
			return
		}
		ids = append(ids, id)
	}

	result := h.orgService.BulkDelete(c.Request.Context(), ids, middleware.CurrentUserID(c))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
