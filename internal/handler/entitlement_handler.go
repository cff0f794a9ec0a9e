package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type EntitlementHandler struct {
	entitlementService service.EntitlementService
}

func NewEntitlementHandler(entitlementService service.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{entitlementService: entitlementService}
}

func (h *EntitlementHandler) RegisterRoutes(router *gin.RouterGroup) {
	grants := router.Group("/api/entitlements")
	{
		grants.GET("", middleware.RequireAuth(), h.ListGrants)
		grants.POST("/reconcile", middleware.RequireRole(model.RoleAdmin), h.Reconcile)
	}
}

type reconcileRequest struct {
	Plan                  string `json:"plan" binding:"required"`
	SkipIfRecentlyUpdated *bool  `json:"skip_if_recently_updated"`
	ForceUpdate           bool   `json:"force_update"`
}

// Reconcile applies the plan's entitlement matrix to the caller's tenant
// @Summary      Reconcile entitlements
// @Tags         entitlements
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  reconcileRequest  true  "Reconcile payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/entitlements/reconcile [post]
func (h *EntitlementHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	opts := service.DefaultReconcileOptions()
	if req.SkipIfRecentlyUpdated != nil {
		opts.SkipIfRecentlyUpdated = *req.SkipIfRecentlyUpdated
	}
	opts.ForceUpdate = req.ForceUpdate

	actorID := middleware.CurrentUserID(c)
	result, err := h.entitlementService.Reconcile(c.Request.Context(), middleware.CurrentTenantID(c), req.Plan, opts, &actorID)
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListGrants lists the caller tenant's entitlement grants
// @Summary      List entitlement grants
// @Tags         entitlements
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/entitlements [get]
func (h *EntitlementHandler) ListGrants(c *gin.Context) {
	grants, err := h.entitlementService.ListGrants(c.Request.Context(), middleware.CurrentTenantID(c))
	if err != nil {
		status := apperr.HTTPStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, grants))
}
