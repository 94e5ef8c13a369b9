package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler covers back-office configuration: the loyalty points table,
// the audit trail, and the stale-subscription sweep.
type AdminHandler struct {
	pointsService service.PointsService
	auditService  service.AuditService
	subService    service.SubscriptionService
}

func NewAdminHandler(pointsService service.PointsService, auditService service.AuditService, subService service.SubscriptionService) *AdminHandler {
	return &AdminHandler{pointsService: pointsService, auditService: auditService, subService: subService}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/points-config", h.GetPointsConfig)
		admin.POST("/points-config", h.UpsertPointsConfig)
		admin.GET("/audit-logs", h.GetAuditLogs)
		admin.POST("/subscriptions/expire", h.ExpireStaleSubscriptions)
	}
}

// GetPointsConfig lists the configured point values per action
// @Summary      Get points configuration
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.PointsConfig}
// @Router       /api/admin/points-config [get]
func (h *AdminHandler) GetPointsConfig(c *gin.Context) {
	configs, err := h.pointsService.ListConfigs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve points configuration: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, configs))
}

// UpsertPointsConfig sets the point value for a booking or renewal action
// @Summary      Upsert points configuration
// @Description  Creates or updates the point award for one action. Inactive entries fall back to the built-in defaults.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PointsConfigRequest  true  "Points Config Payload"
// @Success      200      {object}  response.Response{data=model.PointsConfig}
// @Failure      400      {object}  response.Response
// @Router       /api/admin/points-config [post]
func (h *AdminHandler) UpsertPointsConfig(c *gin.Context) {
	var req service.PointsConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	cfg, err := h.pointsService.UpsertConfig(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cfg))
}

// GetAuditLogs retrieves the paginated audit trail
// @Summary      Get audit logs
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/admin/audit-logs [get]
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve audit logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"logs":       logs,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// ExpireStaleSubscriptions marks ACTIVE subscriptions past their end date EXPIRED
// @Summary      Expire stale subscriptions
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/admin/subscriptions/expire [post]
func (h *AdminHandler) ExpireStaleSubscriptions(c *gin.Context) {
	updated, err := h.subService.ExpireStale(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to expire subscriptions: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"updated": updated}))
}
