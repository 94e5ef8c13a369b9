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

type OfficeHandler struct {
	officeService service.OfficeService
	subService    service.SubscriptionService
}

func NewOfficeHandler(officeService service.OfficeService, subService service.SubscriptionService) *OfficeHandler {
	return &OfficeHandler{officeService: officeService, subService: subService}
}

func (h *OfficeHandler) RegisterRoutes(router *gin.RouterGroup) {
	offices := router.Group("/api/offices")
	offices.Use(middleware.RequireRole(model.RoleClient, model.RoleCashier, model.RoleAdmin))
	{
		offices.GET("", h.ListOffices)
		offices.GET("/:id/occupancy", h.GetOccupancy)
	}
}

// ListOffices returns the office catalog with per-tier prices and discounts
// @Summary      List offices
// @Description  Returns available offices with pricing tiers, display discounts and current occupancy
// @Tags         offices
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/offices [get]
func (h *OfficeHandler) ListOffices(c *gin.Context) {
	params := pagination.Parse(c)

	offices, total, err := h.officeService.ListForClients(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve offices: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"offices":    offices,
		"pagination": pagination.NewMeta(params, total),
	}))
}

// GetOccupancy reports who occupies an office and until when
// @Summary      Get office occupancy
// @Tags         offices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Office ID"
// @Success      200  {object}  response.Response{data=service.OccupancyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/offices/{id}/occupancy [get]
func (h *OfficeHandler) GetOccupancy(c *gin.Context) {
	occ, err := h.subService.CurrentOccupant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, occ))
}
