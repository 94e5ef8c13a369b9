package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	redemptionService service.RedemptionService
}

func NewRewardHandler(redemptionService service.RedemptionService) *RewardHandler {
	return &RewardHandler{redemptionService: redemptionService}
}

func (h *RewardHandler) RegisterRoutes(router *gin.RouterGroup) {
	rewards := router.Group("/api/rewards")
	rewards.Use(middleware.RequireRole(model.RoleClient, model.RoleCashier, model.RoleAdmin))
	{
		rewards.GET("", h.ListRewards)
	}

	redemptions := router.Group("/api/redemptions")
	redemptions.Use(middleware.RequireRole(model.RoleClient))
	{
		redemptions.POST("", h.Redeem)
	}
}

// ListRewards returns the active reward catalog
// @Summary      List rewards
// @Tags         rewards
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.RewardListing}
// @Router       /api/rewards [get]
func (h *RewardHandler) ListRewards(c *gin.Context) {
	rewards, err := h.redemptionService.ListRewards(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve rewards: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rewards))
}

// Redeem spends loyalty points on a reward
// @Summary      Redeem reward
// @Description  Spends points on a reward. Physical rewards return a short-lived QR payload for the cashier; time extensions are applied to the active subscription immediately.
// @Tags         rewards
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RedeemRequest  true  "Redeem Payload"
// @Success      201      {object}  response.Response{data=service.RedeemResponse}
// @Failure      400      {object}  response.Response "Insufficient points"
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/redemptions [post]
func (h *RewardHandler) Redeem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.redemptionService.Redeem(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}
