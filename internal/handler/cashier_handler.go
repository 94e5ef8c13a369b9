package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// CashierHandler is the counter-side surface: the pending queue, code
// lookups, payment and hand-over confirmations, manual point adjustments
// and the expiry sweeps.
type CashierHandler struct {
	bookingService    service.BookingService
	redemptionService service.RedemptionService
	pointsService     service.PointsService
	subService        service.SubscriptionService
}

func NewCashierHandler(
	bookingService service.BookingService,
	redemptionService service.RedemptionService,
	pointsService service.PointsService,
	subService service.SubscriptionService,
) *CashierHandler {
	return &CashierHandler{
		bookingService:    bookingService,
		redemptionService: redemptionService,
		pointsService:     pointsService,
		subService:        subService,
	}
}

func (h *CashierHandler) RegisterRoutes(router *gin.RouterGroup) {
	cashier := router.Group("/api/cashier")
	cashier.Use(middleware.RequireRole(model.RoleCashier, model.RoleAdmin))
	{
		cashier.GET("/queue", h.GetPendingQueue)
		cashier.GET("/bookings/:code", h.GetBookingByCode)
		cashier.POST("/bookings/:id/confirm", h.ConfirmPayment)
		cashier.POST("/redemptions/:id/confirm", h.ConfirmRedemption)
		cashier.POST("/loyalty/adjust", h.AdjustPoints)
		cashier.GET("/occupancy", h.ListOccupancy)
		cashier.DELETE("/bookings/expired", h.SweepExpiredBookings)
		cashier.DELETE("/redemptions/expired", h.SweepExpiredRedemptions)
	}
}

// GetPendingQueue lists bookings awaiting payment and redemptions awaiting hand-over
// @Summary      Get pending queue
// @Description  Merged list of unexpired PENDING bookings and physical redemptions, newest first, with minutes remaining until each lapses
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.PendingQueueItem}
// @Router       /api/cashier/queue [get]
func (h *CashierHandler) GetPendingQueue(c *gin.Context) {
	items, err := h.bookingService.PendingQueue(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve pending queue: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, items))
}

// GetBookingByCode resolves a scanned or typed booking code
// @Summary      Find booking by code
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Param        code  path      string  true  "8-character booking code"
// @Success      200   {object}  response.Response{data=service.PendingQueueItem}
// @Failure      404   {object}  response.Response
// @Router       /api/cashier/bookings/{code} [get]
func (h *CashierHandler) GetBookingByCode(c *gin.Context) {
	item, err := h.bookingService.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// ConfirmPayment converts a PENDING booking into an active or extended subscription
// @Summary      Confirm payment
// @Description  Marks the booking PAID, creates or extends the subscription, and awards loyalty points, all atomically. Fails if the office got occupied or the booking lapsed in the meantime.
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=service.PaymentConfirmation}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response "Already processed, or office occupied"
// @Failure      410  {object}  response.Response "Booking expired unconfirmed"
// @Router       /api/cashier/bookings/{id}/confirm [post]
func (h *CashierHandler) ConfirmPayment(c *gin.Context) {
	cashierID, ok := currentUserID(c)
	if !ok {
		return
	}

	confirmation, err := h.bookingService.ConfirmPayment(c.Request.Context(), cashierID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, confirmation))
}

// ConfirmRedemption completes a physical reward hand-over
// @Summary      Confirm redemption
// @Description  Marks a PENDING physical redemption REDEEMED after the cashier scans the client's QR code. Fails if the code already expired.
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Redemption ID"
// @Success      200  {object}  response.Response{data=service.RedemptionConfirmation}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      410  {object}  response.Response "QR code expired"
// @Router       /api/cashier/redemptions/{id}/confirm [post]
func (h *CashierHandler) ConfirmRedemption(c *gin.Context) {
	cashierID, ok := currentUserID(c)
	if !ok {
		return
	}

	confirmation, err := h.redemptionService.ConfirmPhysical(c.Request.Context(), cashierID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, confirmation))
}

// AdjustPoints applies a manual loyalty adjustment to a client account
// @Summary      Adjust loyalty points
// @Description  Adds or subtracts points on a client account looked up by phone. Subtractions clamp at zero.
// @Tags         cashier
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AdjustPointsRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=service.AdjustPointsResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/cashier/loyalty/adjust [post]
func (h *CashierHandler) AdjustPoints(c *gin.Context) {
	cashierID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.pointsService.AdjustPoints(c.Request.Context(), cashierID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// ListOccupancy returns every current subscription across the floor
// @Summary      List occupancy
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.SubscriptionResponse}
// @Router       /api/cashier/occupancy [get]
func (h *CashierHandler) ListOccupancy(c *gin.Context) {
	subs, err := h.subService.ListOccupancy(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve occupancy: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, subs))
}

// SweepExpiredBookings deletes PENDING bookings past their confirmation window
// @Summary      Sweep expired bookings
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/cashier/bookings/expired [delete]
func (h *CashierHandler) SweepExpiredBookings(c *gin.Context) {
	cashierID, ok := currentUserID(c)
	if !ok {
		return
	}

	removed, err := h.bookingService.SweepExpiredBookings(c.Request.Context(), cashierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to sweep bookings: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": removed}))
}

// SweepExpiredRedemptions deletes PENDING redemptions whose QR codes lapsed
// @Summary      Sweep expired redemptions
// @Tags         cashier
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/cashier/redemptions/expired [delete]
func (h *CashierHandler) SweepExpiredRedemptions(c *gin.Context) {
	cashierID, ok := currentUserID(c)
	if !ok {
		return
	}

	removed, err := h.redemptionService.SweepExpired(c.Request.Context(), cashierID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to sweep redemptions: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"removed": removed}))
}
