package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// BookingHandler serves the client-facing booking surface: creating new
// reservations and renewals, and listing the caller's active subscriptions.
// Payment confirmation lives on the cashier surface.
type BookingHandler struct {
	bookingService service.BookingService
	subService     service.SubscriptionService
}

func NewBookingHandler(bookingService service.BookingService, subService service.SubscriptionService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, subService: subService}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	bookings := router.Group("/api/bookings")
	bookings.Use(middleware.RequireRole(model.RoleClient))
	{
		bookings.POST("", h.CreateBooking)
		bookings.POST("/renewals", h.CreateRenewal)
	}

	subs := router.Group("/api/subscriptions")
	subs.Use(middleware.RequireRole(model.RoleClient))
	{
		subs.GET("", h.ListMySubscriptions)
	}
}

// CreateBooking reserves an office, pending cashier confirmation
// @Summary      Create booking
// @Description  Creates a PENDING booking for an office. The booking code must be presented to the cashier within 10 minutes or the reservation lapses.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBookingRequest  true  "Booking Payload"
// @Success      201      {object}  response.Response{data=service.BookingCreatedResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response "Office occupied; data carries occupied_until"
// @Router       /api/bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// CreateRenewal books an extension of the caller's active subscription
// @Summary      Create renewal
// @Description  Creates a PENDING renewal booking. The new term starts where the current subscription ends, whenever payment is confirmed.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateRenewalRequest  true  "Renewal Payload"
// @Success      201      {object}  response.Response{data=service.BookingCreatedResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/bookings/renewals [post]
func (h *BookingHandler) CreateRenewal(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req service.CreateRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	booking, err := h.bookingService.CreateRenewal(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, booking))
}

// ListMySubscriptions returns the caller's active subscriptions
// @Summary      List my subscriptions
// @Tags         subscriptions
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.SubscriptionResponse}
// @Router       /api/subscriptions [get]
func (h *BookingHandler) ListMySubscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	subs, err := h.subService.ListActiveForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve subscriptions: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, subs))
}
