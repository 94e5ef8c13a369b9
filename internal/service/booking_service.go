package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const bookingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const bookingCodeLength = 8
const bookingCodeAttempts = 5

// --- DTOs ---

type CreateBookingRequest struct {
	OfficeID    string `json:"office_id" binding:"required"`
	PackageType string `json:"package_type" binding:"required"`
	Purpose     string `json:"purpose"`
}

type CreateRenewalRequest struct {
	OfficeID    string `json:"office_id"` // optional: defaults to the latest active subscription
	PackageType string `json:"package_type" binding:"required"`
}

type BookingCreatedResponse struct {
	BookingID   string `json:"booking_id"`
	BookingCode string `json:"booking_code"` // doubles as the payment QR payload
	OfficeName  string `json:"office_name"`
	Duration    string `json:"duration"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	TotalPrice  string `json:"total_price"`
	Status      string `json:"status"`
	IsRenewal   bool   `json:"is_renewal"`
	ExpiresAt   string `json:"expires_at"`
}

type SubscriptionSummary struct {
	ID        string `json:"id"`
	OfficeID  string `json:"office_id"`
	Duration  string `json:"duration"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	Extended  bool   `json:"extended"`
}

type PaymentConfirmation struct {
	BookingID    string              `json:"booking_id"`
	BookingCode  string              `json:"booking_code"`
	IsRenewal    bool                `json:"is_renewal"`
	ClientName   string              `json:"client_name"`
	ClientPhone  string              `json:"client_phone"`
	OfficeName   string              `json:"office_name"`
	OfficeNumber string              `json:"office_number"`
	Subscription SubscriptionSummary `json:"subscription"`
	PointsAdded  int                 `json:"points_added"`
	NewBalance   int                 `json:"new_balance"`
}

// PendingQueueItem is one entry on the cashier dashboard: either a booking
// awaiting payment or a physical redemption awaiting hand-over.
type PendingQueueItem struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"` // BOOKING or REWARD
	Code             string    `json:"code"`
	ClientName       string    `json:"client_name"`
	ClientPhone      string    `json:"client_phone"`
	OfficeName       string    `json:"office_name,omitempty"`
	OfficeNumber     string    `json:"office_number,omitempty"`
	RewardName       string    `json:"reward_name,omitempty"`
	PointsUsed       int       `json:"points_used,omitempty"`
	Duration         string    `json:"duration,omitempty"`
	TotalPrice       string    `json:"total_price,omitempty"`
	IsRenewal        bool      `json:"is_renewal,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	MinutesRemaining int       `json:"minutes_remaining"`
}

// --- Interface ---

// BookingService is the booking state machine: it creates PENDING
// reservations (new terms and renewals), converts them into subscriptions on
// cashier confirmation, and sweeps the ones that expire unconfirmed.
type BookingService interface {
	CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*BookingCreatedResponse, error)
	CreateRenewal(ctx context.Context, userID string, req CreateRenewalRequest) (*BookingCreatedResponse, error)
	ConfirmPayment(ctx context.Context, cashierID string, bookingID string) (*PaymentConfirmation, error)
	FindByCode(ctx context.Context, code string) (*PendingQueueItem, error)
	PendingQueue(ctx context.Context) ([]PendingQueueItem, error)
	SweepExpiredBookings(ctx context.Context, actorID string) (int64, error)
}

type bookingService struct {
	bookingRepo    repository.BookingRepository
	officeRepo     repository.OfficeRepository
	subRepo        repository.SubscriptionRepository
	userRepo       repository.UserRepository
	redemptionRepo repository.RedemptionRepository
	auditRepo      repository.AuditRepository
	points         PointsService
	txManager      repository.TransactionManager
	hub            *websocket.Hub
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	officeRepo repository.OfficeRepository,
	subRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	redemptionRepo repository.RedemptionRepository,
	auditRepo repository.AuditRepository,
	points PointsService,
	txManager repository.TransactionManager,
	hub *websocket.Hub,
) BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		officeRepo:     officeRepo,
		subRepo:        subRepo,
		userRepo:       userRepo,
		redemptionRepo: redemptionRepo,
		auditRepo:      auditRepo,
		points:         points,
		txManager:      txManager,
		hub:            hub,
	}
}

// --- Implementation ---

// CreateBooking creates a PENDING reservation for a new term. The occupancy
// check here is advisory (good UX, immediate rejection); the authoritative
// check happens again inside the confirmation transaction.
func (s *bookingService) CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*BookingCreatedResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, validationErr("invalid user id: %s", userID)
	}
	officeID, err := uuid.Parse(req.OfficeID)
	if err != nil {
		return nil, validationErr("invalid office id: %s", req.OfficeID)
	}
	pkg, err := ParsePackageType(req.PackageType)
	if err != nil {
		return nil, err
	}

	office, err := s.officeRepo.FindByID(ctx, officeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("office not found")
		}
		return nil, err
	}
	if !office.IsAvailable {
		return nil, conflictErr("office is not open for booking")
	}

	now := time.Now()
	if occupant, err := s.subRepo.FindOccupant(ctx, officeID, now); err == nil {
		return nil, occupiedErr(occupant.EndDate)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = fmt.Sprintf("%s package booking", pkg)
	}

	booking := &model.Booking{
		UserID:     uid,
		OfficeID:   officeID,
		Duration:   pkg.Duration(),
		StartTime:  now,
		EndTime:    now.Add(pkg.Delta()),
		TotalPrice: ResolvePrice(office, pkg, false),
		Status:     model.BookingPending,
		IsRenewal:  false,
		Purpose:    purpose,
	}

	if err := s.createWithFreshCode(ctx, booking); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionCreateBooking, booking.ID.String(), office.Name, map[string]interface{}{
		"booking_code": booking.BookingCode,
		"package":      string(pkg),
		"total_price":  booking.TotalPrice.String(),
	})
	s.notifyPending(ctx, booking, office)

	return toBookingCreated(booking, office), nil
}

// CreateRenewal creates a PENDING renewal reservation. The extension starts
// exactly where the current term ends, so unused time is never lost and the
// new window cannot overlap another client's by construction.
func (s *bookingService) CreateRenewal(ctx context.Context, userID string, req CreateRenewalRequest) (*BookingCreatedResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, validationErr("invalid user id: %s", userID)
	}
	pkg, err := ParsePackageType(req.PackageType)
	if err != nil {
		return nil, err
	}

	var officeID *uuid.UUID
	if req.OfficeID != "" {
		parsed, parseErr := uuid.Parse(req.OfficeID)
		if parseErr != nil {
			return nil, validationErr("invalid office id: %s", req.OfficeID)
		}
		officeID = &parsed
	}

	now := time.Now()
	sub, err := s.subRepo.FindActiveForUser(ctx, uid, officeID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, conflictErr("no active subscription to renew")
		}
		return nil, err
	}
	office := sub.Office
	if office == nil {
		office, err = s.officeRepo.FindByID(ctx, sub.OfficeID)
		if err != nil {
			return nil, err
		}
	}

	booking := &model.Booking{
		UserID:     uid,
		OfficeID:   sub.OfficeID,
		Duration:   pkg.Duration(),
		StartTime:  sub.EndDate,
		EndTime:    sub.EndDate.Add(pkg.Delta()),
		TotalPrice: ResolvePrice(office, pkg, true),
		Status:     model.BookingPending,
		IsRenewal:  true,
		Purpose:    fmt.Sprintf("%s package renewal", pkg),
	}

	if err := s.createWithFreshCode(ctx, booking); err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, userID, model.ActionCreateRenewal, booking.ID.String(), office.Name, map[string]interface{}{
		"booking_code": booking.BookingCode,
		"package":      string(pkg),
		"total_price":  booking.TotalPrice.String(),
		"extends_to":   booking.EndTime.Format(time.RFC3339),
	})
	s.notifyPending(ctx, booking, office)

	return toBookingCreated(booking, office), nil
}

// ConfirmPayment is the cashier action that turns a PENDING booking into an
// occupancy. All writes of a branch (booking status, points, subscription)
// commit or roll back together.
func (s *bookingService) ConfirmPayment(ctx context.Context, cashierID string, bookingID string) (*PaymentConfirmation, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, validationErr("invalid booking id: %s", bookingID)
	}

	booking, err := s.bookingRepo.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("booking not found")
		}
		return nil, err
	}

	if booking.Status == model.BookingPaid {
		return nil, stateErr("booking has already been confirmed")
	}
	if booking.Status == model.BookingCancelled {
		return nil, stateErr("booking was cancelled")
	}

	now := time.Now()
	if now.After(booking.ExpiresAt()) {
		// Expired on the spot: remove it and report the expiry, distinct
		// from not-found.
		if delErr := s.bookingRepo.Delete(ctx, booking.ID); delErr != nil {
			return nil, delErr
		}
		return nil, expiredErr("booking expired (older than %d minutes)", int(model.PendingBookingTTL.Minutes()))
	}

	action := ActionForDuration(booking.Duration, booking.IsRenewal)
	pointsToAdd := s.points.PointsForAction(ctx, action)

	var summary SubscriptionSummary
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if booking.IsRenewal {
			return s.confirmRenewal(txCtx, booking, pointsToAdd, now, &summary)
		}
		return s.confirmNewBooking(txCtx, booking, pointsToAdd, now, &summary)
	})
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, booking.UserID)
	if err != nil {
		return nil, err
	}

	writeAudit(ctx, s.auditRepo, cashierID, model.ActionConfirmPayment, booking.ID.String(), booking.BookingCode, map[string]interface{}{
		"is_renewal":   booking.IsRenewal,
		"points_added": pointsToAdd,
		"total_price":  booking.TotalPrice.String(),
	})
	s.hub.Notify(websocket.EventPaymentConfirmed, map[string]interface{}{
		"booking_id":   booking.ID.String(),
		"booking_code": booking.BookingCode,
	})

	confirmation := &PaymentConfirmation{
		BookingID:    booking.ID.String(),
		BookingCode:  booking.BookingCode,
		IsRenewal:    booking.IsRenewal,
		ClientName:   user.DisplayName(),
		ClientPhone:  user.PhoneOrEmpty(),
		Subscription: summary,
		PointsAdded:  pointsToAdd,
		NewBalance:   user.LoyaltyPoints,
	}
	if booking.Office != nil {
		confirmation.OfficeName = booking.Office.Name
		confirmation.OfficeNumber = booking.Office.OfficeNumber
	}
	return confirmation, nil
}

// confirmRenewal extends the client's current term. The target subscription
// is re-read under a row lock so a concurrent renewal or expiry cannot
// interleave between lookup and update.
func (s *bookingService) confirmRenewal(ctx context.Context, booking *model.Booking, pointsToAdd int, now time.Time, out *SubscriptionSummary) error {
	sub, err := s.subRepo.FindActiveForUserForUpdate(ctx, booking.UserID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conflictErr("no active subscription to renew")
		}
		return err
	}

	paid, err := s.bookingRepo.MarkPaid(ctx, booking.ID)
	if err != nil {
		return err
	}
	if !paid {
		return stateErr("booking has already been confirmed")
	}
	if err := s.userRepo.AddPoints(ctx, booking.UserID, pointsToAdd); err != nil {
		return err
	}
	if err := s.subRepo.Extend(ctx, sub.ID, booking.EndTime, booking.TotalPrice); err != nil {
		return err
	}

	*out = SubscriptionSummary{
		ID:        sub.ID.String(),
		OfficeID:  sub.OfficeID.String(),
		Duration:  sub.Duration,
		StartDate: sub.StartDate.Format(time.RFC3339),
		EndDate:   booking.EndTime.Format(time.RFC3339),
		Status:    sub.Status,
		Extended:  true,
	}
	return nil
}

// confirmNewBooking re-runs the occupancy check authoritatively. The office
// row is locked first: a FOR UPDATE read of a subscription that does not
// exist yet would not block a concurrent insert, the office row always
// exists and serializes the two confirmations.
func (s *bookingService) confirmNewBooking(ctx context.Context, booking *model.Booking, pointsToAdd int, now time.Time, out *SubscriptionSummary) error {
	if _, err := s.officeRepo.FindByIDForUpdate(ctx, booking.OfficeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("office not found")
		}
		return err
	}

	if occupant, err := s.subRepo.FindOccupant(ctx, booking.OfficeID, now); err == nil {
		return occupiedErr(occupant.EndDate)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	paid, err := s.bookingRepo.MarkPaid(ctx, booking.ID)
	if err != nil {
		return err
	}
	if !paid {
		return stateErr("booking has already been confirmed")
	}
	if err := s.userRepo.AddPoints(ctx, booking.UserID, pointsToAdd); err != nil {
		return err
	}

	sub := &model.Subscription{
		UserID:     booking.UserID,
		OfficeID:   booking.OfficeID,
		Duration:   booking.Duration,
		StartDate:  booking.StartTime,
		EndDate:    booking.EndTime,
		TotalPrice: booking.TotalPrice,
		Status:     model.SubscriptionActive,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		return err
	}

	*out = SubscriptionSummary{
		ID:        sub.ID.String(),
		OfficeID:  sub.OfficeID.String(),
		Duration:  sub.Duration,
		StartDate: sub.StartDate.Format(time.RFC3339),
		EndDate:   sub.EndDate.Format(time.RFC3339),
		Status:    sub.Status,
		Extended:  false,
	}
	return nil
}

func (s *bookingService) FindByCode(ctx context.Context, code string) (*PendingQueueItem, error) {
	booking, err := s.bookingRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("no booking with code %s", code)
		}
		return nil, err
	}
	item := bookingQueueItem(booking, time.Now())
	return &item, nil
}

// PendingQueue merges confirmable bookings and redemptions for the cashier
// dashboard, newest first.
func (s *bookingService) PendingQueue(ctx context.Context) ([]PendingQueueItem, error) {
	now := time.Now()

	bookings, err := s.bookingRepo.ListPendingSince(ctx, now.Add(-model.PendingBookingTTL))
	if err != nil {
		return nil, err
	}
	redemptions, err := s.redemptionRepo.ListPendingUnexpired(ctx, now)
	if err != nil {
		return nil, err
	}

	items := make([]PendingQueueItem, 0, len(bookings)+len(redemptions))
	for i := range bookings {
		items = append(items, bookingQueueItem(&bookings[i], now))
	}
	for i := range redemptions {
		items = append(items, redemptionQueueItem(&redemptions[i], now))
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// SweepExpiredBookings deletes PENDING bookings past the confirmation
// window. Idempotent and safe to call from any path.
func (s *bookingService) SweepExpiredBookings(ctx context.Context, actorID string) (int64, error) {
	deleted, err := s.bookingRepo.DeleteExpiredPending(ctx, time.Now().Add(-model.PendingBookingTTL))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		writeAudit(ctx, s.auditRepo, actorID, model.ActionSweepBookings, "", "", map[string]interface{}{
			"deleted": deleted,
		})
	}
	return deleted, nil
}

// --- Helpers ---

// createWithFreshCode persists the booking under a newly generated code,
// regenerating on collision. The unique index on booking_code is the
// backstop for the race between the availability probe and the insert.
// Only a duplicate-key error is worth a retry; anything else is a real
// failure and surfaces immediately.
func (s *bookingService) createWithFreshCode(ctx context.Context, booking *model.Booking) error {
	var lastErr error
	for attempt := 0; attempt < bookingCodeAttempts; attempt++ {
		code, err := generateBookingCode()
		if err != nil {
			return err
		}
		booking.BookingCode = code
		if lastErr = s.bookingRepo.Create(ctx, booking); lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create booking: %w", lastErr)
		}
	}
	return fmt.Errorf("failed to create booking: %w", lastErr)
}

func generateBookingCode() (string, error) {
	buf := make([]byte, bookingCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate booking code: %w", err)
	}
	for i, b := range buf {
		buf[i] = bookingCodeAlphabet[int(b)%len(bookingCodeAlphabet)]
	}
	return string(buf), nil
}

func (s *bookingService) notifyPending(ctx context.Context, booking *model.Booking, office *model.Office) {
	item := PendingQueueItem{
		ID:           booking.ID.String(),
		Type:         "BOOKING",
		Code:         booking.BookingCode,
		OfficeName:   office.Name,
		OfficeNumber: office.OfficeNumber,
		Duration:     booking.Duration,
		TotalPrice:   booking.TotalPrice.StringFixed(2),
		IsRenewal:    booking.IsRenewal,
		CreatedAt:    booking.CreatedAt,
	}
	s.hub.Notify(websocket.EventBookingPending, item)
}

func bookingQueueItem(b *model.Booking, now time.Time) PendingQueueItem {
	item := PendingQueueItem{
		ID:               b.ID.String(),
		Type:             "BOOKING",
		Code:             b.BookingCode,
		Duration:         b.Duration,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		IsRenewal:        b.IsRenewal,
		CreatedAt:        b.CreatedAt,
		MinutesRemaining: minutesRemaining(b.ExpiresAt(), now),
	}
	if b.User != nil {
		item.ClientName = b.User.DisplayName()
		item.ClientPhone = b.User.PhoneOrEmpty()
	}
	if b.Office != nil {
		item.OfficeName = b.Office.Name
		item.OfficeNumber = b.Office.OfficeNumber
	}
	return item
}

func redemptionQueueItem(r *model.Redemption, now time.Time) PendingQueueItem {
	item := PendingQueueItem{
		ID:         r.ID.String(),
		Type:       "REWARD",
		Code:       r.ShortCode(),
		PointsUsed: r.PointsUsed,
		CreatedAt:  r.CreatedAt,
	}
	if r.QRCodeExpiry != nil {
		item.MinutesRemaining = minutesRemaining(*r.QRCodeExpiry, now)
	}
	if r.User != nil {
		item.ClientName = r.User.DisplayName()
		item.ClientPhone = r.User.PhoneOrEmpty()
	}
	if r.Reward != nil {
		item.RewardName = r.Reward.Name
	}
	return item
}

func minutesRemaining(deadline, now time.Time) int {
	remaining := deadline.Sub(now).Minutes()
	if remaining < 0 {
		return 0
	}
	return int(math.Ceil(remaining))
}

func toBookingCreated(b *model.Booking, office *model.Office) *BookingCreatedResponse {
	return &BookingCreatedResponse{
		BookingID:   b.ID.String(),
		BookingCode: b.BookingCode,
		OfficeName:  office.Name,
		Duration:    b.Duration,
		StartTime:   b.StartTime.Format(time.RFC3339),
		EndTime:     b.EndTime.Format(time.RFC3339),
		TotalPrice:  b.TotalPrice.StringFixed(2),
		Status:      b.Status,
		IsRenewal:   b.IsRenewal,
		ExpiresAt:   b.ExpiresAt().Format(time.RFC3339),
	}
}
