package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type OccupancyResponse struct {
	OfficeID      string  `json:"office_id"`
	Occupied      bool    `json:"occupied"`
	OccupantName  *string `json:"occupant_name,omitempty"`
	OccupantPhone *string `json:"occupant_phone,omitempty"`
	OccupiedUntil *string `json:"occupied_until,omitempty"`
}

type SubscriptionResponse struct {
	ID           string `json:"id"`
	OfficeID     string `json:"office_id"`
	OfficeName   string `json:"office_name"`
	OfficeNumber string `json:"office_number"`
	Duration     string `json:"duration"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	TotalPrice   string `json:"total_price"`
	Status       string `json:"status"`
	ClientName   string `json:"client_name,omitempty"`
	ClientPhone  string `json:"client_phone,omitempty"`
}

// --- Interface ---

// SubscriptionService owns the authoritative "who occupies this office,
// until when" view. The booking and redemption flows mutate subscriptions
// inside their own transactions; everything read-only about occupancy goes
// through here.
type SubscriptionService interface {
	CurrentOccupant(ctx context.Context, officeID string) (*OccupancyResponse, error)
	ListOccupancy(ctx context.Context) ([]SubscriptionResponse, error)
	ListActiveForUser(ctx context.Context, userID string) ([]SubscriptionResponse, error)
	ExpireStale(ctx context.Context) (int64, error)
}

type subscriptionService struct {
	subRepo repository.SubscriptionRepository
}

func NewSubscriptionService(subRepo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{subRepo: subRepo}
}

// --- Implementation ---

func (s *subscriptionService) CurrentOccupant(ctx context.Context, officeID string) (*OccupancyResponse, error) {
	id, err := uuid.Parse(officeID)
	if err != nil {
		return nil, validationErr("invalid office id: %s", officeID)
	}

	sub, err := s.subRepo.FindOccupant(ctx, id, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &OccupancyResponse{OfficeID: officeID, Occupied: false}, nil
		}
		return nil, err
	}

	resp := &OccupancyResponse{OfficeID: officeID, Occupied: true}
	until := sub.EndDate.Format(time.RFC3339)
	resp.OccupiedUntil = &until
	if sub.User != nil {
		name := sub.User.DisplayName()
		phone := sub.User.PhoneOrEmpty()
		resp.OccupantName = &name
		resp.OccupantPhone = &phone
	}
	return resp, nil
}

// ListOccupancy returns every current occupancy, soonest-ending first, for
// the cashier floor view.
func (s *subscriptionService) ListOccupancy(ctx context.Context) ([]SubscriptionResponse, error) {
	subs, err := s.subRepo.ListCurrent(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	result := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, toSubscriptionResponse(&subs[i]))
	}
	return result, nil
}

func (s *subscriptionService) ListActiveForUser(ctx context.Context, userID string) ([]SubscriptionResponse, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, validationErr("invalid user id: %s", userID)
	}

	subs, err := s.subRepo.ListActiveForUser(ctx, id, time.Now())
	if err != nil {
		return nil, err
	}
	result := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		result = append(result, toSubscriptionResponse(&subs[i]))
	}
	return result, nil
}

// ExpireStale flips ACTIVE rows whose term has passed to EXPIRED. Occupancy
// queries filter by date anyway, so this only keeps listings honest.
func (s *subscriptionService) ExpireStale(ctx context.Context) (int64, error) {
	return s.subRepo.MarkExpired(ctx, time.Now())
}

func toSubscriptionResponse(sub *model.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		ID:         sub.ID.String(),
		OfficeID:   sub.OfficeID.String(),
		Duration:   sub.Duration,
		StartDate:  sub.StartDate.Format(time.RFC3339),
		EndDate:    sub.EndDate.Format(time.RFC3339),
		TotalPrice: sub.TotalPrice.StringFixed(2),
		Status:     sub.Status,
	}
	if sub.Office != nil {
		resp.OfficeName = sub.Office.Name
		resp.OfficeNumber = sub.Office.OfficeNumber
	}
	if sub.User != nil {
		resp.ClientName = sub.User.DisplayName()
		resp.ClientPhone = sub.User.PhoneOrEmpty()
	}
	return resp
}
