package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/repository"

	"gorm.io/gorm"
)

// --- DTOs ---

// OfficeListing is the client-facing catalog view: prices per tier with the
// display discount derived from the optional previous price. The discount is
// presentation only.
type OfficeListing struct {
	ID            string  `json:"id"`
	OfficeNumber  string  `json:"office_number"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Capacity      int     `json:"capacity"`
	PricePerHour  string  `json:"price_per_hour"`
	PricePerDay   string  `json:"price_per_day"`
	PricePerMonth string  `json:"price_per_month"`
	HourDiscount  int     `json:"hour_discount_percent"`
	DayDiscount   int     `json:"day_discount_percent"`
	MonthDiscount int     `json:"month_discount_percent"`
	IsAvailable   bool    `json:"is_available"`
	Occupied      bool    `json:"occupied"`
	OccupiedUntil *string `json:"occupied_until,omitempty"`
}

// --- Interface ---

// OfficeService serves the read side of the catalog. Catalog management
// itself is an admin concern outside this core.
type OfficeService interface {
	ListForClients(ctx context.Context, page, limit int) ([]OfficeListing, int64, error)
}

type officeService struct {
	officeRepo repository.OfficeRepository
	subRepo    repository.SubscriptionRepository
}

func NewOfficeService(officeRepo repository.OfficeRepository, subRepo repository.SubscriptionRepository) OfficeService {
	return &officeService{officeRepo: officeRepo, subRepo: subRepo}
}

// ListForClients lists available offices with occupancy state so the client
// UI can grey out occupied ones before a booking attempt is even made.
func (s *officeService) ListForClients(ctx context.Context, page, limit int) ([]OfficeListing, int64, error) {
	offices, total, err := s.officeRepo.List(ctx, true, page, limit)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	listings := make([]OfficeListing, 0, len(offices))
	for i := range offices {
		office := &offices[i]
		listing := OfficeListing{
			ID:            office.ID.String(),
			OfficeNumber:  office.OfficeNumber,
			Name:          office.Name,
			Description:   office.Description,
			Capacity:      office.Capacity,
			PricePerHour:  office.PricePerHour.StringFixed(2),
			PricePerDay:   office.PricePerDay.StringFixed(2),
			PricePerMonth: office.PricePerMonth.StringFixed(2),
			HourDiscount:  DiscountPercent(office.PreviousPricePerHour, office.PricePerHour),
			DayDiscount:   DiscountPercent(office.PreviousPricePerDay, office.PricePerDay),
			MonthDiscount: DiscountPercent(office.PreviousPricePerMonth, office.PricePerMonth),
			IsAvailable:   office.IsAvailable,
		}

		occupant, occErr := s.subRepo.FindOccupant(ctx, office.ID, now)
		if occErr == nil {
			listing.Occupied = true
			until := occupant.EndDate.Format(time.RFC3339)
			listing.OccupiedUntil = &until
		} else if !errors.Is(occErr, gorm.ErrRecordNotFound) {
			return nil, 0, occErr
		}

		listings = append(listings, listing)
	}
	return listings, total, nil
}
