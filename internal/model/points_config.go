package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Loyalty action keys: {DURATION}_{BOOKING|RENEWAL}
const (
	ActionHourlyBooking  = "HOURLY_BOOKING"
	ActionDailyBooking   = "DAILY_BOOKING"
	ActionMonthlyBooking = "MONTHLY_BOOKING"
	ActionHourlyRenewal  = "HOURLY_RENEWAL"
	ActionDailyRenewal   = "DAILY_RENEWAL"
	ActionMonthlyRenewal = "MONTHLY_RENEWAL"
)

// DefaultPoints is the static fallback table used when no active
// PointsConfig row matches an action. Unknown actions award nothing.
var DefaultPoints = map[string]int{
	ActionHourlyBooking:  10,
	ActionDailyBooking:   500,
	ActionMonthlyBooking: 1000,
	ActionHourlyRenewal:  100,
	ActionDailyRenewal:   300,
	ActionMonthlyRenewal: 800,
}

// PointsConfig maps an action key to its point award. Admin-managed; the
// ledger only honors rows with IsActive set.
type PointsConfig struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"action"`
	Points      int       `gorm:"not null" json:"points"`
	Description string    `gorm:"type:text" json:"description"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *PointsConfig) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
