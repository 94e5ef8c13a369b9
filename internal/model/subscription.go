package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SubscriptionStatus enum constants
const (
	SubscriptionActive    = "ACTIVE"
	SubscriptionExpired   = "EXPIRED"
	SubscriptionCancelled = "CANCELLED"
)

// Subscription is the authoritative occupancy record for an office. A
// renewal never creates a second row: it pushes EndDate forward on the
// existing ACTIVE row and adds the renewal charge to TotalPrice. Occupancy
// is always derived as status=ACTIVE AND end_date >= now.
type Subscription struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OfficeID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"office_id"`
	Office     *Office         `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
	Duration   string          `gorm:"type:varchar(10);not null" json:"duration"`
	StartDate  time.Time       `gorm:"not null" json:"start_date"`
	EndDate    time.Time       `gorm:"not null;index" json:"end_date"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Status     string          `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Occupying reports whether the subscription currently blocks the office.
func (s *Subscription) Occupying(now time.Time) bool {
	return s.Status == SubscriptionActive && !s.EndDate.Before(now)
}
