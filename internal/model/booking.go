package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingStatus enum constants
const (
	BookingPending   = "PENDING"
	BookingPaid      = "PAID"
	BookingCancelled = "CANCELLED"
)

// Duration enum constants
const (
	DurationHourly  = "HOURLY"
	DurationDaily   = "DAILY"
	DurationMonthly = "MONTHLY"
)

// PendingBookingTTL is how long a PENDING booking stays confirmable before
// the sweeper (or the confirmation path itself) deletes it.
const PendingBookingTTL = 10 * time.Minute

// Booking is a reservation attempt awaiting cashier confirmation. The
// booking code doubles as the payment QR payload the client presents.
type Booking struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BookingCode string          `gorm:"type:varchar(8);uniqueIndex;not null" json:"booking_code"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OfficeID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"office_id"`
	Office      *Office         `gorm:"foreignKey:OfficeID" json:"office,omitempty"`
	Duration    string          `gorm:"type:varchar(10);not null" json:"duration"` // HOURLY, DAILY, MONTHLY
	StartTime   time.Time       `gorm:"not null" json:"start_time"`
	EndTime     time.Time       `gorm:"not null" json:"end_time"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_price"`
	Status      string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	IsRenewal   bool            `gorm:"not null;default:false" json:"is_renewal"`
	Purpose     string          `gorm:"type:text" json:"purpose"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ExpiresAt is the deadline after which the booking can no longer be confirmed.
func (b *Booking) ExpiresAt() time.Time {
	return b.CreatedAt.Add(PendingBookingTTL)
}
