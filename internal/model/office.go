package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Office is a bookable unit. The four standard tiers are always set; renewal
// tiers are optional and fall back to the standard tier when absent. The
// "previous" tiers exist only so the UI can show a strike-through discount —
// they never affect a charged amount.
type Office struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OfficeNumber string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"office_number"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Capacity     int       `gorm:"not null;default:1" json:"capacity"`

	PricePerHour  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_hour"`
	PricePerDay   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_day"`
	PricePerWeek  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_week"`
	PricePerMonth decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price_per_month"`

	RenewalPricePerHour  *decimal.Decimal `gorm:"type:decimal(18,4)" json:"renewal_price_per_hour"`
	RenewalPricePerDay   *decimal.Decimal `gorm:"type:decimal(18,4)" json:"renewal_price_per_day"`
	RenewalPricePerWeek  *decimal.Decimal `gorm:"type:decimal(18,4)" json:"renewal_price_per_week"`
	RenewalPricePerMonth *decimal.Decimal `gorm:"type:decimal(18,4)" json:"renewal_price_per_month"`

	PreviousPricePerHour  *decimal.Decimal `gorm:"type:decimal(18,4)" json:"previous_price_per_hour"`
	PreviousPricePerDay   *decimal.Decimal `gorm:"type:decimal(18,4)" json:"previous_price_per_day"`
	PreviousPricePerMonth *decimal.Decimal `gorm:"type:decimal(18,4)" json:"previous_price_per_month"`

	IsAvailable bool      `gorm:"not null;default:true;index" json:"is_available"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Office) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
