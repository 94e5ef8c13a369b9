package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RewardType enum constants
const (
	RewardPhysical      = "PHYSICAL"
	RewardTimeExtension = "TIME_EXTENSION"
)

// TimeUnit enum constants for TIME_EXTENSION rewards
const (
	TimeUnitHours = "HOURS"
	TimeUnitDays  = "DAYS"
)

// RedemptionStatus enum constants
const (
	RedemptionPending  = "PENDING"
	RedemptionRedeemed = "REDEEMED"
)

// RedemptionCodeTTL is the validity window of a physical-reward QR code.
const RedemptionCodeTTL = 3 * time.Minute

// LoyaltyReward is a catalog entry clients can spend points on. PHYSICAL
// rewards are handed over by a cashier against a time-boxed code;
// TIME_EXTENSION rewards are applied straight to the active subscription.
type LoyaltyReward struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	PointsCost  int       `gorm:"not null" json:"points_cost"`
	Type        string    `gorm:"type:varchar(20);not null;default:'PHYSICAL'" json:"type"`
	TimeValue   *int      `json:"time_value"`                         // TIME_EXTENSION only
	TimeUnit    *string   `gorm:"type:varchar(10)" json:"time_unit"`  // HOURS or DAYS
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *LoyaltyReward) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ExtensionDelta converts the reward's time value into a duration. Zero for
// non-extension rewards.
func (r *LoyaltyReward) ExtensionDelta() time.Duration {
	if r.Type != RewardTimeExtension || r.TimeValue == nil || r.TimeUnit == nil {
		return 0
	}
	switch *r.TimeUnit {
	case TimeUnitHours:
		return time.Duration(*r.TimeValue) * time.Hour
	case TimeUnitDays:
		return time.Duration(*r.TimeValue) * 24 * time.Hour
	}
	return 0
}

// Redemption records a reward claim. Points are deducted when the claim is
// created, not when the cashier confirms it: an expired PENDING claim has
// already cost the client its points.
type Redemption struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	RewardID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"reward_id"`
	Reward       *LoyaltyReward `gorm:"foreignKey:RewardID" json:"reward,omitempty"`
	PointsUsed   int            `gorm:"not null" json:"points_used"`
	Status       string         `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	QRCode       *string        `gorm:"type:text" json:"qr_code"` // JSON payload, PHYSICAL only
	QRCodeExpiry *time.Time     `gorm:"index" json:"qr_code_expiry"`
	RedeemedAt   *time.Time     `json:"redeemed_at"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *Redemption) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ShortCode is the human-readable code cashiers key in: the last 8 hex
// characters of the id, uppercased.
func (r *Redemption) ShortCode() string {
	s := strings.ReplaceAll(r.ID.String(), "-", "")
	if len(s) > 8 {
		s = s[len(s)-8:]
	}
	return strings.ToUpper(s)
}
