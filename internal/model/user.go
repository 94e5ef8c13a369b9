package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole enum constants
const (
	RoleClient  = "CLIENT"
	RoleCashier = "CASHIER"
	RoleAdmin   = "ADMIN"
)

// User represents any actor in the system. The credential depends on the role:
// clients identify by phone, cashiers by PIN, admins by username/password.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Phone         *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone"`
	Username      *string    `gorm:"type:varchar(255);uniqueIndex" json:"username"`
	Password      *string    `gorm:"type:varchar(255)" json:"-"` // bcrypt hash, admins only
	Pin           *string    `gorm:"type:varchar(10)" json:"-"`  // cashiers only
	Role          string     `gorm:"type:varchar(20);not null;default:'CLIENT';index" json:"role"`
	LoyaltyPoints int        `gorm:"not null;default:0" json:"loyalty_points"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt   *time.Time `json:"last_login_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns the id application-side so the model works on any dialect.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName returns the best human-readable identifier for cashier screens.
func (u *User) DisplayName() string {
	if u.Username != nil && *u.Username != "" {
		return *u.Username
	}
	if u.Phone != nil && *u.Phone != "" {
		return *u.Phone
	}
	return u.ID.String()
}

// PhoneOrEmpty avoids nil checks at call sites that only display the phone.
func (u *User) PhoneOrEmpty() string {
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}
