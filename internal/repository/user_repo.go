package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindCashierByPin(ctx context.Context, pin string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	AddPoints(ctx context.Context, id uuid.UUID, points int) error
	SpendPoints(ctx context.Context, id uuid.UUID, points int) (bool, error)
	DeductPointsClamped(ctx context.Context, id uuid.UUID, points int) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindCashierByPin(ctx context.Context, pin string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "pin = ? AND role = ?", pin, model.RoleCashier).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

// AddPoints uses a row-level increment so concurrent credits never lose
// updates.
func (r *userRepository) AddPoints(ctx context.Context, id uuid.UUID, points int) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

// SpendPoints decrements the balance only when it actually covers the cost.
// Returns false when the guard rejects the debit, which keeps the stored
// balance non-negative even when two redemptions race past the service-level
// balance check.
func (r *userRepository) SpendPoints(ctx context.Context, id uuid.UUID, points int) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.User{}).
		Where("id = ? AND loyalty_points >= ?", id, points).
		Update("loyalty_points", gorm.Expr("loyalty_points - ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeductPointsClamped subtracts points, flooring the stored balance at zero.
// The clamp is evaluated inside the UPDATE so a stale application-side read
// can never push the balance negative.
func (r *userRepository) DeductPointsClamped(ctx context.Context, id uuid.UUID, points int) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).
		Update("loyalty_points", gorm.Expr(
			"CASE WHEN loyalty_points >= ? THEN loyalty_points - ? ELSE 0 END", points, points)).Error
}
