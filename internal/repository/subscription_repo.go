package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	FindOccupant(ctx context.Context, officeID uuid.UUID, now time.Time) (*model.Subscription, error)
	FindOccupantForUpdate(ctx context.Context, officeID uuid.UUID, now time.Time) (*model.Subscription, error)
	FindActiveForUser(ctx context.Context, userID uuid.UUID, officeID *uuid.UUID, now time.Time) (*model.Subscription, error)
	FindActiveForUserForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*model.Subscription, error)
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Subscription, error)
	ListCurrent(ctx context.Context, now time.Time) ([]model.Subscription, error)
	Extend(ctx context.Context, id uuid.UUID, newEndDate time.Time, addedPrice decimal.Decimal) error
	ExtendEndDate(ctx context.Context, id uuid.UUID, newEndDate time.Time) error
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

// occupantQuery is the single definition of "occupied": ACTIVE and not yet
// past its end date. Both call sites (availability filtering and the
// confirmation-time conflict check) go through it.
func (r *subscriptionRepository) occupantQuery(ctx context.Context, officeID uuid.UUID, now time.Time) *gorm.DB {
	return GetDB(ctx, r.db).
		Where("office_id = ? AND status = ? AND end_date >= ?", officeID, model.SubscriptionActive, now)
}

func (r *subscriptionRepository) FindOccupant(ctx context.Context, officeID uuid.UUID, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.occupantQuery(ctx, officeID, now).Preload("User").
		Order("end_date desc").First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindOccupantForUpdate takes a row lock on the occupying subscription so the
// conflict re-check inside the confirmation transaction is consistent with
// the subscription insert. Two concurrent confirmations for the same office
// serialize here; the loser sees the winner's row.
func (r *subscriptionRepository) FindOccupantForUpdate(ctx context.Context, officeID uuid.UUID, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	if err := forUpdate(r.occupantQuery(ctx, officeID, now)).
		Order("end_date desc").First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveForUser(ctx context.Context, userID uuid.UUID, officeID *uuid.UUID, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	query := GetDB(ctx, r.db).Preload("Office").
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, model.SubscriptionActive, now)
	if officeID != nil {
		query = query.Where("office_id = ?", *officeID)
	}
	if err := query.Order("end_date desc").First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveForUserForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*model.Subscription, error) {
	var sub model.Subscription
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, model.SubscriptionActive, now).
		Order("end_date desc").First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := GetDB(ctx, r.db).Preload("Office").
		Where("user_id = ? AND status = ? AND end_date >= ?", userID, model.SubscriptionActive, now).
		Order("end_date desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriptionRepository) ListCurrent(ctx context.Context, now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := GetDB(ctx, r.db).Preload("User").Preload("Office").
		Where("status = ? AND end_date >= ?", model.SubscriptionActive, now).
		Order("end_date asc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Extend pushes the term forward and adds the renewal charge. Additive
// update on the existing row; never creates a new one.
func (r *subscriptionRepository) Extend(ctx context.Context, id uuid.UUID, newEndDate time.Time, addedPrice decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Subscription{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"end_date":    newEndDate,
			"total_price": gorm.Expr("total_price + ?", addedPrice),
		}).Error
}

// ExtendEndDate moves the term without charging, used by time-extension
// reward redemptions.
func (r *subscriptionRepository) ExtendEndDate(ctx context.Context, id uuid.UUID, newEndDate time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Subscription{}).Where("id = ?", id).
		Update("end_date", newEndDate).Error
}

// MarkExpired flips ACTIVE rows past their end date to EXPIRED. Occupancy
// queries already exclude them by date; this is bookkeeping hygiene.
func (r *subscriptionRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Subscription{}).
		Where("status = ? AND end_date < ?", model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}
