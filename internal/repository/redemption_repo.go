package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RedemptionRepository interface {
	Create(ctx context.Context, redemption *model.Redemption) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Redemption, error)
	MarkRedeemed(ctx context.Context, id uuid.UUID, redeemedAt time.Time) error
	ListPendingUnexpired(ctx context.Context, now time.Time) ([]model.Redemption, error)
	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

type redemptionRepository struct {
	db *gorm.DB
}

func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *model.Redemption) error {
	return GetDB(ctx, r.db).Create(redemption).Error
}

func (r *redemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	var redemption model.Redemption
	if err := GetDB(ctx, r.db).First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *redemptionRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	var redemption model.Redemption
	if err := GetDB(ctx, r.db).Preload("User").Preload("Reward").
		First(&redemption, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &redemption, nil
}

func (r *redemptionRepository) MarkRedeemed(ctx context.Context, id uuid.UUID, redeemedAt time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Redemption{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.RedemptionRedeemed,
			"redeemed_at": redeemedAt,
		}).Error
}

// ListPendingUnexpired returns claims a cashier can still confirm: PENDING
// with a QR code that has not passed its expiry.
func (r *redemptionRepository) ListPendingUnexpired(ctx context.Context, now time.Time) ([]model.Redemption, error) {
	var redemptions []model.Redemption
	if err := GetDB(ctx, r.db).Preload("User").Preload("Reward").
		Where("status = ? AND qr_code_expiry >= ?", model.RedemptionPending, now).
		Order("created_at desc").Find(&redemptions).Error; err != nil {
		return nil, err
	}
	return redemptions, nil
}

func (r *redemptionRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("status = ? AND qr_code_expiry < ?", model.RedemptionPending, now).
		Delete(&model.Redemption{})
	return res.RowsAffected, res.Error
}
