package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardRepository interface {
	Create(ctx context.Context, reward *model.LoyaltyReward) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LoyaltyReward, error)
	ListActive(ctx context.Context) ([]model.LoyaltyReward, error)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) Create(ctx context.Context, reward *model.LoyaltyReward) error {
	return GetDB(ctx, r.db).Create(reward).Error
}

func (r *rewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.LoyaltyReward, error) {
	var reward model.LoyaltyReward
	if err := GetDB(ctx, r.db).First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *rewardRepository) ListActive(ctx context.Context) ([]model.LoyaltyReward, error) {
	var rewards []model.LoyaltyReward
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).
		Order("points_cost asc").Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}
