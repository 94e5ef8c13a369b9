package repository

import (
	"context"

	"backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PointsConfigRepository interface {
	FindByAction(ctx context.Context, action string) (*model.PointsConfig, error)
	Upsert(ctx context.Context, config *model.PointsConfig) error
	List(ctx context.Context) ([]model.PointsConfig, error)
}

type pointsConfigRepository struct {
	db *gorm.DB
}

func NewPointsConfigRepository(db *gorm.DB) PointsConfigRepository {
	return &pointsConfigRepository{db: db}
}

func (r *pointsConfigRepository) FindByAction(ctx context.Context, action string) (*model.PointsConfig, error) {
	var config model.PointsConfig
	if err := GetDB(ctx, r.db).First(&config, "action = ?", action).Error; err != nil {
		return nil, err
	}
	return &config, nil
}

func (r *pointsConfigRepository) Upsert(ctx context.Context, config *model.PointsConfig) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "action"}},
		DoUpdates: clause.AssignmentColumns([]string{"points", "description", "is_active"}),
	}).Create(config).Error
}

func (r *pointsConfigRepository) List(ctx context.Context) ([]model.PointsConfig, error) {
	var configs []model.PointsConfig
	if err := GetDB(ctx, r.db).Order("action asc").Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}
