package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfficeRepository interface {
	Create(ctx context.Context, office *model.Office) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Office, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Office, error)
	List(ctx context.Context, onlyAvailable bool, page, limit int) ([]model.Office, int64, error)
}

type officeRepository struct {
	db *gorm.DB
}

func NewOfficeRepository(db *gorm.DB) OfficeRepository {
	return &officeRepository{db: db}
}

func (r *officeRepository) Create(ctx context.Context, office *model.Office) error {
	return GetDB(ctx, r.db).Create(office).Error
}

func (r *officeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Office, error) {
	var office model.Office
	if err := GetDB(ctx, r.db).First(&office, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &office, nil
}

// FindByIDForUpdate takes a row lock on the office. Confirmation
// transactions lock the office before the occupancy re-check so two
// concurrent confirmations for the same office serialize even when the
// office is currently free (no subscription row exists to lock yet).
func (r *officeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Office, error) {
	var office model.Office
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("id = ?", id).First(&office).Error; err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *officeRepository) List(ctx context.Context, onlyAvailable bool, page, limit int) ([]model.Office, int64, error) {
	var offices []model.Office
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Office{})
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("office_number asc").Offset(offset).Limit(limit).Find(&offices).Error; err != nil {
		return nil, 0, err
	}

	return offices, total, nil
}
