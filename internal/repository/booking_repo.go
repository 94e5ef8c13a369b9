package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	FindByCode(ctx context.Context, code string) (*model.Booking, error)
	MarkPaid(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListPendingSince(ctx context.Context, since time.Time) ([]model.Booking, error)
	DeleteExpiredPending(ctx context.Context, olderThan time.Time) (int64, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return GetDB(ctx, r.db).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("User").Preload("Office").
		First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByCode(ctx context.Context, code string) (*model.Booking, error) {
	var booking model.Booking
	if err := GetDB(ctx, r.db).Preload("User").Preload("Office").
		First(&booking, "booking_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// MarkPaid flips a PENDING booking to PAID as a compare-and-set. Returns
// false when the booking was not PENDING anymore, so two racing
// confirmations cannot both commit.
func (r *bookingRepository) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, model.BookingPending).
		Update("status", model.BookingPaid)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Booking{}, "id = ?", id).Error
}

// ListPendingSince returns PENDING bookings created after the cutoff, newest
// first, for the cashier queue.
func (r *bookingRepository) ListPendingSince(ctx context.Context, since time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := GetDB(ctx, r.db).Preload("User").Preload("Office").
		Where("status = ? AND created_at >= ?", model.BookingPending, since).
		Order("created_at desc").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) DeleteExpiredPending(ctx context.Context, olderThan time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("status = ? AND created_at < ?", model.BookingPending, olderThan).
		Delete(&model.Booking{})
	return res.RowsAffected, res.Error
}
