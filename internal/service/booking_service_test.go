package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000001", 0)
	office := env.createOffice(t, "A101")

	res, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, res.Status)
	assert.Len(t, res.BookingCode, 8)
	assert.Equal(t, model.DurationHourly, res.Duration)
	assert.Equal(t, "50.00", res.TotalPrice)
	assert.False(t, res.IsRenewal)

	stored, err := env.bookings.FindByCode(ctx, res.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, stored.Status)
	assert.WithinDuration(t, stored.StartTime.Add(time.Hour), stored.EndTime, time.Second)
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000002", 0)
	office := env.createOffice(t, "A102")

	_, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "fortnight",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, de.Code)

	_, err = env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    "00000000-0000-0000-0000-000000000099",
		PackageType: "hour",
	})
	de, ok = AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, de.Code)
}

func TestCreateBookingUnavailableOffice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000003", 0)
	office := env.createOffice(t, "A103")
	require.NoError(t, env.db.Model(office).Update("is_available", false).Error)

	_, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "day",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeConflict, de.Code)
}

func TestCreateBookingOccupiedOffice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	occupant := env.createClient(t, "0901000004", 0)
	client := env.createClient(t, "0901000005", 0)
	cashier := env.createCashier(t, "1111")
	office := env.createOffice(t, "A104")

	env.bookAndConfirm(t, occupant, cashier, office.ID.String(), "day")

	_, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeConflict, de.Code)
	require.NotNil(t, de.OccupiedUntil)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), *de.OccupiedUntil, 5*time.Second)
}

func TestConfirmPaymentCreatesSubscriptionAndAwardsPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000006", 0)
	cashier := env.createCashier(t, "2222")
	office := env.createOffice(t, "A105")

	confirmation := env.bookAndConfirm(t, client, cashier, office.ID.String(), "month")

	assert.False(t, confirmation.IsRenewal)
	assert.Equal(t, model.DefaultPoints[model.ActionMonthlyBooking], confirmation.PointsAdded)
	assert.Equal(t, model.DefaultPoints[model.ActionMonthlyBooking], confirmation.NewBalance)
	assert.Equal(t, model.SubscriptionActive, confirmation.Subscription.Status)

	sub, err := env.subs.FindOccupant(ctx, office.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, client.ID, sub.UserID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), sub.EndDate, 5*time.Second)

	user, err := env.users.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPoints[model.ActionMonthlyBooking], user.LoyaltyPoints)
}

func TestConfirmPaymentTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000007", 0)
	cashier := env.createCashier(t, "3333")
	office := env.createOffice(t, "A106")

	created, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)

	_, err = env.booking.ConfirmPayment(ctx, cashier.ID.String(), created.BookingID)
	require.NoError(t, err)

	_, err = env.booking.ConfirmPayment(ctx, cashier.ID.String(), created.BookingID)
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeState, de.Code)
}

func TestConfirmPaymentLosesOccupancyRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createClient(t, "0901000008", 0)
	second := env.createClient(t, "0901000009", 0)
	cashier := env.createCashier(t, "4444")
	office := env.createOffice(t, "A107")

	// Both clients reserve while the office is free.
	b1, err := env.booking.CreateBooking(ctx, first.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "day",
	})
	require.NoError(t, err)
	b2, err := env.booking.CreateBooking(ctx, second.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "day",
	})
	require.NoError(t, err)

	_, err = env.booking.ConfirmPayment(ctx, cashier.ID.String(), b1.BookingID)
	require.NoError(t, err)

	// The second confirmation must fail the authoritative re-check.
	_, err = env.booking.ConfirmPayment(ctx, cashier.ID.String(), b2.BookingID)
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeConflict, de.Code)
	assert.NotNil(t, de.OccupiedUntil)

	// The loser's booking and points are untouched.
	loser, err := env.users.FindByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Zero(t, loser.LoyaltyPoints)
}

func TestConfirmPaymentExpiredBookingIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000010", 0)
	cashier := env.createCashier(t, "5555")
	office := env.createOffice(t, "A108")

	created, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)

	// Age the booking past the confirmation window.
	require.NoError(t, env.db.Model(&model.Booking{}).
		Where("id = ?", created.BookingID).
		Update("created_at", time.Now().Add(-model.PendingBookingTTL-time.Minute)).Error)

	_, err = env.booking.ConfirmPayment(ctx, cashier.ID.String(), created.BookingID)
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeExpired, de.Code)

	// Gone, not just flagged.
	_, err = env.bookings.FindByCode(ctx, created.BookingCode)
	assert.Error(t, err)

	// No subscription was created and no points were awarded.
	_, err = env.subs.FindOccupant(ctx, office.ID, time.Now())
	assert.Error(t, err)
	user, err := env.users.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Zero(t, user.LoyaltyPoints)
}

func TestCreateRenewalStartsAtTermEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000011", 0)
	cashier := env.createCashier(t, "6666")
	office := env.createOffice(t, "A109")

	env.bookAndConfirm(t, client, cashier, office.ID.String(), "day")
	sub, err := env.subs.FindOccupant(ctx, office.ID, time.Now())
	require.NoError(t, err)

	renewal, err := env.booking.CreateRenewal(ctx, client.ID.String(), CreateRenewalRequest{
		PackageType: "daily",
	})
	require.NoError(t, err)
	assert.True(t, renewal.IsRenewal)

	stored, err := env.bookings.FindByCode(ctx, renewal.BookingCode)
	require.NoError(t, err)
	assert.WithinDuration(t, sub.EndDate, stored.StartTime, time.Second)
	assert.WithinDuration(t, sub.EndDate.Add(24*time.Hour), stored.EndTime, time.Second)
}

func TestCreateRenewalWithoutSubscription(t *testing.T) {
	env := newTestEnv(t)
	client := env.createClient(t, "0901000012", 0)

	_, err := env.booking.CreateRenewal(context.Background(), client.ID.String(), CreateRenewalRequest{
		PackageType: "hourly",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeConflict, de.Code)
}

func TestConfirmRenewalExtendsExistingSubscription(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000013", 0)
	cashier := env.createCashier(t, "7777")
	office := env.createOffice(t, "A110")

	env.bookAndConfirm(t, client, cashier, office.ID.String(), "day")
	before, err := env.subs.FindOccupant(ctx, office.ID, time.Now())
	require.NoError(t, err)

	renewal, err := env.booking.CreateRenewal(ctx, client.ID.String(), CreateRenewalRequest{
		PackageType: "daily",
	})
	require.NoError(t, err)

	confirmation, err := env.booking.ConfirmPayment(ctx, cashier.ID.String(), renewal.BookingID)
	require.NoError(t, err)
	assert.True(t, confirmation.IsRenewal)
	assert.True(t, confirmation.Subscription.Extended)
	assert.Equal(t, before.ID.String(), confirmation.Subscription.ID)

	// Still one subscription row, pushed forward a full day and with the
	// renewal charge folded into the running total.
	var count int64
	require.NoError(t, env.db.Model(&model.Subscription{}).Where("user_id = ?", client.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	after, err := env.subs.FindOccupant(ctx, office.ID, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, before.EndDate.Add(24*time.Hour), after.EndDate, time.Second)
	assert.True(t, after.TotalPrice.Equal(before.TotalPrice.Add(office.PricePerDay)),
		"total price %s should be %s", after.TotalPrice, before.TotalPrice.Add(office.PricePerDay))

	user, err := env.users.FindByID(ctx, client.ID)
	require.NoError(t, err)
	expected := model.DefaultPoints[model.ActionDailyBooking] + model.DefaultPoints[model.ActionDailyRenewal]
	assert.Equal(t, expected, user.LoyaltyPoints)
}

// flakyBookingRepo fails its first Creates with scripted errors, then
// delegates to the real repository.
type flakyBookingRepo struct {
	repository.BookingRepository
	errs  []error
	calls int
}

func (f *flakyBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return f.BookingRepository.Create(ctx, booking)
}

func TestCreateBookingRetriesOnCodeCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000030", 0)
	office := env.createOffice(t, "A130")

	flaky := &flakyBookingRepo{
		BookingRepository: env.bookings,
		errs:              []error{gorm.ErrDuplicatedKey, gorm.ErrDuplicatedKey},
	}
	svc := NewBookingService(
		flaky, env.offices, env.subs, env.users,
		env.redemptions, env.audits, env.points,
		repository.NewTransactionManager(env.db), newTestHub(),
	)

	res, err := svc.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)
	assert.Len(t, res.BookingCode, 8)
	assert.Equal(t, 3, flaky.calls)
}

func TestCreateBookingSurfacesNonCollisionErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000031", 0)
	office := env.createOffice(t, "A131")

	flaky := &flakyBookingRepo{
		BookingRepository: env.bookings,
		errs:              []error{errors.New("connection reset")},
	}
	svc := NewBookingService(
		flaky, env.offices, env.subs, env.users,
		env.redemptions, env.audits, env.points,
		repository.NewTransactionManager(env.db), newTestHub(),
	)

	_, err := svc.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.Error(t, err)

	// Only duplicate codes are worth a retry, anything else fails fast.
	assert.Equal(t, 1, flaky.calls)
}

// failingSubRepo makes subscription creation blow up mid-transaction.
type failingSubRepo struct {
	repository.SubscriptionRepository
}

func (f *failingSubRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return errors.New("storage failure")
}

func TestConfirmPaymentRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000014", 0)
	cashier := env.createCashier(t, "8888")
	office := env.createOffice(t, "A111")

	hubless := NewBookingService(
		env.bookings, env.offices, &failingSubRepo{env.subs}, env.users,
		env.redemptions, env.audits, env.points,
		repository.NewTransactionManager(env.db), newTestHub(),
	)

	created, err := hubless.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "month",
	})
	require.NoError(t, err)

	_, err = hubless.ConfirmPayment(ctx, cashier.ID.String(), created.BookingID)
	require.Error(t, err)

	// Nothing from the branch may have stuck: booking stays PENDING and
	// the award was rolled back with it.
	stored, err := env.bookings.FindByCode(ctx, created.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, stored.Status)

	user, err := env.users.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Zero(t, user.LoyaltyPoints)
}

func TestSweepExpiredBookings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000015", 0)
	office := env.createOffice(t, "A112")

	stale, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)
	fresh, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "day",
	})
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Booking{}).
		Where("id = ?", stale.BookingID).
		Update("created_at", time.Now().Add(-model.PendingBookingTTL-time.Minute)).Error)

	removed, err := env.booking.SweepExpiredBookings(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = env.bookings.FindByCode(ctx, stale.BookingCode)
	assert.Error(t, err)
	_, err = env.bookings.FindByCode(ctx, fresh.BookingCode)
	assert.NoError(t, err)

	// Idempotent.
	removed, err = env.booking.SweepExpiredBookings(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestPendingQueueMergesBookingsAndRedemptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000016", 500)
	office := env.createOffice(t, "A113")
	reward := env.createPhysicalReward(t, "Tumbler", 200)

	_, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)
	_, err = env.redemption.Redeem(ctx, client.ID.String(), RedeemRequest{RewardID: reward.ID.String()})
	require.NoError(t, err)

	items, err := env.booking.PendingQueue(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	types := []string{items[0].Type, items[1].Type}
	assert.Contains(t, types, "BOOKING")
	assert.Contains(t, types, "REWARD")
	for _, item := range items {
		assert.Positive(t, item.MinutesRemaining)
		assert.NotEmpty(t, item.Code)
		assert.Equal(t, "0901000016", item.ClientPhone)
	}
}

func TestFindByCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0901000017", 0)
	office := env.createOffice(t, "A114")

	created, err := env.booking.CreateBooking(ctx, client.ID.String(), CreateBookingRequest{
		OfficeID:    office.ID.String(),
		PackageType: "hour",
	})
	require.NoError(t, err)

	item, err := env.booking.FindByCode(ctx, created.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, created.BookingID, item.ID)
	assert.Equal(t, office.Name, item.OfficeName)

	_, err = env.booking.FindByCode(ctx, "ZZZZ0000")
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, de.Code)
}
