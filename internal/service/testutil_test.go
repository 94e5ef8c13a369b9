package service

import (
	"context"
	"path/filepath"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestHub() *websocket.Hub {
	return websocket.NewHub()
}

// setupTestDB opens a throwaway sqlite database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

// testEnv wires the real repositories and services against a test database.
type testEnv struct {
	db          *gorm.DB
	users       repository.UserRepository
	offices     repository.OfficeRepository
	bookings    repository.BookingRepository
	subs        repository.SubscriptionRepository
	rewards     repository.RewardRepository
	redemptions repository.RedemptionRepository
	audits      repository.AuditRepository

	points     PointsService
	booking    BookingService
	sub        SubscriptionService
	office     OfficeService
	redemption RedemptionService
	auth       AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	hub := websocket.NewHub()

	env := &testEnv{
		db:          db,
		users:       repository.NewUserRepository(db),
		offices:     repository.NewOfficeRepository(db),
		bookings:    repository.NewBookingRepository(db),
		subs:        repository.NewSubscriptionRepository(db),
		rewards:     repository.NewRewardRepository(db),
		redemptions: repository.NewRedemptionRepository(db),
		audits:      repository.NewAuditRepository(db),
	}
	tx := repository.NewTransactionManager(db)

	env.points = NewPointsService(repository.NewPointsConfigRepository(db), env.users, env.audits, tx)
	env.booking = NewBookingService(env.bookings, env.offices, env.subs, env.users, env.redemptions, env.audits, env.points, tx, hub)
	env.sub = NewSubscriptionService(env.subs)
	env.office = NewOfficeService(env.offices, env.subs)
	env.redemption = NewRedemptionService(env.redemptions, env.rewards, env.users, env.subs, env.audits, tx, hub)
	env.auth = NewAuthService(env.users)
	return env
}

func (e *testEnv) createClient(t *testing.T, phone string, points int) *model.User {
	t.Helper()

	user := &model.User{
		Phone:         &phone,
		Role:          model.RoleClient,
		LoyaltyPoints: points,
		IsActive:      true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createCashier(t *testing.T, pin string) *model.User {
	t.Helper()

	name := "cashier-" + pin
	user := &model.User{
		Username: &name,
		Pin:      &pin,
		Role:     model.RoleCashier,
		IsActive: true,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createOffice(t *testing.T, number string) *model.Office {
	t.Helper()

	office := &model.Office{
		OfficeNumber:  number,
		Name:          "Office " + number,
		Capacity:      4,
		PricePerHour:  decimal.NewFromInt(50),
		PricePerDay:   decimal.NewFromInt(300),
		PricePerWeek:  decimal.NewFromInt(1500),
		PricePerMonth: decimal.NewFromInt(5000),
		IsAvailable:   true,
	}
	require.NoError(t, e.db.Create(office).Error)
	return office
}

func (e *testEnv) createPhysicalReward(t *testing.T, name string, cost int) *model.LoyaltyReward {
	t.Helper()

	reward := &model.LoyaltyReward{
		Name:       name,
		PointsCost: cost,
		Type:       model.RewardPhysical,
		IsActive:   true,
	}
	require.NoError(t, e.db.Create(reward).Error)
	return reward
}

func (e *testEnv) createExtensionReward(t *testing.T, name string, cost, value int, unit string) *model.LoyaltyReward {
	t.Helper()

	reward := &model.LoyaltyReward{
		Name:       name,
		PointsCost: cost,
		Type:       model.RewardTimeExtension,
		TimeValue:  &value,
		TimeUnit:   &unit,
		IsActive:   true,
	}
	require.NoError(t, e.db.Create(reward).Error)
	return reward
}

// bookAndConfirm runs the full happy path and returns the confirmation.
func (e *testEnv) bookAndConfirm(t *testing.T, client *model.User, cashier *model.User, officeID, pkg string) *PaymentConfirmation {
	t.Helper()

	created, err := e.booking.CreateBooking(context.Background(), client.ID.String(), CreateBookingRequest{
		OfficeID:    officeID,
		PackageType: pkg,
	})
	require.NoError(t, err)

	confirmation, err := e.booking.ConfirmPayment(context.Background(), cashier.ID.String(), created.BookingID)
	require.NoError(t, err)
	return confirmation
}
