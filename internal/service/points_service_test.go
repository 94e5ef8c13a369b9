package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionForDuration(t *testing.T) {
	assert.Equal(t, model.ActionHourlyBooking, ActionForDuration(model.DurationHourly, false))
	assert.Equal(t, model.ActionDailyBooking, ActionForDuration(model.DurationDaily, false))
	assert.Equal(t, model.ActionMonthlyBooking, ActionForDuration(model.DurationMonthly, false))
	assert.Equal(t, model.ActionHourlyRenewal, ActionForDuration(model.DurationHourly, true))
	assert.Equal(t, model.ActionDailyRenewal, ActionForDuration(model.DurationDaily, true))
	assert.Equal(t, model.ActionMonthlyRenewal, ActionForDuration(model.DurationMonthly, true))
}

func TestPointsForActionDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, 10, env.points.PointsForAction(ctx, model.ActionHourlyBooking))
	assert.Equal(t, 500, env.points.PointsForAction(ctx, model.ActionDailyBooking))
	assert.Equal(t, 1000, env.points.PointsForAction(ctx, model.ActionMonthlyBooking))
	assert.Equal(t, 100, env.points.PointsForAction(ctx, model.ActionHourlyRenewal))
	assert.Equal(t, 300, env.points.PointsForAction(ctx, model.ActionDailyRenewal))
	assert.Equal(t, 800, env.points.PointsForAction(ctx, model.ActionMonthlyRenewal))

	// Unknown actions award nothing.
	assert.Zero(t, env.points.PointsForAction(ctx, "WEEKLY_BOOKING"))
}

func TestPointsConfigOverridesDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.points.UpsertConfig(ctx, PointsConfigRequest{
		Action: model.ActionHourlyBooking,
		Points: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, env.points.PointsForAction(ctx, model.ActionHourlyBooking))

	// Upsert replaces, never duplicates.
	_, err = env.points.UpsertConfig(ctx, PointsConfigRequest{
		Action: model.ActionHourlyBooking,
		Points: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, env.points.PointsForAction(ctx, model.ActionHourlyBooking))

	configs, err := env.points.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 1)

	// Deactivated rows fall back to the default table.
	inactive := false
	_, err = env.points.UpsertConfig(ctx, PointsConfigRequest{
		Action:   model.ActionHourlyBooking,
		Points:   40,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, env.points.PointsForAction(ctx, model.ActionHourlyBooking))
}

func TestAdjustPointsAdd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0903000001", 100)
	cashier := env.createCashier(t, "9001")

	res, err := env.points.AdjustPoints(ctx, cashier.ID.String(), AdjustPointsRequest{
		Phone:     "0903000001",
		Points:    50,
		Operation: "add",
		Reason:    "goodwill",
	})
	require.NoError(t, err)
	assert.Equal(t, 150, res.NewBalance)

	user, err := env.users.FindByID(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, user.LoyaltyPoints)
}

func TestAdjustPointsSubtractClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createClient(t, "0903000002", 30)
	cashier := env.createCashier(t, "9002")

	res, err := env.points.AdjustPoints(ctx, cashier.ID.String(), AdjustPointsRequest{
		Phone:     "0903000002",
		Points:    100,
		Operation: "subtract",
	})
	require.NoError(t, err)
	assert.Zero(t, res.NewBalance)
}

func TestAdjustPointsUnknownPhone(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.createCashier(t, "9003")

	_, err := env.points.AdjustPoints(context.Background(), cashier.ID.String(), AdjustPointsRequest{
		Phone:     "0000000000",
		Points:    10,
		Operation: "add",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNotFound, de.Code)
}

func TestAdjustPointsRejectsNonClients(t *testing.T) {
	env := newTestEnv(t)
	cashier := env.createCashier(t, "9004")
	phone := "0903000003"
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", cashier.ID).Update("phone", phone).Error)

	_, err := env.points.AdjustPoints(context.Background(), cashier.ID.String(), AdjustPointsRequest{
		Phone:     phone,
		Points:    10,
		Operation: "add",
	})
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, de.Code)
}
