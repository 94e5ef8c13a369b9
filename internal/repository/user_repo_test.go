package repository

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestClient(t *testing.T, users UserRepository, phone string, points int) *model.User {
	t.Helper()

	user := &model.User{Phone: &phone, Role: model.RoleClient, LoyaltyPoints: points, IsActive: true}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestAddPoints(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	user := createTestClient(t, users, "0900000010", 100)

	require.NoError(t, users.AddPoints(ctx, user.ID, 40))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 140, got.LoyaltyPoints)
}

func TestSpendPointsGuardsBalance(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	user := createTestClient(t, users, "0900000011", 100)

	ok, err := users.SpendPoints(ctx, user.ID, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	// 40 left: a second spend of 60 must refuse instead of going negative.
	ok, err = users.SpendPoints(ctx, user.ID, 60)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.LoyaltyPoints)
}

func TestDeductPointsClampedFloorsAtZero(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	user := createTestClient(t, users, "0900000013", 100)

	require.NoError(t, users.DeductPointsClamped(ctx, user.ID, 80))

	got, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.LoyaltyPoints)

	// The clamp is evaluated inside the UPDATE, so a second debit issued
	// against a stale balance read stops at zero instead of landing at -60.
	require.NoError(t, users.DeductPointsClamped(ctx, user.ID, 80))

	got, err = users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LoyaltyPoints)
}

func TestFindCashierByPinIgnoresOtherRoles(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	pin := "1234"
	phone := "0900000012"
	client := &model.User{Phone: &phone, Pin: &pin, Role: model.RoleClient, IsActive: true}
	require.NoError(t, users.Create(ctx, client))

	_, err := users.FindCashierByPin(ctx, pin)
	assert.Error(t, err)

	name := "till-1"
	cashier := &model.User{Username: &name, Pin: &pin, Role: model.RoleCashier, IsActive: true}
	require.NoError(t, users.Create(ctx, cashier))

	got, err := users.FindCashierByPin(ctx, pin)
	require.NoError(t, err)
	assert.Equal(t, cashier.ID, got.ID)
}
