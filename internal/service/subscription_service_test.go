package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentOccupant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0904000001", 0)
	cashier := env.createCashier(t, "7001")
	office := env.createOffice(t, "C301")

	// Free office: not an error, just unoccupied.
	occ, err := env.sub.CurrentOccupant(ctx, office.ID.String())
	require.NoError(t, err)
	assert.False(t, occ.Occupied)
	assert.Nil(t, occ.OccupiedUntil)

	env.bookAndConfirm(t, client, cashier, office.ID.String(), "day")

	occ, err = env.sub.CurrentOccupant(ctx, office.ID.String())
	require.NoError(t, err)
	assert.True(t, occ.Occupied)
	require.NotNil(t, occ.OccupantPhone)
	assert.Equal(t, "0904000001", *occ.OccupantPhone)
	require.NotNil(t, occ.OccupiedUntil)
}

func TestExpireStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0904000002", 0)
	office := env.createOffice(t, "C302")

	sub := &model.Subscription{
		UserID:     client.ID,
		OfficeID:   office.ID,
		Duration:   model.DurationHourly,
		StartDate:  time.Now().Add(-2 * time.Hour),
		EndDate:    time.Now().Add(-time.Hour),
		TotalPrice: decimal.NewFromInt(50),
		Status:     model.SubscriptionActive,
	}
	require.NoError(t, env.db.Create(sub).Error)

	updated, err := env.sub.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	var stored model.Subscription
	require.NoError(t, env.db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, model.SubscriptionExpired, stored.Status)

	// A lapsed term never counts as occupancy either way.
	occ, err := env.sub.CurrentOccupant(ctx, office.ID.String())
	require.NoError(t, err)
	assert.False(t, occ.Occupied)
}

func TestListActiveForUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0904000003", 0)
	cashier := env.createCashier(t, "7002")
	office := env.createOffice(t, "C303")

	env.bookAndConfirm(t, client, cashier, office.ID.String(), "month")

	subs, err := env.sub.ListActiveForUser(ctx, client.ID.String())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, office.Name, subs[0].OfficeName)
	assert.Equal(t, model.SubscriptionActive, subs[0].Status)

	other := env.createClient(t, "0904000004", 0)
	none, err := env.sub.ListActiveForUser(ctx, other.ID.String())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListOfficesForClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "0904000005", 0)
	cashier := env.createCashier(t, "7003")

	office := env.createOffice(t, "C304")
	prevHour := decimal.NewFromInt(100)
	require.NoError(t, env.db.Model(office).Update("previous_price_per_hour", prevHour).Error)

	closed := env.createOffice(t, "C305")
	require.NoError(t, env.db.Model(closed).Update("is_available", false).Error)

	env.bookAndConfirm(t, client, cashier, office.ID.String(), "day")

	listings, total, err := env.office.ListForClients(ctx, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, listings, 1)

	listing := listings[0]
	assert.Equal(t, "C304", listing.OfficeNumber)
	assert.Equal(t, 50, listing.HourDiscount) // 100 -> 50
	assert.Zero(t, listing.DayDiscount)
	assert.True(t, listing.Occupied)
	require.NotNil(t, listing.OccupiedUntil)
}
