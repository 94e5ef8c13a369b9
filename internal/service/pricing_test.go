package service

import (
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageType(t *testing.T) {
	for _, form := range []string{"hour", "hourly"} {
		pkg, err := ParsePackageType(form)
		require.NoError(t, err)
		assert.Equal(t, PackageHour, pkg)
	}
	for _, form := range []string{"day", "daily"} {
		pkg, err := ParsePackageType(form)
		require.NoError(t, err)
		assert.Equal(t, PackageDay, pkg)
	}
	for _, form := range []string{"month", "monthly"} {
		pkg, err := ParsePackageType(form)
		require.NoError(t, err)
		assert.Equal(t, PackageMonth, pkg)
	}

	_, err := ParsePackageType("week")
	de, ok := AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeValidation, de.Code)
}

func TestPackageDelta(t *testing.T) {
	assert.Equal(t, time.Hour, PackageHour.Delta())
	assert.Equal(t, 24*time.Hour, PackageDay.Delta())
	assert.Equal(t, 30*24*time.Hour, PackageMonth.Delta())
}

func TestResolvePrice(t *testing.T) {
	renewalDay := decimal.NewFromInt(250)
	office := &model.Office{
		PricePerHour:       decimal.NewFromInt(50),
		PricePerDay:        decimal.NewFromInt(300),
		PricePerMonth:      decimal.NewFromInt(5000),
		RenewalPricePerDay: &renewalDay,
	}

	assert.True(t, ResolvePrice(office, PackageDay, false).Equal(decimal.NewFromInt(300)))
	assert.True(t, ResolvePrice(office, PackageDay, true).Equal(renewalDay))

	// No renewal tier defined: renewals pay the standard tier.
	assert.True(t, ResolvePrice(office, PackageHour, true).Equal(decimal.NewFromInt(50)))
	assert.True(t, ResolvePrice(office, PackageMonth, true).Equal(decimal.NewFromInt(5000)))
}

func TestDiscountPercent(t *testing.T) {
	prev := decimal.NewFromInt(100)
	assert.Equal(t, 25, DiscountPercent(&prev, decimal.NewFromInt(75)))
	assert.Equal(t, 0, DiscountPercent(&prev, decimal.NewFromInt(100)))
	assert.Equal(t, 0, DiscountPercent(&prev, decimal.NewFromInt(120)))
	assert.Equal(t, 0, DiscountPercent(nil, decimal.NewFromInt(75)))

	third := decimal.NewFromInt(90)
	assert.Equal(t, 33, DiscountPercent(&third, decimal.NewFromInt(60)))
}
