package service

import (
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
)

// PackageType is the closed set of bookable packages clients pick from.
// Parsing happens once at the request boundary; everything past it switches
// exhaustively on the value, so an unknown package is a validation error
// rather than a silent hourly fallback.
type PackageType string

const (
	PackageHour  PackageType = "hour"
	PackageDay   PackageType = "day"
	PackageMonth PackageType = "month"
)

// ParsePackageType accepts both the booking form values (hour/day/month)
// and the renewal form values (hourly/daily/monthly).
func ParsePackageType(s string) (PackageType, error) {
	switch s {
	case "hour", "hourly":
		return PackageHour, nil
	case "day", "daily":
		return PackageDay, nil
	case "month", "monthly":
		return PackageMonth, nil
	}
	return "", validationErr("invalid package type %q: must be hour, day or month", s)
}

// Duration returns the storage enum for the package.
func (p PackageType) Duration() string {
	switch p {
	case PackageHour:
		return model.DurationHourly
	case PackageDay:
		return model.DurationDaily
	default:
		return model.DurationMonthly
	}
}

// Delta is the booked time span. The month is a fixed 30 days, not
// calendar-aware.
func (p PackageType) Delta() time.Duration {
	switch p {
	case PackageHour:
		return time.Hour
	case PackageDay:
		return 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// ResolvePrice returns the charge for booking the office with the given
// package. Renewals use the renewal tier when the office defines one and
// fall back to the standard tier otherwise. Pure function of catalog state.
func ResolvePrice(office *model.Office, pkg PackageType, isRenewal bool) decimal.Decimal {
	var standard decimal.Decimal
	var renewal *decimal.Decimal

	switch pkg {
	case PackageHour:
		standard, renewal = office.PricePerHour, office.RenewalPricePerHour
	case PackageDay:
		standard, renewal = office.PricePerDay, office.RenewalPricePerDay
	default:
		standard, renewal = office.PricePerMonth, office.RenewalPricePerMonth
	}

	if isRenewal && renewal != nil {
		return *renewal
	}
	return standard
}

// DiscountPercent derives the display discount from a previous price:
// round((previous-current)/previous*100) when previous > current, else 0.
// Display only; it never changes what is charged.
func DiscountPercent(previous *decimal.Decimal, current decimal.Decimal) int {
	if previous == nil || previous.LessThanOrEqual(current) || previous.IsZero() {
		return 0
	}
	pct := previous.Sub(current).Div(*previous).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}
