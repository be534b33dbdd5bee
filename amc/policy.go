package amc

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY - Named, overridable business constants
// =============================================================================

// Defaults for the contract-health policy.
const (
	DefaultExpiryWindowDays = 60
	DefaultAnnualHours      = 2000
)

// DefaultLowHoursThreshold is 10% of the allocated hours.
var DefaultLowHoursThreshold = decimal.NewFromFloat(0.10)

// Policy holds the constants the engine applies. There is exactly one way to
// derive a client's yearly hours: the explicit HoursAssignedYear field, or
// DefaultAnnualHours when the field is absent.
type Policy struct {
	// ExpiryWindowDays flags contracts ending within this many days (inclusive).
	ExpiryWindowDays int

	// LowHoursThreshold flags clients whose remaining/allocated ratio is
	// strictly below this value.
	LowHoursThreshold decimal.Decimal

	// DefaultAnnualHours substitutes a missing HoursAssignedYear.
	DefaultAnnualHours decimal.Decimal

	// LenientPaymentTerms makes unknown terms fall back to the monthly
	// allocation instead of failing. Off by default.
	LenientPaymentTerms bool
}

// DefaultPolicy returns the 60 day / 10% / 2000 hour strict policy.
func DefaultPolicy() Policy {
	return Policy{
		ExpiryWindowDays:   DefaultExpiryWindowDays,
		LowHoursThreshold:  DefaultLowHoursThreshold,
		DefaultAnnualHours: decimal.NewFromInt(DefaultAnnualHours),
	}
}

// Validate rejects policies the engine cannot apply meaningfully.
func (p Policy) Validate() error {
	if p.ExpiryWindowDays < 0 {
		return fmt.Errorf("%w: expiry window %d days is negative", ErrInvalidPolicy, p.ExpiryWindowDays)
	}
	if p.LowHoursThreshold.IsNegative() || p.LowHoursThreshold.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: low hours threshold %s outside [0, 1]", ErrInvalidPolicy, p.LowHoursThreshold)
	}
	if p.DefaultAnnualHours.IsNegative() {
		return fmt.Errorf("%w: default annual hours %s is negative", ErrInvalidPolicy, p.DefaultAnnualHours)
	}
	return nil
}

// AnnualHours returns the client's yearly hour budget, substituting
// DefaultAnnualHours when none is configured.
func (p Policy) AnnualHours(c Client) decimal.Decimal {
	if c.HoursAssignedYear != nil {
		return *c.HoursAssignedYear
	}
	return p.DefaultAnnualHours
}
