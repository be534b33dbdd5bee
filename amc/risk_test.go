package amc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/amc-portal/amc"
)

var march1 = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func clientEndingIn(days int) amc.Client {
	end := amc.DateOf(march1).AddDays(days)
	return amc.Client{ID: "c1", PaymentTerm: amc.TermMonthly, AMCEndDate: &end}
}

func utilization(allocated, remaining string) amc.UtilizationResult {
	return amc.UtilizationResult{
		HoursAllocated: dec(allocated),
		HoursRemaining: dec(remaining),
		HoursConsumed:  dec(allocated).Sub(dec(remaining)),
	}
}

// =============================================================================
// EXPIRY WINDOW TESTS
// =============================================================================

func TestClassifyRisk_ExpiryWindowBoundary(t *testing.T) {
	// GIVEN: Plenty of hours left
	// WHEN: The AMC ends exactly 60 days out vs 61 days out
	// THEN: 60 is inside the window, 61 is not

	healthy := utilization("100", "80")

	at60 := amc.ClassifyRisk(clientEndingIn(60), healthy, march1)
	assert.True(t, at60.IsExpiringSoon)
	assert.True(t, at60.IsAtRisk)
	require.NotNil(t, at60.DaysUntilExpiry)
	assert.Equal(t, 60, *at60.DaysUntilExpiry)

	at61 := amc.ClassifyRisk(clientEndingIn(61), healthy, march1)
	assert.False(t, at61.IsExpiringSoon)
	assert.False(t, at61.IsAtRisk)
	assert.Equal(t, amc.SeverityNone, at61.Severity)
}

func TestClassifyRisk_PartialDayRoundsUp(t *testing.T) {
	// GIVEN: asOf is noon, so 59.5 / 60.5 days remain
	// THEN: Counts are ceilinged to 60 and 61

	noon := march1.Add(12 * time.Hour)
	healthy := utilization("100", "80")

	v := amc.ClassifyRisk(clientEndingIn(60), healthy, noon)
	assert.Equal(t, 60, *v.DaysUntilExpiry)
	assert.True(t, v.IsExpiringSoon)

	v = amc.ClassifyRisk(clientEndingIn(61), healthy, noon)
	assert.Equal(t, 61, *v.DaysUntilExpiry)
	assert.False(t, v.IsExpiringSoon)
}

func TestClassifyRisk_EndsToday_ExpiringSoon(t *testing.T) {
	v := amc.ClassifyRisk(clientEndingIn(0), utilization("100", "80"), march1)

	assert.Equal(t, 0, *v.DaysUntilExpiry)
	assert.True(t, v.IsExpiringSoon)
	assert.False(t, v.IsExpired)
}

func TestClassifyRisk_AlreadyExpired_NotExpiringSoon(t *testing.T) {
	v := amc.ClassifyRisk(clientEndingIn(-3), utilization("100", "80"), march1)

	assert.Equal(t, -3, *v.DaysUntilExpiry)
	assert.False(t, v.IsExpiringSoon)
	assert.True(t, v.IsExpired)
}

func TestClassifyRisk_NoEndDate(t *testing.T) {
	v := amc.ClassifyRisk(amc.Client{ID: "c1"}, utilization("100", "80"), march1)

	assert.Nil(t, v.DaysUntilExpiry)
	assert.False(t, v.IsExpiringSoon)
	assert.False(t, v.IsAtRisk)
}

func TestClassifyRisk_IsDeterministic(t *testing.T) {
	c := clientEndingIn(45)
	u := utilization("100", "15")

	first := amc.ClassifyRisk(c, u, march1)
	second := amc.ClassifyRisk(c, u, march1)

	assert.Equal(t, first, second)
}

// =============================================================================
// LOW HOURS TESTS
// =============================================================================

func TestClassifyRisk_LowHoursBoundary(t *testing.T) {
	// GIVEN: 100 hours allocated, no end date
	// WHEN: Exactly 10 remain vs 9.9999 remain
	// THEN: 0.10 is not low (strict comparison), 0.099999 is low

	client := amc.Client{ID: "c1"}

	atThreshold := amc.ClassifyRisk(client, utilization("100", "10"), march1)
	assert.False(t, atThreshold.IsLowHours)
	assertDecimal(t, "0.1", atThreshold.HoursRemainingRatio)

	below := amc.ClassifyRisk(client, utilization("100", "9.9999"), march1)
	assert.True(t, below.IsLowHours)
	assert.True(t, below.IsAtRisk)
	assertDecimal(t, "0.099999", below.HoursRemainingRatio)
}

func TestClassifyRisk_OverConsumed_IsLow(t *testing.T) {
	v := amc.ClassifyRisk(amc.Client{ID: "c1"}, utilization("100", "-20"), march1)

	assert.True(t, v.IsLowHours)
	assertDecimal(t, "-0.2", v.HoursRemainingRatio)
}

func TestClassifyRisk_NothingAllocated_NotLow(t *testing.T) {
	v := amc.ClassifyRisk(amc.Client{ID: "c1"}, utilization("0", "0"), march1)

	assertDecimal(t, "1", v.HoursRemainingRatio)
	assert.False(t, v.IsLowHours)
}

// =============================================================================
// SEVERITY AND POLICY TESTS
// =============================================================================

func TestClassifyRisk_BothSignals_Critical(t *testing.T) {
	v := amc.ClassifyRisk(clientEndingIn(10), utilization("100", "5"), march1)

	assert.True(t, v.IsExpiringSoon)
	assert.True(t, v.IsLowHours)
	assert.Equal(t, amc.SeverityCritical, v.Severity)
	assert.Equal(t, []string{
		"AMC expires in 10 days",
		"only 5.0% of allocated hours remain",
	}, v.Reasons)
}

func TestClassifyRisk_OneSignal_Warning(t *testing.T) {
	v := amc.ClassifyRisk(amc.Client{ID: "c1"}, utilization("100", "5"), march1)

	assert.Equal(t, amc.SeverityWarning, v.Severity)
	assert.Len(t, v.Reasons, 1)
}

func TestEngineClassifyRisk_UsesPolicy(t *testing.T) {
	// GIVEN: A 90 day window and 20% threshold
	// THEN: 75 days out and 15% remaining are both flagged

	policy := amc.DefaultPolicy()
	policy.ExpiryWindowDays = 90
	policy.LowHoursThreshold = dec("0.20")
	engine := amc.NewEngine(policy)

	v := engine.ClassifyRisk(clientEndingIn(75), utilization("100", "15"), march1)

	assert.True(t, v.IsExpiringSoon)
	assert.True(t, v.IsLowHours)

	d := amc.ClassifyRisk(clientEndingIn(75), utilization("100", "15"), march1)
	assert.False(t, d.IsExpiringSoon)
	assert.False(t, d.IsLowHours)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, amc.DefaultPolicy().Validate())

	p := amc.DefaultPolicy()
	p.ExpiryWindowDays = -1
	assert.ErrorIs(t, p.Validate(), amc.ErrInvalidPolicy)

	p = amc.DefaultPolicy()
	p.LowHoursThreshold = dec("1.5")
	assert.ErrorIs(t, p.Validate(), amc.ErrInvalidPolicy)

	p = amc.DefaultPolicy()
	p.DefaultAnnualHours = dec("-1")
	assert.ErrorIs(t, p.Validate(), amc.ErrInvalidPolicy)
}
