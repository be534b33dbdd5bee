/*
risk.go - Contract risk classification

PURPOSE:
  Decides whether a client needs attention. Two independent signals:

  1. Expiring soon: the AMC ends within ExpiryWindowDays of asOf
       daysUntilExpiry = ceil((amcEndDate - asOf) / 1 day)
       expiringSoon    = 0 <= daysUntilExpiry <= window

  2. Low hours: less than LowHoursThreshold of the period budget is left
       ratio    = hoursRemaining / hoursAllocated   (1 when nothing is allocated)
       lowHours = ratio < threshold                  (strict)

  atRisk = expiringSoon OR lowHours

DETERMINISM:
  asOf is always passed in. The classifier never reads the clock, so the same
  inputs always produce the same verdict.

EXAMPLE:
  End date 45 days out, 15 of 100 hours left, default policy:
    daysUntilExpiry = 45  -> expiring soon
    ratio = 0.15          -> not low
    atRisk = true, severity = warning

SEE ALSO:
  - policy.go: ExpiryWindowDays, LowHoursThreshold
  - portfolio.go: Counts at-risk clients
*/
package amc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityWarning  Severity = "warning"  // one signal
	SeverityCritical Severity = "critical" // both signals
)

// RiskVerdict is the classification plus the numbers behind it.
type RiskVerdict struct {
	IsExpiringSoon bool
	IsLowHours     bool
	IsAtRisk       bool

	// IsExpired is informational: the end date has already passed.
	IsExpired bool

	// DaysUntilExpiry is nil when the client has no AMC end date.
	DaysUntilExpiry     *int
	HoursRemainingRatio decimal.Decimal

	Severity Severity
	Reasons  []string
}

// ClassifyRisk classifies with the default policy.
func ClassifyRisk(client Client, utilization UtilizationResult, asOf time.Time) RiskVerdict {
	return classifyRisk(DefaultPolicy(), client, utilization, asOf)
}

// ClassifyRisk classifies with the engine's window and threshold.
func (e *Engine) ClassifyRisk(client Client, utilization UtilizationResult, asOf time.Time) RiskVerdict {
	return classifyRisk(e.Policy, client, utilization, asOf)
}

func classifyRisk(p Policy, client Client, u UtilizationResult, asOf time.Time) RiskVerdict {
	var v RiskVerdict

	if client.AMCEndDate != nil {
		days := DaysUntil(*client.AMCEndDate, asOf)
		v.DaysUntilExpiry = &days
		v.IsExpiringSoon = days >= 0 && days <= p.ExpiryWindowDays
		v.IsExpired = days < 0
	}

	v.HoursRemainingRatio = decimal.NewFromInt(1)
	if u.HoursAllocated.IsPositive() {
		v.HoursRemainingRatio = u.HoursRemaining.Div(u.HoursAllocated)
	}
	v.IsLowHours = v.HoursRemainingRatio.LessThan(p.LowHoursThreshold)

	v.IsAtRisk = v.IsExpiringSoon || v.IsLowHours

	switch {
	case v.IsExpiringSoon && v.IsLowHours:
		v.Severity = SeverityCritical
	case v.IsAtRisk:
		v.Severity = SeverityWarning
	default:
		v.Severity = SeverityNone
	}

	if v.IsExpiringSoon {
		v.Reasons = append(v.Reasons, fmt.Sprintf("AMC expires in %d days", *v.DaysUntilExpiry))
	}
	if v.IsLowHours {
		v.Reasons = append(v.Reasons, fmt.Sprintf("only %s%% of allocated hours remain",
			v.HoursRemainingRatio.Mul(decimal.NewFromInt(100)).StringFixed(1)))
	}
	return v
}
