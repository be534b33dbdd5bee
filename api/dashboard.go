package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
)

// =============================================================================
// DASHBOARD
// =============================================================================

// GetDashboard returns the portfolio overview: totals, payments received
// this year and this month (up to as_of), and the clients needing attention.
// GET /api/dashboard?as_of=YYYY-MM-DD
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of (use YYYY-MM-DD or RFC 3339)", err)
		return
	}

	portfolio, err := h.Reporter.Portfolio(ctx, asOf)
	if err != nil {
		h.handleError(w, r, "Failed to evaluate portfolio", err)
		return
	}

	today := amc.DateOf(asOf)
	ytd, err := h.paidBetween(r, amc.StartOfYear(today.Year()), today)
	if err != nil {
		h.handleError(w, r, "Failed to sum payments", err)
		return
	}
	month, err := h.paidBetween(r, amc.StartOfMonth(today.Year(), today.Month()), today)
	if err != nil {
		h.handleError(w, r, "Failed to sum payments", err)
		return
	}

	policy := h.Reporter.Engine.Policy
	dto := DashboardDTO{
		AsOf:                  asOf.Format(time.RFC3339),
		ClientCount:           portfolio.Summary.ClientCount,
		AtRiskCount:           portfolio.Summary.AtRiskCount,
		TotalPaid:             portfolio.Summary.TotalPaid.InexactFloat64(),
		TotalConsumed:         portfolio.Summary.TotalConsumed.InexactFloat64(),
		TotalRemaining:        portfolio.Summary.TotalRemaining.InexactFloat64(),
		PaidYearToDate:        ytd.InexactFloat64(),
		PaidThisMonth:         month.InexactFloat64(),
		AtRiskClients:         atRiskClients(portfolio.Clients),
		ExpiryWindowDays:      policy.ExpiryWindowDays,
		LowHoursThresholdRate: policy.LowHoursThreshold.InexactFloat64(),
	}
	for _, s := range portfolio.Skipped {
		dto.Skipped = append(dto.Skipped, SkippedClientDTO{ClientID: string(s.ClientID), Error: s.Err.Error()})
	}

	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) paidBetween(r *http.Request, from, to amc.Date) (decimal.Decimal, error) {
	payments, err := h.Store.PaymentsBetween(r.Context(), from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amc.SumPayments(payments), nil
}

// atRiskClients lists flagged clients, critical first, then soonest expiry.
func atRiskClients(reports []amc.ClientReport) []AtRiskClientDTO {
	rows := []AtRiskClientDTO{}
	for _, rep := range reports {
		if !rep.Risk.IsAtRisk {
			continue
		}
		rows = append(rows, AtRiskClientDTO{
			ClientID:        string(rep.Client.ID),
			ProjectName:     rep.Client.ProjectName,
			AMCEndDate:      amc.FormatOptional(rep.Client.AMCEndDate),
			DaysUntilExpiry: rep.Risk.DaysUntilExpiry,
			HoursRemaining:  rep.Utilization.HoursRemaining.InexactFloat64(),
			Severity:        string(rep.Risk.Severity),
			Reasons:         rep.Risk.Reasons,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Severity != rows[j].Severity {
			return rows[i].Severity == string(amc.SeverityCritical)
		}
		return daysOrMax(rows[i].DaysUntilExpiry) < daysOrMax(rows[j].DaysUntilExpiry)
	})
	return rows
}

func daysOrMax(d *int) int {
	if d == nil {
		return int(^uint(0) >> 1)
	}
	return *d
}
