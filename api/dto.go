/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine and store types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Requests take hours and money as decimal.Decimal, which accepts both JSON
  numbers and quoted strings. Responses render them as float64 for the
  dashboard; the engine keeps full precision internally.

DATES:
  Calendar dates are YYYY-MM-DD. Timestamps are RFC 3339.

VALIDATION:
  Validation is done in handlers and the amc package, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - amc/engine.go: ClientReport
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/store/sqlite"
)

// =============================================================================
// ADMINS
// =============================================================================

// AdminDTO represents an admin in API responses.
type AdminDTO struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	ContactNumber string         `json:"contact_number,omitempty"`
	CreatedAt     string         `json:"created_at"`
	Roles         []AdminRoleDTO `json:"roles,omitempty"`
}

// AdminRoleDTO is a client an admin is a point of contact for.
type AdminRoleDTO struct {
	ClientID    string `json:"client_id"`
	ProjectName string `json:"project_name"`
	Role        string `json:"role"`
}

// AdminRequest creates or updates an admin.
type AdminRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
}

// AssignAdminRequest links an admin to a client.
type AssignAdminRequest struct {
	AdminID string `json:"admin_id"`
}

// =============================================================================
// CLIENTS
// =============================================================================

// ClientDTO represents a client in API responses.
type ClientDTO struct {
	ID                string   `json:"id"`
	ProjectName       string   `json:"project_name"`
	ProjectSlug       string   `json:"project_slug,omitempty"`
	ProjectURL        string   `json:"project_url,omitempty"`
	Domain            string   `json:"domain,omitempty"`
	LogoURL           string   `json:"logo_url,omitempty"`
	ContactName       string   `json:"contact_name,omitempty"`
	ContactEmail      string   `json:"contact_email,omitempty"`
	ContactNumber     string   `json:"contact_number,omitempty"`
	PrimaryPOC        string   `json:"primary_poc_id,omitempty"`
	SecondaryPOC      string   `json:"secondary_poc_id,omitempty"`
	CostForYear       float64  `json:"cost_for_year"`
	HoursAssignedYear *float64 `json:"hours_assigned_year"`
	PaymentTerm       string   `json:"payment_term"`
	AMCStartDate      string   `json:"amc_start_date,omitempty"`
	AMCEndDate        string   `json:"amc_end_date,omitempty"`
}

// ClientRequest creates or updates a client. Dates are YYYY-MM-DD.
type ClientRequest struct {
	ProjectName       string           `json:"project_name"`
	ProjectSlug       string           `json:"project_slug"`
	ProjectURL        string           `json:"project_url"`
	Domain            string           `json:"domain"`
	LogoURL           string           `json:"logo_url"`
	ContactName       string           `json:"contact_name"`
	ContactEmail      string           `json:"contact_email"`
	ContactNumber     string           `json:"contact_number"`
	PrimaryPOC        string           `json:"primary_poc_id"`
	SecondaryPOC      string           `json:"secondary_poc_id"`
	CostForYear       decimal.Decimal  `json:"cost_for_year"`
	HoursAssignedYear *decimal.Decimal `json:"hours_assigned_year"`
	PaymentTerm       string           `json:"payment_term"`
	AMCStartDate      string           `json:"amc_start_date"`
	AMCEndDate        string           `json:"amc_end_date"`
}

// =============================================================================
// REPORTS
// =============================================================================

// AllocationDTO is the per-term hour breakdown.
type AllocationDTO struct {
	PerMonth    float64 `json:"per_month"`
	PerQuarter  float64 `json:"per_quarter"`
	PerHalfYear float64 `json:"per_half_year"`
	PerYear     float64 `json:"per_year"`
	Term        string  `json:"term"`
	Active      float64 `json:"active"`
}

// UtilizationDTO is hours consumed against the active allocation.
type UtilizationDTO struct {
	HoursConsumed    float64 `json:"hours_consumed"`
	HoursAllocated   float64 `json:"hours_allocated"`
	HoursRemaining   float64 `json:"hours_remaining"`
	UtilizationRatio float64 `json:"utilization_ratio"`
	OverConsumed     bool    `json:"over_consumed"`
}

// FinancialDTO is payments against the yearly cost.
type FinancialDTO struct {
	CostForYear     float64 `json:"cost_for_year"`
	AmountPaid      float64 `json:"amount_paid"`
	AmountRemaining float64 `json:"amount_remaining"`
	PaidRatio       float64 `json:"paid_ratio"`
}

// RiskDTO is the contract-health verdict.
type RiskDTO struct {
	IsExpiringSoon      bool     `json:"is_expiring_soon"`
	IsLowHours          bool     `json:"is_low_hours"`
	IsAtRisk            bool     `json:"is_at_risk"`
	IsExpired           bool     `json:"is_expired"`
	DaysUntilExpiry     *int     `json:"days_until_expiry"`
	HoursRemainingRatio float64  `json:"hours_remaining_ratio"`
	Severity            string   `json:"severity"`
	Reasons             []string `json:"reasons"`
}

// ClientReportDTO is the full evaluation of one client.
type ClientReportDTO struct {
	Client      ClientDTO      `json:"client"`
	AsOf        string         `json:"as_of"`
	Scope       string         `json:"scope"`
	PeriodStart string         `json:"period_start,omitempty"`
	PeriodEnd   string         `json:"period_end,omitempty"`
	HoursSource string         `json:"hours_source"`
	Allocation  AllocationDTO  `json:"allocation"`
	Utilization UtilizationDTO `json:"utilization"`
	Financial   FinancialDTO   `json:"financial"`
	Risk        RiskDTO        `json:"risk"`
}

// AtRiskClientDTO is one row of the dashboard's attention table.
type AtRiskClientDTO struct {
	ClientID        string   `json:"client_id"`
	ProjectName     string   `json:"project_name"`
	AMCEndDate      string   `json:"amc_end_date,omitempty"`
	DaysUntilExpiry *int     `json:"days_until_expiry"`
	HoursRemaining  float64  `json:"hours_remaining"`
	Severity        string   `json:"severity"`
	Reasons         []string `json:"reasons"`
}

// SkippedClientDTO is a client the portfolio could not evaluate.
type SkippedClientDTO struct {
	ClientID string `json:"client_id"`
	Error    string `json:"error"`
}

// DashboardDTO is the portfolio overview.
type DashboardDTO struct {
	AsOf                  string             `json:"as_of"`
	ClientCount           int                `json:"client_count"`
	AtRiskCount           int                `json:"at_risk_count"`
	TotalPaid             float64            `json:"total_paid"`
	TotalConsumed         float64            `json:"total_consumed"`
	TotalRemaining        float64            `json:"total_remaining"`
	PaidYearToDate        float64            `json:"paid_year_to_date"`
	PaidThisMonth         float64            `json:"paid_this_month"`
	AtRiskClients         []AtRiskClientDTO  `json:"at_risk_clients"`
	Skipped               []SkippedClientDTO `json:"skipped,omitempty"`
	ExpiryWindowDays      int                `json:"expiry_window_days"`
	LowHoursThresholdRate float64            `json:"low_hours_threshold"`
}

// =============================================================================
// WORK LOGS, PAYMENTS, HOUR REQUESTS
// =============================================================================

// WorkLogDTO represents a work log in API responses.
type WorkLogDTO struct {
	ID            string  `json:"id"`
	ClientID      string  `json:"client_id"`
	Description   string  `json:"description"`
	HoursConsumed float64 `json:"hours_consumed"`
	Date          string  `json:"date"`
	StartDate     string  `json:"start_date,omitempty"`
	EndDate       string  `json:"end_date,omitempty"`
	Status        string  `json:"status"`
}

// WorkLogRequest creates or updates a work log.
type WorkLogRequest struct {
	Description   string          `json:"description"`
	HoursConsumed decimal.Decimal `json:"hours_consumed"`
	Date          string          `json:"date"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	Status        string          `json:"status"`
}

// WorkLogStatusRequest moves a work log to a new status.
type WorkLogStatusRequest struct {
	Status string `json:"status"`
}

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID          string  `json:"id"`
	ClientID    string  `json:"client_id"`
	AmountPaid  float64 `json:"amount_paid"`
	PaymentDate string  `json:"payment_date"`
	PaymentTerm string  `json:"payment_term,omitempty"`
}

// PaymentRequest records a payment.
type PaymentRequest struct {
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate string          `json:"payment_date"`
	PaymentTerm string          `json:"payment_term"`
}

// HourRequestDTO represents an hour request in API responses.
type HourRequestDTO struct {
	ID             string  `json:"id"`
	ClientID       string  `json:"client_id"`
	ProjectName    string  `json:"project_name,omitempty"`
	RequestedHours float64 `json:"requested_hours"`
	Reason         string  `json:"reason,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
	DecidedAt      string  `json:"decided_at,omitempty"`
}

// HourRequestRequest asks for extra hours.
type HourRequestRequest struct {
	RequestedHours decimal.Decimal `json:"requested_hours"`
	Reason         string          `json:"reason"`
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachmentDTO is the common shape of invoices, contracts and documents.
type AttachmentDTO struct {
	ID            string   `json:"id"`
	ClientID      string   `json:"client_id"`
	Kind          string   `json:"kind"`
	Title         string   `json:"title,omitempty"`
	Date          string   `json:"date"`
	InvoiceNumber string   `json:"invoice_number,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Description   string   `json:"description,omitempty"`
	DocumentType  string   `json:"document_type,omitempty"`
	HasFile       bool     `json:"has_file"`
}

// =============================================================================
// SCENARIOS, ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toAdminDTO(a sqlite.Admin) AdminDTO {
	return AdminDTO{
		ID:            string(a.ID),
		Name:          a.Name,
		Email:         a.Email,
		ContactNumber: a.ContactNumber,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toClientDTO(c amc.Client) ClientDTO {
	dto := ClientDTO{
		ID:            string(c.ID),
		ProjectName:   c.ProjectName,
		ProjectSlug:   c.ProjectSlug,
		ProjectURL:    c.ProjectURL,
		Domain:        c.Domain,
		LogoURL:       c.LogoURL,
		ContactName:   c.ContactName,
		ContactEmail:  c.ContactEmail,
		ContactNumber: c.ContactNumber,
		CostForYear:   c.CostForYear.InexactFloat64(),
		PaymentTerm:   string(c.PaymentTerm),
		AMCStartDate:  amc.FormatOptional(c.AMCStartDate),
		AMCEndDate:    amc.FormatOptional(c.AMCEndDate),
	}
	if c.PrimaryPOC != nil {
		dto.PrimaryPOC = string(*c.PrimaryPOC)
	}
	if c.SecondaryPOC != nil {
		dto.SecondaryPOC = string(*c.SecondaryPOC)
	}
	if c.HoursAssignedYear != nil {
		hours := c.HoursAssignedYear.InexactFloat64()
		dto.HoursAssignedYear = &hours
	}
	return dto
}

func toAllocationDTO(a amc.HourAllocation) AllocationDTO {
	return AllocationDTO{
		PerMonth:    a.PerMonth.InexactFloat64(),
		PerQuarter:  a.PerQuarter.InexactFloat64(),
		PerHalfYear: a.PerHalfYear.InexactFloat64(),
		PerYear:     a.PerYear.InexactFloat64(),
		Term:        string(a.Term),
		Active:      a.Active.InexactFloat64(),
	}
}

func toReportDTO(r amc.ScopedReport, asOf time.Time) ClientReportDTO {
	reasons := r.Risk.Reasons
	if reasons == nil {
		reasons = []string{}
	}

	dto := ClientReportDTO{
		Client:      toClientDTO(r.Client),
		AsOf:        asOf.Format(time.RFC3339),
		Scope:       string(r.Scope),
		HoursSource: string(r.HoursSource),
		Allocation:  toAllocationDTO(r.Allocation),
		Utilization: UtilizationDTO{
			HoursConsumed:    r.Utilization.HoursConsumed.InexactFloat64(),
			HoursAllocated:   r.Utilization.HoursAllocated.InexactFloat64(),
			HoursRemaining:   r.Utilization.HoursRemaining.InexactFloat64(),
			UtilizationRatio: r.Utilization.UtilizationRatio.InexactFloat64(),
			OverConsumed:     r.Utilization.IsOverConsumed(),
		},
		Financial: FinancialDTO{
			CostForYear:     r.Financial.CostForYear.InexactFloat64(),
			AmountPaid:      r.Financial.AmountPaid.InexactFloat64(),
			AmountRemaining: r.Financial.AmountRemaining.InexactFloat64(),
			PaidRatio:       r.Financial.PaidRatio.InexactFloat64(),
		},
		Risk: RiskDTO{
			IsExpiringSoon:      r.Risk.IsExpiringSoon,
			IsLowHours:          r.Risk.IsLowHours,
			IsAtRisk:            r.Risk.IsAtRisk,
			IsExpired:           r.Risk.IsExpired,
			DaysUntilExpiry:     r.Risk.DaysUntilExpiry,
			HoursRemainingRatio: r.Risk.HoursRemainingRatio.InexactFloat64(),
			Severity:            string(r.Risk.Severity),
			Reasons:             reasons,
		},
	}
	if r.Period != nil {
		dto.PeriodStart = r.Period.Start.String()
		dto.PeriodEnd = r.Period.End.String()
	}
	return dto
}

func toWorkLogDTO(w amc.WorkLogEntry) WorkLogDTO {
	return WorkLogDTO{
		ID:            string(w.ID),
		ClientID:      string(w.ClientID),
		Description:   w.Description,
		HoursConsumed: w.HoursConsumed.InexactFloat64(),
		Date:          w.Date.String(),
		StartDate:     amc.FormatOptional(w.StartDate),
		EndDate:       amc.FormatOptional(w.EndDate),
		Status:        string(w.Status),
	}
}

func toPaymentDTO(p amc.PaymentRecord) PaymentDTO {
	return PaymentDTO{
		ID:          string(p.ID),
		ClientID:    string(p.ClientID),
		AmountPaid:  p.AmountPaid.InexactFloat64(),
		PaymentDate: p.PaymentDate.String(),
		PaymentTerm: string(p.PaymentTerm),
	}
}

func toHourRequestDTO(r sqlite.HourRequestRecord) HourRequestDTO {
	dto := HourRequestDTO{
		ID:             string(r.ID),
		ClientID:       string(r.ClientID),
		RequestedHours: r.RequestedHours.InexactFloat64(),
		Reason:         r.Reason,
		Status:         string(r.Status),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}
	if r.DecidedAt != nil {
		dto.DecidedAt = r.DecidedAt.Format(time.RFC3339)
	}
	return dto
}
