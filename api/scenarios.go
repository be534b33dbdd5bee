/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	AMC data. Each scenario creates admins, clients, work logs, payments and
	hour requests that show one side of the contract-health dashboard.

AVAILABLE SCENARIOS:

	healthy-portfolio: Three clients well inside their hours and contracts
	renewal-season:    Contracts ending inside the expiry window
	hours-crunch:      Clients that have burned through their allocation
	legacy-data:       A record with an unknown payment term next to good ones

HOW SCENARIOS WORK:
 1. Reset database (clear all data and uploaded files)
 2. Create admins
 3. Create clients with their points of contact
 4. Add work logs, payments and hour requests

Dates are relative to the handler clock, so a scenario loaded on any day
shows the same picture.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "renewal-season"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler and helpers
  - amc/risk.go: What makes a client at risk
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/logger"
	"github.com/warp/amc-portal/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "healthy-portfolio",
		Name:        "Healthy Portfolio",
		Description: "Three clients on different payment terms, all comfortably inside hours and contract",
	},
	{
		ID:          "renewal-season",
		Name:        "Renewal Season",
		Description: "Contracts ending within the expiry window, one already expired",
	},
	{
		ID:          "hours-crunch",
		Name:        "Hours Crunch",
		Description: "Clients below 10% of their period hours, one over-consumed, with pending hour requests",
	},
	{
		ID:          "legacy-data",
		Name:        "Legacy Data",
		Description: "An imported client with an unrecognized payment term is skipped by the dashboard",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, today amc.Date) error

var scenarioLoaders = map[string]scenarioLoader{
	"healthy-portfolio": (*Handler).loadHealthyPortfolioScenario,
	"renewal-season":    (*Handler).loadRenewalSeasonScenario,
	"hours-crunch":      (*Handler).loadHoursCrunchScenario,
	"legacy-data":       (*Handler).loadLegacyDataScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}

	if err := load(h, ctx, amc.DateOf(h.now())); err != nil {
		h.handleError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.log.Info(ctx, "scenario loaded", logger.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears every record and uploaded file.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reset(ctx context.Context) error {
	clients, err := h.Store.ListClients(ctx)
	if err != nil {
		return err
	}
	for _, c := range clients {
		files, err := h.clientFiles(ctx, c.ID)
		if err != nil {
			return err
		}
		for _, f := range files {
			h.removeFile(ctx, f.bucket, f.key)
		}
	}

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// seeder writes scenario records, stopping at the first error.
type seeder struct {
	ctx   context.Context
	store *sqlite.Store
	today amc.Date
	err   error
}

func (s *seeder) admin(id, name, email string) amc.AdminID {
	if s.err == nil {
		s.err = s.store.SaveAdmin(s.ctx, sqlite.Admin{ID: amc.AdminID(id), Name: name, Email: email})
	}
	return amc.AdminID(id)
}

type clientSeed struct {
	id, name  string
	cost      int64
	hours     *int64
	term      amc.PaymentTerm
	startDays int // AMC start, relative to today
	endDays   int // AMC end, relative to today
	primary   amc.AdminID
	secondary amc.AdminID
}

func (s *seeder) client(c clientSeed) amc.ClientID {
	if s.err != nil {
		return amc.ClientID(c.id)
	}

	start := s.today.AddDays(c.startDays)
	end := s.today.AddDays(c.endDays)
	client := amc.Client{
		ID:           amc.ClientID(c.id),
		ProjectName:  c.name,
		ProjectSlug:  slugify(c.name),
		ContactName:  c.name + " Ops",
		ContactEmail: "ops@" + slugify(c.name) + ".example.com",
		CostForYear:  decimal.NewFromInt(c.cost),
		PaymentTerm:  c.term,
		AMCStartDate: &start,
		AMCEndDate:   &end,
	}
	if c.hours != nil {
		hours := decimal.NewFromInt(*c.hours)
		client.HoursAssignedYear = &hours
	}
	if c.primary != "" {
		client.PrimaryPOC = &c.primary
	}
	if c.secondary != "" {
		client.SecondaryPOC = &c.secondary
	}

	s.err = s.store.SaveClient(s.ctx, client)
	for _, admin := range []amc.AdminID{c.primary, c.secondary} {
		if s.err == nil && admin != "" {
			s.err = s.store.AssignAdmin(s.ctx, client.ID, admin)
		}
	}
	return client.ID
}

func (s *seeder) workLog(client amc.ClientID, seq int, daysAgo int, hours string, desc string, status amc.WorkStatus) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveWorkLog(s.ctx, amc.WorkLogEntry{
		ID:            amc.WorkLogID(fmt.Sprintf("%s-log-%d", client, seq)),
		ClientID:      client,
		Description:   desc,
		HoursConsumed: decimal.RequireFromString(hours),
		Date:          s.today.AddDays(-daysAgo),
		Status:        status,
	})
}

func (s *seeder) payment(client amc.ClientID, seq int, daysAgo int, amount int64, term amc.PaymentTerm) {
	if s.err != nil {
		return
	}
	s.err = s.store.SavePayment(s.ctx, amc.PaymentRecord{
		ID:          amc.PaymentID(fmt.Sprintf("%s-pay-%d", client, seq)),
		ClientID:    client,
		AmountPaid:  decimal.NewFromInt(amount),
		PaymentDate: s.today.AddDays(-daysAgo),
		PaymentTerm: term,
	})
}

func (s *seeder) hourRequest(client amc.ClientID, seq int, hours int64, reason string) {
	if s.err != nil {
		return
	}
	s.err = s.store.SaveHourRequest(s.ctx, sqlite.HourRequestRecord{
		HourRequest: amc.HourRequest{
			ID:             amc.HourRequestID(fmt.Sprintf("%s-req-%d", client, seq)),
			ClientID:       client,
			RequestedHours: decimal.NewFromInt(hours),
		},
		Reason: reason,
	})
}

func (h *Handler) seeder(ctx context.Context, today amc.Date) *seeder {
	return &seeder{ctx: ctx, store: h.Store, today: today}
}

func hoursPerYear(n int64) *int64 { return &n }

// loadHealthyPortfolioScenario: nobody needs attention.
func (h *Handler) loadHealthyPortfolioScenario(ctx context.Context, today amc.Date) error {
	s := h.seeder(ctx, today)
	priya := s.admin("admin-priya", "Priya Raman", "priya@warp.example.com")
	marco := s.admin("admin-marco", "Marco Bianchi", "marco@warp.example.com")

	// Monthly, 1200h/year -> 100h per month
	acme := s.client(clientSeed{id: "acme", name: "Acme Storefront", cost: 24000, hours: hoursPerYear(1200),
		term: amc.TermMonthly, startDays: -120, endDays: 245, primary: priya, secondary: marco})
	s.workLog(acme, 1, 20, "12", "Checkout bug fixes", amc.WorkCompleted)
	s.workLog(acme, 2, 8, "6.5", "Dependency upgrades", amc.WorkInProgress)
	s.payment(acme, 1, 90, 6000, amc.TermQuarterly)
	s.payment(acme, 2, 5, 6000, amc.TermQuarterly)

	// Quarterly, 800h/year -> 200h per quarter
	globex := s.client(clientSeed{id: "globex", name: "Globex Intranet", cost: 16000, hours: hoursPerYear(800),
		term: amc.TermQuarterly, startDays: -200, endDays: 165, primary: marco})
	s.workLog(globex, 1, 30, "40", "SSO integration", amc.WorkCompleted)
	s.workLog(globex, 2, 2, "15", "Quarterly security patching", amc.WorkPending)
	s.payment(globex, 1, 60, 8000, amc.TermHalfYearly)

	// Yearly, no hour budget configured -> policy default
	initech := s.client(clientSeed{id: "initech", name: "Initech Reports", cost: 30000,
		term: amc.TermYearly, startDays: -30, endDays: 335, primary: priya})
	s.workLog(initech, 1, 10, "120", "Report engine rewrite", amc.WorkInProgress)
	s.payment(initech, 1, 30, 30000, amc.TermYearly)

	return s.err
}

// loadRenewalSeasonScenario: contracts ending inside the expiry window.
func (h *Handler) loadRenewalSeasonScenario(ctx context.Context, today amc.Date) error {
	s := h.seeder(ctx, today)
	priya := s.admin("admin-priya", "Priya Raman", "priya@warp.example.com")

	soon := s.client(clientSeed{id: "umbrella", name: "Umbrella Portal", cost: 18000, hours: hoursPerYear(600),
		term: amc.TermMonthly, startDays: -320, endDays: 45, primary: priya})
	s.workLog(soon, 1, 12, "10", "Content updates", amc.WorkCompleted)
	s.payment(soon, 1, 40, 18000, amc.TermYearly)

	edge := s.client(clientSeed{id: "hooli", name: "Hooli Docs", cost: 12000, hours: hoursPerYear(480),
		term: amc.TermQuarterly, startDays: -305, endDays: 60, primary: priya})
	s.workLog(edge, 1, 3, "20", "Search tuning", amc.WorkPending)
	s.payment(edge, 1, 100, 6000, amc.TermHalfYearly)

	expired := s.client(clientSeed{id: "vandelay", name: "Vandelay Imports", cost: 9000, hours: hoursPerYear(360),
		term: amc.TermHalfYearly, startDays: -375, endDays: -10})
	s.workLog(expired, 1, 40, "30", "Final handover", amc.WorkCompleted)
	s.payment(expired, 1, 200, 4500, amc.TermHalfYearly)

	safe := s.client(clientSeed{id: "stark", name: "Stark Careers", cost: 20000, hours: hoursPerYear(1000),
		term: amc.TermYearly, startDays: -60, endDays: 305})
	s.workLog(safe, 1, 15, "50", "Job board redesign", amc.WorkInProgress)
	s.payment(safe, 1, 50, 10000, amc.TermHalfYearly)

	return s.err
}

// loadHoursCrunchScenario: clients close to or past their allocation.
func (h *Handler) loadHoursCrunchScenario(ctx context.Context, today amc.Date) error {
	s := h.seeder(ctx, today)
	marco := s.admin("admin-marco", "Marco Bianchi", "marco@warp.example.com")

	// 100h per month, 95 consumed -> 5% left
	low := s.client(clientSeed{id: "wayne", name: "Wayne Logistics", cost: 36000, hours: hoursPerYear(1200),
		term: amc.TermMonthly, startDays: -100, endDays: 265, primary: marco})
	s.workLog(low, 1, 25, "60", "Route optimizer", amc.WorkCompleted)
	s.workLog(low, 2, 4, "35", "Incident response", amc.WorkCompleted)
	s.payment(low, 1, 20, 9000, amc.TermQuarterly)
	s.hourRequest(low, 1, 40, "Peak season support")

	// 50h per quarter, 64 consumed -> over-consumed
	over := s.client(clientSeed{id: "cyberdyne", name: "Cyberdyne Labs", cost: 10000, hours: hoursPerYear(200),
		term: amc.TermQuarterly, startDays: -90, endDays: 40, primary: marco})
	s.workLog(over, 1, 50, "40", "Model deployment", amc.WorkCompleted)
	s.workLog(over, 2, 6, "24", "GPU cluster migration", amc.WorkInProgress)
	s.payment(over, 1, 80, 5000, amc.TermHalfYearly)
	s.hourRequest(over, 1, 30, "Migration overrun")
	s.hourRequest(over, 2, 10, "Post-migration tuning")

	// Exactly 10% left is not low
	edge := s.client(clientSeed{id: "tyrell", name: "Tyrell Support", cost: 8000, hours: hoursPerYear(240),
		term: amc.TermMonthly, startDays: -45, endDays: 320})
	s.workLog(edge, 1, 9, "18", "Ticket backlog", amc.WorkCompleted)
	s.payment(edge, 1, 9, 2000, amc.TermQuarterly)

	return s.err
}

// loadLegacyDataScenario: one imported record the engine cannot evaluate.
func (h *Handler) loadLegacyDataScenario(ctx context.Context, today amc.Date) error {
	s := h.seeder(ctx, today)

	ok := s.client(clientSeed{id: "soylent", name: "Soylent Menu", cost: 6000, hours: hoursPerYear(240),
		term: amc.TermMonthly, startDays: -10, endDays: 355})
	s.workLog(ok, 1, 3, "4", "Menu refresh", amc.WorkCompleted)
	s.payment(ok, 1, 3, 500, amc.TermMonthly)

	// Imported from a spreadsheet with a cadence the engine doesn't know.
	legacy := s.client(clientSeed{id: "oceanic", name: "Oceanic Booking", cost: 12000, hours: hoursPerYear(520),
		term: amc.PaymentTerm("Biweekly"), startDays: -150, endDays: 215})
	s.workLog(legacy, 1, 14, "20", "Fare sync", amc.WorkCompleted)

	return s.err
}
