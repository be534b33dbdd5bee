/*
handlers.go - HTTP API handlers for the AMC portal

PURPOSE:
  Exposes the portal's records and the contract-health engine via REST API.
  Handles HTTP request/response and JSON serialization, and delegates to the
  store, the reporter and the bucket.

ENDPOINTS:
  Admins:
    GET    /api/admins                 List admins
    POST   /api/admins                 Create admin
    GET    /api/admins/{id}            Admin details with POC roles
    PUT    /api/admins/{id}            Update admin
    DELETE /api/admins/{id}            Delete admin

  Clients:
    GET    /api/clients                List clients
    POST   /api/clients                Create client
    GET    /api/clients/{id}           Client details
    PUT    /api/clients/{id}           Update client
    DELETE /api/clients/{id}           Delete client and its files
    GET    /api/clients/{id}/report    Allocation, utilization, financials, risk
    GET    /api/clients/{id}/allocation Per-term hour breakdown

  Records (records.go), attachments (files.go), dashboard (dashboard.go),
  scenarios (scenarios.go).

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: Database access
  - Reporter: Store-backed engine evaluation
  - Buckets: Uploaded file storage

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the store or the engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, unknown payment terms
  - 404: Resource not found
  - 409: Conflict (duplicate, disallowed status transition)
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/bucket"
	"github.com/warp/amc-portal/logger"
	"github.com/warp/amc-portal/metrics"
	"github.com/warp/amc-portal/store/sqlite"
)

// defaultMaxUploadBytes bounds multipart uploads when no option is given.
const defaultMaxUploadBytes = 20 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Reporter *amc.Reporter
	Buckets  *bucket.Store

	metrics        *metrics.Manager
	log            logger.Logger
	now            func() time.Time
	maxUploadBytes int64

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Manager) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithClock overrides time.Now for reports without an explicit as_of.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithMaxUploadBytes caps multipart upload size.
func WithMaxUploadBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// NewHandler creates a new handler.
func NewHandler(store *sqlite.Store, reporter *amc.Reporter, buckets *bucket.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		Store:          store,
		Reporter:       reporter,
		Buckets:        buckets,
		log:            logger.Nop(),
		now:            time.Now,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ListAdmins returns all admins.
// GET /api/admins
func (h *Handler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := h.Store.ListAdmins(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to list admins", err)
		return
	}

	dtos := make([]AdminDTO, len(admins))
	for i, a := range admins {
		dtos[i] = toAdminDTO(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": dtos})
}

// GetAdmin returns an admin and the clients they are a point of contact for.
// GET /api/admins/{id}
func (h *Handler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := amc.AdminID(chi.URLParam(r, "id"))

	admin, err := h.Store.GetAdmin(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to get admin", err)
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "Admin not found", nil)
		return
	}

	roles, err := h.Store.AdminRoles(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to get admin roles", err)
		return
	}

	dto := toAdminDTO(*admin)
	dto.Roles = make([]AdminRoleDTO, len(roles))
	for i, role := range roles {
		dto.Roles[i] = AdminRoleDTO{
			ClientID:    string(role.ClientID),
			ProjectName: role.ProjectName,
			Role:        role.Role,
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreateAdmin creates a new admin.
// POST /api/admins
func (h *Handler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Name and email are required", nil)
		return
	}

	admin := sqlite.Admin{
		ID:            amc.AdminID(uuid.NewString()),
		Name:          strings.TrimSpace(req.Name),
		Email:         strings.TrimSpace(req.Email),
		ContactNumber: req.ContactNumber,
	}
	h.saveAdmin(w, r, admin, http.StatusCreated)
}

// UpdateAdmin replaces an admin's details.
// PUT /api/admins/{id}
func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := amc.AdminID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetAdmin(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to get admin", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Admin not found", nil)
		return
	}

	var req AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name != "" {
		existing.Name = strings.TrimSpace(req.Name)
	}
	if req.Email != "" {
		existing.Email = strings.TrimSpace(req.Email)
	}
	existing.ContactNumber = req.ContactNumber

	h.saveAdmin(w, r, *existing, http.StatusOK)
}

func (h *Handler) saveAdmin(w http.ResponseWriter, r *http.Request, admin sqlite.Admin, status int) {
	ctx := r.Context()
	if err := h.Store.SaveAdmin(ctx, admin); err != nil {
		h.handleError(w, r, "Failed to save admin", err)
		return
	}

	saved, err := h.Store.GetAdmin(ctx, admin.ID)
	if err != nil || saved == nil {
		h.handleError(w, r, "Failed to reload admin", err)
		return
	}
	writeJSON(w, status, toAdminDTO(*saved))
}

// DeleteAdmin deletes an admin. Clients keep existing; the admin is cleared
// as their point of contact.
// DELETE /api/admins/{id}
func (h *Handler) DeleteAdmin(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteAdmin(r.Context(), amc.AdminID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, r, "Failed to delete admin", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Admin not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns all clients.
// GET /api/clients
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Store.ListClients(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to list clients", err)
		return
	}

	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": dtos})
}

// GetClient returns a client.
// GET /api/clients/{id}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client))
}

// CreateClient creates a new client.
// POST /api/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := clientFromRequest(amc.ClientID(uuid.NewString()), req)
	if err != nil {
		h.handleError(w, r, "Invalid client", err)
		return
	}

	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		h.handleError(w, r, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(client))
}

// UpdateClient replaces a client's details.
// PUT /api/clients/{id}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	var req ClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	client, err := clientFromRequest(existing.ID, req)
	if err != nil {
		h.handleError(w, r, "Invalid client", err)
		return
	}

	if err := h.Store.SaveClient(r.Context(), client); err != nil {
		h.handleError(w, r, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(client))
}

// DeleteClient deletes a client, its records and its uploaded files.
// DELETE /api/clients/{id}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := amc.ClientID(chi.URLParam(r, "id"))

	files, err := h.clientFiles(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to list client files", err)
		return
	}

	deleted, err := h.Store.DeleteClient(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to delete client", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return
	}

	for _, f := range files {
		h.removeFile(ctx, f.bucket, f.key)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "files_removed": len(files)})
}

// GetClientReport evaluates a client.
// GET /api/clients/{id}/report?as_of=YYYY-MM-DD&scope=lifetime|period
func (h *Handler) GetClientReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := h.asOf(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of (use YYYY-MM-DD or RFC 3339)", err)
		return
	}
	scope, err := amc.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		h.handleError(w, r, "Invalid scope", err)
		return
	}

	report, err := h.Reporter.ScopedClientReport(r.Context(), amc.ClientID(chi.URLParam(r, "id")), asOf, scope)
	if err != nil {
		h.handleError(w, r, "Failed to evaluate client", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report, asOf))
}

// GetClientAllocation returns the hour breakdown for a client's budget.
// GET /api/clients/{id}/allocation
func (h *Handler) GetClientAllocation(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	engine := h.Reporter.Engine
	source := amc.SourceConfigured
	if client.HoursAssignedYear == nil {
		source = amc.SourceDefault
	}

	alloc, err := engine.Allocate(engine.Policy.AnnualHours(*client), client.PaymentTerm)
	if err != nil {
		h.handleError(w, r, "Failed to allocate hours", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_id":    client.ID,
		"hours_source": source,
		"allocation":   toAllocationDTO(alloc),
	})
}

// =============================================================================
// CLIENT ADMIN HANDLERS
// =============================================================================

// ListClientAdmins returns the admins assigned to a client.
// GET /api/clients/{id}/admins
func (h *Handler) ListClientAdmins(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	admins, err := h.Store.ListClientAdmins(r.Context(), client.ID)
	if err != nil {
		h.handleError(w, r, "Failed to list client admins", err)
		return
	}

	dtos := make([]AdminDTO, len(admins))
	for i, a := range admins {
		dtos[i] = toAdminDTO(a)
	}
	writeJSON(w, http.StatusOK, map[string]any{"admins": dtos})
}

// AssignClientAdmin links an admin to a client.
// POST /api/clients/{id}/admins
func (h *Handler) AssignClientAdmin(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	var req AssignAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.AdminID == "" {
		writeError(w, http.StatusBadRequest, "admin_id is required", nil)
		return
	}

	if err := h.Store.AssignAdmin(r.Context(), client.ID, amc.AdminID(req.AdminID)); err != nil {
		h.handleError(w, r, "Failed to assign admin", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "assigned", "admin_id": req.AdminID})
}

// UnassignClientAdmin removes an admin from a client.
// DELETE /api/clients/{id}/admins/{adminID}
func (h *Handler) UnassignClientAdmin(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Store.UnassignAdmin(r.Context(),
		amc.ClientID(chi.URLParam(r, "id")),
		amc.AdminID(chi.URLParam(r, "adminID")),
	)
	if err != nil {
		h.handleError(w, r, "Failed to unassign admin", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "unassigned"})
}

// =============================================================================
// HELPERS
// =============================================================================

// loadClient fetches the {id} client, writing a 404 when it doesn't exist.
func (h *Handler) loadClient(w http.ResponseWriter, r *http.Request) (*amc.Client, bool) {
	client, err := h.Store.GetClient(r.Context(), amc.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, r, "Failed to get client", err)
		return nil, false
	}
	if client == nil {
		writeError(w, http.StatusNotFound, "Client not found", nil)
		return nil, false
	}
	return client, true
}

func clientFromRequest(id amc.ClientID, req ClientRequest) (amc.Client, error) {
	name := strings.TrimSpace(req.ProjectName)
	if name == "" {
		return amc.Client{}, &amc.RecordError{Field: "project_name", Message: "is required"}
	}

	term := amc.TermMonthly
	if req.PaymentTerm != "" {
		parsed, err := amc.ParsePaymentTerm(req.PaymentTerm)
		if err != nil {
			return amc.Client{}, err
		}
		term = parsed
	}

	start, err := amc.ParseOptionalDate(req.AMCStartDate)
	if err != nil {
		return amc.Client{}, &amc.RecordError{Field: "amc_start_date", Message: "use YYYY-MM-DD"}
	}
	end, err := amc.ParseOptionalDate(req.AMCEndDate)
	if err != nil {
		return amc.Client{}, &amc.RecordError{Field: "amc_end_date", Message: "use YYYY-MM-DD"}
	}

	slug := req.ProjectSlug
	if slug == "" {
		slug = slugify(name)
	}

	client := amc.Client{
		ID:                id,
		ProjectName:       name,
		ProjectSlug:       slug,
		ProjectURL:        req.ProjectURL,
		Domain:            req.Domain,
		LogoURL:           req.LogoURL,
		ContactName:       req.ContactName,
		ContactEmail:      req.ContactEmail,
		ContactNumber:     req.ContactNumber,
		CostForYear:       req.CostForYear,
		HoursAssignedYear: req.HoursAssignedYear,
		PaymentTerm:       term,
		AMCStartDate:      start,
		AMCEndDate:        end,
	}
	if req.PrimaryPOC != "" {
		poc := amc.AdminID(req.PrimaryPOC)
		client.PrimaryPOC = &poc
	}
	if req.SecondaryPOC != "" {
		poc := amc.AdminID(req.SecondaryPOC)
		client.SecondaryPOC = &poc
	}
	return client, client.Validate()
}

// slugify lowercases s and joins its letters and digits with dashes.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, c := range strings.ToLower(s) {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(c)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// asOf reads the as_of query parameter, defaulting to the handler clock.
func (h *Handler) asOf(r *http.Request) (time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return h.now().UTC(), nil
	}
	if d, err := amc.ParseDate(raw); err == nil {
		return d.Time, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps err to a status code and logs server-side failures.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), message,
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case amc.IsNotFound(err),
		errors.Is(err, sqlite.ErrReferenceNotFound),
		errors.Is(err, bucket.ErrNotFound):
		return http.StatusNotFound
	case amc.IsConflict(err), errors.Is(err, sqlite.ErrDuplicate):
		return http.StatusConflict
	case amc.IsClientError(err), errors.Is(err, bucket.ErrInvalidKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
