package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/store/sqlite"
)

// =============================================================================
// WORK LOG ENDPOINTS
// =============================================================================

// ListWorkLogs returns a client's work logs.
// GET /api/clients/{id}/work-logs
func (h *Handler) ListWorkLogs(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	logs, err := h.Store.WorkLogsForClient(r.Context(), client.ID)
	if err != nil {
		h.handleError(w, r, "Failed to list work logs", err)
		return
	}

	dtos := make([]WorkLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = toWorkLogDTO(l)
	}
	writeJSON(w, http.StatusOK, map[string]any{"work_logs": dtos})
}

// CreateWorkLog records hours consumed for a client.
// POST /api/clients/{id}/work-logs
func (h *Handler) CreateWorkLog(w http.ResponseWriter, r *http.Request) {
	var req WorkLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry := amc.WorkLogEntry{
		ID:       amc.WorkLogID(uuid.NewString()),
		ClientID: amc.ClientID(chi.URLParam(r, "id")),
		Status:   amc.WorkStatus(req.Status),
	}
	if err := applyWorkLogRequest(&entry, req); err != nil {
		h.handleError(w, r, "Invalid work log", err)
		return
	}

	if err := h.Store.SaveWorkLog(r.Context(), entry); err != nil {
		h.handleError(w, r, "Failed to create work log", err)
		return
	}
	if entry.Status == "" {
		entry.Status = amc.WorkPending
	}
	writeJSON(w, http.StatusCreated, toWorkLogDTO(entry))
}

// UpdateWorkLog edits a work log's description, hours and dates. The status
// is changed through UpdateWorkLogStatus.
// PUT /api/work-logs/{id}
func (h *Handler) UpdateWorkLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := amc.WorkLogID(chi.URLParam(r, "id"))

	existing, err := h.Store.GetWorkLog(ctx, id)
	if err != nil {
		h.handleError(w, r, "Failed to get work log", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Work log not found", nil)
		return
	}

	var req WorkLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := applyWorkLogRequest(existing, req); err != nil {
		h.handleError(w, r, "Invalid work log", err)
		return
	}

	if err := h.Store.SaveWorkLog(ctx, *existing); err != nil {
		h.handleError(w, r, "Failed to update work log", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkLogDTO(*existing))
}

// UpdateWorkLogStatus moves a work log through pending -> in_progress -> completed.
// POST /api/work-logs/{id}/status
func (h *Handler) UpdateWorkLogStatus(w http.ResponseWriter, r *http.Request) {
	var req WorkLogStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	to := amc.WorkStatus(req.Status)
	if !to.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown status "+req.Status, nil)
		return
	}

	updated, err := h.Store.UpdateWorkLogStatus(r.Context(), amc.WorkLogID(chi.URLParam(r, "id")), to)
	if err != nil {
		h.handleError(w, r, "Failed to update work log status", err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "Work log not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toWorkLogDTO(*updated))
}

// DeleteWorkLog deletes a work log.
// DELETE /api/work-logs/{id}
func (h *Handler) DeleteWorkLog(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteWorkLog(r.Context(), amc.WorkLogID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, r, "Failed to delete work log", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Work log not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func applyWorkLogRequest(entry *amc.WorkLogEntry, req WorkLogRequest) error {
	date, err := amc.ParseDate(req.Date)
	if err != nil {
		return &amc.RecordError{Field: "date", Message: "use YYYY-MM-DD"}
	}
	start, err := amc.ParseOptionalDate(req.StartDate)
	if err != nil {
		return &amc.RecordError{Field: "start_date", Message: "use YYYY-MM-DD"}
	}
	end, err := amc.ParseOptionalDate(req.EndDate)
	if err != nil {
		return &amc.RecordError{Field: "end_date", Message: "use YYYY-MM-DD"}
	}

	entry.Description = strings.TrimSpace(req.Description)
	entry.HoursConsumed = req.HoursConsumed
	entry.Date = date
	entry.StartDate = start
	entry.EndDate = end
	return entry.Validate()
}

// =============================================================================
// PAYMENT ENDPOINTS
// =============================================================================

// ListPayments returns a client's payments.
// GET /api/clients/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	payments, err := h.Store.PaymentsForClient(r.Context(), client.ID)
	if err != nil {
		h.handleError(w, r, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": dtos})
}

// CreatePayment records a payment. The payment term defaults to the client's.
// POST /api/clients/{id}/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	client, ok := h.loadClient(w, r)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := amc.ParseDate(req.PaymentDate)
	if err != nil {
		h.handleError(w, r, "Invalid payment", &amc.RecordError{Field: "payment_date", Message: "use YYYY-MM-DD"})
		return
	}

	term := client.PaymentTerm
	if req.PaymentTerm != "" {
		if term, err = amc.ParsePaymentTerm(req.PaymentTerm); err != nil {
			h.handleError(w, r, "Invalid payment", err)
			return
		}
	}

	payment := amc.PaymentRecord{
		ID:          amc.PaymentID(uuid.NewString()),
		ClientID:    client.ID,
		AmountPaid:  req.AmountPaid,
		PaymentDate: date,
		PaymentTerm: term,
	}
	if err := h.Store.SavePayment(r.Context(), payment); err != nil {
		h.handleError(w, r, "Failed to create payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

// DeletePayment deletes a payment.
// DELETE /api/payments/{id}
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeletePayment(r.Context(), amc.PaymentID(chi.URLParam(r, "id")))
	if err != nil {
		h.handleError(w, r, "Failed to delete payment", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// HOUR REQUEST ENDPOINTS
// =============================================================================

// CreateHourRequest asks for extra hours for a client.
// POST /api/clients/{id}/hour-requests
func (h *Handler) CreateHourRequest(w http.ResponseWriter, r *http.Request) {
	var req HourRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	record := sqlite.HourRequestRecord{
		HourRequest: amc.HourRequest{
			ID:             amc.HourRequestID(uuid.NewString()),
			ClientID:       amc.ClientID(chi.URLParam(r, "id")),
			RequestedHours: req.RequestedHours,
			Status:         amc.ApprovalPending,
		},
		Reason:    strings.TrimSpace(req.Reason),
		CreatedAt: h.now().UTC().Truncate(time.Second),
	}
	if err := h.Store.SaveHourRequest(r.Context(), record); err != nil {
		h.handleError(w, r, "Failed to create hour request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHourRequestDTO(record))
}

// ListHourRequests returns hour requests, optionally filtered by status.
// GET /api/hour-requests?status=pending
func (h *Handler) ListHourRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := amc.ApprovalStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "Unknown status "+string(status), nil)
		return
	}

	requests, err := h.Store.ListHourRequests(ctx, status)
	if err != nil {
		h.handleError(w, r, "Failed to list hour requests", err)
		return
	}

	// Enrich with project names
	names := make(map[amc.ClientID]string)
	dtos := make([]HourRequestDTO, 0, len(requests))
	for _, req := range requests {
		name, ok := names[req.ClientID]
		if !ok {
			if c, _ := h.Store.GetClient(ctx, req.ClientID); c != nil {
				name = c.ProjectName
			}
			names[req.ClientID] = name
		}

		dto := toHourRequestDTO(req)
		dto.ProjectName = name
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"hour_requests": dtos})
}

// ApproveHourRequest approves a pending request.
// POST /api/hour-requests/{id}/approve
func (h *Handler) ApproveHourRequest(w http.ResponseWriter, r *http.Request) {
	h.decideHourRequest(w, r, amc.ApprovalApproved)
}

// RejectHourRequest rejects a pending request.
// POST /api/hour-requests/{id}/reject
func (h *Handler) RejectHourRequest(w http.ResponseWriter, r *http.Request) {
	h.decideHourRequest(w, r, amc.ApprovalRejected)
}

func (h *Handler) decideHourRequest(w http.ResponseWriter, r *http.Request, to amc.ApprovalStatus) {
	decided, err := h.Store.DecideHourRequest(r.Context(), amc.HourRequestID(chi.URLParam(r, "id")), to)
	if err != nil {
		h.handleError(w, r, "Failed to decide hour request", err)
		return
	}
	if decided == nil {
		writeError(w, http.StatusNotFound, "Hour request not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toHourRequestDTO(*decided))
}
