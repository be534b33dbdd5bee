/*
files.go - Invoice, contract and document endpoints

PURPOSE:
  Attachments are metadata rows in SQLite plus an optional file in one of
  the buckets. Uploads are multipart forms; the file part is named "file"
  and every other field is a plain form value.

ENDPOINTS:
  GET    /api/clients/{id}/{kind}    List a client's attachments
  POST   /api/clients/{id}/{kind}    Upload (multipart/form-data)
  DELETE /api/{kind}/{id}            Delete row and file
  GET    /api/{kind}/{id}/file       Download the file

  kind is one of: invoices, contracts, documents

FORM FIELDS:
  invoices:  invoice_number, invoice_date, amount, description
  contracts: title, contract_date
  documents: document_type (SOW, NDA, Brand Guidelines, Other), title,
             upload_date (defaults to today)
*/
package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/amc-portal/amc"
	"github.com/warp/amc-portal/bucket"
	"github.com/warp/amc-portal/logger"
	"github.com/warp/amc-portal/store/sqlite"
)

// AttachmentKind names an attachment collection in URLs.
type AttachmentKind string

const (
	KindInvoices  AttachmentKind = "invoices"
	KindContracts AttachmentKind = "contracts"
	KindDocuments AttachmentKind = "documents"
)

// Bucket returns the bucket files of this kind live in.
func (k AttachmentKind) Bucket() bucket.Name {
	switch k {
	case KindInvoices:
		return bucket.Invoices
	case KindContracts:
		return bucket.Contracts
	}
	return bucket.Documents
}

// attachment is the kind-independent view of a stored row.
type attachment struct {
	dto      AttachmentDTO
	filePath string
}

func fromInvoice(inv sqlite.Invoice) attachment {
	amount := inv.Amount.InexactFloat64()
	return attachment{
		dto: AttachmentDTO{
			ID:            inv.ID,
			ClientID:      string(inv.ClientID),
			Kind:          string(KindInvoices),
			Date:          inv.InvoiceDate.String(),
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        &amount,
			Description:   inv.Description,
			HasFile:       inv.FilePath != "",
		},
		filePath: inv.FilePath,
	}
}

func fromContract(c sqlite.Contract) attachment {
	return attachment{
		dto: AttachmentDTO{
			ID:       c.ID,
			ClientID: string(c.ClientID),
			Kind:     string(KindContracts),
			Title:    c.Title,
			Date:     c.ContractDate.String(),
			HasFile:  c.FilePath != "",
		},
		filePath: c.FilePath,
	}
}

func fromDocument(d sqlite.Document) attachment {
	return attachment{
		dto: AttachmentDTO{
			ID:           d.ID,
			ClientID:     string(d.ClientID),
			Kind:         string(KindDocuments),
			Title:        d.Title,
			Date:         d.UploadDate.String(),
			DocumentType: string(d.Type),
			HasFile:      d.FilePath != "",
		},
		filePath: d.FilePath,
	}
}

// listAttachments returns a client's attachments of one kind.
func (h *Handler) listAttachments(ctx context.Context, kind AttachmentKind, clientID amc.ClientID) ([]attachment, error) {
	var out []attachment
	switch kind {
	case KindInvoices:
		rows, err := h.Store.ListInvoices(ctx, clientID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, fromInvoice(row))
		}
	case KindContracts:
		rows, err := h.Store.ListContracts(ctx, clientID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, fromContract(row))
		}
	case KindDocuments:
		rows, err := h.Store.ListDocuments(ctx, clientID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, fromDocument(row))
		}
	}
	return out, nil
}

// getAttachment returns nil when the row doesn't exist.
func (h *Handler) getAttachment(ctx context.Context, kind AttachmentKind, id string) (*attachment, error) {
	switch kind {
	case KindInvoices:
		row, err := h.Store.GetInvoice(ctx, id)
		if err != nil || row == nil {
			return nil, err
		}
		a := fromInvoice(*row)
		return &a, nil
	case KindContracts:
		row, err := h.Store.GetContract(ctx, id)
		if err != nil || row == nil {
			return nil, err
		}
		a := fromContract(*row)
		return &a, nil
	case KindDocuments:
		row, err := h.Store.GetDocument(ctx, id)
		if err != nil || row == nil {
			return nil, err
		}
		a := fromDocument(*row)
		return &a, nil
	}
	return nil, nil
}

func (h *Handler) deleteAttachment(ctx context.Context, kind AttachmentKind, id string) (bool, error) {
	switch kind {
	case KindInvoices:
		return h.Store.DeleteInvoice(ctx, id)
	case KindContracts:
		return h.Store.DeleteContract(ctx, id)
	case KindDocuments:
		return h.Store.DeleteDocument(ctx, id)
	}
	return false, nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListAttachments returns a handler listing a client's attachments of kind.
// GET /api/clients/{id}/{kind}
func (h *Handler) ListAttachments(kind AttachmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := h.loadClient(w, r)
		if !ok {
			return
		}

		rows, err := h.listAttachments(r.Context(), kind, client.ID)
		if err != nil {
			h.handleError(w, r, "Failed to list "+string(kind), err)
			return
		}

		dtos := make([]AttachmentDTO, len(rows))
		for i, a := range rows {
			dtos[i] = a.dto
		}
		writeJSON(w, http.StatusOK, map[string]any{string(kind): dtos})
	}
}

// UploadAttachment returns a handler storing a multipart upload of kind.
// POST /api/clients/{id}/{kind}
func (h *Handler) UploadAttachment(kind AttachmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client, ok := h.loadClient(w, r)
		if !ok {
			return
		}

		if r.ContentLength > h.maxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "Upload too large", err)
				return
			}
			writeError(w, http.StatusBadRequest, "Expected a multipart form", err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		id := uuid.NewString()
		save, err := h.attachmentSaver(kind, id, client.ID, r)
		if err != nil {
			h.handleError(w, r, "Invalid "+string(kind)+" upload", err)
			return
		}

		var key string
		if file, header, err := r.FormFile("file"); err == nil {
			defer file.Close()
			key = bucket.NewKey(string(client.ID), header.Filename)
			if _, err := h.Buckets.Put(ctx, kind.Bucket(), key, file); err != nil {
				h.handleError(w, r, "Failed to store file", err)
				return
			}
		} else if !errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, "Invalid file part", err)
			return
		}

		if err := save(ctx, key); err != nil {
			if key != "" {
				h.removeFile(ctx, kind.Bucket(), key)
			}
			h.handleError(w, r, "Failed to save "+string(kind), err)
			return
		}

		saved, err := h.getAttachment(ctx, kind, id)
		if err != nil || saved == nil {
			h.handleError(w, r, "Failed to reload "+string(kind), err)
			return
		}
		writeJSON(w, http.StatusCreated, saved.dto)
	}
}

// attachmentSaver validates the form fields for kind and returns a function
// that persists the row with the given bucket key.
func (h *Handler) attachmentSaver(kind AttachmentKind, id string, clientID amc.ClientID, r *http.Request) (func(context.Context, string) error, error) {
	form := func(name string) string { return strings.TrimSpace(r.FormValue(name)) }

	switch kind {
	case KindInvoices:
		number := form("invoice_number")
		if number == "" {
			return nil, &amc.RecordError{Field: "invoice_number", Message: "is required"}
		}
		date, err := amc.ParseDate(form("invoice_date"))
		if err != nil {
			return nil, &amc.RecordError{Field: "invoice_date", Message: "use YYYY-MM-DD"}
		}
		amount, err := decimal.NewFromString(form("amount"))
		if err != nil || amount.IsNegative() {
			return nil, &amc.RecordError{Field: "amount", Message: "must be a non-negative number"}
		}
		return func(ctx context.Context, key string) error {
			return h.Store.SaveInvoice(ctx, sqlite.Invoice{
				ID:            id,
				ClientID:      clientID,
				InvoiceNumber: number,
				InvoiceDate:   date,
				Amount:        amount,
				Description:   form("description"),
				FilePath:      key,
			})
		}, nil

	case KindContracts:
		title := form("title")
		if title == "" {
			return nil, &amc.RecordError{Field: "title", Message: "is required"}
		}
		date, err := amc.ParseDate(form("contract_date"))
		if err != nil {
			return nil, &amc.RecordError{Field: "contract_date", Message: "use YYYY-MM-DD"}
		}
		return func(ctx context.Context, key string) error {
			return h.Store.SaveContract(ctx, sqlite.Contract{
				ID:           id,
				ClientID:     clientID,
				Title:        title,
				ContractDate: date,
				FilePath:     key,
			})
		}, nil
	}

	docType := sqlite.DocumentType(form("document_type"))
	if !docType.IsValid() {
		return nil, &amc.RecordError{Field: "document_type", Message: "unknown type " + string(docType)}
	}
	uploaded := amc.DateOf(h.now())
	if raw := form("upload_date"); raw != "" {
		d, err := amc.ParseDate(raw)
		if err != nil {
			return nil, &amc.RecordError{Field: "upload_date", Message: "use YYYY-MM-DD"}
		}
		uploaded = d
	}
	title := form("title")
	return func(ctx context.Context, key string) error {
		return h.Store.SaveDocument(ctx, sqlite.Document{
			ID:         id,
			ClientID:   clientID,
			Type:       docType,
			Title:      title,
			UploadDate: uploaded,
			FilePath:   key,
		})
	}, nil
}

// DeleteAttachment returns a handler deleting an attachment and its file.
// DELETE /api/{kind}/{id}
func (h *Handler) DeleteAttachment(kind AttachmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := chi.URLParam(r, "id")

		existing, err := h.getAttachment(ctx, kind, id)
		if err != nil {
			h.handleError(w, r, "Failed to get "+string(kind), err)
			return
		}
		if existing == nil {
			writeError(w, http.StatusNotFound, "Not found", nil)
			return
		}

		if _, err := h.deleteAttachment(ctx, kind, id); err != nil {
			h.handleError(w, r, "Failed to delete "+string(kind), err)
			return
		}
		if existing.filePath != "" {
			h.removeFile(ctx, kind.Bucket(), existing.filePath)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
	}
}

// DownloadAttachment returns a handler streaming an attachment's file.
// GET /api/{kind}/{id}/file
func (h *Handler) DownloadAttachment(kind AttachmentKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		existing, err := h.getAttachment(ctx, kind, chi.URLParam(r, "id"))
		if err != nil {
			h.handleError(w, r, "Failed to get "+string(kind), err)
			return
		}
		if existing == nil || existing.filePath == "" {
			writeError(w, http.StatusNotFound, "File not found", nil)
			return
		}

		f, err := h.Buckets.Open(ctx, kind.Bucket(), existing.filePath)
		if err != nil {
			h.handleError(w, r, "Failed to open file", err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			h.handleError(w, r, "Failed to stat file", err)
			return
		}

		name := path.Base(existing.filePath)
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}

// =============================================================================
// FILE HELPERS
// =============================================================================

type storedFile struct {
	bucket bucket.Name
	key    string
}

// clientFiles lists every uploaded file a client owns.
func (h *Handler) clientFiles(ctx context.Context, id amc.ClientID) ([]storedFile, error) {
	var files []storedFile
	for _, kind := range []AttachmentKind{KindInvoices, KindContracts, KindDocuments} {
		rows, err := h.listAttachments(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		for _, a := range rows {
			if a.filePath != "" {
				files = append(files, storedFile{bucket: kind.Bucket(), key: a.filePath})
			}
		}
	}
	return files, nil
}

// removeFile deletes a stored file, logging rather than failing the request.
func (h *Handler) removeFile(ctx context.Context, b bucket.Name, key string) {
	if err := h.Buckets.Delete(ctx, b, key); err != nil {
		h.log.Warn(ctx, "failed to remove file",
			logger.String("bucket", string(b)),
			logger.String("key", key),
			logger.Error(err),
		)
	}
}
