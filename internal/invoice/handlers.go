package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/parsewise/internal/scanning"
)

// maxUploadSize bounds uploaded invoice documents
const maxUploadSize = int64(20 << 20) // 20MB

// maxDraftSize bounds JSON request bodies. A draft carries its document
// base64 encoded, which grows it by a third.
const maxDraftSize = maxUploadSize*4/3 + 1<<20

// setCORSHeaders allows origin to call the API
func setCORSHeaders(w http.ResponseWriter, origin string) {
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
	w.Header().Add("Vary", "Origin")
}

// decodeJSON reads a size-limited JSON body into v. On failure the error
// response is already written.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "Request is too large.", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeJSON writes payload as a JSON response
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// jsonError writes {"error": message}
func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP responses
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "Invoice is not valid",
			"fields": verr.Fields,
		})
	case errors.Is(err, ErrNotFound):
		jsonError(w, "Invoice not found", http.StatusNotFound)
	case errors.Is(err, ErrNotReady):
		jsonError(w, "Invoices are still loading, try again shortly", http.StatusServiceUnavailable)
	case errors.Is(err, scanning.ErrUnknownModel):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, scanning.ErrExtractionFailed):
		jsonError(w, "Could not extract data from the document. Please try again.", http.StatusBadGateway)
	default:
		slog.Error("Unhandled service error", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeSaved answers a create/update. A failed mirror write still returns
// the record, which is kept in memory, with 507.
func writeSaved(w http.ResponseWriter, inv *Invoice, err error, okStatus int) {
	if err != nil && inv != nil {
		slog.Error("Invoice kept in memory but not saved to storage", "id", inv.ID, "error", err)
		writeJSON(w, http.StatusInsufficientStorage, map[string]any{
			"error":   "Could not save invoice. Data might be too large.",
			"invoice": inv,
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, okStatus, inv)
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStatus reports whether the store is ready
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready": s.service.Ready(),
		"count": s.service.Count(),
	})
}

// handleListInvoices returns invoices newest first, filtered by ?q=
func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices := s.service.ListInvoices(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, invoices)
}

// handleExtractInvoice scans an uploaded document and returns a draft
func (s *Server) handleExtractInvoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, "File is too large. Maximum size is 20MB.", http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file was selected. Please choose an invoice to upload.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := detectContentType(header.Header.Get("Content-Type"), header.Filename)
	if !scanning.IsDocumentType(contentType) {
		jsonError(w, "Unsupported file type. Please upload a PDF or an image.", http.StatusUnsupportedMediaType)
		return
	}

	extraction, err := s.service.Extract(r.Context(), header.Filename, data, contentType, r.FormValue("model"))
	if err != nil {
		slog.Error("Error extracting invoice", "filename", header.Filename, "error", err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, extraction)
}

// detectContentType prefers the declared type and falls back to the extension
func detectContentType(declared, filename string) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return "application/pdf"
}

// handleSuggest returns model suggestions for a draft and how many fields
// they would change
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
		Draft Draft  `json:"draft"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	suggestions, err := s.service.Suggest(r.Context(), req.Model, req.Draft)
	if err != nil {
		if errors.Is(err, scanning.ErrUnknownModel) {
			writeServiceError(w, err)
			return
		}
		jsonError(w, "Could not get suggestions. Please try again.", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		*scanning.Suggestions
		Changes int `json:"changes"`
	}{suggestions, suggestions.Changes()})
}

// handleCreateInvoice stores a reviewed draft
func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if !s.decodeJSON(w, r, &draft) {
		return
	}

	inv, err := s.service.Create(draft)
	writeSaved(w, inv, err, http.StatusCreated)
}

// handleGetInvoice returns a single invoice
func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.GetInvoice(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleUpdateInvoice applies an edited draft to an invoice
func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft Draft
	if !s.decodeJSON(w, r, &draft) {
		return
	}

	inv, err := s.service.Edit(r.PathValue("id"), draft)
	writeSaved(w, inv, err, http.StatusOK)
}

// handleDeleteInvoice deletes an invoice
func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteInvoice(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotReady) {
			writeServiceError(w, err)
			return
		}
		// The record is gone from memory; only the mirror write failed
		slog.Error("Invoice deleted in memory but not in storage", "id", r.PathValue("id"), "error", err)
		jsonError(w, "Could not save changes to storage.", http.StatusInsufficientStorage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetInvoiceDocument returns the document of an invoice
func (s *Server) handleGetInvoiceDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, contentType, err := s.service.GetInvoiceDocument(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	filename := "invoice.pdf"
	if inv, err := s.service.GetInvoice(id); err == nil && inv.PDFFileName != "" {
		filename = sanitizeFilename(inv.PDFFileName)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.Write(data)
}
