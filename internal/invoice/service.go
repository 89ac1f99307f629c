package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zombor/parsewise/internal/scanning"
)

// ErrNotFound is returned when no invoice has the requested ID
var ErrNotFound = errors.New("invoice not found")

// Extraction is the result of scanning an uploaded document: the draft
// the user reviews before saving it
type Extraction struct {
	Model string `json:"model"`
	Draft Draft  `json:"draft"`
}

// Service handles invoice operations
type Service struct {
	store      *Store
	scanners   *scanning.Registry
	validate   *validator.Validate
	timeSource TimeSource
}

// NewService creates a new Service with the wall clock as time source
func NewService(store *Store, scanners *scanning.Registry) *Service {
	return NewServiceWithDeps(store, scanners, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store *Store, scanners *scanning.Registry, timeSrc TimeSource) *Service {
	return &Service{
		store:      store,
		scanners:   scanners,
		validate:   newValidator(),
		timeSource: timeSrc,
	}
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = unsafeFilenameRe.ReplaceAllString(base, "")
	base = spacesRe.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// 50 chars for base, plus extension
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "invoice"
	}

	return base + ext
}

// Ready reports whether the store has loaded its mirror
func (s *Service) Ready() bool {
	return s.store.Ready()
}

// Count returns the number of stored invoices
func (s *Service) Count() int {
	return len(s.store.List())
}

// Extract scans an uploaded document with the selected model and returns
// a draft for review. Nothing is stored.
func (s *Service) Extract(ctx context.Context, filename string, data []byte, contentType, model string) (*Extraction, error) {
	scanner, err := s.scanners.Get(model)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = s.scanners.Default()
	}

	doc := scanning.Document{Data: data, MIMEType: contentType}
	extracted, err := scanner.ExtractInvoice(ctx, doc)
	if err != nil {
		slog.Error("Failed to extract invoice",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"model", model,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", scanning.ErrExtractionFailed, err)
	}

	date := extracted.InvoiceDate
	if date == "" {
		date = s.timeSource.Now().Format("2006-01-02")
	}

	items := make([]LineItem, len(extracted.LineItems))
	for i, li := range extracted.LineItems {
		items[i] = LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Amount:      li.Amount,
		}
	}

	return &Extraction{
		Model: model,
		Draft: Draft{
			PDFFileName:   sanitizeFilename(filename),
			PDFDataURI:    scanning.EncodeDataURI(contentType, data),
			Vendor:        extracted.Vendor,
			InvoiceNumber: extracted.InvoiceNumber,
			InvoiceDate:   date,
			LineItems:     items,
			TotalAmount:   extracted.Total,
		},
	}, nil
}

// Suggest asks the selected model to review a draft
func (s *Service) Suggest(ctx context.Context, model string, draft Draft) (*scanning.Suggestions, error) {
	scanner, err := s.scanners.Get(model)
	if err != nil {
		return nil, err
	}

	in := scanning.SuggestionInput{
		Vendor:        draft.Vendor,
		InvoiceNumber: draft.InvoiceNumber,
		InvoiceDate:   draft.InvoiceDate,
		LineItems:     make([]scanning.SuggestionLineItem, len(draft.LineItems)),
		TotalAmount:   draft.TotalAmount,
	}
	for i, li := range draft.LineItems {
		in.LineItems[i] = scanning.SuggestionLineItem{Description: li.Description, Amount: li.Amount}
	}

	suggestions, err := scanner.SuggestImprovements(ctx, in)
	if err != nil {
		slog.Error("Failed to get suggestions", "model", model, "error", err)
		return nil, fmt.Errorf("suggesting improvements: %w", err)
	}
	return suggestions, nil
}

// Create validates a draft and stores it. When only the mirror write
// fails, the stored invoice is returned together with the error.
func (s *Service) Create(draft Draft) (*Invoice, error) {
	if err := validateDraft(s.validate, draft); err != nil {
		return nil, err
	}

	inv, err := s.store.Create(draft)
	if errors.Is(err, ErrNotReady) {
		return nil, err
	}
	if err != nil {
		return &inv, fmt.Errorf("saving invoice: %w", err)
	}
	return &inv, nil
}

// Edit applies a draft to an existing invoice. The document fields of the
// current invoice are kept when the draft leaves them empty.
func (s *Service) Edit(id string, draft Draft) (*Invoice, error) {
	current, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if draft.PDFFileName == "" {
		draft.PDFFileName = current.PDFFileName
	}
	if draft.PDFDataURI == "" && current.PDFDataURI != "" {
		if validDocumentURI(current.PDFDataURI) {
			draft.PDFDataURI = current.PDFDataURI
		} else {
			slog.Warn("Dropping stored document that is not a PDF or image", "id", id)
		}
	}
	if err := validateDraft(s.validate, draft); err != nil {
		return nil, err
	}

	updated := Invoice{
		ID:            current.ID,
		PDFFileName:   draft.PDFFileName,
		PDFDataURI:    draft.PDFDataURI,
		Vendor:        draft.Vendor,
		InvoiceNumber: draft.InvoiceNumber,
		InvoiceDate:   draft.InvoiceDate,
		LineItems:     draft.LineItems,
		TotalAmount:   draft.TotalAmount,
		CreatedAt:     current.CreatedAt,
	}

	found, err := s.store.Update(updated)
	if errors.Is(err, ErrNotReady) {
		return nil, err
	}
	if !found {
		// deleted between Get and Update
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return &updated, fmt.Errorf("saving invoice: %w", err)
	}
	return &updated, nil
}

// GetInvoice retrieves an invoice by ID
func (s *Service) GetInvoice(id string) (*Invoice, error) {
	inv, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &inv, nil
}

// ListInvoices returns invoices newest first. A non-empty query keeps
// those whose vendor or invoice number contains it, ignoring case.
func (s *Service) ListInvoices(query string) []Invoice {
	invoices := s.store.List()

	sort.SliceStable(invoices, func(i, j int) bool {
		return createdAt(invoices[i]).After(createdAt(invoices[j]))
	})

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return invoices
	}

	filtered := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if strings.Contains(strings.ToLower(inv.Vendor), query) ||
			strings.Contains(strings.ToLower(inv.InvoiceNumber), query) {
			filtered = append(filtered, inv)
		}
	}
	return filtered
}

// DeleteInvoice removes an invoice. Unknown IDs are not an error.
func (s *Service) DeleteInvoice(id string) error {
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, ErrNotReady) {
			return err
		}
		return fmt.Errorf("deleting invoice: %w", err)
	}
	return nil
}

// GetInvoiceDocument returns the stored document of an invoice, or a
// generated summary PDF when none was kept
func (s *Service) GetInvoiceDocument(id string) ([]byte, string, error) {
	inv, ok := s.store.Get(id)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if inv.PDFDataURI != "" {
		doc, err := scanning.DecodeDataURI(inv.PDFDataURI)
		switch {
		case err != nil:
			slog.Warn("Stored document is unreadable, rendering placeholder", "id", id, "error", err)
		case !scanning.IsDocumentType(doc.MIMEType):
			slog.Warn("Stored document is not a PDF or image, rendering placeholder", "id", id, "content_type", doc.MIMEType)
		default:
			return doc.Data, doc.MIMEType, nil
		}
	}

	data, err := placeholderPDF(inv)
	if err != nil {
		return nil, "", err
	}
	return data, "application/pdf", nil
}

// Subscribe forwards store change events to fn
func (s *Service) Subscribe(fn func(Event)) func() {
	return s.store.Subscribe(fn)
}

// createdAt parses the creation timestamp; unparseable values sort last
func createdAt(inv Invoice) time.Time {
	t, err := time.Parse(time.RFC3339Nano, inv.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}
