package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMirrorKey is the slot the collection is mirrored to
const DefaultMirrorKey = "parsewise-invoices"

// DefaultQuota matches the usual browser local storage allowance
const DefaultQuota = 5 << 20

// createdAtLayout is ISO-8601 in UTC with millisecond precision
const createdAtLayout = "2006-01-02T15:04:05.000Z"

var (
	// ErrNotReady is returned by mutations issued before Load has run
	ErrNotReady = errors.New("invoice store is not ready")

	// ErrQuotaExceeded is returned when the encoded collection does not fit the mirror quota
	ErrQuotaExceeded = errors.New("mirror quota exceeded")
)

// IDGenerator generates unique IDs for invoices
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// EventKind names the mutation that changed the collection
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is published to subscribers after the collection changed
type Event struct {
	Kind EventKind `json:"kind"`
	ID   string    `json:"id"`
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithMirrorKey sets the slot the collection is mirrored to
func WithMirrorKey(key string) StoreOption {
	return func(s *Store) { s.key = key }
}

// WithQuota bounds the size of the encoded collection. Zero disables the check.
func WithQuota(bytes int) StoreOption {
	return func(s *Store) { s.quota = bytes }
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) { s.idGenerator = g }
}

// WithTimeSource replaces the wall clock
func WithTimeSource(t TimeSource) StoreOption {
	return func(s *Store) { s.timeSource = t }
}

// Store is the authoritative collection of invoices. Records are kept
// newest first and the whole collection is written to storage after every
// mutation.
type Store struct {
	mu          sync.Mutex
	storage     Storage
	key         string
	quota       int
	idGenerator IDGenerator
	timeSource  TimeSource

	records []Invoice
	ready   bool

	subMu     sync.Mutex
	nextSub   int
	observers map[int]func(Event)
}

// NewStore creates a Store backed by storage. Call Load before mutating it.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage:     storage,
		key:         DefaultMirrorKey,
		quota:       DefaultQuota,
		idGenerator: &uuidGenerator{},
		timeSource:  &defaultTimeSource{},
		observers:   make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the durable mirror into memory and marks the store ready. A
// missing or unreadable mirror leaves the store empty; the failure is
// logged and not returned. Only the first call has any effect.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return
	}
	defer func() { s.ready = true }()

	data, err := s.storage.Get(s.key)
	if errors.Is(err, ErrSlotEmpty) {
		slog.Info("No saved invoices found", "key", s.key)
		return
	}
	if err != nil {
		slog.Error("Failed to read invoices from storage", "key", s.key, "error", err)
		return
	}

	invoices, err := decodeMirror(data)
	if err != nil {
		slog.Error("Failed to parse invoices from storage", "key", s.key, "error", err)
		return
	}
	s.records = dedupe(invoices)
	slog.Info("Loaded invoices", "key", s.key, "count", len(s.records))
}

// dedupe keeps the first invoice for every ID
func dedupe(invoices []Invoice) []Invoice {
	seen := make(map[string]bool, len(invoices))
	out := invoices[:0]
	for _, inv := range invoices {
		if seen[inv.ID] {
			slog.Warn("Dropping invoice with duplicate ID", "id", inv.ID, "vendor", inv.Vendor)
			continue
		}
		seen[inv.ID] = true
		out = append(out, inv)
	}
	return out
}

// Ready reports whether Load has completed
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Create assigns an ID and creation time to draft and puts the new invoice
// at the front of the collection. If the mirror write fails the invoice
// stays in memory and is returned along with the error.
func (s *Store) Create(draft Draft) (Invoice, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return Invoice{}, ErrNotReady
	}

	inv := Invoice{
		ID:            s.idGenerator.Generate(),
		PDFFileName:   draft.PDFFileName,
		PDFDataURI:    draft.PDFDataURI,
		Vendor:        draft.Vendor,
		InvoiceNumber: draft.InvoiceNumber,
		InvoiceDate:   draft.InvoiceDate,
		LineItems:     cloneLineItems(draft.LineItems),
		TotalAmount:   draft.TotalAmount,
		CreatedAt:     s.timeSource.Now().UTC().Format(createdAtLayout),
	}

	records := make([]Invoice, 0, len(s.records)+1)
	records = append(records, inv)
	s.records = append(records, s.records...)
	err := s.persist()
	s.mu.Unlock()

	s.publish(Event{Kind: EventCreated, ID: inv.ID})
	return inv.clone(), err
}

// Get returns the invoice with the given ID
func (s *Store) Get(id string) (Invoice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.records {
		if inv.ID == id {
			return inv.clone(), true
		}
	}
	return Invoice{}, false
}

// List returns a copy of the collection, newest created first
func (s *Store) List() []Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Invoice, len(s.records))
	for i, inv := range s.records {
		out[i] = inv.clone()
	}
	return out
}

// Update replaces the invoice carrying inv.ID with inv, keeping the stored
// ID and CreatedAt. An unknown ID leaves the collection untouched and
// reports false.
func (s *Store) Update(inv Invoice) (bool, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return false, ErrNotReady
	}

	idx := s.indexOf(inv.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	updated := inv.clone()
	updated.CreatedAt = s.records[idx].CreatedAt
	s.records[idx] = updated
	err := s.persist()
	s.mu.Unlock()

	s.publish(Event{Kind: EventUpdated, ID: inv.ID})
	return true, err
}

// Delete removes the invoice with the given ID. Deleting an unknown ID is
// not an error.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return ErrNotReady
	}

	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	records := make([]Invoice, 0, len(s.records)-1)
	records = append(records, s.records[:idx]...)
	s.records = append(records, s.records[idx+1:]...)
	err := s.persist()
	s.mu.Unlock()

	s.publish(Event{Kind: EventDeleted, ID: id})
	return err
}

// Subscribe registers fn to be called after every change to the
// collection. Calls happen on the mutating goroutine once the store lock
// is released. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.observers[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.observers, id)
	}
}

// Reset clears the durable mirror. Records already in memory are kept.
func (s *Store) Reset() error {
	if err := s.storage.Delete(s.key); err != nil {
		return fmt.Errorf("clearing mirror: %w", err)
	}
	return nil
}

// Close releases the underlying storage
func (s *Store) Close() error {
	return s.storage.Close()
}

func (s *Store) indexOf(id string) int {
	for i, inv := range s.records {
		if inv.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the whole collection to storage. Caller holds s.mu.
func (s *Store) persist() error {
	data, err := encodeMirror(s.records)
	if err != nil {
		slog.Error("Failed to save invoices to storage", "key", s.key, "error", err)
		return fmt.Errorf("writing mirror: %w", err)
	}
	if s.quota > 0 && len(data) > s.quota {
		slog.Error("Failed to save invoices to storage", "key", s.key, "size", len(data), "quota", s.quota)
		return fmt.Errorf("writing mirror: %w (%d > %d bytes)", ErrQuotaExceeded, len(data), s.quota)
	}
	if err := s.storage.Put(s.key, data); err != nil {
		slog.Error("Failed to save invoices to storage", "key", s.key, "error", err)
		return fmt.Errorf("writing mirror: %w", err)
	}
	return nil
}

func (s *Store) publish(e Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
