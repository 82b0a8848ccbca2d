package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mayoristas-py/directory-admin/internal/domain"
	"github.com/mayoristas-py/directory-admin/internal/observability"
)

var ErrDocumentCorrupt = errors.New("document is corrupt")

// Backend persists the raw document bytes. Read returns nil bytes and a nil
// error when nothing has been stored yet.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

type DocumentStore interface {
	Snapshot(ctx context.Context) (*domain.Document, error)
	View(ctx context.Context, fn func(*domain.Document) error) error
	Update(ctx context.Context, fn func(*domain.Document) error) error
}

// Store keeps the current document in memory and writes every accepted
// change through to its backend. All mutations are serialized by one mutex.
// The backend is read only at startup, so one process owns the document.
type Store struct {
	mu      sync.Mutex
	backend Backend
	current *domain.Document
	now     func() time.Time
	logger  *slog.Logger
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

func NewStore(ctx context.Context, backend Backend, opts ...StoreOption) (*Store, error) {
	s := &Store{backend: backend, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	raw, err := backend.Read(ctx)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "load", "error")
		return nil, fmt.Errorf("read document from %s: %w", backend.Name(), err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "load", "error")
		return nil, err
	}
	s.current = doc
	observability.RecordRepositoryOperation(ctx, "document", "load", "success")
	s.logger.Info("document loaded",
		"backend", backend.Name(),
		"shops", len(doc.Shops),
		"devices", len(doc.DeviceRegistrations),
		"features", len(doc.FeatureAccess),
	)
	return s, nil
}

// Snapshot returns a deep copy the caller may keep and mutate freely.
func (s *Store) Snapshot(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.current.Clone()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "snapshot", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "document", "snapshot", "success")
	return doc, nil
}

// View runs fn against the live document under the lock. fn must not
// mutate it or retain references after returning.
func (s *Store) View(ctx context.Context, fn func(*domain.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.current)
	observability.RecordRepositoryOperation(ctx, "document", "view", outcome(err))
	return err
}

// Update applies fn to a copy of the document. If fn fails, or the write
// fails, the stored and in-memory state are left untouched.
func (s *Store) Update(ctx context.Context, fn func(*domain.Document) error) error {
	ctx, span := observability.Tracer().Start(ctx, "document.update")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Clone()
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "update", "error")
		return err
	}
	if err := fn(next); err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "update", "rejected")
		span.SetAttributes(attribute.String("outcome", "rejected"))
		return err
	}
	next.LastModified = domain.NewTimestamp(s.now())

	raw, err := encodeDocument(next)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "update", "error")
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.backend.Write(ctx, raw); err != nil {
		observability.RecordRepositoryOperation(ctx, "document", "update", "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("write document to %s: %w", s.backend.Name(), err)
	}
	s.current = next
	observability.RecordRepositoryOperation(ctx, "document", "update", "success")
	return nil
}

func decodeDocument(raw []byte) (*domain.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.NewDocument(), nil
	}
	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, err)
	}
	return &doc, nil
}

func encodeDocument(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
