// Package assembly coordinates document lifecycle over abstract storage:
// load, apply, save, fork, publish, compact, and repair. It is the only
// layer that performs I/O; everything below it is pure.
package assembly

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/aidekit/aide/internal/docformat"
	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/storage"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrParse indicates a stored document could not be decoded.
	ErrParse = errors.New("document parse error")
	// ErrVersion indicates a stored snapshot is newer than this build
	// supports.
	ErrVersion = errors.New("snapshot version not supported")
)

// publishEventLimit is the event-log size above which published copies omit
// the log. The snapshot block keeps the copy self-sufficient.
const publishEventLimit = 500

// defaultCompactKeep is how many recent events Compact retains by default.
const defaultCompactKeep = 50

// maxTitleSeed caps titles seeded from blueprint identities.
const maxTitleSeed = 100

// Document is one in-memory document: blueprint, snapshot, and event log.
type Document struct {
	ID        string
	Blueprint docformat.Blueprint
	Snapshot  snapshot.Snapshot
	Events    []event.Event
}

// lastSequence returns the highest sequence number across snapshot and log.
func (d *Document) lastSequence() uint64 {
	last := d.Snapshot.LastSeq
	for _, evt := range d.Events {
		if evt.Sequence > last {
			last = evt.Sequence
		}
	}
	return last
}

// Assembly wraps a blob store with per-document locking. Mutating
// operations on one document are serialized within the process; different
// documents proceed in parallel. Cross-process coordination belongs to the
// store.
type Assembly struct {
	store  storage.Store
	locks  *lockRegistry
	log    zerolog.Logger
	tracer trace.Tracer
	clock  func() time.Time
	newID  func() (string, error)
}

// Option configures an Assembly.
type Option func(*Assembly)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(a *Assembly) { a.log = log }
}

// WithClock overrides the time source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(a *Assembly) { a.clock = clock }
}

// WithIDGenerator overrides document id minting, for tests.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(a *Assembly) { a.newID = gen }
}

// New creates an Assembly over the provided store.
func New(store storage.Store, opts ...Option) (*Assembly, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	a := &Assembly{
		store:  store,
		locks:  newLockRegistry(),
		log:    zerolog.Nop(),
		tracer: otel.Tracer("aide/assembly"),
		clock:  time.Now,
		newID:  generateID,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}
