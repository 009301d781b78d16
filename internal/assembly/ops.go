package assembly

import (
	"bytes"
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aidekit/aide/internal/docformat"
	"github.com/aidekit/aide/internal/encoding"
	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/reduce"
	"github.com/aidekit/aide/internal/render"
	"github.com/aidekit/aide/internal/schema"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/storage"
	"github.com/aidekit/aide/internal/value"
)

// generateID mints a compact lowercase document id from a UUIDv4.
func generateID() (string, error) {
	raw := uuid.New()
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw[:])
	return "d" + strings.ToLower(encoded), nil
}

// Load fetches and decodes a document.
func (a *Assembly) Load(ctx context.Context, id string) (*Document, error) {
	ctx, span := a.tracer.Start(ctx, "assembly.load")
	defer span.End()

	data, err := a.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}

	blueprint, snap, events, err := docformat.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, id, err)
	}
	if snap.Version > snapshot.Version {
		return nil, fmt.Errorf("%w: document %s has version %d, supported up to %d",
			ErrVersion, id, snap.Version, snapshot.Version)
	}
	return &Document{ID: id, Blueprint: blueprint, Snapshot: snap, Events: events}, nil
}

// Failure records one event that could not be applied.
type Failure struct {
	Event  event.Event
	Reason string
}

// ApplyResult summarizes one Apply call.
type ApplyResult struct {
	Applied  int
	Failures []Failure
	Warnings []string
}

// Apply validates and reduces events in input order. Unsequenced events get
// monotonic sequence numbers continuing from the document's last. A failing
// event is recorded and skipped; later valid events still apply. There is
// no rollback: once started, every event is processed to completion.
func (a *Assembly) Apply(ctx context.Context, doc *Document, events []event.Event) (ApplyResult, error) {
	_, span := a.tracer.Start(ctx, "assembly.apply")
	defer span.End()

	release := a.locks.acquire(doc.ID)
	defer release()

	var result ApplyResult
	nextSeq := doc.lastSequence()

	for _, evt := range events {
		evt = evt.Normalize()
		if evt.Sequence == 0 {
			nextSeq++
			evt.Sequence = nextSeq
		} else if evt.Sequence > nextSeq {
			nextSeq = evt.Sequence
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = a.clock().UTC()
		}

		if errs := event.Validate(evt.Type, evt.Payload); len(errs) > 0 {
			result.Failures = append(result.Failures, Failure{Event: evt, Reason: strings.Join(errs, "; ")})
			a.log.Warn().Str("doc", doc.ID).Str("type", string(evt.Type)).
				Strs("errors", errs).Msg("event failed validation")
			continue
		}

		reduced := reduce.Reduce(doc.Snapshot, evt)
		if !reduced.Applied {
			result.Failures = append(result.Failures, Failure{Event: evt, Reason: reduced.Rejection.Error()})
			a.log.Warn().Str("doc", doc.ID).Str("type", string(evt.Type)).
				Str("code", string(reduced.Rejection.Code)).Msg("event rejected")
			continue
		}
		doc.Snapshot = reduced.Snapshot
		doc.Events = append(doc.Events, evt)
		result.Applied++
		result.Warnings = append(result.Warnings, reduced.Warnings...)
	}
	return result, nil
}

// Save renders and persists the document, retrying a failed write exactly
// once before propagating.
func (a *Assembly) Save(ctx context.Context, doc *Document) error {
	ctx, span := a.tracer.Start(ctx, "assembly.save")
	defer span.End()

	release := a.locks.acquire(doc.ID)
	defer release()

	rendered, err := render.Render(doc.Snapshot, doc.Blueprint, doc.Events, render.Options{Channel: render.ChannelHTML})
	if err != nil {
		return fmt.Errorf("render %s: %w", doc.ID, err)
	}
	if err := a.store.Put(ctx, doc.ID, []byte(rendered)); err != nil {
		a.log.Warn().Str("doc", doc.ID).Err(err).Msg("save failed, retrying once")
		if err := a.store.Put(ctx, doc.ID, []byte(rendered)); err != nil {
			return fmt.Errorf("save %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Create builds a new document with the canonical empty snapshot. The title
// is seeded from the first sentence of the blueprint identity via a regular
// meta.update event, so replay reproduces it. The document is not saved.
func (a *Assembly) Create(ctx context.Context, blueprint docformat.Blueprint) (*Document, error) {
	_, span := a.tracer.Start(ctx, "assembly.create")
	defer span.End()

	id, err := a.newID()
	if err != nil {
		return nil, fmt.Errorf("mint document id: %w", err)
	}
	doc := &Document{ID: id, Blueprint: blueprint, Snapshot: snapshot.Empty()}

	if title := render.FirstSentence(blueprint.Identity, maxTitleSeed); title != "" {
		seed := event.Event{
			ID:        uuid.NewString(),
			Timestamp: a.clock().UTC(),
			Actor:     "system",
			Source:    "assembly",
			Type:      event.TypeMetaUpdate,
			Payload:   value.Object(map[string]value.Value{"title": value.String(title)}),
		}
		if _, err := a.Apply(ctx, doc, []event.Event{seed}); err != nil {
			return nil, err
		}
	}
	a.log.Info().Str("doc", id).Msg("document created")
	return doc, nil
}

// PublishResult describes a published copy.
type PublishResult struct {
	Slug            string
	ContentHash     string
	EventLogOmitted bool
}

// Publish writes a public copy under slug (default: the document id). Free
// tier copies carry a visible attribution footer; the event log is omitted
// above the publish limit since the snapshot is self-sufficient.
func (a *Assembly) Publish(ctx context.Context, doc *Document, slug string, freeTier bool) (PublishResult, error) {
	ctx, span := a.tracer.Start(ctx, "assembly.publish")
	defer span.End()

	release := a.locks.acquire(doc.ID)
	defer release()

	if slug == "" {
		slug = doc.ID
	}
	omitLog := len(doc.Events) > publishEventLimit

	rendered, err := render.Render(doc.Snapshot, doc.Blueprint, doc.Events, render.Options{
		Channel:      render.ChannelHTML,
		Attribution:  freeTier,
		OmitEventLog: omitLog,
	})
	if err != nil {
		return PublishResult{}, fmt.Errorf("render %s: %w", doc.ID, err)
	}
	if err := a.store.PutPublished(ctx, slug, []byte(rendered)); err != nil {
		return PublishResult{}, fmt.Errorf("publish %s: %w", slug, err)
	}

	hash, err := encoding.ContentHash(doc.Snapshot.ToValue())
	if err != nil {
		return PublishResult{}, fmt.Errorf("hash %s: %w", doc.ID, err)
	}
	a.log.Info().Str("doc", doc.ID).Str("slug", slug).Bool("log_omitted", omitLog).Msg("document published")
	return PublishResult{Slug: slug, ContentHash: hash, EventLogOmitted: omitLog}, nil
}

// Fork deep-clones a document under a new id, stripping the event log,
// per-entity sequence bookkeeping, and annotations. The title gains a
// "Copy of " prefix. The fork is saved before returning.
func (a *Assembly) Fork(ctx context.Context, id string) (*Document, error) {
	ctx, span := a.tracer.Start(ctx, "assembly.fork")
	defer span.End()

	source, err := a.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	newID, err := a.newID()
	if err != nil {
		return nil, fmt.Errorf("mint document id: %w", err)
	}

	snap := source.Snapshot.Clone()
	snap.Annotations = nil
	snap.LastSeq = 0
	for entityID, entity := range snap.Entities {
		stripSequenceFields(entity)
		snap.Entities[entityID] = entity
	}
	title := snap.Meta.Title()
	if title == "" {
		title = "Untitled"
	}
	snap.Meta.Fields["title"] = value.String("Copy of " + title)

	fork := &Document{ID: newID, Blueprint: source.Blueprint, Snapshot: snap}
	if err := a.Save(ctx, fork); err != nil {
		return nil, err
	}
	a.log.Info().Str("source", id).Str("doc", newID).Msg("document forked")
	return fork, nil
}

// stripSequenceFields removes `_created_seq`/`_updated_seq` from an entity
// and every nested child.
func stripSequenceFields(entity value.Value) {
	if entity.Kind() != value.KindObject {
		return
	}
	entity.Delete(snapshot.KeyCreatedSeq)
	entity.Delete(snapshot.KeyUpdatedSeq)
	for _, key := range entity.Keys() {
		if schema.IsReservedKey(key) {
			continue
		}
		field, _ := entity.Get(key)
		if field.Kind() != value.KindObject {
			continue
		}
		for _, childID := range field.Keys() {
			child, _ := field.Get(childID)
			stripSequenceFields(child)
		}
	}
}

// IntegrityReport is the outcome of comparing stored state to replay.
type IntegrityReport struct {
	// Match is true when the stored snapshot equals the replay of the
	// document's event log.
	Match bool
	// EventCount is the number of events replayed.
	EventCount int
}

// IntegrityCheck compares the stored snapshot against a full replay of the
// event log. Documents with truncated logs (forks, compacted documents)
// legitimately diverge; callers decide whether that is a problem.
func (a *Assembly) IntegrityCheck(ctx context.Context, doc *Document) (IntegrityReport, error) {
	_, span := a.tracer.Start(ctx, "assembly.integrity_check")
	defer span.End()

	replayed := reduce.Replay(doc.Events)
	stored, err := doc.Snapshot.MarshalJSON()
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("encode stored snapshot: %w", err)
	}
	recomputed, err := replayed.MarshalJSON()
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("encode replayed snapshot: %w", err)
	}
	return IntegrityReport{Match: bytes.Equal(stored, recomputed), EventCount: len(doc.Events)}, nil
}

// Repair discards the stored snapshot, recomputes it from replay, and
// persists the re-rendered document.
func (a *Assembly) Repair(ctx context.Context, doc *Document) error {
	ctx, span := a.tracer.Start(ctx, "assembly.repair")
	defer span.End()

	func() {
		release := a.locks.acquire(doc.ID)
		defer release()
		doc.Snapshot = reduce.Replay(doc.Events)
	}()
	a.log.Info().Str("doc", doc.ID).Int("events", len(doc.Events)).Msg("document repaired from replay")
	return a.Save(ctx, doc)
}

// Compact truncates the persisted event log to the most recent keepRecent
// entries (default 50). The snapshot is unaffected.
func (a *Assembly) Compact(ctx context.Context, doc *Document, keepRecent int) error {
	ctx, span := a.tracer.Start(ctx, "assembly.compact")
	defer span.End()

	if keepRecent <= 0 {
		keepRecent = defaultCompactKeep
	}
	func() {
		release := a.locks.acquire(doc.ID)
		defer release()
		if len(doc.Events) > keepRecent {
			doc.Events = append([]event.Event(nil), doc.Events[len(doc.Events)-keepRecent:]...)
		}
	}()
	return a.Save(ctx, doc)
}

// Delete removes a document blob.
func (a *Assembly) Delete(ctx context.Context, id string) error {
	ctx, span := a.tracer.Start(ctx, "assembly.delete")
	defer span.End()

	release := a.locks.acquire(id)
	defer release()
	return a.store.Delete(ctx, id)
}
