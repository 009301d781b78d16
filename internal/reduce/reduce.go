// Package reduce folds primitive events into document snapshots. Reduce is
// pure: the input snapshot is never mutated, and identical inputs always
// yield identical outputs.
package reduce

import (
	"strings"

	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

// Code is a machine-readable rejection code.
type Code string

const (
	CodeMissingID        Code = "MISSING_ID"
	CodeInvalidID        Code = "INVALID_ID"
	CodeAlreadyExists    Code = "ALREADY_EXISTS"
	CodeNotFound         Code = "NOT_FOUND"
	CodeParentNotFound   Code = "PARENT_NOT_FOUND"
	CodeSchemaNotFound   Code = "SCHEMA_NOT_FOUND"
	CodeSchemaInUse      Code = "SCHEMA_IN_USE"
	CodeValidationError  Code = "VALIDATION_ERROR"
	CodeOrderMismatch    Code = "ORDER_MISMATCH"
	CodeCannotRemoveRoot Code = "CANNOT_REMOVE_ROOT"
	CodeUnknownPrimitive Code = "UNKNOWN_PRIMITIVE"
)

// Rejection captures why an event was declined. Rejections are values, never
// panics, and never leave the snapshot modified.
type Rejection struct {
	Code    Code
	Message string
}

// Error renders the rejection for logs.
func (r Rejection) Error() string {
	return string(r.Code) + ": " + r.Message
}

// Result is the outcome of applying one event.
type Result struct {
	Snapshot snapshot.Snapshot
	Applied  bool
	Warnings []string
	// Rejection is non-nil when Applied is false.
	Rejection *Rejection
}

// Reduce applies one event to a snapshot. On rejection the returned snapshot
// is the input, untouched. A no-op mutation (values already equal) still
// reports Applied.
func Reduce(snap snapshot.Snapshot, evt event.Event) Result {
	evt = evt.Normalize()

	if !evt.Type.Known() {
		return rejected(snap, CodeUnknownPrimitive, "unknown primitive type "+string(evt.Type))
	}
	if errs := event.Validate(evt.Type, evt.Payload); len(errs) > 0 {
		return rejected(snap, classify(errs), strings.Join(errs, "; "))
	}

	next := snap.Clone()
	var warnings []string
	var rejection *Rejection

	switch evt.Type {
	case event.TypeSchemaCreate:
		rejection = applySchemaCreate(&next, evt)
	case event.TypeSchemaUpdate:
		rejection = applySchemaUpdate(&next, evt)
	case event.TypeSchemaRemove:
		rejection = applySchemaRemove(&next, evt)
	case event.TypeEntityCreate:
		rejection = applyEntityCreate(&next, evt)
	case event.TypeEntityUpdate:
		warnings, rejection = applyEntityUpdate(&next, evt)
	case event.TypeEntityRemove:
		rejection = applyEntityRemove(&next, evt)
	case event.TypeBlockSet:
		rejection = applyBlockSet(&next, evt)
	case event.TypeBlockRemove:
		rejection = applyBlockRemove(&next, evt)
	case event.TypeBlockReorder:
		rejection = applyBlockReorder(&next, evt)
	case event.TypeStyleSet:
		applyStyleSet(&next, evt)
	case event.TypeMetaUpdate:
		applyMetaUpdate(&next, evt)
	case event.TypeMetaAnnotate:
		applyMetaAnnotate(&next, evt)
	}

	if rejection != nil {
		return Result{Snapshot: snap, Rejection: rejection}
	}
	if evt.Sequence > next.LastSeq {
		next.LastSeq = evt.Sequence
	}
	return Result{Snapshot: next, Applied: true, Warnings: warnings}
}

// Replay folds events from the canonical empty snapshot, skipping rejected
// events. It is the source of truth for integrity checking.
func Replay(events []event.Event) snapshot.Snapshot {
	snap := snapshot.Empty()
	for _, evt := range events {
		result := Reduce(snap, evt)
		if result.Applied {
			snap = result.Snapshot
		}
	}
	return snap
}

func rejected(snap snapshot.Snapshot, code Code, message string) Result {
	return Result{Snapshot: snap, Rejection: &Rejection{Code: code, Message: message}}
}

// classify maps structural validation failures onto rejection codes so
// callers that skip pre-validation still get precise reasons.
func classify(errs []string) Code {
	for _, msg := range errs {
		switch {
		case strings.Contains(msg, "id is required"):
			return CodeMissingID
		case strings.Contains(msg, "valid identifier") || strings.Contains(msg, "valid entity path"):
			return CodeInvalidID
		}
	}
	return CodeValidationError
}

func payloadString(payload value.Value, key string) string {
	v, _ := payload.Get(key)
	return v.Str()
}
