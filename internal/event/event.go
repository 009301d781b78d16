// Package event defines the primitive operation types consumed by the
// reducer and the structural validation applied to their payloads.
package event

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/aidekit/aide/internal/value"
)

// Type identifies a primitive operation.
type Type string

// The fixed primitive set. Anything else is rejected as UNKNOWN_PRIMITIVE.
const (
	TypeSchemaCreate Type = "schema.create"
	TypeSchemaUpdate Type = "schema.update"
	TypeSchemaRemove Type = "schema.remove"
	TypeEntityCreate Type = "entity.create"
	TypeEntityUpdate Type = "entity.update"
	TypeEntityRemove Type = "entity.remove"
	TypeBlockSet     Type = "block.set"
	TypeBlockRemove  Type = "block.remove"
	TypeBlockReorder Type = "block.reorder"
	TypeStyleSet     Type = "style.set"
	TypeMetaUpdate   Type = "meta.update"
	TypeMetaAnnotate Type = "meta.annotate"
)

// Known reports whether t is one of the fixed primitive types.
func (t Type) Known() bool {
	switch t {
	case TypeSchemaCreate, TypeSchemaUpdate, TypeSchemaRemove,
		TypeEntityCreate, TypeEntityUpdate, TypeEntityRemove,
		TypeBlockSet, TypeBlockRemove, TypeBlockReorder,
		TypeStyleSet, TypeMetaUpdate, TypeMetaAnnotate:
		return true
	}
	return false
}

// Domain returns the prefix before the first dot ("schema", "entity", ...).
func (t Type) Domain() string {
	if i := strings.IndexByte(string(t), '.'); i >= 0 {
		return string(t[:i])
	}
	return string(t)
}

// Event is one entry of the append-only log. Events are produced upstream;
// this engine only consumes them.
type Event struct {
	ID        string      `json:"id"`
	Sequence  uint64      `json:"sequence"`
	Timestamp time.Time   `json:"timestamp"`
	Actor     string      `json:"actor"`
	Source    string      `json:"source"`
	Type      Type        `json:"type"`
	Payload   value.Value `json:"payload"`
	Intent    string      `json:"intent,omitempty"`
	Message   string      `json:"message,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// Normalize trims identity fields and coerces the timestamp to UTC before
// validation. A zero payload becomes an empty object.
func (e Event) Normalize() Event {
	e.ID = strings.TrimSpace(e.ID)
	e.Actor = strings.TrimSpace(e.Actor)
	e.Source = strings.TrimSpace(e.Source)
	e.Type = Type(strings.TrimSpace(string(e.Type)))
	if !e.Timestamp.IsZero() {
		e.Timestamp = e.Timestamp.UTC()
	}
	if e.Payload.IsNull() {
		e.Payload = value.EmptyObject()
	}
	return e
}

// MarshalJSON encodes the event with an RFC 3339 UTC timestamp.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID        string      `json:"id"`
		Sequence  uint64      `json:"sequence"`
		Timestamp string      `json:"timestamp"`
		Actor     string      `json:"actor"`
		Source    string      `json:"source"`
		Type      Type        `json:"type"`
		Payload   value.Value `json:"payload"`
		Intent    string      `json:"intent,omitempty"`
		Message   string      `json:"message,omitempty"`
		MessageID string      `json:"message_id,omitempty"`
	}
	return json.Marshal(wire{
		ID:        e.ID,
		Sequence:  e.Sequence,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:     e.Actor,
		Source:    e.Source,
		Type:      e.Type,
		Payload:   e.Payload,
		Intent:    e.Intent,
		Message:   e.Message,
		MessageID: e.MessageID,
	})
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	type wire struct {
		ID        string      `json:"id"`
		Sequence  uint64      `json:"sequence"`
		Timestamp string      `json:"timestamp"`
		Actor     string      `json:"actor"`
		Source    string      `json:"source"`
		Type      Type        `json:"type"`
		Payload   value.Value `json:"payload"`
		Intent    string      `json:"intent,omitempty"`
		Message   string      `json:"message,omitempty"`
		MessageID string      `json:"message_id,omitempty"`
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed := Event{
		ID:        w.ID,
		Sequence:  w.Sequence,
		Actor:     w.Actor,
		Source:    w.Source,
		Type:      w.Type,
		Payload:   w.Payload,
		Intent:    w.Intent,
		Message:   w.Message,
		MessageID: w.MessageID,
	}
	if w.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, w.Timestamp)
		if err != nil {
			return err
		}
		parsed.Timestamp = ts.UTC()
	}
	*e = parsed
	return nil
}
