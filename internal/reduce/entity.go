package reduce

import (
	"fmt"
	"strings"

	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/schema"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

// container locates the Record container that holds (or will hold) the
// terminal entity of a path. For a one-segment path the container is the
// top-level entity map. Every segment before the terminal must resolve to a
// live entity; the terminal Record field is auto-created on demand.
func container(snap *snapshot.Snapshot, segments []string, createField bool) (value.Value, string, *Rejection) {
	terminal := segments[len(segments)-1]
	if len(segments) == 1 {
		return value.Object(snap.Entities), terminal, nil
	}

	parentPath := strings.Join(segments[:len(segments)-2], "/")
	parent, ok := snap.Resolve(parentPath)
	if !ok {
		return value.Value{}, "", &Rejection{Code: CodeParentNotFound, Message: fmt.Sprintf("entity %q does not exist", parentPath)}
	}

	fieldName := segments[len(segments)-2]
	field, ok := parent.Get(fieldName)
	if !ok {
		if !createField {
			return value.Value{}, "", &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("field %q does not exist on %q", fieldName, parentPath)}
		}
		field = value.EmptyObject()
		parent.Set(fieldName, field)
	}
	if field.Kind() != value.KindObject {
		return value.Value{}, "", &Rejection{Code: CodeParentNotFound, Message: fmt.Sprintf("field %q on %q is not a container", fieldName, parentPath)}
	}
	return field, terminal, nil
}

// entityFromPayload builds an entity value from payload fields, skipping the
// addressing key.
func entityFromPayload(payload value.Value, seq uint64) value.Value {
	entity := value.EmptyObject()
	for _, key := range payload.Keys() {
		if key == "id" {
			continue
		}
		v, _ := payload.Get(key)
		if v.IsNull() {
			continue
		}
		entity.Set(key, v.Clone())
	}
	entity.Set(snapshot.KeyCreatedSeq, value.Number(float64(seq)))
	entity.Set(snapshot.KeyUpdatedSeq, value.Number(float64(seq)))
	return entity
}

// schemaFields strips reserved keys and the addressing key before schema
// validation.
func schemaFields(entity value.Value) map[string]value.Value {
	fields := map[string]value.Value{}
	for _, key := range entity.Keys() {
		if key == "id" || schema.IsReservedKey(key) {
			continue
		}
		v, _ := entity.Get(key)
		fields[key] = v
	}
	return fields
}

func applyEntityCreate(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	path := payloadString(evt.Payload, "id")
	if _, exists := snap.Resolve(path); exists {
		return &Rejection{Code: CodeAlreadyExists, Message: fmt.Sprintf("entity %q already exists", path)}
	}

	if ref, ok := evt.Payload.Get(snapshot.KeySchema); ok {
		if !snap.LiveSchema(ref.Str()) {
			return &Rejection{Code: CodeSchemaNotFound, Message: fmt.Sprintf("schema %q does not exist", ref.Str())}
		}
		iface, _ := schema.Parse(snap.Schemas[ref.Str()].Interface)
		if errs := schema.ValidateFields(schemaFields(evt.Payload), iface); len(errs) > 0 {
			return &Rejection{Code: CodeValidationError, Message: strings.Join(errs, "; ")}
		}
	}

	segments, _ := snapshot.SplitPath(path)
	parent, terminal, rejection := container(snap, segments, true)
	if rejection != nil {
		return rejection
	}
	// A tombstoned entity at the terminal is replaced wholesale.
	parent.Set(terminal, entityFromPayload(evt.Payload, evt.Sequence))
	return nil
}

func applyEntityUpdate(snap *snapshot.Snapshot, evt event.Event) ([]string, *Rejection) {
	path := payloadString(evt.Payload, "id")
	entity, ok := snap.Resolve(path)
	if !ok {
		return nil, &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("entity %q does not exist", path)}
	}

	for _, key := range evt.Payload.Keys() {
		if key == "id" {
			continue
		}
		incoming, _ := evt.Payload.Get(key)
		if incoming.IsNull() {
			// Null top-level fields are ignored: partial updates from
			// streaming producers routinely carry them.
			continue
		}
		existing, present := entity.Get(key)
		if present && existing.Kind() == value.KindObject && incoming.Kind() == value.KindObject && !schema.IsReservedKey(key) {
			mergeRecord(existing, incoming, evt.Sequence)
			continue
		}
		entity.Set(key, incoming.Clone())
	}
	entity.Set(snapshot.KeyUpdatedSeq, value.Number(float64(evt.Sequence)))

	// Schema violations on update are warnings, never rejections: streaming
	// updates are expected to transiently violate shape.
	var warnings []string
	if ref := snapshot.EntitySchema(entity); ref != "" {
		if !snap.LiveSchema(ref) {
			warnings = append(warnings, fmt.Sprintf("entity %q references missing schema %q", path, ref))
		} else if iface, parsed := schema.Parse(snap.Schemas[ref].Interface); parsed {
			for _, problem := range schema.ValidateFields(schemaFields(entity), iface) {
				warnings = append(warnings, fmt.Sprintf("entity %q: %s", path, problem))
			}
		}
	}
	return warnings, nil
}

// mergeRecord merges an incoming Record container key by key: a null child
// tombstones and cascades, a new key inserts a child entity, an existing key
// shallow-merges into the child.
func mergeRecord(existing, incoming value.Value, seq uint64) {
	for _, childID := range incoming.Keys() {
		incomingChild, _ := incoming.Get(childID)
		current, present := existing.Get(childID)

		if incomingChild.IsNull() {
			if present && current.Kind() == value.KindObject {
				tombstone(current)
			}
			continue
		}
		if !present || current.Kind() != value.KindObject || incomingChild.Kind() != value.KindObject {
			child := incomingChild.Clone()
			if child.Kind() == value.KindObject {
				child.Set(snapshot.KeyCreatedSeq, value.Number(float64(seq)))
				child.Set(snapshot.KeyUpdatedSeq, value.Number(float64(seq)))
			}
			existing.Set(childID, child)
			continue
		}
		for _, key := range incomingChild.Keys() {
			v, _ := incomingChild.Get(key)
			if v.IsNull() {
				current.Delete(key)
				continue
			}
			current.Set(key, v.Clone())
		}
		current.Set(snapshot.KeyUpdatedSeq, value.Number(float64(seq)))
	}
}

func applyEntityRemove(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	path := payloadString(evt.Payload, "id")
	entity, ok := snap.Resolve(path)
	if !ok {
		// Removing twice is a rejection, not a silent no-op: the audit log
		// stays honest about which events changed anything.
		return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("entity %q does not exist", path)}
	}
	tombstone(entity)
	return nil
}

// tombstone marks an entity removed and cascades to every nested child in
// every Record-shaped field, at any depth.
func tombstone(entity value.Value) {
	entity.Set(snapshot.KeyRemoved, value.Bool(true))
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
			if child.Kind() == value.KindObject {
				tombstone(child)
			}
		}
	}
}
