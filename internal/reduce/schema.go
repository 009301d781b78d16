package reduce

import (
	"fmt"

	"github.com/aidekit/aide/internal/event"
	schemapkg "github.com/aidekit/aide/internal/schema"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

func applySchemaCreate(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := payloadString(evt.Payload, "id")
	if _, exists := snap.Schemas[id]; exists {
		// Tombstoned ids are not re-creatable: entities may still carry
		// references that would silently change meaning.
		return &Rejection{Code: CodeAlreadyExists, Message: fmt.Sprintf("schema %q already exists", id)}
	}
	snap.Schemas[id] = schemaFromPayload(evt.Payload, snapshot.Schema{})
	return nil
}

func applySchemaUpdate(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := payloadString(evt.Payload, "id")
	current, exists := snap.Schemas[id]
	if !exists || current.Removed {
		return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("schema %q does not exist", id)}
	}
	snap.Schemas[id] = schemaFromPayload(evt.Payload, current)
	return nil
}

func applySchemaRemove(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := payloadString(evt.Payload, "id")
	current, exists := snap.Schemas[id]
	if !exists || current.Removed {
		return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("schema %q does not exist", id)}
	}
	if n := liveReferences(snap, id); n > 0 {
		return &Rejection{Code: CodeSchemaInUse, Message: fmt.Sprintf("schema %q is referenced by %d live entities", id, n)}
	}
	current.Removed = true
	snap.Schemas[id] = current
	return nil
}

func schemaFromPayload(payload value.Value, base snapshot.Schema) snapshot.Schema {
	if v, ok := payload.Get("interface"); ok {
		base.Interface = v.Str()
	}
	if v, ok := payload.Get("render_html"); ok {
		base.RenderHTML = v.Str()
	}
	if v, ok := payload.Get("render_text"); ok {
		base.RenderText = v.Str()
	}
	if v, ok := payload.Get("css"); ok {
		base.CSS = v.Str()
	}
	return base
}

// liveReferences counts live entities, at any nesting depth, whose `_schema`
// references id.
func liveReferences(snap *snapshot.Snapshot, id string) int {
	count := 0
	for _, topID := range value.Object(snap.Entities).Keys() {
		entity := snap.Entities[topID]
		count += countReferences(entity, id)
	}
	return count
}

func countReferences(entity value.Value, id string) int {
	if entity.Kind() != value.KindObject || snapshot.EntityRemoved(entity) {
		return 0
	}
	count := 0
	if snapshot.EntitySchema(entity) == id {
		count++
	}
	for _, key := range entity.Keys() {
		if schemapkg.IsReservedKey(key) {
			continue
		}
		field, _ := entity.Get(key)
		if field.Kind() != value.KindObject {
			continue
		}
		for _, childID := range field.Keys() {
			child, _ := field.Get(childID)
			count += countReferences(child, id)
		}
	}
	return count
}
