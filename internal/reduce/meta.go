package reduce

import (
	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
)

// applyStyleSet shallow-merges global style tokens. Values are coerced to
// text; a null value drops the token.
func applyStyleSet(snap *snapshot.Snapshot, evt event.Event) {
	for _, key := range evt.Payload.Keys() {
		v, _ := evt.Payload.Get(key)
		if v.IsNull() {
			delete(snap.Styles, key)
			continue
		}
		snap.Styles[key] = v.Text()
	}
}

// applyMetaUpdate shallow-merges document metadata without validation.
// Re-applying identical values is still an applied event.
func applyMetaUpdate(snap *snapshot.Snapshot, evt event.Event) {
	for _, key := range evt.Payload.Keys() {
		v, _ := evt.Payload.Get(key)
		if v.IsNull() {
			delete(snap.Meta.Fields, key)
			continue
		}
		snap.Meta.Fields[key] = v.Clone()
	}
}

// applyMetaAnnotate appends one immutable annotation. Annotations are never
// edited or removed.
func applyMetaAnnotate(snap *snapshot.Snapshot, evt event.Event) {
	pinned, _ := evt.Payload.Get("pinned")
	snap.Annotations = append(snap.Annotations, snapshot.Annotation{
		Note:      payloadString(evt.Payload, "note"),
		Timestamp: evt.Timestamp,
		Pinned:    pinned.BoolVal(),
	})
}
