package snapshot

import (
	"fmt"
	"time"

	"github.com/aidekit/aide/internal/value"
)

// ToValue converts the snapshot into its wire shape. Marshaling the result
// yields canonical sorted-key JSON, which is what gets embedded in the
// rendered document.
func (s Snapshot) ToValue() value.Value {
	root := map[string]value.Value{
		"version": value.Number(float64(s.Version)),
	}
	if s.LastSeq > 0 {
		root["last_seq"] = value.Number(float64(s.LastSeq))
	}

	meta := map[string]value.Value{}
	for k, v := range s.Meta.Fields {
		meta[k] = v
	}
	root["meta"] = value.Object(meta)

	schemas := map[string]value.Value{}
	for id, schema := range s.Schemas {
		fields := map[string]value.Value{"interface": value.String(schema.Interface)}
		if schema.RenderHTML != "" {
			fields["render_html"] = value.String(schema.RenderHTML)
		}
		if schema.RenderText != "" {
			fields["render_text"] = value.String(schema.RenderText)
		}
		if schema.CSS != "" {
			fields["css"] = value.String(schema.CSS)
		}
		if schema.Removed {
			fields[KeyRemoved] = value.Bool(true)
		}
		schemas[id] = value.Object(fields)
	}
	root["schemas"] = value.Object(schemas)

	entities := map[string]value.Value{}
	for id, entity := range s.Entities {
		entities[id] = entity
	}
	root["entities"] = value.Object(entities)

	blocks := map[string]value.Value{}
	for id, block := range s.Blocks {
		fields := map[string]value.Value{"type": value.String(block.Type)}
		if block.Parent != "" {
			fields["parent"] = value.String(block.Parent)
		}
		if len(block.Children) > 0 {
			children := make([]value.Value, len(block.Children))
			for i, child := range block.Children {
				children[i] = value.String(child)
			}
			fields["children"] = value.Array(children...)
		}
		if block.Entity != "" {
			fields["entity"] = value.String(block.Entity)
		}
		if block.Text != "" {
			fields["text"] = value.String(block.Text)
		}
		if block.Removed {
			fields[KeyRemoved] = value.Bool(true)
		}
		blocks[id] = value.Object(fields)
	}
	root["blocks"] = value.Object(blocks)

	styles := map[string]value.Value{}
	for k, v := range s.Styles {
		styles[k] = value.String(v)
	}
	root["styles"] = value.Object(styles)

	annotations := make([]value.Value, len(s.Annotations))
	for i, a := range s.Annotations {
		fields := map[string]value.Value{
			"note":      value.String(a.Note),
			"timestamp": value.String(a.Timestamp.UTC().Format(time.RFC3339Nano)),
		}
		if a.Pinned {
			fields["pinned"] = value.Bool(true)
		}
		annotations[i] = value.Object(fields)
	}
	root["annotations"] = value.Array(annotations...)

	return value.Object(root)
}

// FromValue rebuilds a snapshot from its wire shape.
func FromValue(root value.Value) (Snapshot, error) {
	if root.Kind() != value.KindObject {
		return Snapshot{}, fmt.Errorf("snapshot must be an object, got %s", root.Kind())
	}
	snap := Empty()

	if version, ok := root.Get("version"); ok {
		if version.Kind() != value.KindNumber {
			return Snapshot{}, fmt.Errorf("snapshot version must be a number")
		}
		snap.Version = int(version.Num())
	}
	if lastSeq, ok := root.Get("last_seq"); ok && lastSeq.Kind() == value.KindNumber {
		snap.LastSeq = uint64(lastSeq.Num())
	}

	if meta, ok := root.Get("meta"); ok {
		if meta.Kind() != value.KindObject {
			return Snapshot{}, fmt.Errorf("snapshot meta must be an object")
		}
		for _, k := range meta.Keys() {
			v, _ := meta.Get(k)
			snap.Meta.Fields[k] = v
		}
	}

	if schemas, ok := root.Get("schemas"); ok {
		if schemas.Kind() != value.KindObject {
			return Snapshot{}, fmt.Errorf("snapshot schemas must be an object")
		}
		for _, id := range schemas.Keys() {
			entry, _ := schemas.Get(id)
			if entry.Kind() != value.KindObject {
				return Snapshot{}, fmt.Errorf("schema %q must be an object", id)
			}
			schema := Schema{}
			if v, ok := entry.Get("interface"); ok {
				schema.Interface = v.Str()
			}
			if v, ok := entry.Get("render_html"); ok {
				schema.RenderHTML = v.Str()
			}
			if v, ok := entry.Get("render_text"); ok {
				schema.RenderText = v.Str()
			}
			if v, ok := entry.Get("css"); ok {
				schema.CSS = v.Str()
			}
			if v, ok := entry.Get(KeyRemoved); ok {
				schema.Removed = v.BoolVal()
			}
			snap.Schemas[id] = schema
		}
	}

	if entities, ok := root.Get("entities"); ok {
		if entities.Kind() != value.KindObject {
			return Snapshot{}, fmt.Errorf("snapshot entities must be an object")
		}
		for _, id := range entities.Keys() {
			entity, _ := entities.Get(id)
			snap.Entities[id] = entity
		}
	}

	if blocks, ok := root.Get("blocks"); ok {
		if blocks.Kind() != value.KindObject {
			return Snapshot{}, fmt.Errorf("snapshot blocks must be an object")
		}
		for _, id := range blocks.Keys() {
			entry, _ := blocks.Get(id)
			if entry.Kind() != value.KindObject {
				return Snapshot{}, fmt.Errorf("block %q must be an object", id)
			}
			block := Block{ID: id}
			if v, ok := entry.Get("type"); ok {
				block.Type = v.Str()
			}
			if v, ok := entry.Get("parent"); ok {
				block.Parent = v.Str()
			}
			if v, ok := entry.Get("children"); ok && v.Kind() == value.KindArray {
				for _, child := range v.Items() {
					block.Children = append(block.Children, child.Str())
				}
			}
			if v, ok := entry.Get("entity"); ok {
				block.Entity = v.Str()
			}
			if v, ok := entry.Get("text"); ok {
				block.Text = v.Str()
			}
			if v, ok := entry.Get(KeyRemoved); ok {
				block.Removed = v.BoolVal()
			}
			snap.Blocks[id] = block
		}
	}
	if _, ok := snap.Blocks[RootBlockID]; !ok {
		snap.Blocks[RootBlockID] = Block{ID: RootBlockID, Type: BlockTypeRoot}
	}

	if styles, ok := root.Get("styles"); ok {
		if styles.Kind() != value.KindObject {
			return Snapshot{}, fmt.Errorf("snapshot styles must be an object")
		}
		for _, k := range styles.Keys() {
			v, _ := styles.Get(k)
			snap.Styles[k] = v.Text()
		}
	}

	if annotations, ok := root.Get("annotations"); ok {
		if annotations.Kind() != value.KindArray {
			return Snapshot{}, fmt.Errorf("snapshot annotations must be an array")
		}
		for i, entry := range annotations.Items() {
			if entry.Kind() != value.KindObject {
				return Snapshot{}, fmt.Errorf("annotation %d must be an object", i)
			}
			annotation := Annotation{}
			if v, ok := entry.Get("note"); ok {
				annotation.Note = v.Str()
			}
			if v, ok := entry.Get("timestamp"); ok && v.Str() != "" {
				ts, err := time.Parse(time.RFC3339Nano, v.Str())
				if err != nil {
					return Snapshot{}, fmt.Errorf("annotation %d timestamp: %w", i, err)
				}
				annotation.Timestamp = ts.UTC()
			}
			if v, ok := entry.Get("pinned"); ok {
				annotation.Pinned = v.BoolVal()
			}
			snap.Annotations = append(snap.Annotations, annotation)
		}
	}

	return snap, nil
}

// MarshalJSON encodes the snapshot as canonical JSON.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return s.ToValue().MarshalJSON()
}

// UnmarshalJSON decodes a snapshot from its wire shape.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var root value.Value
	if err := root.UnmarshalJSON(data); err != nil {
		return err
	}
	decoded, err := FromValue(root)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
