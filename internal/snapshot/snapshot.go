// Package snapshot defines the canonical document state produced by folding
// primitive events, plus path addressing over nested entities.
package snapshot

import (
	"time"

	"github.com/aidekit/aide/internal/value"
)

// Version is the current snapshot format version. Loaders reject snapshots
// whose recorded version exceeds it.
const Version = 1

// RootBlockID is the immortal root of the block tree.
const RootBlockID = "block_root"

// BlockTypeRoot is the only valid type for the root block.
const BlockTypeRoot = "root"

// BlockTypes is the fixed set of valid block types.
var BlockTypes = map[string]bool{
	BlockTypeRoot: true,
	"section":     true,
	"text":        true,
	"entity":      true,
	"divider":     true,
}

// Reserved entity field keys, mirrored from the schema package for callers
// that only import snapshot.
const (
	KeySchema     = "_schema"
	KeyPos        = "_pos"
	KeyRemoved    = "_removed"
	KeyCreatedSeq = "_created_seq"
	KeyUpdatedSeq = "_updated_seq"
	KeyShape      = "_shape"
)

// Schema is a named interface declaration plus optional render templates.
type Schema struct {
	Interface  string `json:"interface"`
	RenderHTML string `json:"render_html,omitempty"`
	RenderText string `json:"render_text,omitempty"`
	CSS        string `json:"css,omitempty"`
	Removed    bool   `json:"_removed,omitempty"`
}

// Block is one node of the layout tree.
type Block struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children,omitempty"`
	Entity   string   `json:"entity,omitempty"`
	Text     string   `json:"text,omitempty"`
	Removed  bool     `json:"_removed,omitempty"`
}

// Annotation is one immutable note appended via meta.annotate.
type Annotation struct {
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
	Pinned    bool      `json:"pinned,omitempty"`
}

// Meta holds document-level metadata as an open field map. Well-known keys
// (title, identity) have accessors; everything else rides along untyped.
type Meta struct {
	Fields map[string]value.Value
}

// Title returns the document title, if set.
func (m Meta) Title() string {
	if v, ok := m.Fields["title"]; ok {
		return v.Str()
	}
	return ""
}

// Identity returns the document identity/voice statement, if set.
func (m Meta) Identity() string {
	if v, ok := m.Fields["identity"]; ok {
		return v.Str()
	}
	return ""
}

// Snapshot is the canonical current state of one document.
type Snapshot struct {
	Version     int
	Meta        Meta
	Schemas     map[string]Schema
	Entities    map[string]value.Value
	Blocks      map[string]Block
	Styles      map[string]string
	Annotations []Annotation
	// LastSeq is the sequence number of the last applied event.
	LastSeq uint64
}

// Empty returns the canonical empty snapshot: current version, a root block,
// and nothing else.
func Empty() Snapshot {
	return Snapshot{
		Version:  Version,
		Meta:     Meta{Fields: map[string]value.Value{}},
		Schemas:  map[string]Schema{},
		Entities: map[string]value.Value{},
		Blocks: map[string]Block{
			RootBlockID: {ID: RootBlockID, Type: BlockTypeRoot},
		},
		Styles: map[string]string{},
	}
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Meta = Meta{Fields: make(map[string]value.Value, len(s.Meta.Fields))}
	for k, v := range s.Meta.Fields {
		out.Meta.Fields[k] = v.Clone()
	}
	out.Schemas = make(map[string]Schema, len(s.Schemas))
	for k, v := range s.Schemas {
		out.Schemas[k] = v
	}
	out.Entities = make(map[string]value.Value, len(s.Entities))
	for k, v := range s.Entities {
		out.Entities[k] = v.Clone()
	}
	out.Blocks = make(map[string]Block, len(s.Blocks))
	for k, v := range s.Blocks {
		block := v
		block.Children = append([]string(nil), v.Children...)
		out.Blocks[k] = block
	}
	out.Styles = make(map[string]string, len(s.Styles))
	for k, v := range s.Styles {
		out.Styles[k] = v
	}
	out.Annotations = append([]Annotation(nil), s.Annotations...)
	return out
}

// LiveSchema reports whether id names a schema that exists and is not
// tombstoned.
func (s Snapshot) LiveSchema(id string) bool {
	schema, ok := s.Schemas[id]
	return ok && !schema.Removed
}

// EntityRemoved reports whether an entity-shaped value carries a tombstone.
func EntityRemoved(entity value.Value) bool {
	flag, ok := entity.Get(KeyRemoved)
	return ok && flag.Kind() == value.KindBool && flag.BoolVal()
}

// EntitySchema returns the `_schema` reference of an entity-shaped value.
func EntitySchema(entity value.Value) string {
	ref, ok := entity.Get(KeySchema)
	if !ok {
		return ""
	}
	return ref.Str()
}

// EntityPos returns the fractional order key of an entity-shaped value.
// Entities without `_pos` sort after those with one.
func EntityPos(entity value.Value) (float64, bool) {
	pos, ok := entity.Get(KeyPos)
	if !ok || pos.Kind() != value.KindNumber {
		return 0, false
	}
	return pos.Num(), true
}
