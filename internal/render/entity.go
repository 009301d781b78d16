package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidekit/aide/internal/schema"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

// entityHTML renders one entity through its schema's HTML template, falling
// back to a generic key/value rendering. schemaID overrides the entity's own
// `_schema` reference; partials pass the inferred child schema through it.
func entityHTML(snap snapshot.Snapshot, entity value.Value, schemaID string) string {
	id, tmpl := entityTemplate(snap, entity, schemaID, func(s snapshot.Schema) string { return s.RenderHTML })
	if tmpl == "" {
		return fallbackHTML(snap, entity)
	}
	return expand(tmpl, snap, entity, id, true)
}

// entityText is the text-channel counterpart of entityHTML.
func entityText(snap snapshot.Snapshot, entity value.Value, schemaID string) string {
	id, tmpl := entityTemplate(snap, entity, schemaID, func(s snapshot.Schema) string { return s.RenderText })
	if tmpl == "" {
		return fallbackText(snap, entity)
	}
	return expand(tmpl, snap, entity, id, false)
}

func entityTemplate(snap snapshot.Snapshot, entity value.Value, schemaID string, pick func(snapshot.Schema) string) (string, string) {
	id := snapshot.EntitySchema(entity)
	if id == "" {
		id = schemaID
	}
	if id == "" || !snap.LiveSchema(id) {
		return id, ""
	}
	return id, pick(snap.Schemas[id])
}

// expand runs the micro template language: `{{field}}` interpolates an
// escaped scalar, `{{>field}}` expands a Record-valued child collection.
// There is deliberately nothing else, no conditionals, no expressions.
func expand(tmpl string, snap snapshot.Snapshot, entity value.Value, schemaID string, html bool) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			b.WriteString(rest)
			return b.String()
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:start])
		directive := strings.TrimSpace(rest[start+2 : start+end])
		rest = rest[start+end+2:]

		if name, isPartial := strings.CutPrefix(directive, ">"); isPartial {
			b.WriteString(partial(snap, entity, schemaID, strings.TrimSpace(name), html))
			continue
		}
		field, ok := entity.Get(directive)
		if !ok {
			continue
		}
		if html {
			b.WriteString(escape(field.Text()))
		} else {
			b.WriteString(field.Text())
		}
	}
}

// partial renders a Record-valued child collection by iterating live
// children in `_pos`-then-id order and concatenating each child's own
// template output. A `_shape` marker switches to grid layout.
func partial(snap snapshot.Snapshot, entity value.Value, schemaID, field string, html bool) string {
	container, ok := entity.Get(field)
	if !ok || container.Kind() != value.KindObject {
		return ""
	}
	childSchema := inferChildSchema(snap, schemaID, field)

	if rows, cols, ok := gridShape(container); ok && html {
		return gridHTML(snap, container, childSchema, rows, cols)
	}

	var b strings.Builder
	for _, childID := range snapshot.SortedChildIDs(container) {
		child, _ := container.Get(childID)
		if html {
			b.WriteString(entityHTML(snap, child, childSchema))
		} else {
			text := entityText(snap, child, childSchema)
			if text == "" {
				continue
			}
			b.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// inferChildSchema resolves the schema for children of a collection field
// that carry no explicit `_schema`: the parent interface's
// `Record<string, ItemType>` declaration names an item type, which is
// matched against the known schemas' interface names.
func inferChildSchema(snap snapshot.Snapshot, schemaID, field string) string {
	if schemaID == "" || !snap.LiveSchema(schemaID) {
		return ""
	}
	iface, ok := schema.Parse(snap.Schemas[schemaID].Interface)
	if !ok {
		return ""
	}
	item, ok := iface.Record(field)
	if !ok || item.Kind != schema.TypeCustom {
		return ""
	}
	for _, candidateID := range sortedSchemaIDs(snap) {
		candidate := snap.Schemas[candidateID]
		if candidate.Removed {
			continue
		}
		if candidateIface, ok := schema.Parse(candidate.Interface); ok && candidateIface.Name == item.Name {
			return candidateID
		}
	}
	return ""
}

func sortedSchemaIDs(snap snapshot.Snapshot) []string {
	ids := make([]string, 0, len(snap.Schemas))
	for id := range snap.Schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// gridShape reads a `_shape: [rows, cols]` marker from a container.
func gridShape(container value.Value) (int, int, bool) {
	shape, ok := container.Get(snapshot.KeyShape)
	if !ok || shape.Kind() != value.KindArray || shape.Len() != 2 {
		return 0, 0, false
	}
	items := shape.Items()
	if items[0].Kind() != value.KindNumber || items[1].Kind() != value.KindNumber {
		return 0, 0, false
	}
	rows, cols := int(items[0].Num()), int(items[1].Num())
	if rows <= 0 || cols <= 0 {
		return 0, 0, false
	}
	return rows, cols, true
}

// gridHTML lays a container out as a row-major 2-D grid over synthetic
// "{row}_{col}" keys. Absent or removed cells render as empty placeholders
// of equal size so the grid never collapses.
func gridHTML(snap snapshot.Snapshot, container value.Value, childSchema string, rows, cols int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<div class=\"aide-grid\" style=\"display:grid;grid-template-columns:repeat(%d,1fr)\">", cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			key := fmt.Sprintf("%d_%d", row, col)
			cell, ok := container.Get(key)
			if !ok || cell.Kind() != value.KindObject || snapshot.EntityRemoved(cell) {
				b.WriteString("<div class=\"aide-cell aide-cell-empty\"></div>")
				continue
			}
			b.WriteString("<div class=\"aide-cell\">")
			b.WriteString(entityHTML(snap, cell, childSchema))
			b.WriteString("</div>")
		}
	}
	b.WriteString("</div>")
	return b.String()
}

// fallbackHTML renders schema-less entities as a definition list of their
// non-reserved fields.
func fallbackHTML(snap snapshot.Snapshot, entity value.Value) string {
	var b strings.Builder
	b.WriteString("<div class=\"aide-entity\"><dl>")
	for _, key := range entity.Keys() {
		if schema.IsReservedKey(key) {
			continue
		}
		field, _ := entity.Get(key)
		fmt.Fprintf(&b, "<dt>%s</dt><dd>", escape(key))
		switch field.Kind() {
		case value.KindObject:
			for _, childID := range snapshot.SortedChildIDs(field) {
				child, _ := field.Get(childID)
				b.WriteString(entityHTML(snap, child, ""))
			}
		case value.KindArray:
			b.WriteString(escape(joinScalars(field)))
		default:
			b.WriteString(escape(field.Text()))
		}
		b.WriteString("</dd>")
	}
	b.WriteString("</dl></div>\n")
	return b.String()
}

func fallbackText(snap snapshot.Snapshot, entity value.Value) string {
	var b strings.Builder
	for _, key := range entity.Keys() {
		if schema.IsReservedKey(key) {
			continue
		}
		field, _ := entity.Get(key)
		switch field.Kind() {
		case value.KindObject:
			fmt.Fprintf(&b, "%s:\n", key)
			for _, childID := range snapshot.SortedChildIDs(field) {
				child, _ := field.Get(childID)
				text := entityText(snap, child, "")
				for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
					fmt.Fprintf(&b, "  %s\n", line)
				}
			}
		case value.KindArray:
			fmt.Fprintf(&b, "%s: %s\n", key, joinScalars(field))
		default:
			fmt.Fprintf(&b, "%s: %s\n", key, field.Text())
		}
	}
	return b.String()
}

func joinScalars(field value.Value) string {
	parts := make([]string, 0, field.Len())
	for _, item := range field.Items() {
		parts = append(parts, item.Text())
	}
	return strings.Join(parts, ", ")
}
