package event

import (
	"fmt"

	"github.com/aidekit/aide/internal/schema"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

// Validate performs structural payload checks for one primitive type and
// returns human-readable problems. Semantic checks (existence, references,
// cascades) belong to the reducer; a payload that passes here can still be
// rejected there.
func Validate(t Type, payload value.Value) []string {
	if !t.Known() {
		return []string{fmt.Sprintf("unknown primitive type %q", t)}
	}
	if payload.Kind() != value.KindObject {
		return []string{"payload must be an object"}
	}

	switch t {
	case TypeSchemaCreate, TypeSchemaUpdate:
		return validateSchemaWrite(payload)
	case TypeSchemaRemove, TypeBlockRemove:
		return requireIdentifier(payload, "id")
	case TypeEntityCreate, TypeEntityUpdate:
		return validateEntityWrite(payload)
	case TypeEntityRemove:
		return requirePath(payload)
	case TypeBlockSet:
		return validateBlockSet(payload)
	case TypeBlockReorder:
		return validateBlockReorder(payload)
	case TypeStyleSet, TypeMetaUpdate:
		if payload.Len() == 0 {
			return []string{"payload must not be empty"}
		}
	case TypeMetaAnnotate:
		note, ok := payload.Get("note")
		if !ok || note.Kind() != value.KindString || note.Str() == "" {
			return []string{"note is required"}
		}
	}
	return nil
}

func validateSchemaWrite(payload value.Value) []string {
	var errs []string
	errs = append(errs, requireIdentifier(payload, "id")...)

	source, ok := payload.Get("interface")
	switch {
	case !ok:
		errs = append(errs, "interface is required")
	case source.Kind() != value.KindString:
		errs = append(errs, "interface must be a string")
	default:
		if _, parsed := schema.Parse(source.Str()); !parsed {
			errs = append(errs, "interface does not parse")
		}
	}

	for _, key := range []string{"render_html", "render_text", "css"} {
		if v, present := payload.Get(key); present && v.Kind() != value.KindString {
			errs = append(errs, fmt.Sprintf("%s must be a string", key))
		}
	}
	return errs
}

func validateEntityWrite(payload value.Value) []string {
	errs := requirePath(payload)

	if ref, ok := payload.Get("_schema"); ok {
		if ref.Kind() != value.KindString || !snapshot.ValidIdentifier(ref.Str()) {
			errs = append(errs, "_schema must be a valid identifier")
		}
	}
	if pos, ok := payload.Get("_pos"); ok && pos.Kind() != value.KindNumber {
		errs = append(errs, "_pos must be a number")
	}
	return errs
}

func validateBlockSet(payload value.Value) []string {
	var errs []string
	errs = append(errs, requireIdentifier(payload, "id")...)

	blockType, ok := payload.Get("type")
	switch {
	case !ok || blockType.Str() == "":
		errs = append(errs, "type is required")
	case blockType.Kind() != value.KindString || !snapshot.BlockTypes[blockType.Str()]:
		errs = append(errs, fmt.Sprintf("type %q is not a valid block type", blockType.Str()))
	}

	if parent, present := payload.Get("parent"); present {
		if parent.Kind() != value.KindString || !snapshot.ValidIdentifier(parent.Str()) {
			errs = append(errs, "parent must be a valid identifier")
		}
	}
	return errs
}

func validateBlockReorder(payload value.Value) []string {
	var errs []string
	if id, present := payload.Get("id"); present {
		if id.Kind() != value.KindString || !snapshot.ValidIdentifier(id.Str()) {
			errs = append(errs, "id must be a valid identifier")
		}
	}
	order, ok := payload.Get("order")
	if !ok || order.Kind() != value.KindArray {
		return append(errs, "order must be a list of strings")
	}
	for i, item := range order.Items() {
		if item.Kind() != value.KindString {
			errs = append(errs, fmt.Sprintf("order[%d] must be a string", i))
		}
	}
	return errs
}

func requireIdentifier(payload value.Value, key string) []string {
	id, ok := payload.Get(key)
	if !ok || id.Str() == "" {
		return []string{fmt.Sprintf("%s is required", key)}
	}
	if id.Kind() != value.KindString || !snapshot.ValidIdentifier(id.Str()) {
		return []string{fmt.Sprintf("%s must be a valid identifier", key)}
	}
	return nil
}

func requirePath(payload value.Value) []string {
	id, ok := payload.Get("id")
	if !ok || id.Str() == "" {
		return []string{"id is required"}
	}
	if id.Kind() != value.KindString {
		return []string{"id must be an entity path"}
	}
	if _, valid := snapshot.SplitPath(id.Str()); !valid {
		return []string{fmt.Sprintf("id %q is not a valid entity path", id.Str())}
	}
	return nil
}
