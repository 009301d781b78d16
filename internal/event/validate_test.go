package event

import (
	"strings"
	"testing"

	"github.com/aidekit/aide/internal/value"
)

func obj(pairs map[string]value.Value) value.Value { return value.Object(pairs) }

func TestValidateUnknownType(t *testing.T) {
	errs := Validate("entity.rename", value.EmptyObject())
	if len(errs) != 1 || !strings.Contains(errs[0], "unknown primitive type") {
		t.Fatalf("expected unknown primitive error, got %v", errs)
	}
}

func TestValidateNonObjectPayload(t *testing.T) {
	errs := Validate(TypeMetaUpdate, value.String("nope"))
	if len(errs) != 1 || errs[0] != "payload must be an object" {
		t.Fatalf("expected payload shape error, got %v", errs)
	}
}

func TestValidatePerType(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		payload value.Value
		want    string // empty means valid
	}{
		{
			"schema create ok",
			TypeSchemaCreate,
			obj(map[string]value.Value{
				"id":        value.String("grocery_item"),
				"interface": value.String("interface GroceryItem { name: string; }"),
			}),
			"",
		},
		{
			"schema create missing id",
			TypeSchemaCreate,
			obj(map[string]value.Value{"interface": value.String("interface X { a: string; }")}),
			"id is required",
		},
		{
			"schema create bad identifier",
			TypeSchemaCreate,
			obj(map[string]value.Value{
				"id":        value.String("GroceryItem"),
				"interface": value.String("interface X { a: string; }"),
			}),
			"id must be a valid identifier",
		},
		{
			"schema create missing interface",
			TypeSchemaCreate,
			obj(map[string]value.Value{"id": value.String("grocery_item")}),
			"interface is required",
		},
		{
			"schema create unparseable interface",
			TypeSchemaCreate,
			obj(map[string]value.Value{
				"id":        value.String("grocery_item"),
				"interface": value.String("interface { broken"),
			}),
			"interface does not parse",
		},
		{
			"schema create non-string template",
			TypeSchemaCreate,
			obj(map[string]value.Value{
				"id":          value.String("grocery_item"),
				"interface":   value.String("interface X { a: string; }"),
				"render_html": value.Number(1),
			}),
			"render_html must be a string",
		},
		{
			"schema remove ok",
			TypeSchemaRemove,
			obj(map[string]value.Value{"id": value.String("grocery_item")}),
			"",
		},
		{
			"entity create ok",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("rice"), "name": value.String("Rice")}),
			"",
		},
		{
			"entity create nested path ok",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("list/items/rice")}),
			"",
		},
		{
			"entity create even path",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("list/items")}),
			"not a valid entity path",
		},
		{
			"entity create uppercase segment",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("List/items/rice")}),
			"not a valid entity path",
		},
		{
			"entity create bad schema ref",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("rice"), "_schema": value.String("Not-Valid")}),
			"_schema must be a valid identifier",
		},
		{
			"entity create non-number pos",
			TypeEntityCreate,
			obj(map[string]value.Value{"id": value.String("rice"), "_pos": value.String("1")}),
			"_pos must be a number",
		},
		{
			"entity remove missing id",
			TypeEntityRemove,
			value.EmptyObject(),
			"id is required",
		},
		{
			"block set ok",
			TypeBlockSet,
			obj(map[string]value.Value{"id": value.String("intro"), "type": value.String("section")}),
			"",
		},
		{
			"block set missing type",
			TypeBlockSet,
			obj(map[string]value.Value{"id": value.String("intro")}),
			"type is required",
		},
		{
			"block set invalid type",
			TypeBlockSet,
			obj(map[string]value.Value{"id": value.String("intro"), "type": value.String("carousel")}),
			"not a valid block type",
		},
		{
			"block set bad parent",
			TypeBlockSet,
			obj(map[string]value.Value{
				"id":     value.String("intro"),
				"type":   value.String("text"),
				"parent": value.String("Bad Parent"),
			}),
			"parent must be a valid identifier",
		},
		{
			"block reorder ok",
			TypeBlockReorder,
			obj(map[string]value.Value{"order": value.Array(value.String("a"), value.String("b"))}),
			"",
		},
		{
			"block reorder missing order",
			TypeBlockReorder,
			value.EmptyObject(),
			"order must be a list of strings",
		},
		{
			"block reorder non-string entry",
			TypeBlockReorder,
			obj(map[string]value.Value{"order": value.Array(value.Number(1))}),
			"order[0] must be a string",
		},
		{
			"style set empty",
			TypeStyleSet,
			value.EmptyObject(),
			"payload must not be empty",
		},
		{
			"meta update ok",
			TypeMetaUpdate,
			obj(map[string]value.Value{"title": value.String("Groceries")}),
			"",
		},
		{
			"meta annotate ok",
			TypeMetaAnnotate,
			obj(map[string]value.Value{"note": value.String("looks good")}),
			"",
		},
		{
			"meta annotate missing note",
			TypeMetaAnnotate,
			obj(map[string]value.Value{"pinned": value.Bool(true)}),
			"note is required",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(tc.typ, tc.payload)
			if tc.want == "" {
				if len(errs) != 0 {
					t.Fatalf("expected valid payload, got %v", errs)
				}
				return
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v do not mention %q", errs, tc.want)
			}
		})
	}
}
