package value

import (
	"encoding/json"
	"testing"
)

func TestFromAnyRoundTrip(t *testing.T) {
	raw := map[string]any{
		"name":   "rice",
		"qty":    2.5,
		"done":   true,
		"tags":   []any{"staple", "bulk"},
		"nested": map[string]any{"a": nil},
	}
	v, err := FromAny(raw)
	if err != nil {
		t.Fatalf("from any: %v", err)
	}
	if v.Kind() != KindObject {
		t.Fatalf("expected object, got %s", v.Kind())
	}
	name, ok := v.Get("name")
	if !ok || name.Str() != "rice" {
		t.Fatalf("expected name rice, got %q", name.Str())
	}
	qty, _ := v.Get("qty")
	if qty.Num() != 2.5 {
		t.Fatalf("expected qty 2.5, got %v", qty.Num())
	}
	tags, _ := v.Get("tags")
	if tags.Kind() != KindArray || tags.Len() != 2 {
		t.Fatalf("expected 2 tags, got %d", tags.Len())
	}
	nested, _ := v.Get("nested")
	inner, ok := nested.Get("a")
	if !ok || !inner.IsNull() {
		t.Fatalf("expected nested null to survive conversion")
	}
}

func TestCloneIsolation(t *testing.T) {
	original := Object(map[string]Value{
		"items": Object(map[string]Value{"a": Number(1)}),
	})
	clone := original.Clone()

	items, _ := clone.Get("items")
	items.Set("b", Number(2))

	originalItems, _ := original.Get("items")
	if _, leaked := originalItems.Get("b"); leaked {
		t.Fatal("mutation of clone leaked into original")
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nulls", Null(), Null(), true},
		{"strings", String("x"), String("x"), true},
		{"string mismatch", String("x"), String("y"), false},
		{"kind mismatch", String("1"), Number(1), false},
		{"arrays", Array(Number(1), Number(2)), Array(Number(1), Number(2)), true},
		{"array order", Array(Number(1), Number(2)), Array(Number(2), Number(1)), false},
		{
			"objects ignore key order",
			Object(map[string]Value{"a": Number(1), "b": Number(2)}),
			Object(map[string]Value{"b": Number(2), "a": Number(1)}),
			true,
		},
		{
			"object extra key",
			Object(map[string]Value{"a": Number(1)}),
			Object(map[string]Value{"a": Number(1), "b": Number(2)}),
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.want {
				t.Fatalf("Equal = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanonicalMarshalSortsKeys(t *testing.T) {
	v := Object(map[string]Value{
		"zebra": Number(1),
		"apple": String("a"),
		"mango": Object(map[string]Value{"y": Bool(true), "x": Null()}),
	})
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"apple":"a","mango":{"x":null,"y":true},"zebra":1}`
	if string(data) != want {
		t.Fatalf("canonical JSON = %s, want %s", data, want)
	}
}

func TestCanonicalMarshalNoHTMLEscaping(t *testing.T) {
	v := Object(map[string]Value{"html": String(`<b>&"quoted"</b>`)})
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"html":"<b>&\"quoted\"</b>"}`
	if string(data) != want {
		t.Fatalf("canonical JSON = %s, want %s", data, want)
	}
}

func TestNumberFormatting(t *testing.T) {
	tests := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{3, "3"},
		{-42, "-42"},
		{2.5, "2.5"},
		{0.1, "0.1"},
	}
	for _, tc := range tests {
		if got := Number(tc.n).Text(); got != tc.want {
			t.Fatalf("Text(%v) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"a":[1,"two",false,null]}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	arr, ok := v.Get("a")
	if !ok || arr.Len() != 4 {
		t.Fatalf("expected 4 items, got %d", arr.Len())
	}
	items := arr.Items()
	if items[0].Num() != 1 || items[1].Str() != "two" || items[2].BoolVal() || !items[3].IsNull() {
		t.Fatalf("items decoded wrong: %v", arr)
	}
}

func TestSetPanicsOnNonObject(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic setting a key on a string value")
		}
	}()
	String("x").Set("k", Null())
}

func TestKeysSorted(t *testing.T) {
	v := Object(map[string]Value{"c": Null(), "a": Null(), "b": Null()})
	keys := v.Keys()
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("Keys = %v, want [a b c]", keys)
	}
}
