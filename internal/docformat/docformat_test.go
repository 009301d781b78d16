package docformat

import (
	"strings"
	"testing"
	"time"

	"github.com/aidekit/aide/internal/encoding"
	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

func TestDataBlockEscapesCloseTag(t *testing.T) {
	payload := []byte(`{"text":"</script><script>alert(1)</script>"}`)
	block := DataBlock(MarkerState, payload)
	if strings.Contains(block[len(`<script`):], "</script><script>") {
		t.Fatalf("close tag not neutralized: %s", block)
	}
	if !strings.Contains(block, `<\/script><script`) {
		t.Fatalf("expected escaped close tag: %s", block)
	}
	// The escape is itself valid JSON, so the block body stays parseable.
	blocks, err := Extract("<html><head>" + block + "</head></html>")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(blocks.State) != string(payload) {
		t.Fatalf("round trip = %s, want %s", blocks.State, payload)
	}
}

func TestExtractAbsentBlocksAreNil(t *testing.T) {
	doc := `<html><head><script type="application/json" id="aide-state">{"version":1}</script></head></html>`
	blocks, err := Extract(doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if blocks.State == nil {
		t.Fatal("state block must be found")
	}
	if blocks.Blueprint != nil || blocks.Events != nil {
		t.Fatal("absent blocks must be nil, not errors")
	}
}

func TestExtractSkipsUnrelatedScripts(t *testing.T) {
	doc := `<html><head>` +
		`<script src="app.js"></script>` +
		`<script type="application/json" id="other">{"x":1}</script>` +
		`<script type="application/json" id="aide-state">{"version":1}</script>` +
		`</head></html>`
	blocks, err := Extract(doc)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(blocks.State) != `{"version":1}` {
		t.Fatalf("state = %s", blocks.State)
	}
}

func TestExtractErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"unterminated block",
			`<script type="application/json" id="aide-state">{"version":1}`,
			"not terminated",
		},
		{
			"unterminated tag",
			`<script type="application/json" id="aide-state"`,
			"unterminated script tag",
		},
		{
			"invalid json",
			`<script type="application/json" id="aide-state">{broken</script>`,
			"not valid JSON",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Extract(tc.doc)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}
}

func TestParseDefaultsForAbsentBlocks(t *testing.T) {
	blueprint, snap, events, err := Parse("<html><head></head><body></body></html>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !blueprint.Empty() {
		t.Fatalf("blueprint = %+v, want empty", blueprint)
	}
	if snap.Version != snapshot.Version {
		t.Fatalf("version = %d, want canonical empty snapshot", snap.Version)
	}
	if _, ok := snap.Blocks[snapshot.RootBlockID]; !ok {
		t.Fatal("empty snapshot must carry the root block")
	}
	if len(events) != 0 {
		t.Fatalf("events = %v, want none", events)
	}
}

func TestParseRoundTrip(t *testing.T) {
	snap := snapshot.Empty()
	snap.Meta.Fields["title"] = value.String("Groceries")
	snap.Entities["rice"] = value.Object(map[string]value.Value{
		"name": value.String("Rice"),
	})
	snap.LastSeq = 2
	blueprint := Blueprint{Identity: "A shared shopping list.", Voice: "terse"}
	events := []event.Event{
		{
			ID:        "evt-1",
			Sequence:  1,
			Timestamp: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
			Actor:     "alice",
			Source:    "chat",
			Type:      event.TypeMetaUpdate,
			Payload:   value.Object(map[string]value.Value{"title": value.String("Groceries")}),
		},
	}

	blueprintJSON, err := encoding.CanonicalJSON(blueprint)
	if err != nil {
		t.Fatalf("encode blueprint: %v", err)
	}
	stateJSON, err := snap.MarshalJSON()
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	eventsJSON, err := encoding.CanonicalJSON(events)
	if err != nil {
		t.Fatalf("encode events: %v", err)
	}

	doc := "<html><head>" +
		DataBlock(MarkerBlueprint, blueprintJSON) +
		DataBlock(MarkerState, stateJSON) +
		DataBlock(MarkerEvents, eventsJSON) +
		"</head><body></body></html>"

	gotBlueprint, gotSnap, gotEvents, err := Parse(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if gotBlueprint != blueprint {
		t.Fatalf("blueprint = %+v, want %+v", gotBlueprint, blueprint)
	}
	if gotSnap.Meta.Title() != "Groceries" || gotSnap.LastSeq != 2 {
		t.Fatalf("snapshot = %+v", gotSnap)
	}
	if entity, ok := gotSnap.Resolve("rice"); !ok {
		t.Fatal("entity lost")
	} else if name, _ := entity.Get("name"); name.Str() != "Rice" {
		t.Fatalf("entity name = %q", name.Str())
	}
	if len(gotEvents) != 1 || gotEvents[0].ID != "evt-1" || gotEvents[0].Type != event.TypeMetaUpdate {
		t.Fatalf("events = %+v", gotEvents)
	}
	if !gotEvents[0].Timestamp.Equal(events[0].Timestamp) {
		t.Fatalf("timestamp = %v", gotEvents[0].Timestamp)
	}
}
