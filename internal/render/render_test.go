package render

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/aidekit/aide/internal/docformat"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

func renderHTMLString(t *testing.T, snap snapshot.Snapshot, opts Options) string {
	t.Helper()
	opts.Channel = ChannelHTML
	out, err := Render(snap, docformat.Blueprint{}, nil, opts)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func TestRenderEmptyDocumentGolden(t *testing.T) {
	snap := snapshot.Empty()
	snap.Meta.Fields["title"] = value.String("Golden")
	out := renderHTMLString(t, snap, Options{})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "empty_document", []byte(out))
}

func TestRenderTextBlockGolden(t *testing.T) {
	snap := snapshot.Empty()
	snap.Blocks["note"] = snapshot.Block{
		ID: "note", Type: "text", Parent: snapshot.RootBlockID, Text: "Hello **world**",
	}
	root := snap.Blocks[snapshot.RootBlockID]
	root.Children = []string{"note"}
	snap.Blocks[snapshot.RootBlockID] = root

	out := renderHTMLString(t, snap, Options{})
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "text_block_document", []byte(out))
}

func TestRenderIsDeterministic(t *testing.T) {
	snap := snapshot.Empty()
	snap.Meta.Fields["title"] = value.String("Stable")
	snap.Styles["accent"] = "#123456"
	snap.Styles["base"] = "#ffffff"
	snap.Entities["b"] = value.Object(map[string]value.Value{"name": value.String("B")})
	snap.Entities["a"] = value.Object(map[string]value.Value{"name": value.String("A")})

	first := renderHTMLString(t, snap, Options{})
	second := renderHTMLString(t, snap, Options{})
	if first != second {
		t.Fatal("repeated renders differ")
	}
}

func TestRenderHeadMetadata(t *testing.T) {
	snap := snapshot.Empty()
	snap.Meta.Fields["title"] = value.String(`Trip <Plan>`)
	snap.Meta.Fields["identity"] = value.String("Plans a weekend trip. It keeps stops in order.")
	out := renderHTMLString(t, snap, Options{})

	if !strings.Contains(out, "<title>Trip &lt;Plan&gt;</title>") {
		t.Fatal("title must be escaped")
	}
	if !strings.Contains(out, `<meta property="og:description" content="Plans a weekend trip">`) {
		t.Fatal("og:description must be the first sentence of the identity")
	}
}

func TestRenderAttributionFooter(t *testing.T) {
	snap := snapshot.Empty()
	with := renderHTMLString(t, snap, Options{Attribution: true})
	if !strings.Contains(with, `<footer class="aide-attribution">`) {
		t.Fatal("expected attribution footer")
	}
	without := renderHTMLString(t, snap, Options{})
	if strings.Contains(without, "aide-attribution") {
		t.Fatal("footer must be absent unless requested")
	}
}

func TestRenderStyleBlock(t *testing.T) {
	snap := snapshot.Empty()
	snap.Styles["accent_color"] = "#ff0000"
	snap.Styles["base_size"] = "16px"
	snap.Schemas["stop"] = snapshot.Schema{
		Interface: "interface Stop { name: string; }",
		CSS:       ".stop{color:blue}",
	}
	snap.Schemas["gone"] = snapshot.Schema{
		Interface: "interface Gone { a: string; }",
		CSS:       ".gone{}",
		Removed:   true,
	}
	out := renderHTMLString(t, snap, Options{})

	if !strings.Contains(out, ":root{--accent-color:#ff0000;--base-size:16px;}") {
		t.Fatalf("style tokens wrong:\n%s", out)
	}
	if !strings.Contains(out, "/* stop */\n.stop{color:blue}") {
		t.Fatal("live schema CSS missing")
	}
	if strings.Contains(out, ".gone{}") {
		t.Fatal("removed schema CSS must not render")
	}
}

func TestRenderBlockTree(t *testing.T) {
	snap := snapshot.Empty()
	snap.Entities["stop_one"] = value.Object(map[string]value.Value{
		"name": value.String("Lisbon"),
	})
	snap.Blocks["trip"] = snapshot.Block{
		ID: "trip", Type: "section", Parent: snapshot.RootBlockID,
		Children: []string{"hello", "split", "stop_block", "ghost"},
	}
	snap.Blocks["hello"] = snapshot.Block{ID: "hello", Type: "text", Parent: "trip", Text: "See *below*"}
	snap.Blocks["split"] = snapshot.Block{ID: "split", Type: "divider", Parent: "trip"}
	snap.Blocks["stop_block"] = snapshot.Block{ID: "stop_block", Type: "entity", Parent: "trip", Entity: "stop_one"}
	snap.Blocks["ghost"] = snapshot.Block{ID: "ghost", Type: "text", Parent: "trip", Text: "gone", Removed: true}
	root := snap.Blocks[snapshot.RootBlockID]
	root.Children = []string{"trip"}
	snap.Blocks[snapshot.RootBlockID] = root

	out := renderHTMLString(t, snap, Options{})
	if !strings.Contains(out, `<section id="trip">`) {
		t.Fatal("section block missing")
	}
	if !strings.Contains(out, "<p>See <em>below</em></p>") {
		t.Fatal("text block missing")
	}
	if !strings.Contains(out, "<hr>") {
		t.Fatal("divider missing")
	}
	if !strings.Contains(out, "Lisbon") {
		t.Fatal("entity block must render the referenced entity")
	}
	if strings.Contains(out, "<p>gone</p>") {
		t.Fatal("removed block must not render")
	}
}

func TestRenderBodyFallsBackToEntities(t *testing.T) {
	snap := snapshot.Empty()
	snap.Entities["second"] = value.Object(map[string]value.Value{
		"_pos": value.Number(2), "name": value.String("Second"),
	})
	snap.Entities["first"] = value.Object(map[string]value.Value{
		"_pos": value.Number(1), "name": value.String("First"),
	})
	out := renderHTMLString(t, snap, Options{})
	// No layout blocks: top-level entities render in _pos order.
	if strings.Index(out, "First") > strings.Index(out, "Second") {
		t.Fatal("entities must render in _pos order")
	}
}

func TestRenderTextChannel(t *testing.T) {
	snap := snapshot.Empty()
	snap.Meta.Fields["title"] = value.String("Groceries")
	snap.Entities["rice"] = value.Object(map[string]value.Value{
		"name":     value.String("Rice"),
		"quantity": value.Number(2),
	})
	out, err := Render(snap, docformat.Blueprint{}, nil, Options{Channel: ChannelText})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "Groceries\n\n") {
		t.Fatalf("text output must start with the title:\n%s", out)
	}
	if !strings.Contains(out, "name: Rice") || !strings.Contains(out, "quantity: 2") {
		t.Fatalf("fallback text projection wrong:\n%s", out)
	}
	if strings.Contains(out, "<") {
		t.Fatal("text channel must not contain markup")
	}
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"A list. More detail.", 100, "A list"},
		{"No terminator here", 100, "No terminator here"},
		{"Line one\nline two", 100, "Line one"},
		{"Exclaim! Then more.", 100, "Exclaim"},
		{"abcdefghij", 4, "abcd"},
		{"  padded.  ", 100, "padded"},
	}
	for _, tc := range tests {
		if got := FirstSentence(tc.in, tc.max); got != tc.want {
			t.Fatalf("FirstSentence(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
