// Package render turns snapshots into deterministic HTML or plain text.
// Rendering is pure: canonical key ordering and `_pos`-then-id child
// ordering make repeated renders byte-identical.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aidekit/aide/internal/docformat"
	"github.com/aidekit/aide/internal/encoding"
	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
)

// Channel selects the output medium.
type Channel string

const (
	// ChannelHTML renders the full self-describing HTML document.
	ChannelHTML Channel = "html"
	// ChannelText renders a plain-text projection of top-level entities.
	ChannelText Channel = "text"
)

// Options configures one render.
type Options struct {
	Channel Channel
	// OmitEventLog drops the aide-events data block. Publishing sets it for
	// oversized logs; the snapshot block alone is always self-sufficient.
	OmitEventLog bool
	// Attribution appends the visible footer that free-tier publishing
	// requires. Workspace copies never carry it.
	Attribution bool
}

// Render produces the document for one channel. The events slice may be nil.
func Render(snap snapshot.Snapshot, blueprint docformat.Blueprint, events []event.Event, opts Options) (string, error) {
	if opts.Channel == ChannelText {
		return renderText(snap), nil
	}
	return renderHTML(snap, blueprint, events, opts)
}

func renderHTML(snap snapshot.Snapshot, blueprint docformat.Blueprint, events []event.Event, opts Options) (string, error) {
	title := snap.Meta.Title()
	if title == "" {
		title = "Untitled"
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escape(title))
	fmt.Fprintf(&b, "<meta property=\"og:title\" content=\"%s\">\n", escape(title))
	if identity := snap.Meta.Identity(); identity != "" {
		fmt.Fprintf(&b, "<meta property=\"og:description\" content=\"%s\">\n", escape(firstSentence(identity, 200)))
	}

	if !blueprint.Empty() {
		payload, err := encoding.CanonicalJSON(blueprint)
		if err != nil {
			return "", fmt.Errorf("encode blueprint: %w", err)
		}
		b.WriteString(docformat.DataBlock(docformat.MarkerBlueprint, payload))
		b.WriteByte('\n')
	}

	statePayload, err := snap.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	b.WriteString(docformat.DataBlock(docformat.MarkerState, statePayload))
	b.WriteByte('\n')

	if len(events) > 0 && !opts.OmitEventLog {
		payload, err := encoding.CanonicalJSON(events)
		if err != nil {
			return "", fmt.Errorf("encode events: %w", err)
		}
		b.WriteString(docformat.DataBlock(docformat.MarkerEvents, payload))
		b.WriteByte('\n')
	}

	b.WriteString(styleBlock(snap))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(bodyHTML(snap))
	if opts.Attribution {
		b.WriteString("<footer class=\"aide-attribution\"><p>Made with <a href=\"https://aide.page\">aide</a></p></footer>\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// styleBlock maps global style tokens to CSS variables and appends each live
// schema's CSS, both in sorted order.
func styleBlock(snap snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString("<style>\n")

	if len(snap.Styles) > 0 {
		tokens := make([]string, 0, len(snap.Styles))
		for token := range snap.Styles {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)
		b.WriteString(":root{")
		for _, token := range tokens {
			fmt.Fprintf(&b, "--%s:%s;", cssToken(token), snap.Styles[token])
		}
		b.WriteString("}\n")
	}

	ids := make([]string, 0, len(snap.Schemas))
	for id := range snap.Schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		schema := snap.Schemas[id]
		if schema.Removed || schema.CSS == "" {
			continue
		}
		fmt.Fprintf(&b, "/* %s */\n%s\n", id, schema.CSS)
	}

	b.WriteString("</style>\n")
	return b.String()
}

func cssToken(token string) string {
	return strings.ReplaceAll(token, "_", "-")
}

// bodyHTML renders the block tree, or every top-level entity when the
// document has no blocks beyond the root.
func bodyHTML(snap snapshot.Snapshot) string {
	if hasLayout(snap) {
		return blockHTML(snap, snap.Blocks[snapshot.RootBlockID])
	}
	var b strings.Builder
	for _, id := range snap.TopLevelIDs() {
		b.WriteString(entityHTML(snap, snap.Entities[id], ""))
	}
	return b.String()
}

func hasLayout(snap snapshot.Snapshot) bool {
	for id, block := range snap.Blocks {
		if id != snapshot.RootBlockID && !block.Removed {
			return true
		}
	}
	return false
}

func blockHTML(snap snapshot.Snapshot, block snapshot.Block) string {
	if block.Removed {
		return ""
	}
	var children strings.Builder
	for _, childID := range block.Children {
		child, ok := snap.Blocks[childID]
		if !ok {
			continue
		}
		children.WriteString(blockHTML(snap, child))
	}

	switch block.Type {
	case snapshot.BlockTypeRoot:
		return children.String()
	case "section":
		return fmt.Sprintf("<section id=\"%s\">\n%s</section>\n", escape(block.ID), children.String())
	case "text":
		return "<p>" + inlineHTML(block.Text) + "</p>\n"
	case "entity":
		entity, ok := snap.Resolve(block.Entity)
		if !ok {
			return ""
		}
		return entityHTML(snap, entity, "")
	case "divider":
		return "<hr>\n"
	}
	return children.String()
}

// renderText concatenates each top-level entity's text-channel rendering.
func renderText(snap snapshot.Snapshot) string {
	var b strings.Builder
	if title := snap.Meta.Title(); title != "" {
		b.WriteString(title)
		b.WriteString("\n\n")
	}
	for _, id := range snap.TopLevelIDs() {
		text := entityText(snap, snap.Entities[id], "")
		if text == "" {
			continue
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// firstSentence truncates s at the first sentence boundary, capped at max
// bytes.
func firstSentence(s string, max int) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s = strings.TrimSpace(s[:i])
			break
		}
	}
	if len(s) > max {
		s = strings.TrimSpace(s[:max])
	}
	return s
}

// FirstSentence exposes sentence truncation for title seeding.
func FirstSentence(s string, max int) string { return firstSentence(s, max) }
