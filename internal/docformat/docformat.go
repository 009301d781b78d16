// Package docformat reads and writes the on-disk document format: an HTML5
// page carrying up to three canonical-JSON data blocks identified by fixed
// marker ids. The same format is both the persisted representation and the
// published output, so a rendered document is always self-describing.
package docformat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
)

// Marker ids of the embedded data blocks. These are wire format: changing
// them breaks every previously persisted document.
const (
	MarkerBlueprint = "aide-blueprint"
	MarkerState     = "aide-state"
	MarkerEvents    = "aide-events"
)

// Blueprint is a document's identity/voice/prompt metadata, carried
// separately from content.
type Blueprint struct {
	Identity string `json:"identity,omitempty"`
	Voice    string `json:"voice,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// Empty reports whether the blueprint carries no metadata.
func (b Blueprint) Empty() bool {
	return b.Identity == "" && b.Voice == "" && b.Prompt == ""
}

// Blocks holds the raw JSON payloads extracted from a document. A nil slice
// means the block was absent.
type Blocks struct {
	Blueprint []byte
	State     []byte
	Events    []byte
}

// DataBlock renders one embedded data block. The payload is emitted verbatim
// inside a JSON script element; callers pass canonical JSON.
func DataBlock(marker string, payload []byte) string {
	var b strings.Builder
	b.WriteString(`<script type="application/json" id="`)
	b.WriteString(marker)
	b.WriteString(`">`)
	// "</script" inside a JSON string would terminate the element early.
	b.WriteString(strings.ReplaceAll(string(payload), "</", `<\/`))
	b.WriteString("</script>")
	return b.String()
}

// Extract scans a document for the three data blocks. It uses an explicit
// scanner over the markup, not regular expressions, so malformed input fails
// precisely: a present block with malformed JSON is an error, an absent
// block is not.
func Extract(doc string) (Blocks, error) {
	var blocks Blocks
	for _, marker := range []string{MarkerBlueprint, MarkerState, MarkerEvents} {
		payload, found, err := scanBlock(doc, marker)
		if err != nil {
			return Blocks{}, err
		}
		if !found {
			continue
		}
		if !json.Valid(payload) {
			return Blocks{}, fmt.Errorf("data block %q is not valid JSON", marker)
		}
		switch marker {
		case MarkerBlueprint:
			blocks.Blueprint = payload
		case MarkerState:
			blocks.State = payload
		case MarkerEvents:
			blocks.Events = payload
		}
	}
	return blocks, nil
}

// scanBlock finds the script element whose id attribute equals marker and
// returns its raw contents.
func scanBlock(doc, marker string) ([]byte, bool, error) {
	idAttr := `id="` + marker + `"`
	rest := doc
	for {
		start := strings.Index(rest, "<script")
		if start < 0 {
			return nil, false, nil
		}
		tagEnd := strings.IndexByte(rest[start:], '>')
		if tagEnd < 0 {
			return nil, false, fmt.Errorf("unterminated script tag while scanning for %q", marker)
		}
		tag := rest[start : start+tagEnd+1]
		body := rest[start+tagEnd+1:]
		if !strings.Contains(tag, idAttr) {
			rest = body
			continue
		}
		end := strings.Index(body, "</script>")
		if end < 0 {
			return nil, false, fmt.Errorf("data block %q is not terminated", marker)
		}
		payload := strings.ReplaceAll(body[:end], `<\/`, "</")
		return []byte(payload), true, nil
	}
}

// Parse decodes a document into its blueprint, snapshot, and event log.
// Absent blocks default to an empty blueprint, the canonical empty snapshot,
// and an empty log respectively.
func Parse(doc string) (Blueprint, snapshot.Snapshot, []event.Event, error) {
	blocks, err := Extract(doc)
	if err != nil {
		return Blueprint{}, snapshot.Snapshot{}, nil, err
	}

	blueprint := Blueprint{}
	if blocks.Blueprint != nil {
		if err := json.Unmarshal(blocks.Blueprint, &blueprint); err != nil {
			return Blueprint{}, snapshot.Snapshot{}, nil, fmt.Errorf("parse blueprint block: %w", err)
		}
	}

	snap := snapshot.Empty()
	if blocks.State != nil {
		if err := json.Unmarshal(blocks.State, &snap); err != nil {
			return Blueprint{}, snapshot.Snapshot{}, nil, fmt.Errorf("parse state block: %w", err)
		}
	}

	var events []event.Event
	if blocks.Events != nil {
		if err := json.Unmarshal(blocks.Events, &events); err != nil {
			return Blueprint{}, snapshot.Snapshot{}, nil, fmt.Errorf("parse events block: %w", err)
		}
	}
	return blueprint, snap, events, nil
}
