package snapshot

import (
	"regexp"
	"sort"
	"strings"

	"github.com/aidekit/aide/internal/value"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ValidIdentifier reports whether s is a valid identifier: lowercase letter
// first, then lowercase letters, digits, or underscores, at most 64 bytes.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// SplitPath splits a `/`-delimited entity path into segments and reports
// whether the path is well formed: odd segment count, every segment a valid
// identifier. One segment addresses a top-level entity; longer paths
// alternate entity, Record field name, child entity id.
func SplitPath(path string) ([]string, bool) {
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, "/")
	if len(segments)%2 == 0 {
		return nil, false
	}
	for _, segment := range segments {
		if !ValidIdentifier(segment) {
			return nil, false
		}
	}
	return segments, true
}

// Resolve walks a well-formed path to a live entity. It returns false when
// any step is missing, tombstoned, or not container-shaped.
func (s Snapshot) Resolve(path string) (value.Value, bool) {
	segments, ok := SplitPath(path)
	if !ok {
		return value.Value{}, false
	}
	entity, ok := s.Entities[segments[0]]
	if !ok || entity.Kind() != value.KindObject || EntityRemoved(entity) {
		return value.Value{}, false
	}
	for i := 1; i+1 < len(segments); i += 2 {
		container, ok := entity.Get(segments[i])
		if !ok || container.Kind() != value.KindObject {
			return value.Value{}, false
		}
		child, ok := container.Get(segments[i+1])
		if !ok || child.Kind() != value.KindObject || EntityRemoved(child) {
			return value.Value{}, false
		}
		entity = child
	}
	return entity, true
}

// SortedChildIDs returns the live child ids of a Record container ordered by
// `_pos` then id. Removed and non-object members are skipped.
func SortedChildIDs(container value.Value) []string {
	if container.Kind() != value.KindObject {
		return nil
	}
	type entry struct {
		id     string
		pos    float64
		hasPos bool
	}
	var entries []entry
	for _, id := range container.Keys() {
		child, _ := container.Get(id)
		if child.Kind() != value.KindObject || EntityRemoved(child) {
			continue
		}
		pos, hasPos := EntityPos(child)
		entries = append(entries, entry{id: id, pos: pos, hasPos: hasPos})
	}
	// Keys() is sorted, so a stable sort by pos preserves id order among
	// equals and puts pos-less children last.
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.hasPos && !b.hasPos:
			return true
		case !a.hasPos && b.hasPos:
			return false
		case a.hasPos && b.hasPos:
			return a.pos < b.pos
		}
		return false
	})
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids
}

// TopLevelIDs returns the live top-level entity ids ordered by `_pos` then id.
func (s Snapshot) TopLevelIDs() []string {
	return SortedChildIDs(value.Object(s.Entities))
}
