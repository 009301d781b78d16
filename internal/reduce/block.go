package reduce

import (
	"fmt"

	"github.com/aidekit/aide/internal/event"
	"github.com/aidekit/aide/internal/snapshot"
	"github.com/aidekit/aide/internal/value"
)

func applyBlockSet(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := payloadString(evt.Payload, "id")
	if id == snapshot.RootBlockID {
		return &Rejection{Code: CodeCannotRemoveRoot, Message: "block_root is system-managed"}
	}

	parentID := snapshot.RootBlockID
	if v, ok := evt.Payload.Get("parent"); ok {
		parentID = v.Str()
	}
	parent, ok := snap.Blocks[parentID]
	if !ok || parent.Removed {
		return &Rejection{Code: CodeParentNotFound, Message: fmt.Sprintf("block %q does not exist", parentID)}
	}
	if cyclic(snap, id, parentID) {
		return &Rejection{Code: CodeValidationError, Message: fmt.Sprintf("block %q cannot be its own ancestor", id)}
	}

	block, exists := snap.Blocks[id]
	previousParent := block.Parent
	block.ID = id
	block.Type = payloadString(evt.Payload, "type")
	block.Removed = false
	if v, ok := evt.Payload.Get("entity"); ok {
		block.Entity = v.Str()
	}
	if v, ok := evt.Payload.Get("text"); ok {
		block.Text = v.Str()
	}
	block.Parent = parentID
	snap.Blocks[id] = block

	if exists && previousParent == parentID {
		return nil
	}
	if exists && previousParent != "" {
		detachChild(snap, previousParent, id)
	}
	parent = snap.Blocks[parentID]
	parent.Children = append(parent.Children, id)
	snap.Blocks[parentID] = parent
	return nil
}

func applyBlockRemove(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := payloadString(evt.Payload, "id")
	if id == snapshot.RootBlockID {
		return &Rejection{Code: CodeCannotRemoveRoot, Message: "block_root cannot be removed"}
	}
	block, ok := snap.Blocks[id]
	if !ok || block.Removed {
		return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("block %q does not exist", id)}
	}
	block.Removed = true
	snap.Blocks[id] = block
	return nil
}

func applyBlockReorder(snap *snapshot.Snapshot, evt event.Event) *Rejection {
	id := snapshot.RootBlockID
	if v, ok := evt.Payload.Get("id"); ok && v.Str() != "" {
		id = v.Str()
	}
	block, ok := snap.Blocks[id]
	if !ok || block.Removed {
		return &Rejection{Code: CodeNotFound, Message: fmt.Sprintf("block %q does not exist", id)}
	}

	var live, removed []string
	for _, childID := range block.Children {
		child, ok := snap.Blocks[childID]
		if ok && child.Removed {
			removed = append(removed, childID)
			continue
		}
		live = append(live, childID)
	}

	order := orderedIDs(evt.Payload)
	if !sameSet(order, live) {
		return &Rejection{
			Code:    CodeOrderMismatch,
			Message: fmt.Sprintf("order must list exactly the %d live children of %q", len(live), id),
		}
	}

	// Removed children are preserved after the explicit order so a later
	// revival does not lose them.
	block.Children = append(append([]string(nil), order...), removed...)
	snap.Blocks[id] = block
	return nil
}

func orderedIDs(payload value.Value) []string {
	order, _ := payload.Get("order")
	ids := make([]string, 0, order.Len())
	for _, item := range order.Items() {
		ids = append(ids, item.Str())
	}
	return ids
}

func sameSet(order, live []string) bool {
	if len(order) != len(live) {
		return false
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	for _, id := range live {
		if !seen[id] {
			return false
		}
	}
	return true
}

func detachChild(snap *snapshot.Snapshot, parentID, childID string) {
	parent, ok := snap.Blocks[parentID]
	if !ok {
		return
	}
	children := parent.Children[:0]
	for _, id := range parent.Children {
		if id != childID {
			children = append(children, id)
		}
	}
	parent.Children = children
	snap.Blocks[parentID] = parent
}

// cyclic reports whether attaching id under parentID would create a cycle.
func cyclic(snap *snapshot.Snapshot, id, parentID string) bool {
	for current := parentID; current != ""; {
		if current == id {
			return true
		}
		block, ok := snap.Blocks[current]
		if !ok {
			return false
		}
		current = block.Parent
	}
	return false
}
