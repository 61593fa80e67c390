package templates

// Position says where a dragged message lands relative to the drop target.
type Position int

const (
	Before Position = iota
	After
	Append
)

func (p Position) String() string {
	switch p {
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "append"
	}
}

// ParsePosition maps before/after/append to a Position.
func ParsePosition(s string) (Position, bool) {
	switch s {
	case "before":
		return Before, true
	case "after":
		return After, true
	case "append", "":
		return Append, true
	}
	return Append, false
}

// DropPosition turns a cursor offset over a target item into Before (top
// half) or After (bottom half).
func DropPosition(cursorY, itemTop, itemHeight float64) Position {
	if itemHeight <= 0 {
		return After
	}
	if cursorY < itemTop+itemHeight/2 {
		return Before
	}
	return After
}

// ComputeNewOrder returns dest with draggedID placed relative to targetID.
// The dragged id is removed from dest first, so the same function handles
// moves within a list and moves into it. An empty or unknown target, or
// Append, puts the message at the end. Dropping a message on itself leaves
// dest unchanged.
func ComputeNewOrder(draggedID string, dest []string, targetID string, pos Position) []string {
	if targetID == draggedID && targetID != "" && contains(dest, draggedID) {
		out := make([]string, len(dest))
		copy(out, dest)
		return out
	}

	rest := make([]string, 0, len(dest)+1)
	for _, id := range dest {
		if id != draggedID {
			rest = append(rest, id)
		}
	}

	if pos == Append || targetID == "" {
		return append(rest, draggedID)
	}
	idx := indexOf(rest, targetID)
	if idx < 0 {
		return append(rest, draggedID)
	}
	if pos == After {
		idx++
	}
	return insertAt(rest, draggedID, idx)
}

func insertAt(ids []string, id string, idx int) []string {
	if idx < 0 {
		idx = 0
	}
	if idx > len(ids) {
		idx = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	return append(out, ids[idx:]...)
}

func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func contains(ids []string, id string) bool {
	return indexOf(ids, id) >= 0
}
