package core

// History wraps the upload state in a linear undo/redo timeline. The
// present snapshot is the live state; past holds older snapshots oldest
// first, future holds undone snapshots nearest first. Every mutation in the
// system must flow through Mutate so it participates in the same timeline.
//
// History is an explicit object owned by its caller, never package state.
// Underflow and overshoot are no-ops by contract; callers disable controls
// instead of handling errors.
type History struct {
	past    []UploadState
	present UploadState
	future  []UploadState
	limit   int
}

// NewHistory starts a timeline at the given state. limit bounds the past
// stack; zero or negative means unbounded.
func NewHistory(initial UploadState, limit int) *History {
	if initial == nil {
		initial = make(UploadState)
	}
	return &History{present: initial, limit: limit}
}

// Present returns the live snapshot. Callers treat it as immutable and
// derive new states via clones handed to Mutate.
func (h *History) Present() UploadState { return h.present }

// Mutate commits a new present snapshot: the old present moves to the past
// and any redo history is discarded.
func (h *History) Mutate(next UploadState) {
	h.past = append(h.past, h.present)
	if h.limit > 0 && len(h.past) > h.limit {
		h.past = h.past[len(h.past)-h.limit:]
	}
	h.present = next
	h.future = nil
}

// Undo steps one snapshot back. No-op when the past is empty.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append([]UploadState{h.present}, h.future...)
	h.present = prev
	return true
}

// Redo steps one snapshot forward. No-op when the future is empty.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	next := h.future[0]
	h.future = h.future[1:]
	h.past = append(h.past, h.present)
	h.present = next
	return true
}

// JumpTo applies |offset| undo (negative) or redo (positive) steps,
// clamped to the available depth. Overshoot is not an error.
func (h *History) JumpTo(offset int) {
	for offset < 0 && h.Undo() {
		offset++
	}
	for offset > 0 && h.Redo() {
		offset--
	}
}

// CanUndo reports whether any past snapshot exists.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether any undone snapshot exists.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Index is the position of the present within the full timeline, equal to
// the number of past snapshots.
func (h *History) Index() int { return len(h.past) }

// Length is the total number of snapshots in the timeline.
func (h *History) Length() int { return len(h.past) + 1 + len(h.future) }

// Reset replaces the timeline with a fresh one rooted at state, discarding
// all history. Used when a draft is loaded or the upload is cleared.
func (h *History) Reset(state UploadState) {
	if state == nil {
		state = make(UploadState)
	}
	h.past = nil
	h.future = nil
	h.present = state
}
