package playback

import "github.com/smazurov/vitaview/internal/capture"

// ResolutionTable is an ordered list of candidate capture sizes with a
// cursor that wraps at both ends.
type ResolutionTable struct {
	entries []capture.Resolution
	index   int
}

// NewResolutionTable panics on an empty list; callers pass config that has
// already been defaulted.
func NewResolutionTable(entries []capture.Resolution) *ResolutionTable {
	if len(entries) == 0 {
		panic("playback: empty resolution table")
	}
	return &ResolutionTable{entries: append([]capture.Resolution(nil), entries...)}
}

// Current returns the selected entry.
func (t *ResolutionTable) Current() capture.Resolution {
	return t.entries[t.index]
}

// Index returns the cursor position.
func (t *ResolutionTable) Index() int {
	return t.index
}

// Len returns the number of entries.
func (t *ResolutionTable) Len() int {
	return len(t.entries)
}

// Step moves the cursor by delta, wrapping, and returns the new entry.
func (t *ResolutionTable) Step(delta int) capture.Resolution {
	n := len(t.entries)
	t.index = ((t.index+delta)%n + n) % n
	return t.entries[t.index]
}
