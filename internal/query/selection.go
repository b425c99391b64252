package query

// SelectionMode distinguishes explicit picks from select-all.
type SelectionMode string

const (
	ModeManual      SelectionMode = "manual"
	ModeAllMatching SelectionMode = "all_matching"
)

// Selection tracks which rows are selected across paginated results.
// In manual mode the id set is authoritative; in all-matching mode
// everything matching the filter is selected except the exclusions.
// Changing the filter invalidates the selection entirely.
type Selection struct {
	mode        SelectionMode
	fingerprint string
	ids         map[string]bool
	exclusions  map[string]bool
}

// NewSelection creates an empty manual selection bound to the given
// filter.
func NewSelection(spec FilterSpec) *Selection {
	return &Selection{
		mode:        ModeManual,
		fingerprint: spec.Fingerprint(),
		ids:         make(map[string]bool),
		exclusions:  make(map[string]bool),
	}
}

// Mode returns the current selection mode.
func (s *Selection) Mode() SelectionMode {
	return s.mode
}

// SetFilter rebinds the selection to a new filter. Any change to the
// filtering fields resets the selection to empty manual; a spec with
// the same fingerprint (say, a sort or page change) is a no-op.
func (s *Selection) SetFilter(spec FilterSpec) {
	fp := spec.Fingerprint()
	if fp == s.fingerprint {
		return
	}
	s.fingerprint = fp
	s.mode = ModeManual
	s.ids = make(map[string]bool)
	s.exclusions = make(map[string]bool)
}

// Toggle flips one row. In all-matching mode toggling a selected row
// records an exclusion; toggling an excluded row clears it.
func (s *Selection) Toggle(id string) {
	if s.mode == ModeAllMatching {
		if s.exclusions[id] {
			delete(s.exclusions, id)
		} else {
			s.exclusions[id] = true
		}
		return
	}
	if s.ids[id] {
		delete(s.ids, id)
	} else {
		s.ids[id] = true
	}
}

// SelectAllMatching switches to all-matching mode with no exclusions.
func (s *Selection) SelectAllMatching() {
	s.mode = ModeAllMatching
	s.ids = make(map[string]bool)
	s.exclusions = make(map[string]bool)
}

// Clear returns to an empty manual selection.
func (s *Selection) Clear() {
	s.mode = ModeManual
	s.ids = make(map[string]bool)
	s.exclusions = make(map[string]bool)
}

// Selected reports whether a row is currently selected.
func (s *Selection) Selected(id string) bool {
	if s.mode == ModeAllMatching {
		return !s.exclusions[id]
	}
	return s.ids[id]
}

// Count returns the selected-row count given the current filter's
// total match count.
func (s *Selection) Count(total int) int {
	if s.mode == ModeAllMatching {
		n := total - len(s.exclusions)
		if n < 0 {
			return 0
		}
		return n
	}
	return len(s.ids)
}

// IDs resolves the selection to a concrete id list. matching must be
// the full id set for the bound filter (from MatchIDs).
func (s *Selection) IDs(matching []string) []string {
	if s.mode == ModeAllMatching {
		out := make([]string, 0, len(matching))
		for _, id := range matching {
			if !s.exclusions[id] {
				out = append(out, id)
			}
		}
		return out
	}
	out := make([]string, 0, len(s.ids))
	for _, id := range matching {
		if s.ids[id] {
			out = append(out, id)
		}
	}
	return out
}
