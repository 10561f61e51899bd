package preprocessor

import "strings"

// assembler builds the filtered and full renderings of one unit.
//
// Comments and blank runs seen while active are held back and written to
// the filtered view only if code follows them before the next directive.
type assembler struct {
	filtered strings.Builder
	full     strings.Builder
	pending  []Segment
}

// code records a Code segment. text is the expansion when active and the
// raw segment text otherwise.
func (a *assembler) code(text string, active bool) {
	a.full.WriteString(text)
	a.full.WriteByte('\n')
	if !active {
		return
	}
	for _, s := range a.pending {
		if s.Kind == Blank && a.filtered.Len() == 0 {
			continue
		}
		a.filtered.WriteString(s.Text)
		a.filtered.WriteByte('\n')
	}
	a.pending = a.pending[:0]
	a.filtered.WriteString(text)
	a.filtered.WriteByte('\n')
}

// formatting records a Comment or Blank segment.
func (a *assembler) formatting(s Segment, active bool) {
	a.full.WriteString(s.Text)
	a.full.WriteByte('\n')
	if active {
		a.pending = append(a.pending, s)
	} else {
		a.pending = a.pending[:0]
	}
}

func (a *assembler) directive(s Segment) {
	a.full.WriteString(s.Text)
	a.full.WriteByte('\n')
	a.pending = a.pending[:0]
}
