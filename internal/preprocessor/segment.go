package preprocessor

import (
	"strings"
)

// SegmentKind classifies a logical chunk of source.
type SegmentKind int

const (
	Code SegmentKind = iota
	Directive
	Comment
	Blank
)

func (k SegmentKind) String() string {
	switch k {
	case Code:
		return "code"
	case Directive:
		return "directive"
	case Comment:
		return "comment"
	case Blank:
		return "blank"
	}
	return "unknown"
}

// Segment is one or more source lines of a single kind. Text has no
// trailing newline; Line is the 1-based line the segment starts on.
type Segment struct {
	Kind SegmentKind
	Text string
	Line int
}

// segmenter walks normalized source lines, bufio.Scanner style.
type segmenter struct {
	origin string
	lines  []string
	pos    int
	seg    Segment
	err    error
}

func newSegmenter(origin, code string, tabSize int) *segmenter {
	return &segmenter{origin: origin, lines: normalizeLines(code, tabSize)}
}

// Next advances to the next segment. It returns false at the end of input
// or after an unterminated block comment, which Err then reports.
func (s *segmenter) Next() bool {
	if s.err != nil || s.pos >= len(s.lines) {
		return false
	}
	start := s.pos
	s.pos++

	if s.lines[start] == "" {
		for s.pos < len(s.lines) && s.lines[s.pos] == "" {
			s.pos++
		}
		s.seg = Segment{Kind: Blank, Text: strings.Join(s.lines[start:s.pos], "\n"), Line: start + 1}
		return true
	}

	text := s.lines[start]
	for {
		open := unterminatedComment(text)
		if !open && !lineContinues(s.lines[s.pos-1]) {
			break
		}
		if s.pos >= len(s.lines) {
			if open {
				s.err = &StructuralError{Origin: s.origin, Line: start + 1, Msg: "unterminated comment"}
				return false
			}
			break
		}
		text += "\n" + s.lines[s.pos]
		s.pos++
	}

	s.seg = Segment{Kind: classify(text), Text: text, Line: start + 1}
	return true
}

func (s *segmenter) Segment() Segment { return s.seg }

func (s *segmenter) Err() error { return s.err }

func classify(text string) SegmentKind {
	stripped := strings.TrimSpace(text)
	switch {
	case stripped == "":
		return Blank
	case strings.HasPrefix(stripped, "#"):
		return Directive
	case strings.TrimSpace(stripComments(stripped)) == "":
		return Comment
	}
	return Code
}

// Segments splits code into its classified segments.
func Segments(code string, tabSize int) ([]Segment, error) {
	s := newSegmenter("", code, tabSize)
	var out []Segment
	for s.Next() {
		out = append(out, s.Segment())
	}
	return out, s.Err()
}
