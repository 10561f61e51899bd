package preprocessor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExpansionDepth is matched by every *ExpansionDepthError.
var ErrExpansionDepth = errors.New("macro expansion depth exceeded")

// location formats origin:line the way all diagnostics are prefixed.
func location(origin string, line int) string {
	switch {
	case origin == "" && line <= 0:
		return ""
	case line <= 0:
		return origin + ": "
	default:
		return fmt.Sprintf("%s:%d: ", origin, line)
	}
}

// StructuralError reports unbalanced conditionals and unterminated comments.
type StructuralError struct {
	Origin string
	Line   int
	Msg    string
}

func (e *StructuralError) Error() string {
	return location(e.Origin, e.Line) + e.Msg
}

// DefineSyntaxError reports a #define whose header cannot be parsed.
type DefineSyntaxError struct {
	Origin string
	Line   int
	Text   string
	Reason string
}

func (e *DefineSyntaxError) Error() string {
	return fmt.Sprintf("%sbad #define %q: %s", location(e.Origin, e.Line), e.Text, e.Reason)
}

// MacroArgumentError reports a reference supplying fewer arguments than declared.
type MacroArgumentError struct {
	Macro string
	Want  int
	Got   int
}

func (e *MacroArgumentError) Error() string {
	return fmt.Sprintf("macro %s expects %d argument(s), got %d", e.Macro, e.Want, e.Got)
}

// IncludeNotFoundError reports a file or search directory that does not exist.
type IncludeNotFoundError struct {
	Name string
	Dirs []string
}

func (e *IncludeNotFoundError) Error() string {
	if len(e.Dirs) == 0 {
		return fmt.Sprintf("include path %q not found", e.Name)
	}
	return fmt.Sprintf("include file %q not found in [%s]", e.Name, strings.Join(e.Dirs, ", "))
}

// ExpansionDepthError aborts a single expansion call.
type ExpansionDepthError struct {
	Macro string
	Depth int
}

func (e *ExpansionDepthError) Error() string {
	if e.Macro == "" {
		return fmt.Sprintf("%v (depth %d)", ErrExpansionDepth, e.Depth)
	}
	return fmt.Sprintf("%v while expanding %s (depth %d)", ErrExpansionDepth, e.Macro, e.Depth)
}

func (e *ExpansionDepthError) Is(target error) bool {
	return target == ErrExpansionDepth
}
