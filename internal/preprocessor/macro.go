package preprocessor

import (
	"fmt"
	"strings"
)

// VarArgs is the name a variadic macro body uses for its trailing arguments
// unless the parameter list names them (GNU "args...").
const VarArgs = "__VA_ARGS__"

// Macro is a single #define.
type Macro struct {
	Name string `json:"name"`
	// Params lists the parameter names in order. For a variadic macro the
	// last entry is the name bound to the trailing arguments.
	Params       []string `json:"params,omitempty"`
	Variadic     bool     `json:"variadic,omitempty"`
	FunctionLike bool     `json:"function_like,omitempty"`
	Body         string   `json:"body"`
}

// fixed returns the number of non-variadic parameters.
func (m *Macro) fixed() int {
	if m.Variadic {
		return len(m.Params) - 1
	}
	return len(m.Params)
}

// String renders the macro back as a #define line.
func (m *Macro) String() string {
	var b strings.Builder
	b.WriteString("#define ")
	b.WriteString(m.Name)
	if m.FunctionLike {
		b.WriteByte('(')
		for i, p := range m.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			switch {
			case i < m.fixed():
				b.WriteString(p)
			case p == VarArgs:
				b.WriteString("...")
			default:
				b.WriteString(p + "...")
			}
		}
		b.WriteByte(')')
	}
	if m.Body != "" {
		b.WriteByte(' ')
		b.WriteString(strings.ReplaceAll(m.Body, "\n", " \\\n"))
	}
	return b.String()
}

// MacroTable maps identifiers to macros and remembers definition order.
// The zero value is an empty table.
type MacroTable struct {
	macros map[string]*Macro
	order  []string
}

// Define adds m, replacing any macro of the same name in place.
func (t *MacroTable) Define(m *Macro) {
	if t.macros == nil {
		t.macros = map[string]*Macro{}
	}
	if _, ok := t.macros[m.Name]; !ok {
		t.order = append(t.order, m.Name)
	}
	t.macros[m.Name] = m
}

// Undef removes name and reports whether it was defined.
func (t *MacroTable) Undef(name string) bool {
	if _, ok := t.macros[name]; !ok {
		return false
	}
	delete(t.macros, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

func (t *MacroTable) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

func (t *MacroTable) Len() int { return len(t.order) }

// All returns copies of the macros in definition order.
func (t *MacroTable) All() []Macro {
	out := make([]Macro, 0, len(t.order))
	for _, n := range t.order {
		m := *t.macros[n]
		m.Params = append([]string(nil), m.Params...)
		out = append(out, m)
	}
	return out
}

func (t *MacroTable) Reset() {
	t.macros = nil
	t.order = nil
}

// ---------------- Definition parsing ----------------

// parseDefine parses the text following "#define". The returned error is a
// *DefineSyntaxError without position; the caller fills that in.
func parseDefine(args string) (*Macro, error) {
	text := strings.TrimLeft(joinContinuations(args, true), " \t\n")
	if text == "" || !isIdentStart(text[0]) {
		return nil, &DefineSyntaxError{Text: firstLine(args), Reason: "macro name must be an identifier"}
	}
	end := identEnd(text, 0)
	m := &Macro{Name: text[:end]}
	rest := text[end:]

	// A parameter list may be pushed onto the next line with a continuation.
	if strings.HasPrefix(rest, "(") || strings.HasPrefix(rest, "\n(") {
		open := strings.IndexByte(rest, '(')
		closing := matchingParen(rest, open)
		if closing < 0 {
			return nil, &DefineSyntaxError{Text: firstLine(args), Reason: "missing ')' in parameter list"}
		}
		params, variadic, err := parseParams(rest[open+1 : closing])
		if err != nil {
			err.Text = firstLine(args)
			return nil, err
		}
		m.FunctionLike = true
		m.Params = params
		m.Variadic = variadic
		rest = rest[closing+1:]
	} else if rest != "" && !isSpace(rest[0]) && !strings.HasPrefix(rest, "/") {
		return nil, &DefineSyntaxError{Text: firstLine(args), Reason: "missing whitespace after macro name"}
	}

	m.Body = parseBody(rest)
	return m, nil
}

func parseParams(list string) ([]string, bool, *DefineSyntaxError) {
	if strings.TrimSpace(list) == "" {
		return nil, false, nil
	}
	var params []string
	variadic := false
	fields := strings.Split(stripComments(list), ",")
	for i, f := range fields {
		p := strings.TrimSpace(f)
		if strings.HasSuffix(p, "...") {
			if i != len(fields)-1 {
				return nil, false, &DefineSyntaxError{Reason: "'...' must be the last parameter"}
			}
			variadic = true
			if p = strings.TrimSpace(strings.TrimSuffix(p, "...")); p == "" {
				p = VarArgs
			}
		}
		if !isIdentifier(p) {
			return nil, false, &DefineSyntaxError{Reason: fmt.Sprintf("bad parameter name %q", p)}
		}
		for _, q := range params {
			if q == p {
				return nil, false, &DefineSyntaxError{Reason: "duplicate parameter " + p}
			}
		}
		params = append(params, p)
	}
	return params, variadic, nil
}

// parseBody normalizes a macro body. A single-line body is trimmed; a
// multi-line body keeps its line structure with the common indentation of
// its continuation lines removed.
func parseBody(rest string) string {
	if !strings.Contains(rest, "\n") {
		return strings.TrimSpace(trimTrailingComments(rest))
	}
	lines := strings.Split(rest, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	var kept []string
	if first := strings.TrimSpace(lines[0]); first != "" {
		kept = append(kept, first)
	}
	kept = append(kept, dedent(lines[1:])...)
	for len(kept) > 0 && kept[len(kept)-1] == "" {
		kept = kept[:len(kept)-1]
	}
	return strings.TrimRight(trimTrailingComments(strings.Join(kept, "\n")), " \t\n")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], " \t\\")
	}
	return s
}

// ParseDefine splits a command-line definition NAME or NAME=VALUE. A bare
// NAME is defined as 1.
func ParseDefine(s string) (name, value string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, "1"
}
