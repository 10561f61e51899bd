package preprocessor

import (
	"errors"
	"strings"
)

// MaxExpansionDepth bounds recursive rescanning. Self-referential macros
// terminate only by hitting it.
const MaxExpansionDepth = 4096

// expander substitutes macros from a table into text, rescanning every
// replacement until nothing expandable is left.
type expander struct {
	macros  *MacroTable
	exclude func(name string) bool
	warn    func(err error)
}

// expand replaces every macro reference in text that is outside comments
// and literals. At depth 0 line continuations are joined first.
func (e *expander) expand(text string, depth int) (string, error) {
	if depth > MaxExpansionDepth {
		return "", &ExpansionDepthError{Depth: depth}
	}
	if depth == 0 {
		text = joinContinuations(text, false)
	}

	var b strings.Builder
	last, changed := 0, false
	for i := 0; i < len(text); {
		if j, ok := skipNonCode(text, i); ok {
			i = j
			continue
		}
		if !wordStart(text, i) {
			i++
			continue
		}
		end := identEnd(text, i)
		name := text[i:end]
		m, ok := e.macros.Lookup(name)
		if !ok || e.excluded(name) {
			i = end
			continue
		}
		repl, next, err := e.replace(m, text, end, depth)
		if err != nil {
			return "", err
		}
		if next < 0 {
			i = end
			continue
		}
		b.WriteString(text[last:i])
		b.WriteString(reindent(repl, lineIndent(text, i)))
		last, i, changed = next, next, true
	}
	if !changed {
		return text, nil
	}
	b.WriteString(text[last:])
	return e.expand(b.String(), depth+1)
}

func (e *expander) excluded(name string) bool {
	return e.exclude != nil && e.exclude(name)
}

// replace expands the reference to m whose name ends at text[end]. It
// returns the replacement and the index just past the reference, or -1
// when a function-like macro is named without an argument list.
func (e *expander) replace(m *Macro, text string, end, depth int) (string, int, error) {
	var body string
	next := end
	if m.FunctionLike {
		open := skipSpace(text, end)
		if open >= len(text) || text[open] != '(' {
			return "", -1, nil
		}
		closing := matchingParen(text, open)
		if closing < 0 {
			return "", -1, nil
		}
		var err error
		if body, err = e.substitute(m, splitArgs(text[open+1:closing]), depth); err != nil {
			return "", 0, nameDepthError(err, m.Name)
		}
		// Empty arguments at either edge must not leave stray blanks.
		body = strings.TrimSpace(body)
		next = closing + 1
	} else {
		body = removePasteOps(m.Body)
	}

	out, err := e.expand(body, depth+1)
	if err != nil {
		return "", 0, nameDepthError(err, m.Name)
	}
	return out, next, nil
}

func nameDepthError(err error, name string) error {
	var de *ExpansionDepthError
	if errors.As(err, &de) && de.Macro == "" {
		de.Macro = name
	}
	return err
}

// substitute fills the parameters of m into its body. Operands of # and ##
// receive the argument text as written; every other occurrence receives
// the fully expanded argument.
func (e *expander) substitute(m *Macro, args []string, depth int) (string, error) {
	if len(m.Params) == 0 && len(args) == 1 && args[0] == "" {
		args = nil
	}
	fixed := m.fixed()
	if len(args) < fixed || (!m.Variadic && len(args) > fixed) {
		if e.warn != nil {
			e.warn(&MacroArgumentError{Macro: m.Name, Want: fixed, Got: len(args)})
		}
		for len(args) < fixed {
			args = append(args, "")
		}
	}

	raw := make(map[string]string, len(m.Params))
	for i := 0; i < fixed; i++ {
		raw[m.Params[i]] = args[i]
	}
	if m.Variadic {
		raw[m.Params[fixed]] = strings.Join(args[fixed:], ", ")
	}
	expanded := make(map[string]string, len(raw))
	argument := func(name string) (string, error) {
		if s, ok := expanded[name]; ok {
			return s, nil
		}
		s, err := e.expand(raw[name], depth+1)
		if err != nil {
			return "", err
		}
		expanded[name] = s
		return s, nil
	}

	body := m.Body
	var b strings.Builder
	last := 0
	for i := 0; i < len(body); {
		if j, ok := skipNonCode(body, i); ok {
			i = j
			continue
		}
		if body[i] == '#' {
			if end, name, ok := stringizeOperand(body, i, raw); ok {
				b.WriteString(body[last:i])
				b.WriteString(`"` + raw[name] + `"`)
				last, i = end, end
				continue
			}
			i++
			continue
		}
		if !wordStart(body, i) {
			i++
			continue
		}
		end := identEnd(body, i)
		name := body[i:end]
		r, ok := raw[name]
		if !ok {
			i = end
			continue
		}
		b.WriteString(body[last:i])
		if pastedBefore(body, i) || pastedAfter(body, end) {
			b.WriteString(r)
		} else {
			s, err := argument(name)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		last, i = end, end
	}
	b.WriteString(body[last:])
	return removePasteOps(b.String()), nil
}

// stringizeOperand reports whether the '#' at body[i] is a stringize
// operator applied to a parameter, returning the end of the operand.
func stringizeOperand(body string, i int, params map[string]string) (int, string, bool) {
	if (i+1 < len(body) && body[i+1] == '#') || (i > 0 && body[i-1] == '#') {
		return 0, "", false
	}
	k := i + 1
	for k < len(body) && (body[k] == ' ' || body[k] == '\t') {
		k++
	}
	if k >= len(body) || !isIdentStart(body[k]) {
		return 0, "", false
	}
	end := identEnd(body, k)
	if _, ok := params[body[k:end]]; !ok {
		return 0, "", false
	}
	return end, body[k:end], true
}

func pastedBefore(text string, i int) bool {
	k := i - 1
	for k >= 0 && isSpace(text[k]) {
		k--
	}
	return k >= 1 && text[k] == '#' && text[k-1] == '#'
}

func pastedAfter(text string, end int) bool {
	k := skipSpace(text, end)
	return k+1 < len(text) && text[k] == '#' && text[k+1] == '#'
}

// removePasteOps deletes every ## operator together with the whitespace
// around it, joining its neighbours.
func removePasteOps(text string) string {
	if !strings.Contains(text, "##") {
		return text
	}
	buf := make([]byte, 0, len(text))
	for i := 0; i < len(text); {
		if j, ok := skipNonCode(text, i); ok {
			buf = append(buf, text[i:j]...)
			i = j
			continue
		}
		if text[i] == '#' && i+1 < len(text) && text[i+1] == '#' {
			for len(buf) > 0 && isSpace(buf[len(buf)-1]) {
				buf = buf[:len(buf)-1]
			}
			i = skipSpace(text, i+2)
			continue
		}
		buf = append(buf, text[i])
		i++
	}
	return string(buf)
}
