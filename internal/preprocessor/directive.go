package preprocessor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwessels/neatcpp/internal/diag"
)

type directiveKind int

const (
	dirUnknown directiveKind = iota
	dirNull
	dirDefine
	dirUndef
	dirInclude
	dirIf
	dirElif
	dirElse
	dirEndif
	dirIfdef
	dirIfndef
)

var directiveKinds = map[string]directiveKind{
	"define":  dirDefine,
	"undef":   dirUndef,
	"include": dirInclude,
	"if":      dirIf,
	"elif":    dirElif,
	"else":    dirElse,
	"endif":   dirEndif,
	"ifdef":   dirIfdef,
	"ifndef":  dirIfndef,
}

// splitDirective returns the kind and keyword of a directive segment and
// the text after the keyword. Continuations are kept in args.
func splitDirective(text string) (kind directiveKind, keyword, args string) {
	s := strings.TrimLeft(text, " \t")
	s = strings.TrimLeft(s[1:], " \t")
	if s == "" || !isIdentStart(s[0]) {
		return dirNull, "", s
	}
	end := identEnd(s, 0)
	keyword, args = s[:end], s[end:]
	if k, ok := directiveKinds[keyword]; ok {
		return k, keyword, args
	}
	return dirUnknown, keyword, args
}

// directive handles one directive segment of u.
func (p *Preprocessor) directive(u *unit, s Segment) {
	kind, keyword, args := splitDirective(s.Text)
	u.out.directive(s)

	if kind != dirDefine {
		args = strings.TrimSpace(stripComments(joinContinuations(args, false)))
	}

	switch kind {
	case dirIf:
		cond := false
		if p.cond.active() {
			cond = p.isTrue(args)
		}
		p.cond.enterIf(cond, s.Line)

	case dirIfdef, dirIfndef:
		name := leadingIdent(args)
		if name == "" && p.cond.active() {
			p.report(diag.Warning, &StructuralError{Origin: u.origin, Line: s.Line, Msg: "#" + keyword + " without macro name"})
		}
		p.cond.enterIf(p.macros.IsDefined(name) == (kind == dirIfdef), s.Line)

	case dirElif, dirElse:
		if p.cond.depth() <= u.base {
			p.report(diag.Critical, &StructuralError{Origin: u.origin, Line: s.Line, Msg: "#" + keyword + " without #if"})
			return
		}
		cond := true
		if kind == dirElif {
			// Only a chain still searching for its branch evaluates #elif.
			cond = p.cond.state == Search && p.isTrue(args)
		}
		p.cond.enterElif(cond)

	case dirEndif:
		if p.cond.depth() <= u.base {
			p.report(diag.Critical, &StructuralError{Origin: u.origin, Line: s.Line, Msg: "unbalanced #endif"})
			return
		}
		p.cond.exitIf()

	case dirDefine:
		if !p.cond.active() {
			return
		}
		m, err := parseDefine(args)
		if err != nil {
			var se *DefineSyntaxError
			if errors.As(err, &se) {
				se.Origin, se.Line = u.origin, s.Line
			}
			p.report(diag.Critical, err)
			return
		}
		p.macros.Define(m)

	case dirUndef:
		if !p.cond.active() {
			return
		}
		name := leadingIdent(args)
		if name == "" {
			p.report(diag.Critical, &DefineSyntaxError{Origin: u.origin, Line: s.Line, Text: "#undef " + args, Reason: "macro name must be an identifier"})
			return
		}
		p.macros.Undef(name)

	case dirInclude:
		if p.cond.active() {
			p.include(u, args, s.Line)
		}

	case dirUnknown:
		if p.cond.active() {
			p.report(diag.Info, fmt.Errorf("%sunsupported directive #%s ignored", location(u.origin, s.Line), keyword))
		}
	}
}

// include processes the file named by a #include for its macro and
// conditional side effects. Its text is not part of the including unit's
// output.
func (p *Preprocessor) include(u *unit, args string, line int) {
	name, ok := includeName(args)
	if !ok {
		// #include MACRO
		if expanded, err := p.exp.expand(args, 0); err == nil {
			name, ok = includeName(strings.TrimSpace(expanded))
		}
	}
	if !ok {
		p.report(diag.Critical, fmt.Errorf("%sbad #include syntax: %s", location(u.origin, line), args))
		return
	}
	if p.excluded(name) {
		p.report(diag.Info, fmt.Errorf("%sexcluded include %q skipped", location(u.origin, line), name))
		return
	}
	if p.files == nil {
		p.report(diag.Critical, fmt.Errorf("%s%w", location(u.origin, line), &IncludeNotFoundError{Name: name}))
		return
	}
	if p.includeDepth >= MaxIncludeDepth {
		p.report(diag.Critical, &StructuralError{Origin: u.origin, Line: line, Msg: fmt.Sprintf("#include nested deeper than %d", MaxIncludeDepth)})
		return
	}
	text, path, err := p.files.ReadInclude(name)
	if err != nil {
		p.report(diag.Critical, fmt.Errorf("%s%w", location(u.origin, line), err))
		return
	}

	p.includeDepth++
	defer func() { p.includeDepth-- }()
	// Errors are reported by run; the including unit carries on.
	_, _ = p.run(path, text)
}

func includeName(args string) (string, bool) {
	if len(args) >= 2 {
		switch {
		case args[0] == '"' && args[len(args)-1] == '"',
			args[0] == '<' && args[len(args)-1] == '>':
			return args[1 : len(args)-1], true
		}
	}
	return "", false
}

func leadingIdent(s string) string {
	if s == "" || !isIdentStart(s[0]) {
		return ""
	}
	return s[:identEnd(s, 0)]
}
