package preprocessor

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"

	"github.com/fwessels/neatcpp/internal/diag"
)

// MaxIncludeDepth bounds #include nesting, which also stops include cycles.
const MaxIncludeDepth = 200

// CodeOrigin names text handed to ProcessCode in diagnostics.
const CodeOrigin = "<code>"

// IncludeReader locates and reads the targets of #include.
type IncludeReader interface {
	ReadInclude(name string) (text, path string, err error)
}

// Options configures a Preprocessor.
type Options struct {
	// TabSize is the tab stop used when expanding tabs. Zero means DefaultTabSize.
	TabSize int
	// Exclude holds glob patterns of macro and include names that are left
	// untouched.
	Exclude []string
	// Sink receives diagnostics. Nil discards them.
	Sink diag.Sink
	// Files resolves #include. Nil makes every #include fail.
	Files IncludeReader
}

// ProcessOptions selects what a single processing call returns and keeps.
type ProcessOptions struct {
	// FullOutput returns the full rendering instead of the filtered one.
	FullOutput bool
	// LocalOnly keeps the result out of the accumulated output. Macro and
	// conditional side effects still apply.
	LocalOnly bool
}

// ---------------- Preprocessor ----------------

// Preprocessor is a single-threaded preprocessing engine. Macros persist
// across calls until Reset.
type Preprocessor struct {
	tabSize int
	sink    diag.Sink
	files   IncludeReader
	exclude []glob.Glob

	macros MacroTable
	cond   conditions
	exp    expander

	output       strings.Builder
	outputFull   strings.Builder
	includeDepth int
	at           string
}

// unit is one source text being processed; included files are units of
// their own.
type unit struct {
	origin string
	base   int
	out    assembler
}

func New(opts Options) (*Preprocessor, error) {
	p := &Preprocessor{
		tabSize: opts.TabSize,
		sink:    opts.Sink,
		files:   opts.Files,
	}
	if p.tabSize <= 0 {
		p.tabSize = DefaultTabSize
	}
	if p.sink == nil {
		p.sink = diag.Discard
	}
	if err := p.SetExclude(opts.Exclude); err != nil {
		return nil, err
	}
	p.exp = expander{
		macros:  &p.macros,
		exclude: p.excluded,
		warn: func(err error) {
			p.report(diag.Warning, fmt.Errorf("%s%w", p.at, err))
		},
	}
	return p, nil
}

// SetExclude replaces the exclusion patterns.
func (p *Preprocessor) SetExclude(patterns []string) error {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	p.exclude = globs
	return nil
}

func (p *Preprocessor) excluded(name string) bool {
	for _, g := range p.exclude {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// SetIncludeReader replaces the #include collaborator.
func (p *Preprocessor) SetIncludeReader(files IncludeReader) {
	p.files = files
}

func (p *Preprocessor) report(level diag.Level, err error) {
	p.sink.Report(diag.Entry{Level: level, Err: err})
}

// ProcessCode preprocesses code and returns its filtered (or full)
// rendering. Only an unterminated block comment makes it fail; the output
// produced up to that point is still returned.
func (p *Preprocessor) ProcessCode(code string, opts ProcessOptions) (string, error) {
	return p.process(CodeOrigin, code, opts)
}

// ProcessFile reads name through the include reader and preprocesses it.
func (p *Preprocessor) ProcessFile(name string, opts ProcessOptions) (string, error) {
	if p.files == nil {
		err := &IncludeNotFoundError{Name: name}
		p.report(diag.Critical, err)
		return "", err
	}
	text, path, err := p.files.ReadInclude(name)
	if err != nil {
		p.report(diag.Critical, err)
		return "", err
	}
	return p.process(path, text, opts)
}

func (p *Preprocessor) process(origin, code string, opts ProcessOptions) (string, error) {
	u, err := p.run(origin, code)
	if !opts.LocalOnly {
		p.output.WriteString(u.out.filtered.String())
		p.outputFull.WriteString(u.out.full.String())
	}
	if opts.FullOutput {
		return u.out.full.String(), err
	}
	return u.out.filtered.String(), err
}

// run segments code and feeds every segment through the dispatcher and the
// assembler. Conditionals left open at the end are reported and closed.
func (p *Preprocessor) run(origin, code string) (*unit, error) {
	u := &unit{origin: origin, base: p.cond.depth()}
	segs := newSegmenter(origin, code, p.tabSize)
	for segs.Next() {
		s := segs.Segment()
		p.at = location(origin, s.Line)
		switch s.Kind {
		case Directive:
			p.directive(u, s)
		case Code:
			text := s.Text
			if p.cond.active() {
				text = p.expandCode(s.Text)
			}
			u.out.code(text, p.cond.active())
		default:
			u.out.formatting(s, p.cond.active())
		}
	}
	p.at = ""

	if err := segs.Err(); err != nil {
		p.report(diag.Critical, err)
		p.cond.unwind(u.base)
		return u, err
	}
	if p.cond.depth() > u.base {
		p.report(diag.Critical, &StructuralError{Origin: origin, Line: p.cond.openLine(), Msg: "unterminated conditional: missing #endif"})
		p.cond.unwind(u.base)
	}
	return u, nil
}

// expandCode expands an active Code segment. Text without any expansion
// keeps its original line layout.
func (p *Preprocessor) expandCode(text string) string {
	joined := joinContinuations(text, false)
	out, err := p.exp.expand(joined, 0)
	if err != nil {
		p.report(diag.Severe, fmt.Errorf("%s%w", p.at, err))
		return text
	}
	if out == joined {
		return text
	}
	return out
}

// ExpandMacros expands every macro in text with the current definitions.
func (p *Preprocessor) ExpandMacros(text string) (string, error) {
	out, err := p.exp.expand(text, 0)
	if err != nil {
		p.report(diag.Severe, err)
		return "", err
	}
	return out, nil
}

// Evaluate returns the integer value of a conditional expression, or 0
// when it cannot be evaluated or yields a string.
func (p *Preprocessor) Evaluate(expr string) int64 {
	v, ok := p.eval(expr)
	if !ok || v.str {
		return 0
	}
	return v.n
}

// IsTrue reports whether a conditional expression holds.
func (p *Preprocessor) IsTrue(expr string) bool {
	return p.isTrue(expr)
}

func (p *Preprocessor) isTrue(expr string) bool {
	v, ok := p.eval(expr)
	return ok && !v.str && v.truth()
}

func (p *Preprocessor) eval(expr string) (value, bool) {
	prepared, err := p.prepare(expr)
	if err != nil {
		p.report(diag.Severe, fmt.Errorf("%s%w", p.at, err))
		return value{}, false
	}
	v, err := evaluate(prepared)
	if err != nil {
		p.report(diag.Info, fmt.Errorf("%scannot evaluate %q: %w", p.at, strings.TrimSpace(expr), err))
		return value{}, false
	}
	return v, true
}

// prepare turns a #if expression into plain arithmetic.
func (p *Preprocessor) prepare(expr string) (string, error) {
	s := resolveDefined(expr, &p.macros)
	s, err := p.exp.expand(s, 0)
	if err != nil {
		return "", err
	}
	s = joinContinuations(s, false)
	s = stripComments(s)
	s = reIntSuffix.ReplaceAllString(s, "$1")
	s = removeEmptyLines(s)
	// Expansion may have produced new defined operators.
	return resolveDefined(s, &p.macros), nil
}

// ---------------- Macro table access ----------------

// Define adds a macro as if by "#define name value". name may carry a
// parameter list.
func (p *Preprocessor) Define(name, value string) error {
	m, err := parseDefine(name + " " + value)
	if err != nil {
		return err
	}
	p.macros.Define(m)
	return nil
}

// Undefine removes a macro and reports whether it existed.
func (p *Preprocessor) Undefine(name string) bool {
	return p.macros.Undef(name)
}

// IsDefined reports whether name is a defined macro.
func (p *Preprocessor) IsDefined(name string) bool {
	return p.macros.IsDefined(name)
}

// Macros returns the current definitions in definition order.
func (p *Preprocessor) Macros() []Macro {
	return p.macros.All()
}

// ---------------- Output ----------------

// Output returns the filtered rendering accumulated so far.
func (p *Preprocessor) Output() string { return p.output.String() }

// OutputFull returns the full rendering accumulated so far.
func (p *Preprocessor) OutputFull() string { return p.outputFull.String() }

// ResetOutput clears the accumulated renderings.
func (p *Preprocessor) ResetOutput() {
	p.output.Reset()
	p.outputFull.Reset()
}

// Reset clears the renderings, the macro table and the conditional state.
func (p *Preprocessor) Reset() {
	p.ResetOutput()
	p.macros.Reset()
	p.cond.reset()
	p.includeDepth = 0
}
