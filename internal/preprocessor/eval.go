package preprocessor

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reDefined   = regexp.MustCompile(`\bdefined\s*\(\s*([A-Za-z_]\w*)\s*\)|\bdefined\s+([A-Za-z_]\w*)`)
	reIntSuffix = regexp.MustCompile(`\b(0[xX][0-9a-fA-F]+|\d+)(?:[uU](?:ll|LL|[lL])?|(?:ll|LL|[lL])[uU]?)\b`)
)

var (
	errDivideByZero = errors.New("division by zero")
	errTypeMismatch = errors.New("string operand in arithmetic")
)

// resolveDefined replaces defined(NAME) and defined NAME with 1 or 0.
func resolveDefined(expr string, macros *MacroTable) string {
	return reDefined.ReplaceAllStringFunc(expr, func(s string) string {
		m := reDefined.FindStringSubmatch(s)
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if macros.IsDefined(name) {
			return "1"
		}
		return "0"
	})
}

// value is the result of evaluating an expression. A failed operand (for
// example a division by zero) is carried as err so that &&, || and ?: can
// discard it when it is not selected.
type value struct {
	n   int64
	str bool
	err error
}

func (v value) truth() bool { return v.n != 0 }

// evaluate parses and evaluates a prepared #if expression.
func evaluate(expr string) (value, error) {
	toks, err := lexExpr(expr)
	if err != nil {
		return value{}, err
	}
	if len(toks) == 0 {
		return value{}, errors.New("empty expression")
	}
	p := &exprParser{toks: toks}
	v, err := p.ternary()
	if err != nil {
		return value{}, err
	}
	if p.pos < len(p.toks) {
		return value{}, fmt.Errorf("unexpected %q", p.toks[p.pos])
	}
	if v.err != nil {
		return value{}, v.err
	}
	return v, nil
}

// ---------------- Tokens ----------------

var punctuators = []string{
	"||", "&&", "==", "!=", "<=", ">=", "<<", ">>",
	"+", "-", "*", "/", "%", "<", ">", "&", "|", "^", "!", "~", "(", ")", "?", ":",
}

func lexExpr(s string) ([]string, error) {
	var toks []string
next:
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
			continue
		case c == '"' || c == '\'':
			j, _ := skipNonCode(s, i)
			if j-i < 2 || s[j-1] != c {
				return nil, fmt.Errorf("unterminated literal %s", s[i:j])
			}
			toks = append(toks, s[i:j])
			i = j
			continue
		case isIdentPart(c):
			j := identEnd(s, i)
			toks = append(toks, s[i:j])
			i = j
			continue
		}
		for _, p := range punctuators {
			if strings.HasPrefix(s[i:], p) {
				toks = append(toks, p)
				i += len(p)
				continue next
			}
		}
		return nil, fmt.Errorf("unexpected character %q", c)
	}
	return toks, nil
}

// ---------------- Parser ----------------

var binaryPrec = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

type exprParser struct {
	toks []string
	pos  int
}

func (p *exprParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *exprParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *exprParser) expect(t string) error {
	if got := p.next(); got != t {
		if got == "" {
			return fmt.Errorf("expected %q at end of expression", t)
		}
		return fmt.Errorf("expected %q, got %q", t, got)
	}
	return nil
}

func (p *exprParser) ternary() (value, error) {
	cond, err := p.binary(1)
	if err != nil || p.peek() != "?" {
		return cond, err
	}
	p.next()
	a, err := p.ternary()
	if err != nil {
		return value{}, err
	}
	if err := p.expect(":"); err != nil {
		return value{}, err
	}
	b, err := p.ternary()
	if err != nil {
		return value{}, err
	}
	switch {
	case cond.err != nil:
		return cond, nil
	case cond.str:
		return value{err: errTypeMismatch}, nil
	case cond.truth():
		return a, nil
	}
	return b, nil
}

// binary parses operators binding at least as tightly as minPrec.
func (p *exprParser) binary(minPrec int) (value, error) {
	lhs, err := p.unary()
	if err != nil {
		return value{}, err
	}
	for {
		op := p.peek()
		prec := binaryPrec[op]
		if prec == 0 || prec < minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.binary(prec + 1)
		if err != nil {
			return value{}, err
		}
		lhs = apply(op, lhs, rhs)
	}
}

func (p *exprParser) unary() (value, error) {
	switch op := p.peek(); op {
	case "!", "-", "+", "~":
		p.next()
		v, err := p.unary()
		if err != nil || v.err != nil {
			return v, err
		}
		if v.str {
			return value{err: errTypeMismatch}, nil
		}
		switch op {
		case "!":
			return boolValue(!v.truth()), nil
		case "-":
			return value{n: -v.n}, nil
		case "~":
			return value{n: ^v.n}, nil
		}
		return v, nil
	}
	return p.primary()
}

func (p *exprParser) primary() (value, error) {
	t := p.next()
	switch {
	case t == "":
		return value{}, errors.New("unexpected end of expression")
	case t == "(":
		v, err := p.ternary()
		if err != nil {
			return value{}, err
		}
		return v, p.expect(")")
	case t[0] == '"':
		return value{str: true}, nil
	case t[0] == '\'':
		r, _, _, err := strconv.UnquoteChar(t[1:len(t)-1], '\'')
		if err != nil {
			return value{}, fmt.Errorf("bad character literal %s", t)
		}
		return value{n: int64(r)}, nil
	case t[0] >= '0' && t[0] <= '9':
		n, err := parseInt(t)
		if err != nil {
			return value{}, err
		}
		return value{n: n}, nil
	case isIdentStart(t[0]):
		// Identifiers left after expansion are undefined and count as 0.
		return value{}, nil
	}
	return value{}, fmt.Errorf("unexpected %q", t)
}

func parseInt(t string) (int64, error) {
	s := strings.TrimRight(t, "uUlL")
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		s = "0o" + s[1:]
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n, nil
	}
	u, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("bad integer literal %s", t)
	}
	return int64(u), nil
}

func boolValue(b bool) value {
	if b {
		return value{n: 1}
	}
	return value{}
}

func apply(op string, a, b value) value {
	switch op {
	case "&&":
		if a.err == nil && !a.str && !a.truth() {
			return value{}
		}
	case "||":
		if a.err == nil && !a.str && a.truth() {
			return value{n: 1}
		}
	}
	switch {
	case a.err != nil:
		return a
	case b.err != nil:
		return b
	case a.str || b.str:
		return value{err: errTypeMismatch}
	}

	x, y := a.n, b.n
	switch op {
	case "&&", "||":
		return boolValue(y != 0)
	case "|":
		return value{n: x | y}
	case "^":
		return value{n: x ^ y}
	case "&":
		return value{n: x & y}
	case "==":
		return boolValue(x == y)
	case "!=":
		return boolValue(x != y)
	case "<":
		return boolValue(x < y)
	case "<=":
		return boolValue(x <= y)
	case ">":
		return boolValue(x > y)
	case ">=":
		return boolValue(x >= y)
	case "<<":
		return value{n: x << uint64(y&63)}
	case ">>":
		return value{n: x >> uint64(y&63)}
	case "+":
		return value{n: x + y}
	case "-":
		return value{n: x - y}
	case "*":
		return value{n: x * y}
	case "/":
		if y == 0 {
			return value{err: errDivideByZero}
		}
		return value{n: x / y}
	case "%":
		if y == 0 {
			return value{err: errDivideByZero}
		}
		return value{n: x % y}
	}
	return value{err: fmt.Errorf("unknown operator %q", op)}
}
