package preprocessor

import "strings"

// Position helpers shared by the segmenter, the expander and the evaluator.
// Everything that needs to know whether an index is code, comment or
// literal goes through skipNonCode so the rules live in one place:
//   - a string or character literal opens at a quote and closes at the next
//     unescaped matching quote; an unclosed literal ends at the newline;
//   - a line comment runs up to, not including, the newline;
//   - a block comment runs through "*/", or to the end of text if unclosed.

// skipNonCode reports whether a comment or literal starts at text[i] and, if
// so, returns the index just past it.
func skipNonCode(text string, i int) (int, bool) {
	switch c := text[i]; c {
	case '"', '\'':
		j := i + 1
		for j < len(text) {
			switch text[j] {
			case '\\':
				j += 2
				continue
			case c:
				return j + 1, true
			case '\n':
				return j, true
			}
			j++
		}
		return len(text), true
	case '/':
		if i+1 >= len(text) {
			return i, false
		}
		switch text[i+1] {
		case '/':
			if k := strings.IndexByte(text[i:], '\n'); k >= 0 {
				return i + k, true
			}
			return len(text), true
		case '*':
			if k := strings.Index(text[i+2:], "*/"); k >= 0 {
				return i + 2 + k + 2, true
			}
			return len(text), true
		}
	}
	return i, false
}

func isComment(span string) bool {
	return strings.HasPrefix(span, "//") || strings.HasPrefix(span, "/*")
}

// unterminatedComment reports whether text ends inside a block comment.
func unterminatedComment(text string) bool {
	for i := 0; i < len(text); {
		j, ok := skipNonCode(text, i)
		if !ok {
			i++
			continue
		}
		if span := text[i:j]; strings.HasPrefix(span, "/*") && (len(span) < 4 || !strings.HasSuffix(span, "*/")) {
			return true
		}
		i = j
	}
	return false
}

// stripComments replaces every comment with a single space, keeping the
// newlines of multi-line comments.
func stripComments(text string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(text); {
		j, ok := skipNonCode(text, i)
		if !ok {
			i++
			continue
		}
		if span := text[i:j]; isComment(span) {
			b.WriteString(text[last:i])
			b.WriteByte(' ')
			b.WriteString(strings.Repeat("\n", strings.Count(span, "\n")))
			last = j
		}
		i = j
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// trimTrailingComments drops comments (and whitespace) that end text.
func trimTrailingComments(text string) string {
	for {
		text = strings.TrimRight(text, " \t\n")
		start := -1
		for i := 0; i < len(text); {
			j, ok := skipNonCode(text, i)
			if !ok {
				i++
				continue
			}
			if j == len(text) && isComment(text[i:j]) {
				start = i
			}
			i = j
		}
		if start < 0 {
			return text
		}
		text = text[:start]
	}
}

// matchingParen returns the index of the ')' closing the '(' at text[open],
// or -1 when it is not closed.
func matchingParen(text string, open int) int {
	depth := 0
	for i := open; i < len(text); {
		if j, ok := skipNonCode(text, i); ok {
			i = j
			continue
		}
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
		i++
	}
	return -1
}

// splitArgs splits the interior of a macro reference on commas that are not
// nested in parentheses or inside a literal. Arguments are trimmed.
func splitArgs(text string) []string {
	var args []string
	depth, last := 0, 0
	for i := 0; i < len(text); {
		if j, ok := skipNonCode(text, i); ok {
			i = j
			continue
		}
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[last:i]))
				last = i + 1
			}
		}
		i++
	}
	return append(args, strings.TrimSpace(text[last:]))
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// identEnd returns the end of the identifier starting at text[i].
func identEnd(text string, i int) int {
	j := i + 1
	for j < len(text) && isIdentPart(text[j]) {
		j++
	}
	return j
}

// wordStart reports whether an identifier begins at text[i] on a word boundary.
func wordStart(text string, i int) bool {
	return isIdentStart(text[i]) && (i == 0 || !isIdentPart(text[i-1]))
}

func isIdentifier(s string) bool {
	return s != "" && isIdentStart(s[0]) && identEnd(s, 0) == len(s)
}

func skipSpace(text string, i int) int {
	for i < len(text) && isSpace(text[i]) {
		i++
	}
	return i
}

// lineIndent returns the leading blanks of the line containing text[i].
func lineIndent(text string, i int) string {
	start := strings.LastIndexByte(text[:i], '\n') + 1
	end := start
	for end < i && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}
