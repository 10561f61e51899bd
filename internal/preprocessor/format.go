package preprocessor

import (
	"regexp"
	"strings"
)

// DefaultTabSize is the tab stop used when none is configured.
const DefaultTabSize = 4

var reLineContinuation = regexp.MustCompile(`\\[ \t]*\n`)

// normalizeLines splits code into lines, expanding tabs to the next multiple
// of tabSize and trimming trailing whitespace.
func normalizeLines(code string, tabSize int) []string {
	if tabSize <= 0 {
		tabSize = DefaultTabSize
	}
	code = strings.TrimSuffix(code, "\n")
	if code == "" {
		return nil
	}
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.IndexByte(line, '\t') >= 0 {
			line = expandTabs(line, tabSize)
		}
		lines[i] = line
	}
	return lines
}

func expandTabs(line string, tabSize int) string {
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// joinContinuations resolves backslash-newline markers, either dropping them
// or turning them into plain newlines.
func joinContinuations(text string, keepNewlines bool) string {
	if !strings.Contains(text, "\\") {
		return text
	}
	if keepNewlines {
		return reLineContinuation.ReplaceAllString(text, "\n")
	}
	return reLineContinuation.ReplaceAllString(text, "")
}

func lineContinues(s string) bool {
	i := strings.LastIndexFunc(s, func(r rune) bool {
		return r != ' ' && r != '\t'
	})
	return i >= 0 && s[i] == '\\'
}

// dedent strips the indentation common to all non-blank lines.
func dedent(lines []string) []string {
	common := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if common < 0 || n < common {
			common = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		switch {
		case strings.TrimSpace(l) == "":
			out[i] = ""
		case common > 0:
			out[i] = l[common:]
		default:
			out[i] = l
		}
	}
	return out
}

// reindent prefixes every non-blank line after the first with indent.
func reindent(text, indent string) string {
	if indent == "" || !strings.Contains(text, "\n") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func removeEmptyLines(text string) string {
	var kept []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
