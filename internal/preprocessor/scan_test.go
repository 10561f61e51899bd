package preprocessor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestSkipNonCode(t *testing.T) {
	for _, tt := range []struct {
		text string
		at   int
		end  int
		ok   bool
	}{
		{`"abc" x`, 0, 5, true},
		{`"a\"b" x`, 0, 6, true},
		{`'\'' x`, 0, 4, true},
		{"\"open\nnext", 0, 5, true},
		{"// c\nx", 0, 4, true},
		{"/* a\n b */x", 0, 10, true},
		{"/* open", 0, 7, true},
		{"a / b", 2, 2, false},
		{"x", 0, 0, false},
	} {
		end, ok := skipNonCode(tt.text, tt.at)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.end, end, tt.text)
	}
}

func TestUnterminatedComment(t *testing.T) {
	assert.True(t, unterminatedComment("a /* b"))
	assert.True(t, unterminatedComment("/*/"))
	assert.False(t, unterminatedComment("a /* b */"))
	assert.False(t, unterminatedComment(`s = "/*";`))
	assert.False(t, unterminatedComment("x // /*"))
}

func TestStripComments(t *testing.T) {
	for in, want := range map[string]string{
		"a /* b */ c":       "a   c",
		"a // b":            "a  ",
		"a /* b\n c */ d":   "a  \n d",
		`s = "/* no */";`:   `s = "/* no */";`,
		"plain":             "plain",
		"x /* a */ /* b */": "x    ",
	} {
		assert.Equal(t, want, stripComments(in), in)
	}
}

func TestTrimTrailingComments(t *testing.T) {
	for in, want := range map[string]string{
		"5 // five":           "5",
		"a + b /* sum */  ":    "a + b",
		"x /* 1 */ /* 2 */":    "x",
		"y /* in */ z":         "y /* in */ z",
		`"http://example.com"`: `"http://example.com"`,
	} {
		assert.Equal(t, want, trimTrailingComments(in), in)
	}
}

func TestMatchingParen(t *testing.T) {
	assert.Equal(t, 8, matchingParen("f(a, (b))", 1))
	assert.Equal(t, 7, matchingParen(`(")", x)`, 0))
	assert.Equal(t, -1, matchingParen("(a, (b)", 0))
}

func TestSplitArgs(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want []string
	}{
		{"", []string{""}},
		{"a", []string{"a"}},
		{" a , b ", []string{"a", "b"}},
		{"f(a, b), c", []string{"f(a, b)", "c"}},
		{`",", ','`, []string{`","`, `','`}},
		{"a /* , */, b", []string{"a /* , */", "b"}},
		{"1,\n     2", []string{"1", "2"}},
	} {
		if diff := cmp.Diff(tt.want, splitArgs(tt.in)); diff != "" {
			t.Errorf("splitArgs(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestWordHelpers(t *testing.T) {
	assert.True(t, wordStart("a b", 2))
	assert.False(t, wordStart("ab", 1))
	assert.False(t, wordStart("1u", 1))
	assert.Equal(t, 5, identEnd("abc_1+", 0))
	assert.True(t, isIdentifier("_x1"))
	assert.False(t, isIdentifier("1x"))
	assert.False(t, isIdentifier("a-b"))
	assert.Equal(t, "    ", lineIndent("x\n    y", 6))
	assert.Equal(t, "", lineIndent("abc", 2))
}
