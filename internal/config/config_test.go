package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwessels/neatcpp/internal/diag"
)

const sample = `
TAB_SIZE = 8

[include]
DIRS = incl, ../common,

[exclude]
PATTERNS = IGN_*, stdint.h

[define]
NAMES = DEBUG, LEVEL=3

[output]
FULL = true

[log]
LEVEL = Info
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	want := &Config{
		TabSize:     8,
		IncludeDirs: []string{"incl", "../common"},
		Exclude:     []string{"IGN_*", "stdint.h"},
		Defines:     []string{"DEBUG", "LEVEL=3"},
		FullOutput:  true,
		LogLevel:    diag.Info,
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, 4, c.TabSize)
	assert.Equal(t, diag.Warning, c.LogLevel)
}

func TestParseErrors(t *testing.T) {
	for _, data := range []string{
		"TAB_SIZE = 0",
		"[log]\nLEVEL = loud",
	} {
		_, err := Parse([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "neatcpp.ini")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "incl"), filepath.Join(filepath.Dir(dir), "common")}, c.IncludeDirs)

	_, err = Load(filepath.Join(dir, "missing.ini"))
	assert.Error(t, err)
}
