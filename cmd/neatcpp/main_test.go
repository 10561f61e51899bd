package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwessels/neatcpp"
)

const (
	defsH = "#define N 4\n"
	mainC = `#include "defs.h"
#ifdef DEBUG
int dbg;
#endif
int a[N];
`
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	}
	return dir
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"neatcpp"}, args...))
	return stdout.String(), stderr.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	bs, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(bs)
}

func TestRun(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"incl/defs.h": defsH,
		"main.c":      mainC,
	})
	out := filepath.Join(dir, "out.c")

	stdout, stderr, err := runApp(t,
		"-i", filepath.Join(dir, "incl"),
		"-D", "DEBUG",
		filepath.Join(dir, "main.c"), out,
	)
	require.NoError(t, err)
	assert.Equal(t, "int dbg;\nint a[4];\n", readFile(t, out))
	assert.Contains(t, stdout, "wrote 19 B to "+out)
	assert.Empty(t, stderr)
}

func TestRunFullDumpExpect(t *testing.T) {
	full := `#include "defs.h"
#ifdef DEBUG
int dbg;
#endif
int a[4];
`
	dir := writeFiles(t, map[string]string{
		"incl/defs.h": defsH,
		"main.c":      mainC,
		"expect.c":    full,
	})
	out := filepath.Join(dir, "out.c")
	dump := filepath.Join(dir, "macros.json")

	_, _, err := runApp(t,
		"--include", filepath.Join(dir, "incl"),
		"--full",
		"--dump-macros", dump,
		"--expect", filepath.Join(dir, "expect.c"),
		filepath.Join(dir, "main.c"), out,
	)
	require.NoError(t, err)
	assert.Equal(t, full, readFile(t, out))
	assert.Contains(t, readFile(t, dump), `"N"`)
	assert.NotContains(t, readFile(t, dump), "DEBUG")

	_, _, err = runApp(t,
		"-i", filepath.Join(dir, "incl"),
		"--expect", filepath.Join(dir, "expect.c"),
		filepath.Join(dir, "main.c"), out,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output differs from")
}

func TestRunConfigAndSilent(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"incl/defs.h": defsH,
		"main.c":      mainC,
		"extra.h":     "#define M 7\nint hidden;\n",
		"use.c":       "int b[M];\n",
		"neatcpp.ini": "[include]\nDIRS = incl\n[define]\nNAMES = DEBUG\n",
	})
	out := filepath.Join(dir, "out.c")

	_, _, err := runApp(t,
		"-c", filepath.Join(dir, "neatcpp.ini"),
		"-s", filepath.Join(dir, "extra.h"),
		filepath.Join(dir, "main.c"), filepath.Join(dir, "use.c"), out,
	)
	require.NoError(t, err)
	assert.Equal(t, "int dbg;\nint a[4];\nint b[7];\n", readFile(t, out))
}

func TestRunErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"main.c": mainC})

	_, _, err := runApp(t, filepath.Join(dir, "main.c"))
	assert.Error(t, err)

	_, _, err = runApp(t, "--log-level", "loud", filepath.Join(dir, "main.c"), filepath.Join(dir, "out.c"))
	assert.Error(t, err)

	_, stderr, err := runApp(t, filepath.Join(dir, "missing.c"), filepath.Join(dir, "out.c"))
	assert.Error(t, err)
	assert.Contains(t, stderr, "missing.c")

	_, stderr, err = runApp(t, filepath.Join(dir, "main.c"), filepath.Join(dir, "out.c"))
	require.NoError(t, err, "a missing include is reported but not fatal")
	assert.Contains(t, stderr, "defs.h")
	assert.Equal(t, "int a[N];\n", readFile(t, filepath.Join(dir, "out.c")))
}

func TestDumpAndExpectUseFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	n, err := neatcpp.New(neatcpp.WithFs(fs), neatcpp.WithDefines("N=4"))
	require.NoError(t, err)

	require.NoError(t, dumpMacros(fs, n, "macros.json", nil))
	dump, err := afero.ReadFile(fs, "macros.json")
	require.NoError(t, err)
	assert.Contains(t, string(dump), `"N"`)

	var stdout bytes.Buffer
	require.NoError(t, dumpMacros(fs, n, "-", &stdout))
	assert.Equal(t, string(dump), stdout.String())

	require.NoError(t, afero.WriteFile(fs, "want.c", []byte("int a[4];\n"), 0o644))
	assert.NoError(t, expect(fs, "want.c", "int a[4];\n"))
	err = expect(fs, "want.c", "int a[5];\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output differs from want.c")
	assert.Error(t, expect(fs, "missing.c", ""))
}
