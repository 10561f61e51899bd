/*
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package neatcpp is a C preprocessor that expands macros and resolves
// conditional compilation while keeping the code readable: comments,
// indentation and #include lines stay where they are.
package neatcpp

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/fwessels/neatcpp/internal/config"
	"github.com/fwessels/neatcpp/internal/diag"
	"github.com/fwessels/neatcpp/internal/include"
	"github.com/fwessels/neatcpp/internal/preprocessor"
)

type (
	Macro          = preprocessor.Macro
	ProcessOptions = preprocessor.ProcessOptions
	Sink  = diag.Sink
	Entry = diag.Entry
	Level = diag.Level
)

const (
	Info     = diag.Info
	Warning  = diag.Warning
	Critical = diag.Critical
	Severe   = diag.Severe
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NeatCpp ties the preprocessor to a filesystem and its include search
// directories. It is not safe for concurrent use.
type NeatCpp struct {
	fs      afero.Fs
	sink    diag.Sink
	tabSize int
	exclude []string
	dirs    []string
	defines []string

	files *include.Resolver
	pp    *preprocessor.Preprocessor
}

type Option func(*NeatCpp)

// WithFs reads sources and writes output through fs instead of the OS.
func WithFs(fs afero.Fs) Option {
	return func(n *NeatCpp) { n.fs = fs }
}

func WithSink(sink Sink) Option {
	return func(n *NeatCpp) { n.sink = sink }
}

func WithTabSize(size int) Option {
	return func(n *NeatCpp) { n.tabSize = size }
}

// WithExclude adds glob patterns of macro and include names that are left
// untouched.
func WithExclude(patterns ...string) Option {
	return func(n *NeatCpp) { n.exclude = append(n.exclude, patterns...) }
}

func WithIncludeDirs(dirs ...string) Option {
	return func(n *NeatCpp) { n.dirs = append(n.dirs, dirs...) }
}

// WithDefines predefines macros given as NAME or NAME=VALUE.
func WithDefines(defs ...string) Option {
	return func(n *NeatCpp) { n.defines = append(n.defines, defs...) }
}

func New(opts ...Option) (*NeatCpp, error) {
	n := &NeatCpp{
		fs:      afero.NewOsFs(),
		sink:    diag.Discard,
		tabSize: preprocessor.DefaultTabSize,
	}
	for _, opt := range opts {
		opt(n)
	}

	files, err := include.NewResolver(n.fs)
	if err != nil {
		return nil, err
	}
	n.files = files
	n.pp, err = preprocessor.New(preprocessor.Options{
		TabSize: n.tabSize,
		Exclude: n.exclude,
		Sink:    n.sink,
		Files:   files,
	})
	if err != nil {
		return nil, err
	}

	n.AddIncludeDirs(n.dirs...)
	for _, def := range n.defines {
		name, value := preprocessor.ParseDefine(def)
		if err := n.pp.Define(name, value); err != nil {
			return nil, fmt.Errorf("-D %s: %w", def, err)
		}
	}
	return n, nil
}

// NewFromConfig builds a NeatCpp from loaded settings. opts are applied
// after the settings.
func NewFromConfig(cfg *config.Config, opts ...Option) (*NeatCpp, error) {
	base := []Option{
		WithTabSize(cfg.TabSize),
		WithExclude(cfg.Exclude...),
		WithIncludeDirs(cfg.IncludeDirs...),
		WithDefines(cfg.Defines...),
	}
	return New(append(base, opts...)...)
}

// AddIncludeDirs appends search directories. Missing directories are
// reported and skipped.
func (n *NeatCpp) AddIncludeDirs(dirs ...string) {
	if err := n.files.AddDirs(dirs...); err != nil {
		n.sink.Report(diag.Entry{Level: diag.Critical, Err: err})
	}
}

// Exclude adds glob patterns of macro and include names that are left
// untouched from now on.
func (n *NeatCpp) Exclude(patterns ...string) error {
	exclude := append(append([]string(nil), n.exclude...), patterns...)
	if err := n.pp.SetExclude(exclude); err != nil {
		return err
	}
	n.exclude = exclude
	return nil
}

// IncludeDirs returns the search directories in search order.
func (n *NeatCpp) IncludeDirs() []string {
	return n.files.Dirs()
}

// ProcessFiles preprocesses each file in turn, accumulating their output.
// A failing file does not stop the ones after it.
func (n *NeatCpp) ProcessFiles(paths ...string) error {
	return n.processFiles(paths, preprocessor.ProcessOptions{})
}

// ProcessFilesSilent preprocesses files for their macro definitions only.
func (n *NeatCpp) ProcessFilesSilent(paths ...string) error {
	return n.processFiles(paths, preprocessor.ProcessOptions{LocalOnly: true})
}

func (n *NeatCpp) processFiles(paths []string, opts preprocessor.ProcessOptions) error {
	var errs []error
	for _, path := range paths {
		if _, err := n.pp.ProcessFile(path, opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ProcessCode preprocesses code and returns its filtered output, which is
// also appended to Output.
func (n *NeatCpp) ProcessCode(code string) (string, error) {
	return n.ProcessCodeWith(code, ProcessOptions{})
}

// ProcessCodeWith is ProcessCode with per-call options: FullOutput returns
// the full rendering and LocalOnly leaves Output untouched. Macros defined
// by code persist either way.
func (n *NeatCpp) ProcessCodeWith(code string, opts ProcessOptions) (string, error) {
	return n.pp.ProcessCode(code, opts)
}

// Output returns everything processed so far, filtered or in full.
func (n *NeatCpp) Output(full bool) string {
	if full {
		return n.pp.OutputFull()
	}
	return n.pp.Output()
}

// SaveOutputToFile writes Output(full) to path and returns its size.
func (n *NeatCpp) SaveOutputToFile(path string, full bool) (int, error) {
	out := n.Output(full)
	if err := afero.WriteFile(n.fs, path, []byte(out), 0o644); err != nil {
		return 0, err
	}
	return len(out), nil
}

// WriteMacrosJSON writes the macro table as a JSON array in definition
// order.
func (n *NeatCpp) WriteMacrosJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n.pp.Macros())
}

func (n *NeatCpp) Define(name, value string) error { return n.pp.Define(name, value) }

func (n *NeatCpp) Undefine(name string) bool { return n.pp.Undefine(name) }

func (n *NeatCpp) IsDefined(name string) bool { return n.pp.IsDefined(name) }

func (n *NeatCpp) Macros() []Macro { return n.pp.Macros() }

// ExpandMacros expands text with the current macro definitions.
func (n *NeatCpp) ExpandMacros(text string) (string, error) { return n.pp.ExpandMacros(text) }

// Evaluate returns the value of a #if expression, 0 when it cannot be
// evaluated.
func (n *NeatCpp) Evaluate(expr string) int64 { return n.pp.Evaluate(expr) }

func (n *NeatCpp) IsTrue(expr string) bool { return n.pp.IsTrue(expr) }

// ResetOutput forgets the accumulated output but keeps the macros.
func (n *NeatCpp) ResetOutput() { n.pp.ResetOutput() }

// PurgeIncludeCache drops cached include contents so edited headers are
// read again on the next #include.
func (n *NeatCpp) PurgeIncludeCache() { n.files.Purge() }

// Reset forgets all output, macros and cached include files.
func (n *NeatCpp) Reset() {
	n.pp.Reset()
	n.files.Purge()
}
