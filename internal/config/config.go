// Package config loads neatcpp settings from an ini file.
//
//	TAB_SIZE = 4
//	[include]
//	DIRS = incl, ../common
//	[exclude]
//	PATTERNS = IGN_*, stdint.h
//	[define]
//	NAMES = DEBUG, LEVEL=3
//	[output]
//	FULL = false
//	[log]
//	LEVEL = warning
package config

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"

	"github.com/fwessels/neatcpp/internal/diag"
	"github.com/fwessels/neatcpp/internal/preprocessor"
)

// Config holds every setting the command line can also give.
type Config struct {
	TabSize     int
	IncludeDirs []string
	Exclude     []string
	// Defines are NAME or NAME=VALUE entries.
	Defines    []string
	FullOutput bool
	LogLevel   diag.Level
}

func Default() *Config {
	return &Config{
		TabSize:  preprocessor.DefaultTabSize,
		LogLevel: diag.Warning,
	}
}

// Load reads the ini file at path. Relative include directories are taken
// relative to the file.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	c, err := fromFile(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	base := filepath.Dir(path)
	for i, dir := range c.IncludeDirs {
		if !filepath.IsAbs(dir) {
			c.IncludeDirs[i] = filepath.Join(base, dir)
		}
	}
	return c, nil
}

// Parse reads ini data. Include directories are kept as written.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, err
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	c := Default()

	c.TabSize = f.Section("").Key("TAB_SIZE").MustInt(c.TabSize)
	if c.TabSize <= 0 {
		return nil, fmt.Errorf("TAB_SIZE must be positive, got %d", c.TabSize)
	}
	c.IncludeDirs = list(f.Section("include").Key("DIRS"))
	c.Exclude = list(f.Section("exclude").Key("PATTERNS"))
	c.Defines = list(f.Section("define").Key("NAMES"))
	c.FullOutput = f.Section("output").Key("FULL").MustBool(false)

	if key := f.Section("log").Key("LEVEL"); key.String() != "" {
		level, err := diag.ParseLevel(key.String())
		if err != nil {
			return nil, err
		}
		c.LogLevel = level
	}
	return c, nil
}

// list splits a comma separated value, dropping empty entries.
func list(key *ini.Key) []string {
	var out []string
	for _, v := range key.Strings(",") {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
