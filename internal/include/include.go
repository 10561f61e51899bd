// Package include resolves #include names against an ordered list of
// search directories.
package include

import (
	"errors"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/fwessels/neatcpp/internal/preprocessor"
)

// CacheSize is the number of file contents kept in memory.
const CacheSize = 256

// Resolver finds include files in its search directories, first match
// wins. The working directory is always searched first. File contents are
// cached until Purge, so edits made on disk after a file was read are not
// seen before then.
type Resolver struct {
	fs    afero.Fs
	dirs  []string
	cache *lru.Cache[string, string]
}

func NewResolver(fs afero.Fs) (*Resolver, error) {
	cache, err := lru.New[string, string](CacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		fs:    fs,
		dirs:  []string{"."},
		cache: cache,
	}, nil
}

// AddDirs appends search directories. A file stands for its parent
// directory, and directories already listed are skipped. Every path that
// does not exist is reported; the others are still added.
func (r *Resolver) AddDirs(dirs ...string) error {
	var errs []error
	for _, dir := range dirs {
		dir = filepath.Clean(dir)
		st, err := r.fs.Stat(dir)
		if err != nil {
			errs = append(errs, &preprocessor.IncludeNotFoundError{Name: dir})
			continue
		}
		if !st.IsDir() {
			dir = filepath.Dir(dir)
		}
		if !r.listed(dir) {
			r.dirs = append(r.dirs, dir)
		}
	}
	return errors.Join(errs...)
}

func (r *Resolver) listed(dir string) bool {
	for _, d := range r.dirs {
		if d == dir {
			return true
		}
	}
	return false
}

// Dirs returns the search directories in search order.
func (r *Resolver) Dirs() []string {
	return append([]string(nil), r.dirs...)
}

// Resolve returns the path of the first file called name in the search
// directories.
func (r *Resolver) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if r.isFile(name) {
			return filepath.Clean(name), nil
		}
		return "", &preprocessor.IncludeNotFoundError{Name: name}
	}
	for _, dir := range r.dirs {
		cand := filepath.Join(dir, name)
		if r.isFile(cand) {
			return cand, nil
		}
	}
	return "", &preprocessor.IncludeNotFoundError{Name: name, Dirs: r.Dirs()}
}

func (r *Resolver) isFile(path string) bool {
	st, err := r.fs.Stat(path)
	return err == nil && !st.IsDir()
}

// ReadInclude resolves name and returns the file's text and path.
func (r *Resolver) ReadInclude(name string) (string, string, error) {
	path, err := r.Resolve(name)
	if err != nil {
		return "", "", err
	}
	if text, ok := r.cache.Get(path); ok {
		return text, path, nil
	}
	bs, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", "", err
	}
	text := string(bs)
	r.cache.Add(path, text)
	return text, path, nil
}

// Purge drops every cached file.
func (r *Resolver) Purge() {
	r.cache.Purge()
}

var _ preprocessor.IncludeReader = (*Resolver)(nil)
