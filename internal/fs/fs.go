// Package fs provides the filesystem input strategy for validation runs.
package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/eykd/gts-validator/internal/validation"
)

// ErrNoPaths is returned when a scan has no root paths.
var ErrNoPaths = errors.New("no paths to scan")

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize int64 = 10 << 20

// DefaultRoots are scanned when no paths are given.
var DefaultRoots = []string{"docs", "modules", "libs", "examples"}

var skipDirs = map[string]bool{
	"target":       true,
	"node_modules": true,
	".git":         true,
	"vendor":       true,
	".gts-spec":    true,
}

var extensions = map[string]bool{
	".md":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
}

// SkipDir reports whether a directory with this base name is never scanned.
func SkipDir(name string) bool {
	return skipDirs[name]
}

// Scannable reports whether path has a scanned extension.
func Scannable(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Relevant returns a change filter for watch mode that accepts scannable
// files other than those listed in ignore.
func Relevant(ignore []string) func(path string) bool {
	ignored := newPathSet(ignore)
	return func(path string) bool {
		return Scannable(path) && !ignored.has(path)
	}
}

// Config describes which files a Source yields.
type Config struct {
	Paths []string
	// Exclude holds doublestar globs matched against the slash-separated
	// path and the base name of every file and directory.
	Exclude []string
	// Ignore lists files the run writes itself, such as the report. They
	// are never scanned, whatever their extension.
	Ignore      []string
	MaxFileSize int64
	FollowLinks bool
}

// DefaultConfig returns a Config with the default size limit and link
// following enabled.
func DefaultConfig() Config {
	return Config{
		MaxFileSize: DefaultMaxFileSize,
		FollowLinks: true,
	}
}

// ExistingRoots returns the entries of names that exist as directories
// under base, in order.
func ExistingRoots(base string, names []string) []string {
	var out []string
	for _, n := range names {
		p := n
		if base != "" {
			p = filepath.Join(base, n)
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// Source walks the configured roots and yields file contents.
type Source struct {
	cfg      Config
	ignore   pathSet
	logger   *slog.Logger
	readFile func(string) ([]byte, error)
}

// NewSource creates a Source. A nil logger discards diagnostics.
func NewSource(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	return &Source{cfg: cfg, ignore: newPathSet(cfg.Ignore), logger: logger, readFile: os.ReadFile}
}

// Items implements validation.Source. Files are yielded in sorted order.
func (s *Source) Items(ctx context.Context) iter.Seq2[validation.Item, error] {
	return func(yield func(validation.Item, error) bool) {
		files, err := s.Files(ctx)
		if err != nil {
			yield(validation.Item{}, err)
			return
		}
		for _, path := range files {
			if err := ctx.Err(); err != nil {
				yield(validation.Item{Path: path}, err)
				return
			}
			data, err := s.readFile(path)
			if err != nil {
				yield(validation.Item{Path: path}, &validation.InputError{Path: path, Err: err})
				return
			}
			if !yield(validation.Item{Path: path, Content: string(data)}, nil) {
				return
			}
		}
	}
}

// Files lists every file a run would read, sorted and de-duplicated.
func (s *Source) Files(ctx context.Context) ([]string, error) {
	if len(s.cfg.Paths) == 0 {
		return nil, &validation.InputError{Err: ErrNoPaths}
	}

	w := walker{src: s, ctx: ctx, visited: map[string]bool{}}
	for _, root := range s.cfg.Paths {
		if err := w.root(filepath.Clean(root)); err != nil {
			return nil, err
		}
	}

	slices.Sort(w.files)
	return slices.Compact(w.files), nil
}

// excluded reports whether any exclude glob matches path.
func (s *Source) excluded(path string) bool {
	slash := strings.TrimPrefix(filepath.ToSlash(path), "./")
	base := filepath.Base(path)
	for _, p := range s.cfg.Exclude {
		if ok, _ := doublestar.Match(p, slash); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
	}
	return false
}

type walker struct {
	src     *Source
	ctx     context.Context
	visited map[string]bool
	files   []string
}

func (w *walker) root(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return &validation.InputError{Path: root, Err: err}
	}
	if !info.IsDir() {
		if !w.src.excluded(root) {
			w.add(root, info)
		}
		return nil
	}
	return w.dir(root)
}

// dir walks one directory tree. Symlinked directories are entered once per
// resolved target so link cycles terminate.
func (w *walker) dir(root string) error {
	if real, err := filepath.EvalSymlinks(root); err == nil {
		if w.visited[real] {
			return nil
		}
		w.visited[real] = true
	}
	// WalkDir does not descend into a symlinked root unless it ends in a separator.
	if info, err := os.Lstat(root); err == nil && info.Mode()&iofs.ModeSymlink != 0 {
		root += string(filepath.Separator)
	}

	return filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return &validation.InputError{Path: path, Err: err}
		}
		if err := w.ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && (SkipDir(d.Name()) || w.src.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&iofs.ModeSymlink != 0 {
			return w.link(path)
		}

		if !Scannable(path) || w.src.excluded(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return &validation.InputError{Path: path, Err: err}
		}
		w.add(path, info)
		return nil
	})
}

func (w *walker) link(path string) error {
	if !w.src.cfg.FollowLinks || w.src.excluded(path) {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		w.src.logger.Debug("skipping broken symlink", "path", path, "error", err)
		return nil
	}
	if info.IsDir() {
		if SkipDir(filepath.Base(path)) {
			return nil
		}
		return w.dir(path)
	}
	if Scannable(path) {
		w.add(path, info)
	}
	return nil
}

func (w *walker) add(path string, info iofs.FileInfo) {
	if w.src.ignore.has(path) {
		w.src.logger.Debug("skipping output file", "path", path)
		return
	}
	if info.Size() > w.src.cfg.MaxFileSize {
		w.src.logger.Warn("skipping oversized file",
			"path", path,
			"size", info.Size(),
			"max_file_size", w.src.cfg.MaxFileSize,
		)
		return
	}
	w.files = append(w.files, path)
}

// pathSet matches files by absolute path.
type pathSet map[string]struct{}

func newPathSet(paths []string) pathSet {
	s := make(pathSet, len(paths))
	for _, p := range paths {
		s[absPath(p)] = struct{}{}
	}
	return s
}

func (s pathSet) has(path string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[absPath(path)]
	return ok
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
