package crawler

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"srcset/internal/source"
)

var (
	sourceExts = map[string]bool{
		".c": true, ".cc": true, ".cpp": true, ".cxx": true,
		".m": true, ".mm": true, ".s": true, ".S": true, ".swift": true,
	}
	headerExts = map[string]bool{
		".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".inl": true,
	}
)

// Crawler scans a directory for native source files.
type Crawler struct {
	ignored     []string
	privateDirs []string
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithIgnored replaces the directory names skipped during a scan.
func WithIgnored(names ...string) Option {
	return func(c *Crawler) { c.ignored = names }
}

// WithPrivateDirs replaces the directory names whose headers are private.
func WithPrivateDirs(names ...string) Option {
	return func(c *Crawler) { c.privateDirs = names }
}

// NewCrawler creates a new crawler instance.
func NewCrawler(opts ...Option) *Crawler {
	c := &Crawler{
		ignored:     []string{".git", "vendor", "node_modules", "testdata", "build"},
		privateDirs: []string{"Private", "internal"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScanProject walks root and returns the discovered files as entries, one
// Group per non-empty directory. References are relative to root and the
// result does not depend on directory listing order.
func (c *Crawler) ScanProject(root string) ([]source.Entry, error) {
	top := &dirEntries{}
	dirs := map[string]*dirEntries{".": top}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		// Skip ignored directories
		if d.IsDir() {
			if rel != "." && c.isIgnored(d.Name()) {
				return filepath.SkipDir
			}
			if rel != "." {
				parent := dirs[path.Dir(rel)]
				child := &dirEntries{name: d.Name()}
				parent.subdirs = append(parent.subdirs, child)
				dirs[rel] = child
			}
			return nil
		}

		role, ok := c.classify(rel)
		if !ok {
			return nil
		}
		parent := dirs[path.Dir(rel)]
		parent.files = append(parent.files, source.PlainFile{Ref: source.Ref(rel), Role: role})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return top.entries(), nil
}

func (c *Crawler) classify(rel string) (source.Role, bool) {
	ext := path.Ext(rel)
	switch {
	case sourceExts[ext]:
		return source.RoleSource, true
	case headerExts[ext]:
		for _, dir := range strings.Split(path.Dir(rel), "/") {
			for _, priv := range c.privateDirs {
				if dir == priv {
					return source.RolePrivateHeader, true
				}
			}
		}
		return source.RolePublicHeader, true
	}
	return 0, false
}

func (c *Crawler) isIgnored(name string) bool {
	for _, ign := range c.ignored {
		if name == ign {
			return true
		}
	}
	return false
}

type dirEntries struct {
	name    string
	subdirs []*dirEntries
	files   []source.PlainFile
}

// entries flattens the directory into groups first, then files. Empty
// directories are dropped.
func (d *dirEntries) entries() []source.Entry {
	out := make([]source.Entry, 0, len(d.subdirs)+len(d.files))
	for _, sub := range d.subdirs {
		children := sub.entries()
		if len(children) == 0 {
			continue
		}
		out = append(out, source.Group{Name: sub.name, Entries: children})
	}
	for _, f := range d.files {
		out = append(out, f)
	}
	return out
}
