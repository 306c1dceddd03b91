// Package grouping turns a flat set of canonical paths into the IDE-facing
// group tree.
package grouping

import (
	"sort"
	"strings"

	"srcset/internal/source"
)

// DirectoryBuilder groups paths by directory. The directory prefix shared by
// every path is dropped, so a target whose files all live under one folder
// gets that folder's contents at the root. Within a group, subgroups come
// first ordered by name, then leaves ordered by path.
type DirectoryBuilder struct {
	// Flatten places every leaf at the root with no groups.
	Flatten bool
}

// NewDirectoryBuilder creates a builder with default options.
func NewDirectoryBuilder() *DirectoryBuilder {
	return &DirectoryBuilder{}
}

type dirNode struct {
	name   string
	dirs   map[string]*dirNode
	leaves []source.Path
}

func newDirNode(name string) *dirNode {
	return &dirNode{name: name, dirs: make(map[string]*dirNode)}
}

// BuildGroups implements target.GroupBuilder.
func (b *DirectoryBuilder) BuildGroups(paths []source.Path) []source.GroupedSource {
	sorted := dedupeSorted(paths)
	if b.Flatten {
		out := make([]source.GroupedSource, len(sorted))
		for i, p := range sorted {
			out[i] = source.SourceLeaf(p)
		}
		return out
	}

	prefix := commonDir(sorted)
	root := newDirNode("")
	for _, p := range sorted {
		rel := strings.TrimPrefix(string(p), prefix)
		parts := strings.Split(rel, "/")
		n := root
		for _, dir := range parts[:len(parts)-1] {
			child, ok := n.dirs[dir]
			if !ok {
				child = newDirNode(dir)
				n.dirs[dir] = child
			}
			n = child
		}
		n.leaves = append(n.leaves, p)
	}
	return root.children()
}

func (n *dirNode) children() []source.GroupedSource {
	names := make([]string, 0, len(n.dirs))
	for name := range n.dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]source.GroupedSource, 0, len(names)+len(n.leaves))
	for _, name := range names {
		d := n.dirs[name]
		out = append(out, source.SourceGroup(d.name, d.children()...))
	}
	for _, p := range n.leaves {
		out = append(out, source.SourceLeaf(p))
	}
	return out
}

// commonDir returns the longest directory prefix, with trailing slash, shared
// by every path. It returns "" when the paths share no directory.
func commonDir(paths []source.Path) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := dirOf(string(paths[0]))
	for _, p := range paths[1:] {
		for prefix != "" && !strings.HasPrefix(string(p), prefix) {
			prefix = dirOf(strings.TrimSuffix(prefix, "/"))
		}
	}
	return prefix
}

func dirOf(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i+1]
}

func dedupeSorted(paths []source.Path) []source.Path {
	out := append([]source.Path(nil), paths...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	w := 0
	for i, p := range out {
		if i > 0 && p == out[w-1] {
			continue
		}
		out[w] = p
		w++
	}
	return out[:w]
}
