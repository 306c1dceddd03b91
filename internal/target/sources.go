// Package target holds the finished, immutable description of what a native
// target compiles, with which per-file flags, organized into which tree.
package target

import (
	"srcset/internal/classifier"
	"srcset/internal/source"
)

// GroupBuilder reconstructs an ordered group tree from a sorted set of paths.
// Every input path must appear exactly once as a leaf of the output.
type GroupBuilder interface {
	BuildGroups(paths []source.Path) []source.GroupedSource
}

// GroupBuilderFunc adapts a plain function to GroupBuilder.
type GroupBuilderFunc func(paths []source.Path) []source.GroupedSource

func (f GroupBuilderFunc) BuildGroups(paths []source.Path) []source.GroupedSource { return f(paths) }

// TargetSources is the source inputs of one target. It is fully populated at
// construction and never mutated; accessors return copies.
type TargetSources struct {
	srcs               []source.GroupedSource
	perFileFlags       []source.FileFlags
	flagIndex          map[source.Path]int
	srcPaths           []source.Path
	publicHeaderPaths  []source.Path
	privateHeaderPaths []source.Path
}

// OfDeclaredSources classifies entries and assembles the result into a
// TargetSources. Classification and resolver errors are returned unchanged.
func OfDeclaredSources(entries []source.Entry, r classifier.Resolver, b GroupBuilder) (*TargetSources, error) {
	res, err := classifier.Classify(entries, r)
	if err != nil {
		return nil, err
	}
	return Assemble(res, b)
}

// Assemble invokes b exactly once with the classified path set and packages
// the result. It fails with an InvariantError if res or the built tree are
// inconsistent.
func Assemble(res *classifier.Result, b GroupBuilder) (*TargetSources, error) {
	if res == nil {
		return nil, invariantf("nil classification result")
	}
	if b == nil {
		return nil, invariantf("nil group builder")
	}
	if err := validateResult(res); err != nil {
		return nil, err
	}

	tree := b.BuildGroups(clonePaths(res.AllPaths))
	if err := validateTree(tree, res.AllPaths); err != nil {
		return nil, err
	}

	return newTargetSources(source.CloneTree(tree), res.PerFileFlags, res.SrcPaths, res.PublicHeaderPaths, res.PrivateHeaderPaths), nil
}

func newTargetSources(tree []source.GroupedSource, flags []source.FileFlags, srcs, pub, priv []source.Path) *TargetSources {
	ts := &TargetSources{
		srcs:               tree,
		perFileFlags:       cloneFlags(flags),
		flagIndex:          make(map[source.Path]int, len(flags)),
		srcPaths:           clonePaths(srcs),
		publicHeaderPaths:  clonePaths(pub),
		privateHeaderPaths: clonePaths(priv),
	}
	if ts.srcs == nil {
		ts.srcs = []source.GroupedSource{}
	}
	for i, f := range ts.perFileFlags {
		ts.flagIndex[f.Path] = i
	}
	return ts
}

// Srcs returns the root-level nodes of the grouped source tree.
func (t *TargetSources) Srcs() []source.GroupedSource {
	return source.CloneTree(t.srcs)
}

// PerFileFlags returns every (path, flags) pair, sorted by path.
func (t *TargetSources) PerFileFlags() []source.FileFlags {
	return cloneFlags(t.perFileFlags)
}

// Flags returns the flags declared for p.
func (t *TargetSources) Flags(p source.Path) ([]string, bool) {
	i, ok := t.flagIndex[p]
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.perFileFlags[i].Flags...), true
}

// SrcPaths returns the compilable paths, sorted.
func (t *TargetSources) SrcPaths() []source.Path { return clonePaths(t.srcPaths) }

// PublicHeaderPaths returns the public header paths, sorted.
func (t *TargetSources) PublicHeaderPaths() []source.Path { return clonePaths(t.publicHeaderPaths) }

// PrivateHeaderPaths returns the private header paths, sorted.
func (t *TargetSources) PrivateHeaderPaths() []source.Path { return clonePaths(t.privateHeaderPaths) }

// AllPaths returns the union of the three role sets, sorted.
func (t *TargetSources) AllPaths() []source.Path {
	return mergeSorted(t.srcPaths, t.publicHeaderPaths, t.privateHeaderPaths)
}

// RoleOf reports the role p was declared with.
func (t *TargetSources) RoleOf(p source.Path) (source.Role, bool) {
	switch {
	case containsPath(t.srcPaths, p):
		return source.RoleSource, true
	case containsPath(t.publicHeaderPaths, p):
		return source.RolePublicHeader, true
	case containsPath(t.privateHeaderPaths, p):
		return source.RolePrivateHeader, true
	}
	return 0, false
}

// Len returns the number of distinct paths in the target.
func (t *TargetSources) Len() int {
	return len(t.srcPaths) + len(t.publicHeaderPaths) + len(t.privateHeaderPaths)
}
