package classifier

import (
	"fmt"
	"sort"

	"srcset/internal/source"
)

// Resolver maps a declared reference to its canonical path.
type Resolver interface {
	Resolve(ref source.Ref) (source.Path, error)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(ref source.Ref) (source.Path, error)

func (f ResolverFunc) Resolve(ref source.Ref) (source.Path, error) { return f(ref) }

// Result is the partition of a target's declared sources by role.
// Every slice is sorted by path and free of duplicates.
type Result struct {
	AllPaths           []source.Path
	PerFileFlags       []source.FileFlags
	SrcPaths           []source.Path
	PublicHeaderPaths  []source.Path
	PrivateHeaderPaths []source.Path
}

// accumulator holds the mutable state of a single classification pass.
type accumulator struct {
	roles     map[source.Path]source.Role
	flags     map[source.Path][]string
	conflicts conflictSet
}

// Classify walks entries depth-first and partitions every declared file by role.
//
// Groups are transparent. When the same path is declared more than once under
// one role the flags of the last non-empty declaration win. A path declared
// under two roles is a conflict; all conflicts are collected and returned
// together as ClassificationErrors. Resolver errors are returned unmodified.
func Classify(entries []source.Entry, r Resolver) (*Result, error) {
	if r == nil {
		return nil, fmt.Errorf("classify: nil resolver")
	}

	acc := &accumulator{
		roles:     make(map[source.Path]source.Role),
		flags:     make(map[source.Path][]string),
		conflicts: make(conflictSet),
	}

	err := source.Walk(entries, func(f source.PlainFile) error {
		if !f.Role.Valid() {
			return fmt.Errorf("classify %q: invalid %s", string(f.Ref), f.Role)
		}
		p, err := r.Resolve(f.Ref)
		if err != nil {
			return err
		}
		acc.add(p, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := acc.conflicts.err(); err != nil {
		return nil, err
	}
	return acc.freeze(), nil
}

func (a *accumulator) add(p source.Path, f source.PlainFile) {
	if prev, ok := a.roles[p]; ok && prev != f.Role {
		a.conflicts.add(p, prev, f.Role)
	} else if !ok {
		a.roles[p] = f.Role
	}
	if len(f.Flags) > 0 {
		a.flags[p] = append([]string(nil), f.Flags...)
	}
}

func (a *accumulator) freeze() *Result {
	res := &Result{
		AllPaths:           make([]source.Path, 0, len(a.roles)),
		PerFileFlags:       make([]source.FileFlags, 0, len(a.flags)),
		SrcPaths:           []source.Path{},
		PublicHeaderPaths:  []source.Path{},
		PrivateHeaderPaths: []source.Path{},
	}

	for p := range a.roles {
		res.AllPaths = append(res.AllPaths, p)
	}
	sortPaths(res.AllPaths)

	for _, p := range res.AllPaths {
		switch a.roles[p] {
		case source.RoleSource:
			res.SrcPaths = append(res.SrcPaths, p)
		case source.RolePublicHeader:
			res.PublicHeaderPaths = append(res.PublicHeaderPaths, p)
		case source.RolePrivateHeader:
			res.PrivateHeaderPaths = append(res.PrivateHeaderPaths, p)
		}
		if flags, ok := a.flags[p]; ok {
			res.PerFileFlags = append(res.PerFileFlags, source.FileFlags{Path: p, Flags: flags})
		}
	}
	return res
}

func sortPaths(paths []source.Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
}
