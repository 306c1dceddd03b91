package target

import (
	"sort"

	"srcset/internal/classifier"
	"srcset/internal/source"
)

func validateResult(res *classifier.Result) error {
	sets := []struct {
		name  string
		paths []source.Path
	}{
		{"source paths", res.SrcPaths},
		{"public header paths", res.PublicHeaderPaths},
		{"private header paths", res.PrivateHeaderPaths},
	}
	for _, s := range sets {
		if err := checkStrictlySorted(s.name, s.paths); err != nil {
			return err
		}
	}

	union := mergeSorted(res.SrcPaths, res.PublicHeaderPaths, res.PrivateHeaderPaths)
	for i := 1; i < len(union); i++ {
		if union[i] == union[i-1] {
			return invariantf("path %q appears in more than one role set", string(union[i]))
		}
	}
	if err := checkStrictlySorted("all paths", res.AllPaths); err != nil {
		return err
	}
	if !equalPaths(union, res.AllPaths) {
		return invariantf("all paths (%d) differ from the union of role sets (%d)", len(res.AllPaths), len(union))
	}

	for i, f := range res.PerFileFlags {
		if i > 0 && res.PerFileFlags[i-1].Path >= f.Path {
			return invariantf("per-file flags not strictly sorted at %q", string(f.Path))
		}
		if len(f.Flags) == 0 {
			return invariantf("empty flag list for %q", string(f.Path))
		}
		if !containsPath(res.AllPaths, f.Path) {
			return invariantf("flags declared for unknown path %q", string(f.Path))
		}
	}
	return nil
}

func validateTree(tree []source.GroupedSource, all []source.Path) error {
	if err := checkNodes(tree); err != nil {
		return err
	}
	leaves := source.Leaves(tree)
	sortPaths(leaves)
	for i := 1; i < len(leaves); i++ {
		if leaves[i] == leaves[i-1] {
			return invariantf("path %q appears as more than one leaf", string(leaves[i]))
		}
	}
	if !equalPaths(leaves, all) {
		missing, extra := diffPaths(all, leaves)
		return invariantf("group tree leaves do not match paths: missing %q, unexpected %q", missing, extra)
	}
	return nil
}

func checkNodes(nodes []source.GroupedSource) error {
	for _, n := range nodes {
		switch n.Kind {
		case source.KindLeaf:
			if len(n.Children) > 0 {
				return invariantf("leaf %q has children", string(n.Path))
			}
		case source.KindGroup:
			if err := checkNodes(n.Children); err != nil {
				return err
			}
		default:
			return invariantf("unknown node kind %q", string(n.Kind))
		}
	}
	return nil
}

func checkStrictlySorted(name string, paths []source.Path) error {
	for i := 1; i < len(paths); i++ {
		if paths[i-1] >= paths[i] {
			return invariantf("%s not strictly sorted at %q", name, string(paths[i]))
		}
	}
	return nil
}

func mergeSorted(sets ...[]source.Path) []source.Path {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]source.Path, 0, n)
	for _, s := range sets {
		out = append(out, s...)
	}
	sortPaths(out)
	return out
}

func diffPaths(want, got []source.Path) (missing, extra []string) {
	g := make(map[source.Path]bool, len(got))
	for _, p := range got {
		g[p] = true
	}
	w := make(map[source.Path]bool, len(want))
	for _, p := range want {
		w[p] = true
		if !g[p] {
			missing = append(missing, string(p))
		}
	}
	for _, p := range got {
		if !w[p] {
			extra = append(extra, string(p))
		}
	}
	return missing, extra
}

func equalPaths(a, b []source.Path) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsPath(sorted []source.Path, p source.Path) bool {
	i := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= p })
	return i < len(sorted) && sorted[i] == p
}

func sortPaths(paths []source.Path) {
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
}

func clonePaths(paths []source.Path) []source.Path {
	out := make([]source.Path, len(paths))
	copy(out, paths)
	return out
}

func cloneFlags(flags []source.FileFlags) []source.FileFlags {
	out := make([]source.FileFlags, len(flags))
	for i, f := range flags {
		out[i] = source.FileFlags{Path: f.Path, Flags: append([]string(nil), f.Flags...)}
	}
	return out
}
