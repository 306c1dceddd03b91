package source

// GroupedKind tags a GroupedSource node.
type GroupedKind string

const (
	KindGroup GroupedKind = "group"
	KindLeaf  GroupedKind = "leaf"
)

// GroupedSource is a node of the IDE-facing source tree: either a named group
// with ordered children or a leaf holding one path.
type GroupedSource struct {
	Kind     GroupedKind     `json:"kind"`
	Name     string          `json:"name,omitempty"`
	Path     Path            `json:"path,omitempty"`
	Children []GroupedSource `json:"children,omitempty"`
}

// SourceGroup builds a group node.
func SourceGroup(name string, children ...GroupedSource) GroupedSource {
	return GroupedSource{Kind: KindGroup, Name: name, Children: children}
}

// SourceLeaf builds a leaf node.
func SourceLeaf(p Path) GroupedSource {
	return GroupedSource{Kind: KindLeaf, Path: p}
}

// IsLeaf reports whether g is a leaf.
func (g GroupedSource) IsLeaf() bool {
	return g.Kind == KindLeaf
}

// Leaves returns every leaf path under nodes in tree order, duplicates included.
func Leaves(nodes []GroupedSource) []Path {
	var out []Path
	var visit func([]GroupedSource)
	visit = func(ns []GroupedSource) {
		for _, n := range ns {
			if n.IsLeaf() {
				out = append(out, n.Path)
				continue
			}
			visit(n.Children)
		}
	}
	visit(nodes)
	return out
}

// CloneTree returns a deep copy of nodes.
func CloneTree(nodes []GroupedSource) []GroupedSource {
	if nodes == nil {
		return nil
	}
	out := make([]GroupedSource, len(nodes))
	for i, n := range nodes {
		out[i] = n
		out[i].Children = CloneTree(n.Children)
	}
	return out
}

// FileFlags pairs a path with the compiler flags declared for it.
type FileFlags struct {
	Path  Path     `json:"path"`
	Flags []string `json:"flags"`
}
