package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"srcset/internal/source"
)

func TestDirectoryBuilder_BuildGroups(t *testing.T) {
	b := NewDirectoryBuilder()

	tests := []struct {
		name  string
		paths []source.Path
		want  []source.GroupedSource
	}{
		{
			name:  "empty",
			paths: nil,
			want:  []source.GroupedSource{},
		},
		{
			name:  "single file keeps no groups",
			paths: []source.Path{"lib/foo/a.m"},
			want:  []source.GroupedSource{source.SourceLeaf("lib/foo/a.m")},
		},
		{
			name:  "flat root",
			paths: []source.Path{"b.c", "a.c"},
			want: []source.GroupedSource{
				source.SourceLeaf("a.c"),
				source.SourceLeaf("b.c"),
			},
		},
		{
			name: "common prefix is dropped",
			paths: []source.Path{
				"lib/foo/Headers/a.h",
				"lib/foo/a.m",
				"lib/foo/Headers/Private/a_internal.h",
				"lib/foo/b.m",
			},
			want: []source.GroupedSource{
				source.SourceGroup("Headers",
					source.SourceGroup("Private", source.SourceLeaf("lib/foo/Headers/Private/a_internal.h")),
					source.SourceLeaf("lib/foo/Headers/a.h"),
				),
				source.SourceLeaf("lib/foo/a.m"),
				source.SourceLeaf("lib/foo/b.m"),
			},
		},
		{
			name:  "sibling directories with shared name prefix",
			paths: []source.Path{"src/ab/x.c", "src/a/y.c"},
			want: []source.GroupedSource{
				source.SourceGroup("a", source.SourceLeaf("src/a/y.c")),
				source.SourceGroup("ab", source.SourceLeaf("src/ab/x.c")),
			},
		},
		{
			name:  "duplicates collapse",
			paths: []source.Path{"a.c", "a.c"},
			want:  []source.GroupedSource{source.SourceLeaf("a.c")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.BuildGroups(tt.paths))
		})
	}
}

func TestDirectoryBuilder_LeafBijection(t *testing.T) {
	paths := []source.Path{"x/1.c", "x/y/2.c", "x/y/z/3.h", "w/4.h", "5.m"}
	tree := NewDirectoryBuilder().BuildGroups(paths)

	assert.ElementsMatch(t, paths, source.Leaves(tree))
}

func TestDirectoryBuilder_Flatten(t *testing.T) {
	b := &DirectoryBuilder{Flatten: true}
	tree := b.BuildGroups([]source.Path{"z/b.c", "a.c"})

	assert.Equal(t, []source.GroupedSource{
		source.SourceLeaf("a.c"),
		source.SourceLeaf("z/b.c"),
	}, tree)
}

func TestCommonDir(t *testing.T) {
	assert.Equal(t, "", commonDir(nil))
	assert.Equal(t, "a/b/", commonDir([]source.Path{"a/b/c.c", "a/b/d/e.c"}))
	assert.Equal(t, "a/", commonDir([]source.Path{"a/bc/x.c", "a/b/y.c"}))
	assert.Equal(t, "", commonDir([]source.Path{"a/x.c", "b/y.c"}))
}
