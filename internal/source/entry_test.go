package source

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalk_DepthFirstDeclarationOrder(t *testing.T) {
	g := NewGroup("inner", File("c.c", RoleSource))
	entries := []Entry{
		File("a.c", RoleSource),
		NewGroup("outer",
			File("b.h", RolePublicHeader),
			&g,
			NewGroup("empty"),
		),
		File("d.h", RolePrivateHeader),
		(*PlainFile)(nil),
	}

	var got []Ref
	err := Walk(entries, func(f PlainFile) error {
		got = append(got, f.Ref)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Ref{"a.c", "b.h", "c.c", "d.h"}, got)
}

func TestWalk_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	err := Walk([]Entry{File("a", RoleSource), File("b", RoleSource)}, func(PlainFile) error {
		n++
		return boom
	})
	assert.Same(t, boom, err)
	assert.Equal(t, 1, n)
}

func TestRole_TextRoundTrip(t *testing.T) {
	for _, r := range []Role{RoleSource, RolePublicHeader, RolePrivateHeader} {
		text, err := r.MarshalText()
		require.NoError(t, err)

		var back Role
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, r, back)
	}

	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleSource, r)

	_, err = ParseRole("header")
	assert.Error(t, err)

	_, err = Role(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "role(9)", Role(9).String())
}

func TestLeavesAndCloneTree(t *testing.T) {
	tree := []GroupedSource{
		SourceGroup("a", SourceLeaf("a/1.c"), SourceGroup("b", SourceLeaf("a/b/2.c"))),
		SourceLeaf("3.c"),
	}
	assert.Equal(t, []Path{"a/1.c", "a/b/2.c", "3.c"}, Leaves(tree))

	clone := CloneTree(tree)
	assert.Equal(t, tree, clone)
	clone[0].Children[1].Children[0].Path = "changed.c"
	assert.Equal(t, Path("a/b/2.c"), tree[0].Children[1].Children[0].Path)
	assert.Nil(t, CloneTree(nil))
}
