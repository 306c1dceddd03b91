package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcset/internal/source"
)

func TestPathResolver_Resolve(t *testing.T) {
	r := NewPathResolver("/work/project", "libs/foo")

	tests := []struct {
		ref  source.Ref
		want source.Path
	}{
		{"a.m", "libs/foo/a.m"},
		{"./Headers/a.h", "libs/foo/Headers/a.h"},
		{"Headers/../a.m", "libs/foo/a.m"},
		{"//libs/foo/gen/b.c", "libs/foo/gen/b.c"},
		{"//third_party/z.c", "third_party/z.c"},
		{"/work/project/libs/foo/abs.c", "libs/foo/abs.c"},
		{"/work/project/third_party/z.c", "third_party/z.c"},
		{"  spaced.c ", "libs/foo/spaced.c"},
	}
	for _, tt := range tests {
		t.Run(string(tt.ref), func(t *testing.T) {
			got, err := r.Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathResolver_OutsideBoundary(t *testing.T) {
	r := NewPathResolver("/work/project", "libs/foo")

	refs := []source.Ref{
		"",
		"../bar/x.c",
		".",
		"//../outside.c",
		"//",
		"/work/project",
		"/work/project/../x.c",
		"/elsewhere/x.c",
	}
	for _, ref := range refs {
		t.Run(string(ref), func(t *testing.T) {
			_, err := r.Resolve(ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnresolved))

			var ure *UnresolvedReferenceError
			require.True(t, errors.As(err, &ure))
			assert.Equal(t, ref, ure.Ref)
		})
	}
}

func TestPathResolver_RootAndAbsoluteAgree(t *testing.T) {
	r := NewPathResolver("/work/project", "lib/foo")

	fromRoot, err := r.Resolve("//other/secret.c")
	require.NoError(t, err)
	abs, err := r.Resolve("/work/project/other/secret.c")
	require.NoError(t, err)
	assert.Equal(t, source.Path("other/secret.c"), fromRoot)
	assert.Equal(t, fromRoot, abs)

	_, err = r.Resolve("//../secret.c")
	require.Error(t, err)
	_, err = r.Resolve("/work/secret.c")
	require.Error(t, err)

	var ure *UnresolvedReferenceError
	require.True(t, errors.As(err, &ure))
	assert.Equal(t, rootPrefix, ure.Boundary)
}

func TestPathResolver_EmptyBase(t *testing.T) {
	r := NewPathResolver("", "")

	got, err := r.Resolve("src/a.c")
	require.NoError(t, err)
	assert.Equal(t, source.Path("src/a.c"), got)

	_, err = r.Resolve("../a.c")
	assert.Error(t, err)

	_, err = r.Resolve("/abs/a.c")
	assert.Error(t, err)
}

func TestUnresolvedReferenceError_Message(t *testing.T) {
	err := &UnresolvedReferenceError{Ref: "../x.c", Boundary: "lib", Reason: "outside target base"}
	assert.Equal(t, `unresolved source reference "../x.c" (boundary "lib"): outside target base`, err.Error())
}
