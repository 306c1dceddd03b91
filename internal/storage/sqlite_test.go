package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcset/internal/classifier"
	"srcset/internal/grouping"
	"srcset/internal/source"
	"srcset/internal/target"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func build(t *testing.T, entries ...source.Entry) *target.TargetSources {
	t.Helper()
	identity := classifier.ResolverFunc(func(ref source.Ref) (source.Path, error) { return source.Path(ref), nil })
	ts, err := target.OfDeclaredSources(entries, identity, grouping.NewDirectoryBuilder())
	require.NoError(t, err)
	return ts
}

func TestSQLiteStore_SaveTarget_SnapshotSync(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	v1 := build(t,
		source.File("a.m", source.RoleSource, "-fobjc-arc"),
		source.File("a.h", source.RolePublicHeader),
	)
	changed, err := store.SaveTarget(ctx, "Foo", v1)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = store.SaveTarget(ctx, "Foo", v1)
	require.NoError(t, err)
	assert.False(t, changed, "identical snapshot must not count as a change")

	// New snapshot: a.h removed, b.m added.
	v2 := build(t,
		source.File("a.m", source.RoleSource, "-fobjc-arc"),
		source.File("b.m", source.RoleSource),
	)
	changed, err = store.SaveTarget(ctx, "Foo", v2)
	require.NoError(t, err)
	assert.True(t, changed)

	loaded, err := store.LoadTarget(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, v2, loaded)

	fp, err := store.Fingerprint(ctx, "Foo")
	require.NoError(t, err)
	assert.Equal(t, v2.Fingerprint(), fp)

	owners, err := store.FindTargetsByPath(ctx, "a.h")
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestSQLiteStore_FindTargetsByPath(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveTarget(ctx, "Lib", build(t,
		source.File("shared/util.h", source.RolePublicHeader),
		source.File("lib.c", source.RoleSource),
	))
	require.NoError(t, err)
	_, err = store.SaveTarget(ctx, "App", build(t,
		source.File("shared/util.h", source.RolePrivateHeader),
		source.File("main.c", source.RoleSource),
	))
	require.NoError(t, err)

	owners, err := store.FindTargetsByPath(ctx, "shared/util.h")
	require.NoError(t, err)
	assert.Equal(t, []Owner{
		{Target: "App", Role: source.RolePrivateHeader},
		{Target: "Lib", Role: source.RolePublicHeader},
	}, owners)

	names, err := store.ListTargets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"App", "Lib"}, names)
}

func TestSQLiteStore_DeleteTarget(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	_, err := store.SaveTarget(ctx, "Gone", build(t, source.File("x.c", source.RoleSource)))
	require.NoError(t, err)
	require.NoError(t, store.DeleteTarget(ctx, "Gone"))

	_, err = store.LoadTarget(ctx, "Gone")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = store.Fingerprint(ctx, "Gone")
	assert.True(t, errors.Is(err, ErrNotFound))

	owners, err := store.FindTargetsByPath(ctx, "x.c")
	require.NoError(t, err)
	assert.Empty(t, owners)
}

func TestSQLiteStore_SaveNil(t *testing.T) {
	store := newStore(t)
	_, err := store.SaveTarget(context.Background(), "Nil", nil)
	assert.Error(t, err)
}

func TestSQLiteStore_SaveTarget_FileRowFlags(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	ts := build(t,
		source.File("a.m", source.RoleSource, "-fobjc-arc", "-DDEBUG=1"),
		source.File("a.h", source.RolePublicHeader),
	)
	_, err := store.SaveTarget(ctx, "Foo", ts)
	require.NoError(t, err)

	var flags []byte
	err = store.db.QueryRowContext(ctx, "SELECT flags FROM target_files WHERE target = ? AND path = ?", "Foo", "a.m").Scan(&flags)
	require.NoError(t, err)
	assert.JSONEq(t, `["-fobjc-arc","-DDEBUG=1"]`, string(flags))

	flags = nil
	err = store.db.QueryRowContext(ctx, "SELECT flags FROM target_files WHERE target = ? AND path = ?", "Foo", "a.h").Scan(&flags)
	require.NoError(t, err)
	assert.Empty(t, flags)
}
