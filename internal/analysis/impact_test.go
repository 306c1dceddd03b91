package analysis

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
	"srcset/internal/storage"
	"srcset/internal/target"
)

type failingFinder struct{}

func (failingFinder) FindTargetsByPath(context.Context, source.Path) ([]storage.Owner, error) {
	return nil, errors.New("db down")
}

func TestAnalyzer_AnalyzeImpact(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	identity := classifier.ResolverFunc(func(ref source.Ref) (source.Path, error) { return source.Path(ref), nil })
	save := func(name string, entries ...source.Entry) {
		ts, err := target.OfDeclaredSources(entries, identity, grouping.NewDirectoryBuilder())
		require.NoError(t, err)
		_, err = store.SaveTarget(ctx, name, ts)
		require.NoError(t, err)
	}
	save("Lib", source.File("lib/util.c", source.RoleSource), source.File("lib/util.h", source.RolePublicHeader))
	save("App", source.File("app/main.c", source.RoleSource), source.File("lib/util.h", source.RolePrivateHeader))

	report, err := NewAnalyzer(store).AnalyzeImpact(ctx, []source.Path{
		"lib/util.h", "README.md", "lib/util.c", "lib/util.h",
	})
	require.NoError(t, err)

	assert.Equal(t, []AffectedTarget{
		{Name: "App", Files: []ChangedFile{{Path: "lib/util.h", Role: source.RolePrivateHeader}}},
		{Name: "Lib", Files: []ChangedFile{
			{Path: "lib/util.c", Role: source.RoleSource},
			{Path: "lib/util.h", Role: source.RolePublicHeader},
		}},
	}, report.Affected)
	assert.Equal(t, []source.Path{"README.md"}, report.Unowned)
}

func TestAnalyzer_PropagatesErrors(t *testing.T) {
	_, err := NewAnalyzer(failingFinder{}).AnalyzeImpact(context.Background(), []source.Path{"a.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
