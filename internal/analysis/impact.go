package analysis

import (
	"context"
	"fmt"
	"sort"

	"srcset/internal/source"
	"srcset/internal/storage"
)

// OwnerFinder looks up the targets that declare a path.
type OwnerFinder interface {
	FindTargetsByPath(ctx context.Context, p source.Path) ([]storage.Owner, error)
}

// ChangedFile is a changed path as declared by one target.
type ChangedFile struct {
	Path source.Path
	Role source.Role
}

// AffectedTarget is a stored target that declares at least one changed path.
type AffectedTarget struct {
	Name  string
	Files []ChangedFile
}

// ImpactReport summarizes the targets affected by a set of changed paths.
type ImpactReport struct {
	Affected []AffectedTarget
	// Unowned lists changed paths no stored target declares.
	Unowned []source.Path
}

// Analyzer performs impact analysis against stored target snapshots.
type Analyzer struct {
	owners OwnerFinder
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(owners OwnerFinder) *Analyzer {
	return &Analyzer{owners: owners}
}

// AnalyzeImpact maps changed paths to the targets whose sources they are.
// Targets are ordered by name and files by path.
func (a *Analyzer) AnalyzeImpact(ctx context.Context, changes []source.Path) (*ImpactReport, error) {
	report := &ImpactReport{
		Affected: []AffectedTarget{},
		Unowned:  []source.Path{},
	}

	byTarget := make(map[string][]ChangedFile)
	seen := make(map[source.Path]bool)
	for _, p := range changes {
		if seen[p] {
			continue
		}
		seen[p] = true

		owners, err := a.owners.FindTargetsByPath(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("find owners of %q: %w", string(p), err)
		}
		if len(owners) == 0 {
			report.Unowned = append(report.Unowned, p)
			continue
		}
		for _, o := range owners {
			byTarget[o.Target] = append(byTarget[o.Target], ChangedFile{Path: p, Role: o.Role})
		}
	}

	names := make([]string, 0, len(byTarget))
	for name := range byTarget {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		files := byTarget[name]
		sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
		report.Affected = append(report.Affected, AffectedTarget{Name: name, Files: files})
	}
	sort.Slice(report.Unowned, func(i, j int) bool { return report.Unowned[i] < report.Unowned[j] })
	return report, nil
}
