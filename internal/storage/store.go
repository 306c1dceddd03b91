package storage

import (
	"context"

	"srcset/internal/source"
	"srcset/internal/target"
)

// Owner is a target that declares a given path, with the role it declares.
type Owner struct {
	Target string
	Role   source.Role
}

// Store persists evaluated target snapshots.
type Store interface {
	// SaveTarget upserts the snapshot of a target. changed reports whether the
	// stored fingerprint differed from ts.Fingerprint().
	SaveTarget(ctx context.Context, name string, ts *target.TargetSources) (changed bool, err error)

	// LoadTarget decodes a stored snapshot. It returns ErrNotFound for unknown names.
	LoadTarget(ctx context.Context, name string) (*target.TargetSources, error)

	// Fingerprint returns the stored fingerprint of a target.
	Fingerprint(ctx context.Context, name string) (string, error)

	// FindTargetsByPath lists the targets that declare p, ordered by name.
	FindTargetsByPath(ctx context.Context, p source.Path) ([]Owner, error)

	// ListTargets returns every stored target name in order.
	ListTargets(ctx context.Context) ([]string, error)

	// DeleteTarget removes a target and its file rows.
	DeleteTarget(ctx context.Context, name string) error

	Close() error
}
