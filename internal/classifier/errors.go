package classifier

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"srcset/internal/source"
)

// ErrRoleConflict is the kind of every ClassificationError.
var ErrRoleConflict = errors.New("conflicting source roles")

// ClassificationError reports one canonical path declared under more than one role.
type ClassificationError struct {
	Path  source.Path
	Roles []source.Role
}

func (e *ClassificationError) Error() string {
	if e == nil {
		return ""
	}
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = r.String()
	}
	return fmt.Sprintf("%s: %q declared as %s", ErrRoleConflict, string(e.Path), strings.Join(names, " and "))
}

func (e *ClassificationError) Unwrap() error { return ErrRoleConflict }

// Conflicts returns every ClassificationError carried by err, in path order.
func Conflicts(err error) []*ClassificationError {
	if err == nil {
		return nil
	}
	var out []*ClassificationError
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			var ce *ClassificationError
			if errors.As(e, &ce) {
				out = append(out, ce)
			}
		}
		return out
	}
	var ce *ClassificationError
	if errors.As(err, &ce) {
		out = append(out, ce)
	}
	return out
}

// conflictSet collects the roles seen for each conflicting path.
type conflictSet map[source.Path][]source.Role

func (c conflictSet) add(p source.Path, roles ...source.Role) {
	for _, r := range roles {
		if !containsRole(c[p], r) {
			c[p] = append(c[p], r)
		}
	}
}

func (c conflictSet) err() error {
	if len(c) == 0 {
		return nil
	}
	paths := make([]source.Path, 0, len(c))
	for p := range c {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	var result *multierror.Error
	for _, p := range paths {
		roles := append([]source.Role(nil), c[p]...)
		sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
		result = multierror.Append(result, &ClassificationError{Path: p, Roles: roles})
	}
	result.ErrorFormat = formatConflicts
	return result.ErrorOrNil()
}

func formatConflicts(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = "  * " + e.Error()
	}
	return fmt.Sprintf("%d source paths have conflicting roles:\n%s", len(errs), strings.Join(lines, "\n"))
}

func containsRole(roles []source.Role, r source.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
