package resolver

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"srcset/internal/source"
)

// ErrUnresolved is the kind of every UnresolvedReferenceError.
var ErrUnresolved = errors.New("unresolved source reference")

// UnresolvedReferenceError reports a reference that names a location outside
// the target's declared boundary.
type UnresolvedReferenceError struct {
	Ref      source.Ref
	Boundary string
	Reason   string
}

func (e *UnresolvedReferenceError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s %q (boundary %q): %s", ErrUnresolved, string(e.Ref), e.Boundary, e.Reason)
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolved }

// rootPrefix marks a reference relative to the project root instead of the target base.
const rootPrefix = "//"

// PathResolver maps references to canonical project-relative paths.
//
// A plain reference is joined to Base and must stay inside Base. A reference
// starting with "//" is taken relative to the project root and must stay inside
// it. Absolute references are relativized against Root and carry the same
// project-root boundary as "//" references. The file system is never consulted.
type PathResolver struct {
	// Root is the project root on disk; only used to relativize absolute refs.
	Root string
	// Base is the target's directory relative to Root, slash-separated.
	Base string
}

// NewPathResolver creates a resolver for a target declared under base.
func NewPathResolver(root, base string) *PathResolver {
	return &PathResolver{Root: root, Base: base}
}

// Resolve implements classifier.Resolver.
func (r *PathResolver) Resolve(ref source.Ref) (source.Path, error) {
	raw := strings.TrimSpace(string(ref))
	if raw == "" {
		return "", r.fail(ref, "empty reference")
	}

	base := cleanRel(r.Base)

	switch {
	case strings.HasPrefix(raw, rootPrefix):
		p := cleanRel(strings.TrimPrefix(raw, rootPrefix))
		if escapes(p) {
			return "", &UnresolvedReferenceError{Ref: ref, Boundary: rootPrefix, Reason: "escapes project root"}
		}
		if p == "." {
			return "", &UnresolvedReferenceError{Ref: ref, Boundary: rootPrefix, Reason: "names the project root"}
		}
		return source.Path(p), nil

	case filepath.IsAbs(raw):
		if r.Root == "" {
			return "", r.fail(ref, "absolute reference without a project root")
		}
		rel, err := filepath.Rel(r.Root, raw)
		if err != nil {
			return "", r.fail(ref, err.Error())
		}
		p := cleanRel(filepath.ToSlash(rel))
		if escapes(p) {
			return "", &UnresolvedReferenceError{Ref: ref, Boundary: rootPrefix, Reason: "outside project root"}
		}
		if p == "." {
			return "", &UnresolvedReferenceError{Ref: ref, Boundary: rootPrefix, Reason: "names the project root"}
		}
		return source.Path(p), nil
	}

	p := cleanRel(path.Join(base, filepath.ToSlash(raw)))
	if escapes(p) || !within(base, p) || p == base {
		return "", r.fail(ref, "outside target base")
	}
	return source.Path(p), nil
}

func (r *PathResolver) fail(ref source.Ref, reason string) error {
	return &UnresolvedReferenceError{Ref: ref, Boundary: cleanRel(r.Base), Reason: reason}
}

func cleanRel(p string) string {
	p = path.Clean(filepath.ToSlash(p))
	return strings.TrimPrefix(p, "/")
}

func escapes(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}

func within(base, p string) bool {
	if base == "." || base == "" {
		return true
	}
	return p == base || strings.HasPrefix(p, base+"/")
}
