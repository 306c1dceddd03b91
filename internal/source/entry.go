package source

import "fmt"

// Role is the build purpose of a declared path.
type Role int

const (
	RoleSource Role = iota
	RolePublicHeader
	RolePrivateHeader
)

var roleNames = map[Role]string{
	RoleSource:        "source",
	RolePublicHeader:  "public_header",
	RolePrivateHeader: "private_header",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole maps a declaration keyword to a Role. An empty string means RoleSource.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleSource, nil
	}
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Ref is an unresolved reference to a source location as written by the user.
type Ref string

// Path is the canonical, comparable identity of a source location.
// Paths are slash-separated and ordered byte-wise.
type Path string

// Entry is a declared source: either a PlainFile or a Group.
type Entry interface {
	isEntry()
}

// PlainFile is a single declared file with its role and optional flags.
type PlainFile struct {
	Ref   Ref
	Flags []string
	Role  Role
}

// Group is a named logical grouping of entries. It carries no role.
type Group struct {
	Name    string
	Entries []Entry
}

func (PlainFile) isEntry() {}
func (Group) isEntry()     {}

// File is shorthand for a PlainFile literal.
func File(ref string, role Role, flags ...string) PlainFile {
	return PlainFile{Ref: Ref(ref), Flags: flags, Role: role}
}

// NewGroup is shorthand for a Group literal.
func NewGroup(name string, entries ...Entry) Group {
	return Group{Name: name, Entries: entries}
}

// Walk visits every PlainFile under entries depth-first in declaration order.
// Groups are descended into and never passed to fn. Walk stops at the first
// error returned by fn.
func Walk(entries []Entry, fn func(PlainFile) error) error {
	for _, e := range entries {
		switch v := e.(type) {
		case PlainFile:
			if err := fn(v); err != nil {
				return err
			}
		case *PlainFile:
			if v == nil {
				continue
			}
			if err := fn(*v); err != nil {
				return err
			}
		case Group:
			if err := Walk(v.Entries, fn); err != nil {
				return err
			}
		case *Group:
			if v == nil {
				continue
			}
			if err := Walk(v.Entries, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
