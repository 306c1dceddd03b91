// Package decl loads target source declarations from YAML files.
package decl

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"srcset/internal/source"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://srcset.local/declaration.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// ErrInvalidDeclaration is wrapped by every error describing a malformed file.
var ErrInvalidDeclaration = errors.New("invalid declaration")

// Target is one declared native target.
type Target struct {
	Name string
	// Base is the target directory relative to the project root.
	Base    string
	Entries []source.Entry
}

type fileDoc struct {
	Targets []targetDoc `yaml:"targets"`
}

type targetDoc struct {
	Name string   `yaml:"name"`
	Base string   `yaml:"base"`
	Srcs []srcDoc `yaml:"srcs"`
}

type srcDoc struct {
	Path  string   `yaml:"path"`
	Role  string   `yaml:"role"`
	Flags []string `yaml:"flags"`
	Group string   `yaml:"group"`
	Srcs  []srcDoc `yaml:"srcs"`
}

// LoadFile reads and parses a declaration file.
func LoadFile(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	targets, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return targets, nil
}

// Parse validates data against the declaration schema and converts it into
// targets in declaration order. Target names must be unique.
func Parse(data []byte) ([]Target, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}

	seen := make(map[string]bool, len(doc.Targets))
	targets := make([]Target, 0, len(doc.Targets))
	for _, td := range doc.Targets {
		if seen[td.Name] {
			return nil, fmt.Errorf("%w: duplicate target %q", ErrInvalidDeclaration, td.Name)
		}
		seen[td.Name] = true

		entries, err := convert(td.Srcs)
		if err != nil {
			return nil, fmt.Errorf("%w: target %q: %v", ErrInvalidDeclaration, td.Name, err)
		}
		targets = append(targets, Target{Name: td.Name, Base: td.Base, Entries: entries})
	}
	return targets, nil
}

func convert(srcs []srcDoc) ([]source.Entry, error) {
	entries := make([]source.Entry, 0, len(srcs))
	for _, s := range srcs {
		if s.Group != "" {
			children, err := convert(s.Srcs)
			if err != nil {
				return nil, err
			}
			entries = append(entries, source.Group{Name: s.Group, Entries: children})
			continue
		}
		role, err := source.ParseRole(s.Role)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		entries = append(entries, source.PlainFile{Ref: source.Ref(s.Path), Flags: s.Flags, Role: role})
	}
	return entries, nil
}

func validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("load declaration schema: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON-native scalar types.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidDeclaration)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}
	var doc any
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeclaration, err)
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: schema validation failed: %v", ErrInvalidDeclaration, err)
	}
	return nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}
