package target

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"srcset/internal/classifier"
	"srcset/internal/source"
)

// SnapshotVersion identifies the snapshot encoding written by MarshalJSON.
const SnapshotVersion = "v1"

type snapshot struct {
	Version            string                 `json:"version"`
	Srcs               []source.GroupedSource `json:"srcs"`
	PerFileFlags       []source.FileFlags     `json:"per_file_flags"`
	SrcPaths           []source.Path          `json:"src_paths"`
	PublicHeaderPaths  []source.Path          `json:"public_header_paths"`
	PrivateHeaderPaths []source.Path          `json:"private_header_paths"`
}

// MarshalJSON writes the canonical snapshot encoding. Equal values always
// produce identical bytes.
func (t *TargetSources) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Version:            SnapshotVersion,
		Srcs:               t.srcs,
		PerFileFlags:       t.perFileFlags,
		SrcPaths:           t.srcPaths,
		PublicHeaderPaths:  t.publicHeaderPaths,
		PrivateHeaderPaths: t.privateHeaderPaths,
	})
}

// Fingerprint returns the hex sha256 of the canonical encoding.
func (t *TargetSources) Fingerprint() string {
	data, err := t.MarshalJSON()
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Decode rebuilds a TargetSources from its snapshot encoding, re-checking
// every invariant Assemble enforces.
func Decode(data []byte) (*TargetSources, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode target snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("decode target snapshot: unsupported version %q", s.Version)
	}

	res := &classifier.Result{
		AllPaths:           mergeSorted(s.SrcPaths, s.PublicHeaderPaths, s.PrivateHeaderPaths),
		PerFileFlags:       s.PerFileFlags,
		SrcPaths:           s.SrcPaths,
		PublicHeaderPaths:  s.PublicHeaderPaths,
		PrivateHeaderPaths: s.PrivateHeaderPaths,
	}
	tree := s.Srcs
	return Assemble(res, GroupBuilderFunc(func([]source.Path) []source.GroupedSource { return tree }))
}
