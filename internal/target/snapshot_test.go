package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"srcset/internal/grouping"
	"srcset/internal/source"
)

func TestDecode_RoundTrip(t *testing.T) {
	ts, err := OfDeclaredSources(objcEntries(), identity, grouping.NewDirectoryBuilder())
	require.NoError(t, err)

	data, err := ts.MarshalJSON()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, ts, decoded)
	assert.Equal(t, ts.Fingerprint(), decoded.Fingerprint())
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	a, err := OfDeclaredSources(objcEntries(), identity, grouping.NewDirectoryBuilder())
	require.NoError(t, err)

	entries := objcEntries()
	entries[0] = source.File("a.m", source.RoleSource, "-fno-objc-arc")
	b, err := OfDeclaredSources(entries, identity, grouping.NewDirectoryBuilder())
	require.NoError(t, err)

	assert.Len(t, a.Fingerprint(), 64)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestDecode_RejectsInvalidSnapshots(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"not json", `{`, "decode target snapshot"},
		{"wrong version", `{"version":"v0"}`, "unsupported version"},
		{
			name: "leaf missing from tree",
			data: `{"version":"v1","srcs":[],"per_file_flags":[],"src_paths":["a.c"],"public_header_paths":[],"private_header_paths":[]}`,
			msg:  "missing",
		},
		{
			name: "path in two roles",
			data: `{"version":"v1","srcs":[{"kind":"leaf","path":"a.c"}],"per_file_flags":[],"src_paths":["a.c"],"public_header_paths":["a.c"],"private_header_paths":[]}`,
			msg:  "more than one role set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
