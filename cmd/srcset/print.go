package main

import (
	"fmt"
	"io"
	"strings"

	"srcset/internal/source"
	"srcset/internal/target"
)

// printTarget writes a human-readable summary of ts.
func printTarget(w io.Writer, name string, ts *target.TargetSources) {
	fmt.Fprintf(w, "📦 %s (%d files, fingerprint %s)\n", name, ts.Len(), shortFingerprint(ts.Fingerprint()))
	writeTree(w, ts.Srcs(), ts, 1)

	if flags := ts.PerFileFlags(); len(flags) > 0 {
		fmt.Fprintln(w, "  flags:")
		for _, f := range flags {
			fmt.Fprintf(w, "    %s: %s\n", f.Path, strings.Join(f.Flags, " "))
		}
	}
}

func writeTree(w io.Writer, nodes []source.GroupedSource, ts *target.TargetSources, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		if !n.IsLeaf() {
			fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			writeTree(w, n.Children, ts, depth+1)
			continue
		}
		role, _ := ts.RoleOf(n.Path)
		fmt.Fprintf(w, "%s%s [%s]\n", indent, n.Path, role)
	}
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
