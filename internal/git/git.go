package git

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"srcset/internal/source"
)

// ChangedPaths runs git diff in dir and returns the paths changed relative to
// baseRef. Paths are relative to dir and changes outside it are left out, so
// dir may be a subdirectory of the repository. Renames report both sides.
func ChangedPaths(dir, baseRef string) ([]source.Path, error) {
	cmd := exec.Command("git", "diff", "--name-status", "--no-renames", "--relative", baseRef)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseNameStatus(output)
}

func parseNameStatus(output []byte) ([]source.Path, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	seen := make(map[source.Path]bool)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		// <status>\t<path>[\t<path>]
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("unexpected git diff line %q", line)
		}
		for _, p := range fields[1:] {
			if p = strings.TrimSpace(p); p != "" {
				seen[source.Path(p)] = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	paths := make([]source.Path, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths, nil
}
