// Package stacktrace trims goroutine dumps down to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns the file:line location of every frame that lives
// under an internal/ directory, outermost call last, from the output of
// runtime/debug.Stack.
func InternalPaths(stack []byte) []string {
	var paths []string

	for line := range strings.Lines(string(stack)) {
		// locations are the tab-indented half of each frame
		if !strings.HasPrefix(line, "\t") {
			continue
		}

		loc, _, _ := strings.Cut(strings.TrimSpace(line), " ")
		idx := strings.Index(loc, "/internal/")
		if idx < 0 || !strings.Contains(loc[idx:], ".go:") {
			continue
		}
		paths = append(paths, loc[idx+1:])
	}

	return paths
}
