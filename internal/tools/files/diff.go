package files

import (
	"fmt"
	"strings"
)

const diffContextLines = 3

// unifiedDiff renders a unified diff between oldContent and newContent for
// path, assuming the two differ in one contiguous run of lines (true for
// every edit_file call, which always performs a single replacement or a
// whole-file rewrite). It finds the common leading and trailing lines and
// emits one hunk covering everything in between, padded with up to
// diffContextLines of unchanged context on each side.
func unifiedDiff(path, oldContent, newContent string) string {
	oldLines := splitLines(oldContent)
	newLines := splitLines(newContent)

	prefix := commonPrefixLen(oldLines, newLines)
	suffix := commonSuffixLen(oldLines[prefix:], newLines[prefix:])

	oldMid := oldLines[prefix : len(oldLines)-suffix]
	newMid := newLines[prefix : len(newLines)-suffix]

	if len(oldMid) == 0 && len(newMid) == 0 {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(no changes)\n", path, path)
	}

	ctxBefore := diffContextLines
	if ctxBefore > prefix {
		ctxBefore = prefix
	}
	suffixAvail := len(oldLines) - suffix
	ctxAfter := diffContextLines
	if ctxAfter > suffix {
		ctxAfter = suffix
	}

	hunkStart := prefix - ctxBefore
	oldHunkLen := ctxBefore + len(oldMid) + ctxAfter
	newHunkLen := ctxBefore + len(newMid) + ctxAfter

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", hunkStart+1, oldHunkLen, hunkStart+1, newHunkLen)

	for i := hunkStart; i < prefix; i++ {
		fmt.Fprintf(&b, " %s\n", oldLines[i])
	}
	for _, l := range oldMid {
		fmt.Fprintf(&b, "-%s\n", l)
	}
	for _, l := range newMid {
		fmt.Fprintf(&b, "+%s\n", l)
	}
	for i := suffixAvail; i < suffixAvail+ctxAfter; i++ {
		fmt.Fprintf(&b, " %s\n", oldLines[i])
	}

	return b.String()
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(s, "\n")
	return strings.Split(trimmed, "\n")
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
