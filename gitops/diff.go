package gitops

import (
	"strings"

	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const truncationMarker = "... (diff truncated)"

// buildDiff renders a compact per-file diff of the pending changes, bounded
// by maxBytes. The output is +/- prefixed lines per file, which is what the
// message prompt needs; it makes no attempt at byte-exact `git diff` output.
func (r *Repository) buildDiff(paths []string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}

	var b strings.Builder
	for _, path := range paths {
		old := r.headBlobContent(path)
		new := r.worktreeContent(path)
		if old == new {
			continue
		}

		section := renderFileDiff(path, old, new)

		if b.Len()+len(section) > maxBytes {
			remaining := maxBytes - b.Len()
			if remaining > 0 {
				b.WriteString(section[:remaining])
			}
			b.WriteString("\n" + truncationMarker + "\n")
			return b.String()
		}
		b.WriteString(section)
	}

	return b.String()
}

// renderFileDiff renders one file's changes as a header plus line diff
func renderFileDiff(path, old, new string) string {
	var b strings.Builder
	b.WriteString("--- a/" + path + "\n")
	b.WriteString("+++ b/" + path + "\n")

	for _, d := range diff.Do(old, new) {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffEqual:
			// Unchanged regions carry no signal for the prompt
			continue
		}

		for _, line := range strings.Split(strings.TrimRight(d.Text, "\n"), "\n") {
			b.WriteString(prefix + line + "\n")
		}
	}

	return b.String()
}
