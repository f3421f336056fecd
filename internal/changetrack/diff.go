// Package changetrack implements the change tracker (C8, spec §4.8):
// per-URL snapshot persistence on disk and an LCS-based unified diff
// between the previous and current content. Snapshot storage location
// and the ${HOME}-relative layout are grounded on 5u5urrus-PathFinder's
// use of github.com/mitchellh/go-homedir to resolve a per-user data
// directory; the diff algorithm itself (classic O(m·n) DP + backtrack)
// has no teacher analog and is implemented directly from the spec.
package changetrack

import (
	"strconv"
	"strings"

	"webpeel/internal/model"
)

const (
	leadingContext  = 3
	trailingContext = 10
)

// Diff computes a unified line diff between old and new content using
// the classic LCS dynamic-programming backtrack, per spec §4.8.
func Diff(oldContent, newContent string) model.Diff {
	oldLines := strings.Split(oldContent, "\n")
	newLines := strings.Split(newContent, "\n")

	ops := lcsOps(oldLines, newLines)

	var changes []model.DiffLine
	additions, deletions := 0, 0
	for _, op := range ops {
		changes = append(changes, model.DiffLine{Op: op.kind, Text: op.text})
		switch op.kind {
		case "add":
			additions++
		case "del":
			deletions++
		}
	}

	hunks := buildHunks(changes)

	var text strings.Builder
	for _, h := range hunks {
		text.WriteString(h.Header)
		text.WriteString("\n")
		for _, line := range h.Lines {
			text.WriteString(line)
			text.WriteString("\n")
		}
	}

	return model.Diff{
		Text:      strings.TrimRight(text.String(), "\n"),
		Additions: additions,
		Deletions: deletions,
		Changes:   changes,
		Hunks:     hunks,
	}
}

type diffOp struct {
	kind string // "add", "del", "ctx"
	text string
}

// lcsOps builds the classic LCS table over lines, then backtracks from
// (m,n) to produce the edit script in original order.
func lcsOps(oldLines, newLines []string) []diffOp {
	m, n := len(oldLines), len(newLines)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if oldLines[i-1] == newLines[j-1] {
				table[i][j] = table[i-1][j-1] + 1
			} else if table[i-1][j] >= table[i][j-1] {
				table[i][j] = table[i-1][j]
			} else {
				table[i][j] = table[i][j-1]
			}
		}
	}

	var rev []diffOp
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case oldLines[i-1] == newLines[j-1]:
			rev = append(rev, diffOp{kind: "ctx", text: oldLines[i-1]})
			i--
			j--
		case table[i-1][j] >= table[i][j-1]:
			rev = append(rev, diffOp{kind: "del", text: oldLines[i-1]})
			i--
		default:
			rev = append(rev, diffOp{kind: "add", text: newLines[j-1]})
			j--
		}
	}
	for i > 0 {
		rev = append(rev, diffOp{kind: "del", text: oldLines[i-1]})
		i--
	}
	for j > 0 {
		rev = append(rev, diffOp{kind: "add", text: newLines[j-1]})
		j--
	}

	ops := make([]diffOp, len(rev))
	for k, op := range rev {
		ops[len(rev)-1-k] = op
	}
	return ops
}

// buildHunks groups changed lines into context hunks with up to
// leadingContext lines of context before a change and up to
// trailingContext lines of context after, per spec §4.8.
func buildHunks(changes []model.DiffLine) []model.DiffHunk {
	var hunks []model.DiffHunk
	i := 0
	for i < len(changes) {
		if changes[i].Op == "ctx" {
			i++
			continue
		}

		start := i
		for start > 0 && i-start < leadingContext && changes[start-1].Op == "ctx" {
			start--
		}

		end := i
		for end < len(changes) {
			if changes[end].Op != "ctx" {
				end++
				continue
			}
			// Look ahead: keep consuming context up to trailingContext
			// lines, but stop early if another change run begins within
			// that window (it belongs to this hunk too).
			lookahead := end
			ctxRun := 0
			for lookahead < len(changes) && changes[lookahead].Op == "ctx" && ctxRun < trailingContext {
				lookahead++
				ctxRun++
			}
			if lookahead < len(changes) && changes[lookahead].Op != "ctx" {
				end = lookahead
				continue
			}
			end = lookahead
			break
		}

		lines := make([]string, 0, end-start)
		for _, c := range changes[start:end] {
			prefix := " "
			switch c.Op {
			case "add":
				prefix = "+"
			case "del":
				prefix = "-"
			}
			lines = append(lines, prefix+c.Text)
		}

		hunks = append(hunks, model.DiffHunk{
			Header: hunkHeader(start, end),
			Lines:  lines,
		})

		i = end
	}
	return hunks
}

func hunkHeader(start, end int) string {
	s, n := strconv.Itoa(start+1), strconv.Itoa(end-start)
	return "@@ -" + s + "," + n + " +" + s + "," + n + " @@"
}
