// Package differ computes the unified diff between two normalized snapshots.
package differ

import (
	"strings"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const defaultContextLines = 3

// Stats counts changed lines.
type Stats struct {
	LinesAdded   int `json:"linesAdded"`
	LinesDeleted int `json:"linesDeleted"`
}

// Result is the outcome of comparing two snapshots. An empty Body means
// the snapshots are equivalent.
type Result struct {
	Changed bool   `json:"changed"`
	Body    string `json:"body"`
	Stats   Stats  `json:"stats"`
}

// Differ produces hunk-only unified diffs.
type Differ struct {
	contextLines int
	dmp          *diffmatchpatch.DiffMatchPatch
}

// NewDiffer creates a differ with the given number of context lines
func NewDiffer(contextLines int) *Differ {
	if contextLines < 0 {
		contextLines = defaultContextLines
	}
	return &Differ{
		contextLines: contextLines,
		dmp:          diffmatchpatch.New(),
	}
}

var defaultDiffer = NewDiffer(defaultContextLines)

// Diff compares oldText and newText with the default context size.
func Diff(oldText, newText string) (Result, error) {
	return defaultDiffer.Diff(oldText, newText)
}

// Diff compares oldText and newText. The body contains hunk markers and
// +/- lines only, without the file header.
func (d *Differ) Diff(oldText, newText string) (Result, error) {
	if oldText == newText {
		return Result{}, nil
	}

	// No FromFile/ToFile: difflib then omits the ---/+++ header lines.
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:       difflib.SplitLines(oldText),
		B:       difflib.SplitLines(newText),
		Context: d.contextLines,
	})
	if err != nil {
		return Result{}, common.WrapError(err, "failed to generate unified diff")
	}

	body := strings.TrimRight(unified, "\n")
	if body == "" {
		return Result{}, nil
	}

	return Result{
		Changed: true,
		Body:    body,
		Stats:   d.stats(oldText, newText),
	}, nil
}

func (d *Differ) stats(oldText, newText string) Stats {
	a, b, lineArray := d.dmp.DiffLinesToChars(terminate(oldText), terminate(newText))
	diffs := d.dmp.DiffCharsToLines(d.dmp.DiffMain(a, b, false), lineArray)

	var stats Stats
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			stats.LinesAdded += countLines(diff.Text)
		case diffmatchpatch.DiffDelete:
			stats.LinesDeleted += countLines(diff.Text)
		}
	}
	return stats
}

// terminate makes the last line comparable with lines followed by more text.
func terminate(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
