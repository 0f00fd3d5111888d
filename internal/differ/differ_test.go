package differ

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Unchanged(t *testing.T) {
	inputs := []string{
		"",
		"A",
		"A\nB",
		"<p>Hello</p>\n<p>World</p>\n<li>one</li>",
	}

	for _, x := range inputs {
		result, err := Diff(x, x)
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Empty(t, result.Body)
	}
}

func TestDiff_Changed(t *testing.T) {
	result, err := Diff("A\nB", "A\nC")
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, "@@ -1,2 +1,2 @@\n A\n-B\n+C", result.Body)
	assert.Equal(t, Stats{LinesAdded: 1, LinesDeleted: 1}, result.Stats)
}

func TestDiff_NoFileHeader(t *testing.T) {
	result, err := Diff("one\ntwo\nthree", "one\n2\nthree\nfour")
	require.NoError(t, err)

	require.True(t, result.Changed)
	assert.True(t, strings.HasPrefix(result.Body, "@@ "))
	assert.NotContains(t, result.Body, "--- old")
	assert.NotContains(t, result.Body, "+++ new")
	assert.Equal(t, 2, result.Stats.LinesAdded)
	assert.Equal(t, 1, result.Stats.LinesDeleted)
}

func TestDiff_ContextLines(t *testing.T) {
	lines := make([]string, 20)
	for i := range lines {
		lines[i] = strings.Repeat("x", i+1)
	}
	old := strings.Join(lines, "\n")
	lines[10] = "changed"
	fresh := strings.Join(lines, "\n")

	narrow, err := NewDiffer(0).Diff(old, fresh)
	require.NoError(t, err)
	wide, err := NewDiffer(5).Diff(old, fresh)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(narrow.Body, "\n")+1)
	assert.Greater(t, len(wide.Body), len(narrow.Body))
}

func TestDiff_AddedFromEmpty(t *testing.T) {
	result, err := Diff("", "<p>new</p>")
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Contains(t, result.Body, "+<p>new</p>")
}
