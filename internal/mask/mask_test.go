package mask

import (
	"errors"
	"testing"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pattern  string
		strategy Strategy
		expected string
	}{
		{
			name:     "empty pattern is identity",
			text:     "A\nB",
			pattern:  "",
			expected: "A\nB",
		},
		{
			name:     "removes every match",
			text:     "<p>12:00</p>\n<p>Body</p>\n<p>13:45</p>",
			pattern:  `\d{2}:\d{2}`,
			strategy: StrategyRemove,
			expected: "<p></p>\n<p>Body</p>\n<p></p>",
		},
		{
			name:     "marker replacement",
			text:     "<p>Ad: buy now</p>\n<p>Body</p>",
			pattern:  `Ad: [^<]*`,
			strategy: StrategyMarker,
			expected: "<p><!-- masked --></p>\n<p>Body</p>",
		},
		{
			name:     "alternation masks both tokens",
			text:     "A\nB",
			pattern:  "B|C",
			strategy: StrategyRemove,
			expected: "A\n",
		},
		{
			name:     "lookahead is supported",
			text:     "price 10 USD, 20 EUR",
			pattern:  `\d+(?= USD)`,
			strategy: StrategyRemove,
			expected: "price  USD, 20 EUR",
		},
		{
			name:     "no match leaves text",
			text:     "stable",
			pattern:  "volatile",
			strategy: StrategyMarker,
			expected: "stable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.text, tt.pattern, tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApply_InvalidPattern(t *testing.T) {
	_, err := Apply("text", "(unclosed", StrategyRemove)

	var patternErr *common.InvalidPatternError
	require.True(t, errors.As(err, &patternErr))
	assert.Equal(t, "(unclosed", patternErr.Pattern)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(""))
	assert.NoError(t, Validate(`\d+`))
	assert.Error(t, Validate("[z-a]"))
}

func TestApply_MaskedDiffInputsConverge(t *testing.T) {
	old, err := Apply("A\nB", "B|C", StrategyRemove)
	require.NoError(t, err)
	fresh, err := Apply("A\nC", "B|C", StrategyRemove)
	require.NoError(t, err)

	assert.Equal(t, old, fresh)
}
