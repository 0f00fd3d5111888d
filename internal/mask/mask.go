// Package mask redacts volatile regions of a normalized snapshot using
// user-supplied regular expressions.
package mask

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Strategy selects what replaces a masked region.
type Strategy int

const (
	// StrategyRemove replaces matches with nothing. Used before diffing.
	StrategyRemove Strategy = iota
	// StrategyMarker replaces matches with a visible comment. Used for previews.
	StrategyMarker
)

// Marker is the replacement text for StrategyMarker.
const Marker = "<!-- masked -->"

const (
	matchTimeout  = 2 * time.Second
	compiledCache = 128
)

var patterns, _ = lru.New[string, *regexp2.Regexp](compiledCache)

// Apply replaces every match of pattern in text according to strategy.
// An empty pattern returns text unchanged.
func Apply(text, pattern string, strategy Strategy) (string, error) {
	if pattern == "" {
		return text, nil
	}

	re, err := compile(pattern)
	if err != nil {
		return "", err
	}

	replacement := ""
	if strategy == StrategyMarker {
		replacement = Marker
	}

	out, err := re.Replace(text, replacement, -1, -1)
	if err != nil {
		return "", common.WrapErrorf(err, "apply mask %q", pattern)
	}
	return out, nil
}

// Validate reports whether pattern compiles. Empty is valid.
func Validate(pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := compile(pattern)
	return err
}

func compile(pattern string) (*regexp2.Regexp, error) {
	if re, ok := patterns.Get(pattern); ok {
		return re, nil
	}

	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, &common.InvalidPatternError{Pattern: pattern, Err: err}
	}
	re.MatchTimeout = matchTimeout

	patterns.Add(pattern, re)
	return re, nil
}
