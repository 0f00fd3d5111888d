package normalizer

import (
	"strings"

	"github.com/aleister1102/pagewatch/internal/config"
)

// Elements dropped together with their content.
var defaultRemoveTags = []string{
	"script", "style", "link", "meta", "svg",
	"img", "picture", "video", "audio", "source", "track", "canvas",
	"iframe", "object", "embed", "noscript",
	"input", "button", "select", "option", "textarea", "form",
	"hr",
}

// Wrapper elements whose tag is dropped but whose children are kept.
var defaultUnwrapTags = []string{
	"html", "head", "body", "div", "span", "section", "nav", "main",
	"header", "footer", "article", "aside", "ul", "ol", "figure",
	"center", "font",
}

var defaultStripAttributes = []string{
	"style", "class", "id", "tabindex", "role", "rel", "for", "target",
}

const ariaPrefix = "aria-"

// Rules is the set of tag and attribute lists applied by a Normalizer.
type Rules struct {
	RemoveTags      map[string]struct{}
	UnwrapTags      map[string]struct{}
	StripAttributes map[string]struct{}
}

// DefaultRules returns the built-in rules.
func DefaultRules() Rules {
	return NewRules(config.NewDefaultNormalizerConfig())
}

// NewRules merges the built-in lists with the configured extensions.
func NewRules(cfg config.NormalizerConfig) Rules {
	return Rules{
		RemoveTags:      toSet(defaultRemoveTags, cfg.ExtraRemoveTags),
		UnwrapTags:      toSet(defaultUnwrapTags, cfg.ExtraUnwrapTags),
		StripAttributes: toSet(defaultStripAttributes, cfg.ExtraStripAttributes),
	}
}

func (r Rules) removes(tag string) bool {
	_, ok := r.RemoveTags[tag]
	return ok
}

func (r Rules) unwraps(tag string) bool {
	_, ok := r.UnwrapTags[tag]
	return ok
}

func (r Rules) strips(attr string) bool {
	if strings.HasPrefix(attr, ariaPrefix) {
		return true
	}
	_, ok := r.StripAttributes[attr]
	return ok
}

func toSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, item := range list {
			item = strings.ToLower(strings.TrimSpace(item))
			if item != "" {
				set[item] = struct{}{}
			}
		}
	}
	return set
}
