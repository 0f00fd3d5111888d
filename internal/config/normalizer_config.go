package config

// NormalizerConfig tunes the HTML normalizer. The built-in tag and
// attribute lists always apply; these extend them.
type NormalizerConfig struct {
	ExtraRemoveTags      []string `json:"extra_remove_tags,omitempty" yaml:"extra_remove_tags,omitempty" validate:"omitempty,dive,required"`
	ExtraUnwrapTags      []string `json:"extra_unwrap_tags,omitempty" yaml:"extra_unwrap_tags,omitempty" validate:"omitempty,dive,required"`
	ExtraStripAttributes []string `json:"extra_strip_attributes,omitempty" yaml:"extra_strip_attributes,omitempty" validate:"omitempty,dive,required"`
}

// NewDefaultNormalizerConfig creates a normalizer config with no extensions.
func NewDefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		ExtraRemoveTags:      []string{},
		ExtraUnwrapTags:      []string{},
		ExtraStripAttributes: []string{},
	}
}
