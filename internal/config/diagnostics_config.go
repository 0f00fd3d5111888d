package config

// DiagnosticsConfig controls the per-cycle memory snapshot
type DiagnosticsConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	HeapProfileDir string `json:"heap_profile_dir,omitempty" yaml:"heap_profile_dir,omitempty"`
	MaxProfiles    int    `json:"max_profiles,omitempty" yaml:"max_profiles,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultDiagnosticsConfig creates default diagnostics configuration
func NewDefaultDiagnosticsConfig() DiagnosticsConfig {
	return DiagnosticsConfig{
		Enabled:        true,
		HeapProfileDir: "",
		MaxProfiles:    DefaultDiagnosticsMaxProfiles,
	}
}
