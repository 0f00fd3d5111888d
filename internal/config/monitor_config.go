package config

import (
	"time"
)

// MonitorConfig defines configuration for the link monitor loop
type MonitorConfig struct {
	Enabled              bool   `json:"enabled" yaml:"enabled"`
	CheckIntervalSeconds int    `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	WakeIntervalMs       int    `json:"wake_interval_ms,omitempty" yaml:"wake_interval_ms,omitempty" validate:"omitempty,min=10"`
	MaxConcurrentChecks  int    `json:"max_concurrent_checks,omitempty" yaml:"max_concurrent_checks,omitempty" validate:"omitempty,min=1"`
	AuditName            string `json:"audit_name,omitempty" yaml:"audit_name,omitempty"`
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:              true,
		CheckIntervalSeconds: DefaultMonitorCheckIntervalSeconds,
		WakeIntervalMs:       DefaultMonitorWakeIntervalMs,
		MaxConcurrentChecks:  DefaultMonitorMaxConcurrentChecks,
		AuditName:            DefaultMonitorAuditName,
	}
}

// CheckInterval is the minimum spacing between cycle starts.
func (c MonitorConfig) CheckInterval() time.Duration {
	if c.CheckIntervalSeconds <= 0 {
		return DefaultMonitorCheckIntervalSeconds * time.Second
	}
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// WakeInterval is the sleep between guard checks.
func (c MonitorConfig) WakeInterval() time.Duration {
	if c.WakeIntervalMs <= 0 {
		return DefaultMonitorWakeIntervalMs * time.Millisecond
	}
	return time.Duration(c.WakeIntervalMs) * time.Millisecond
}
