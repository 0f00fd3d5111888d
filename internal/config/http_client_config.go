package config

import "time"

// HTTPClientConfig defines configuration for outbound page fetches
type HTTPClientConfig struct {
	TimeoutSeconds     int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxRetries         int    `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	RetryBaseDelayMs   int    `json:"retry_base_delay_ms,omitempty" yaml:"retry_base_delay_ms,omitempty" validate:"omitempty,min=1"`
	MaxContentSize     int64  `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"`
	UserAgent          string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	EnableHTTP2        bool   `json:"enable_http2" yaml:"enable_http2"`
	Proxy              string `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
}

// NewDefaultHTTPClientConfig creates default HTTP client configuration
func NewDefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		TimeoutSeconds:     DefaultHTTPClientTimeoutSecs,
		MaxRetries:         0,
		RetryBaseDelayMs:   500,
		MaxContentSize:     DefaultHTTPClientMaxContentSize,
		UserAgent:          DefaultHTTPClientUserAgent,
		InsecureSkipVerify: false,
		EnableHTTP2:        true,
	}
}

// Timeout returns the per-request timeout.
func (c HTTPClientConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultHTTPClientTimeoutSecs * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
