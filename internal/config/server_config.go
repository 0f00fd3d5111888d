package config

import "time"

// ServerConfig defines configuration for the HTTP and WebSocket listener
type ServerConfig struct {
	ListenAddr         string   `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty" validate:"required"`
	ReadTimeoutSeconds int      `json:"read_timeout_seconds,omitempty" yaml:"read_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	AllowedOrigins     []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
	PreviewCacheSize   int      `json:"preview_cache_size,omitempty" yaml:"preview_cache_size,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultServerConfig creates default server configuration
func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr:         DefaultServerListenAddr,
		ReadTimeoutSeconds: DefaultServerReadTimeoutSecs,
		AllowedOrigins:     []string{},
		PreviewCacheSize:   DefaultServerPreviewCache,
	}
}

// ReadTimeout returns the header read timeout for plain HTTP requests.
func (c ServerConfig) ReadTimeout() time.Duration {
	if c.ReadTimeoutSeconds <= 0 {
		return DefaultServerReadTimeoutSecs * time.Second
	}
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
