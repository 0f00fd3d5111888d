package httpclient

import (
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
)

// HTTPClientBuilder builds HTTP clients with fluent interface
type HTTPClientBuilder struct {
	config config.HTTPClientConfig
	logger zerolog.Logger
}

// NewHTTPClientBuilder creates a new HTTPClientBuilder with default configuration
func NewHTTPClientBuilder(logger zerolog.Logger) *HTTPClientBuilder {
	return &HTTPClientBuilder{
		config: config.NewDefaultHTTPClientConfig(),
		logger: logger,
	}
}

// WithConfig replaces the whole configuration
func (b *HTTPClientBuilder) WithConfig(cfg config.HTTPClientConfig) *HTTPClientBuilder {
	b.config = cfg
	return b
}

// WithTimeoutSeconds sets the request timeout
func (b *HTTPClientBuilder) WithTimeoutSeconds(seconds int) *HTTPClientBuilder {
	b.config.TimeoutSeconds = seconds
	return b
}

// WithRetries sets the retry count and base backoff delay
func (b *HTTPClientBuilder) WithRetries(maxRetries, baseDelayMs int) *HTTPClientBuilder {
	b.config.MaxRetries = maxRetries
	b.config.RetryBaseDelayMs = baseDelayMs
	return b
}

// WithUserAgent sets the user agent
func (b *HTTPClientBuilder) WithUserAgent(userAgent string) *HTTPClientBuilder {
	b.config.UserAgent = userAgent
	return b
}

// WithMaxContentSize caps the number of body bytes read
func (b *HTTPClientBuilder) WithMaxContentSize(size int64) *HTTPClientBuilder {
	b.config.MaxContentSize = size
	return b
}

// Build creates the HTTP client
func (b *HTTPClientBuilder) Build() (*HTTPClient, error) {
	return NewHTTPClient(b.config, b.logger)
}
