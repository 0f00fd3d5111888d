package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
)

const maxRedirects = 10

// HTTPClient fetches tracked pages. Every request is bounded by the
// configured timeout.
type HTTPClient struct {
	client *http.Client
	config config.HTTPClientConfig
	logger zerolog.Logger
	retry  *RetryPolicy
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(cfg config.HTTPClientConfig, logger zerolog.Logger) (*HTTPClient, error) {
	logger = logger.With().Str("component", "HTTPClient").Logger()

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			logger.Warn().Err(err).Msg("Failed to configure HTTP/2, falling back to HTTP/1.1")
		}
	}

	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, common.WrapError(err, "failed to parse proxy URL")
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		logger.Info().Str("proxy", cfg.Proxy).Msg("HTTP client configured with proxy")
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	logger.Debug().
		Dur("timeout", cfg.Timeout()).
		Int("max_retries", cfg.MaxRetries).
		Bool("http2_enabled", cfg.EnableHTTP2).
		Msg("HTTP client created")

	return &HTTPClient{
		client: client,
		config: cfg,
		logger: logger,
		retry:  NewRetryPolicy(cfg.MaxRetries, time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond),
	}, nil
}

// Fetch performs a GET and returns the body of a 2xx response. Any other
// outcome is reported as a *common.FetchError.
func (c *HTTPClient) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.fetchOnce(ctx, rawURL)
		return err
	})
	if err != nil {
		c.logger.Debug().Err(err).Str("url", rawURL).Msg("Fetch failed")
		return nil, common.NewFetchError(rawURL, err)
	}
	return body, nil
}

func (c *HTTPClient) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, common.WrapError(err, "failed to create HTTP request")
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, common.NewNetworkError(rawURL, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, common.NewHTTPErrorWithURL(resp.StatusCode, string(snippet), rawURL)
	}

	reader := io.Reader(resp.Body)
	if c.config.MaxContentSize > 0 {
		reader = io.LimitReader(resp.Body, c.config.MaxContentSize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, common.NewNetworkError(rawURL, "failed to read response body", err)
	}

	if c.config.MaxContentSize > 0 && int64(len(body)) >= c.config.MaxContentSize {
		c.logger.Warn().
			Str("url", rawURL).
			Int64("max_content_size", c.config.MaxContentSize).
			Msg("Content size reached limit, truncated")
	}

	return body, nil
}
