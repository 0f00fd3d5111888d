package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aleister1102/pagewatch/internal/common"
	"github.com/aleister1102/pagewatch/internal/config"
	"github.com/aleister1102/pagewatch/internal/models"
	"github.com/rs/zerolog"
)

const defaultWebhookTimeout = 20 * time.Second

// DiscordNotifier handles sending notifications to a Discord webhook.
type DiscordNotifier struct {
	cfg        config.NotificationConfig
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(cfg config.NotificationConfig, logger zerolog.Logger, httpClient *http.Client) *DiscordNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultWebhookTimeout}
	}
	return &DiscordNotifier{
		cfg:        cfg,
		logger:     logger.With().Str("component", "DiscordNotifier").Logger(),
		httpClient: httpClient,
	}
}

// New returns a Discord notifier when a webhook is configured, otherwise a no-op.
func New(cfg config.NotificationConfig, logger zerolog.Logger) Notifier {
	if cfg.DiscordWebhookURL == "" {
		return NopNotifier{}
	}
	return NewDiscordNotifier(cfg, logger, nil)
}

// NotifyChange posts the change to the configured webhook.
func (dn *DiscordNotifier) NotifyChange(ctx context.Context, change models.LinkChange) error {
	payload := FormatLinkChange(change, dn.cfg.MentionRoleIDs, dn.cfg.MaxDiffChars)
	return dn.SendNotification(ctx, payload)
}

// SendNotification posts a message payload to the webhook.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, payload models.DiscordMessagePayload) error {
	if dn.cfg.DiscordWebhookURL == "" {
		return nil
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dn.cfg.DiscordWebhookURL, bytes.NewReader(payloadJSON))
	if err != nil {
		return common.WrapError(err, "failed to create discord request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dn.httpClient.Do(req)
	if err != nil {
		return common.NewNetworkError(dn.cfg.DiscordWebhookURL, "failed to send discord notification", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		dn.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(respBody)).
			Msg("Discord notification failed")
		return common.NewHTTPErrorWithURL(resp.StatusCode, fmt.Sprintf("discord rejected notification: %s", respBody), dn.cfg.DiscordWebhookURL)
	}

	dn.logger.Debug().Int("status_code", resp.StatusCode).Msg("Discord notification sent")
	return nil
}
