package config

// NotificationConfig defines configuration for out-of-band change notifications.
// Items are always created in the store; the webhook is an extra channel.
type NotificationConfig struct {
	DiscordWebhookURL string   `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	MentionRoleIDs    []string `json:"mention_role_ids,omitempty" yaml:"mention_role_ids,omitempty"`
	MaxDiffChars      int      `json:"max_diff_chars,omitempty" yaml:"max_diff_chars,omitempty" validate:"omitempty,min=100"`
}

// NewDefaultNotificationConfig creates default notification configuration
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		DiscordWebhookURL: "",
		MentionRoleIDs:    []string{},
		MaxDiffChars:      1800,
	}
}
