package notifier

import (
	"time"

	"github.com/aleister1102/pagewatch/internal/models"
)

// DiscordEmbedBuilder helps in constructing models.DiscordEmbed objects.
type DiscordEmbedBuilder struct {
	embed models.DiscordEmbed
}

// NewDiscordEmbedBuilder creates a new instance of DiscordEmbedBuilder.
func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{}
}

// WithTitle sets the Title for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	b.embed.Title = title
	return b
}

// WithDescription sets the Description for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	b.embed.Description = description
	return b
}

// WithURL sets the URL for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithURL(url string) *DiscordEmbedBuilder {
	b.embed.URL = url
	return b
}

// WithTimestamp formats timestamp as ISO8601.
func (b *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	b.embed.Timestamp = timestamp.UTC().Format(time.RFC3339)
	return b
}

// WithColor sets the Color for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	b.embed.Color = color
	return b
}

// WithFooter sets the Footer for the DiscordEmbed.
func (b *DiscordEmbedBuilder) WithFooter(text string) *DiscordEmbedBuilder {
	b.embed.Footer = &models.DiscordEmbedFooter{Text: text}
	return b
}

// AddField appends a field to the DiscordEmbed.
func (b *DiscordEmbedBuilder) AddField(name, value string, inline bool) *DiscordEmbedBuilder {
	b.embed.Fields = append(b.embed.Fields, models.DiscordEmbedField{
		Name:   name,
		Value:  value,
		Inline: inline,
	})
	return b
}

// Build returns the constructed models.DiscordEmbed.
func (b *DiscordEmbedBuilder) Build() models.DiscordEmbed {
	return b.embed
}
