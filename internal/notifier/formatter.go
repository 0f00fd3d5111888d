package notifier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aleister1102/pagewatch/internal/models"
)

const (
	DiscordUsername   = "pagewatch"
	MonitorEmbedColor = 0x6F42C1
	truncatedSuffix   = "\n…"
)

// FormatLinkChange builds the webhook payload for one detected change.
func FormatLinkChange(change models.LinkChange, mentionRoleIDs []string, maxDiffChars int) models.DiscordMessagePayload {
	embed := NewDiscordEmbedBuilder().
		WithTitle(models.ChangeTitle(change.URL)).
		WithURL(change.URL).
		WithDescription("```diff\n" + truncate(change.Diff, maxDiffChars) + "\n```").
		WithColor(MonitorEmbedColor).
		WithTimestamp(change.DetectedAt).
		AddField("Added", strconv.Itoa(change.LinesAdded), true).
		AddField("Deleted", strconv.Itoa(change.LinesDeleted), true).
		WithFooter(DiscordUsername).
		Build()

	payload := models.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds:   []models.DiscordEmbed{embed},
	}

	if len(mentionRoleIDs) > 0 {
		mentions := make([]string, 0, len(mentionRoleIDs))
		for _, id := range mentionRoleIDs {
			mentions = append(mentions, fmt.Sprintf("<@&%s>", id))
		}
		payload.Content = strings.Join(mentions, " ")
		payload.AllowedMentions = &models.AllowedMentions{Roles: mentionRoleIDs}
	}

	return payload
}

// truncate cuts s to at most max bytes on a line boundary when possible.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + truncatedSuffix
}
