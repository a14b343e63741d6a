package ingest

import "strings"

// DiscordMessage is the subset of a Discord webhook payload the triage
// pipeline cares about.
type DiscordMessage struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Embeds    []DiscordEmbed `json:"embeds"`
	ChannelID string         `json:"channel_id"`
	GuildID   string         `json:"guild_id"`
	Timestamp string         `json:"timestamp"`
	Author    *DiscordAuthor `json:"author"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type DiscordAuthor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ExtractText pulls the message text in priority order: content first,
// then the first embed's description, then its title. Later embeds are
// ignored. Returns "" when nothing usable is present.
func (m DiscordMessage) ExtractText() string {
	if text := strings.TrimSpace(m.Content); text != "" {
		return text
	}
	if len(m.Embeds) > 0 {
		if text := strings.TrimSpace(m.Embeds[0].Description); text != "" {
			return text
		}
		if text := strings.TrimSpace(m.Embeds[0].Title); text != "" {
			return text
		}
	}
	return ""
}

// Metadata captures channel and author identifiers for later display in
// the review UI.
func (m DiscordMessage) Metadata() map[string]string {
	meta := map[string]string{}
	if m.ID != "" {
		meta["message_id"] = m.ID
	}
	if m.ChannelID != "" {
		meta["channel_id"] = m.ChannelID
	}
	if m.GuildID != "" {
		meta["guild_id"] = m.GuildID
	}
	if m.Timestamp != "" {
		meta["timestamp"] = m.Timestamp
	}
	if m.Author != nil {
		if m.Author.ID != "" {
			meta["author_id"] = m.Author.ID
		}
		if m.Author.Username != "" {
			meta["author_username"] = m.Author.Username
		}
	}
	return meta
}
