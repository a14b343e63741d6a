package ingest

import "strings"

// SlackEnvelope is the outer Slack Events API payload. url_verification
// challenges arrive on the same endpoint as events.
type SlackEnvelope struct {
	Type      string      `json:"type"`
	Challenge string      `json:"challenge"`
	TeamID    string      `json:"team_id"`
	Event     *SlackEvent `json:"event"`
}

type SlackEvent struct {
	Type        string            `json:"type"`
	Text        string            `json:"text"`
	Blocks      []SlackBlock      `json:"blocks"`
	Attachments []SlackAttachment `json:"attachments"`
	Channel     string            `json:"channel"`
	User        string            `json:"user"`
	TS          string            `json:"ts"`
	Team        string            `json:"team"`
}

type SlackBlock struct {
	Type     string         `json:"type"`
	Elements []SlackElement `json:"elements"`
}

// SlackElement is recursive: rich_text blocks contain sections which in
// turn contain text elements.
type SlackElement struct {
	Type     string         `json:"type"`
	Text     string         `json:"text"`
	Elements []SlackElement `json:"elements"`
}

type SlackAttachment struct {
	Text string `json:"text"`
}

// IsChallenge reports whether this is a Slack URL verification handshake.
func (e SlackEnvelope) IsChallenge() bool {
	return e.Type == "url_verification"
}

// ExtractText pulls the message text in priority order: rich-text blocks
// first, then the first attachment text, then the plain text field.
func (e SlackEvent) ExtractText() string {
	if text := strings.TrimSpace(extractBlockText(e.Blocks)); text != "" {
		return text
	}
	for _, att := range e.Attachments {
		if text := strings.TrimSpace(att.Text); text != "" {
			return text
		}
	}
	return strings.TrimSpace(e.Text)
}

func extractBlockText(blocks []SlackBlock) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type != "rich_text" {
			continue
		}
		for _, el := range block.Elements {
			collectText(el, &sb)
		}
	}
	return sb.String()
}

func collectText(el SlackElement, sb *strings.Builder) {
	if el.Type == "text" && el.Text != "" {
		sb.WriteString(el.Text)
	}
	for _, child := range el.Elements {
		collectText(child, sb)
	}
}

// Metadata captures channel and user identifiers from the event.
func (e SlackEvent) Metadata() map[string]string {
	meta := map[string]string{}
	if e.Channel != "" {
		meta["channel"] = e.Channel
	}
	if e.User != "" {
		meta["user"] = e.User
	}
	if e.TS != "" {
		meta["ts"] = e.TS
	}
	if e.Team != "" {
		meta["team"] = e.Team
	}
	return meta
}
