package ingest

import (
	"fmt"
	"strings"
)

// Normalize converts a classified payload into an Outcome. The match over
// Payload.Kind is exhaustive; KindUnrecognized is the only error case.
func Normalize(p *Payload) (*Outcome, error) {
	switch p.Kind {
	case KindGenericPrompt:
		return normalizePrompt(p.Prompt), nil
	case KindSlashCommand:
		return normalizeSlashCommand(p.Command), nil
	case KindURLVerification:
		return &Outcome{Disposition: DispositionChallenge, Challenge: p.Challenge}, nil
	case KindEventCallback:
		return normalizeEvent(p.Event), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedPayload, p.RawType)
	}
}

func normalizePrompt(req *PromptRequest) *Outcome {
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Outcome{
		Disposition: DispositionQueue,
		Message: &CanonicalMessage{
			Prompt:      req.Prompt,
			Source:      req.Source,
			CallbackURL: req.CallbackURL,
			Metadata:    metadata,
		},
	}
}

func normalizeSlashCommand(cmd *SlashCommand) *Outcome {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return &Outcome{Disposition: DispositionUsage}
	}

	attrs := map[string]string{}
	if cmd.ChannelID != "" {
		attrs["slack_channel"] = cmd.ChannelID
	}

	return &Outcome{
		Disposition: DispositionQueue,
		Message: &CanonicalMessage{
			Prompt: text,
			Source: SourceSlack,
			// Slash commands deliver delayed responses through the
			// caller-supplied response_url.
			CallbackURL: cmd.ResponseURL,
			Metadata: map[string]any{
				"team_id":      cmd.TeamID,
				"team_domain":  cmd.TeamDomain,
				"channel_id":   cmd.ChannelID,
				"channel_name": cmd.ChannelName,
				"user_id":      cmd.UserID,
				"user_name":    cmd.UserName,
				"command":      cmd.Command,
				"response_url": cmd.ResponseURL,
				"trigger_id":   cmd.TriggerID,
				"event_type":   "slash_command",
			},
		},
		Attributes: attrs,
	}
}

func normalizeEvent(cb *EventCallback) *Outcome {
	ev := cb.Event

	// Skip bot messages to prevent loops.
	if ev.BotID != "" || ev.Subtype == "bot_message" {
		return &Outcome{Disposition: DispositionIgnore, Reason: "Bot message ignored"}
	}

	if ev.Type != "message" && ev.Type != "app_mention" {
		return &Outcome{
			Disposition: DispositionIgnore,
			Reason:      fmt.Sprintf("Event type %q not handled", ev.Type),
		}
	}

	text := StripMention(ev.Text)
	if text == "" {
		return &Outcome{Disposition: DispositionIgnore, Reason: "Empty message ignored"}
	}

	channel := ev.Channel
	if channel == "" {
		channel = "unknown"
	}

	return &Outcome{
		Disposition: DispositionQueue,
		Message: &CanonicalMessage{
			Prompt: text,
			// Events are answered through the Slack API, not a callback URL.
			Source: SourceSlack,
			Metadata: map[string]any{
				"slack_team_id":      cb.TeamID,
				"slack_channel":      ev.Channel,
				"slack_user":         ev.User,
				"slack_ts":           ev.TS,
				"slack_event_ts":     ev.EventTS,
				"slack_event_type":   ev.Type,
				"slack_channel_type": ev.ChannelType,
				"slack_thread_ts":    ev.ThreadTS,
			},
		},
		Attributes: map[string]string{"slack_channel": channel},
	}
}

// StripMention removes a leading bot mention of the form "<@UXXXXXXXX>".
// Text not starting with "<@" is returned as-is; a mention with no closing
// ">" is malformed and left unmodified.
func StripMention(text string) string {
	if strings.HasPrefix(text, "<@") {
		if end := strings.Index(text, ">"); end != -1 {
			return strings.TrimSpace(text[end+1:])
		}
		return text
	}
	return text
}
