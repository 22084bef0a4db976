// Package ingest classifies inbound webhook payloads and normalizes them
// into canonical messages for the queue channel.
package ingest

// SourceSlack is the canonical source value for both Slack ingress shapes.
const SourceSlack = "slack"

// PromptRequest is the external contract for the generic prompt ingress.
type PromptRequest struct {
	Prompt      string         `json:"prompt"`
	Source      string         `json:"source"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// CanonicalMessage is the normalized, source-agnostic unit of work handed to
// the queue publisher. MessageID and Timestamp are stamped by the publisher;
// the record is immutable once published.
type CanonicalMessage struct {
	MessageID   string         `json:"message_id"`
	Prompt      string         `json:"prompt"`
	Source      string         `json:"source"`
	CallbackURL string         `json:"callback_url"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   string         `json:"timestamp"`
}

// SlashCommand is the form-decoded Slack slash command payload.
type SlashCommand struct {
	Command     string
	Text        string
	UserID      string
	UserName    string
	ChannelID   string
	ChannelName string
	TeamID      string
	TeamDomain  string
	ResponseURL string
	TriggerID   string
}

// EventCallback is the JSON-decoded Slack Events API callback.
type EventCallback struct {
	TeamID string     `json:"team_id"`
	Event  SlackEvent `json:"event"`
}

// SlackEvent is the nested event object inside an event_callback.
type SlackEvent struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	BotID       string `json:"bot_id"`
	Subtype     string `json:"subtype"`
	Channel     string `json:"channel"`
	User        string `json:"user"`
	TS          string `json:"ts"`
	EventTS     string `json:"event_ts"`
	ChannelType string `json:"channel_type"`
	ThreadTS    string `json:"thread_ts"`
}

// Kind discriminates the classified payload shapes.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindGenericPrompt
	KindSlashCommand
	KindURLVerification
	KindEventCallback
)

func (k Kind) String() string {
	switch k {
	case KindGenericPrompt:
		return "generic_prompt"
	case KindSlashCommand:
		return "slash_command"
	case KindURLVerification:
		return "url_verification"
	case KindEventCallback:
		return "event_callback"
	default:
		return "unrecognized"
	}
}

// Payload is the closed tagged variant produced by classification. Exactly
// the field matching Kind is set; the normalizer matches on Kind and never
// re-inspects raw bytes.
type Payload struct {
	Kind Kind

	Prompt    *PromptRequest
	Command   *SlashCommand
	Challenge string
	Event     *EventCallback

	// RawType is the unrecognized top-level type, for diagnostics.
	RawType string
}

// Disposition is the normalizer's verdict for a classified payload.
type Disposition int

const (
	// DispositionQueue: a canonical message must be published.
	DispositionQueue Disposition = iota
	// DispositionUsage: empty slash command; reply with usage, queue nothing.
	DispositionUsage
	// DispositionChallenge: url_verification; echo the challenge, queue nothing.
	DispositionChallenge
	// DispositionIgnore: benign no-op (bot echo, unhandled event, empty text).
	DispositionIgnore
)

// Outcome is the result of normalizing a classified payload.
type Outcome struct {
	Disposition Disposition

	// Message is set for DispositionQueue.
	Message *CanonicalMessage

	// Attributes are extra queue routing attributes beyond source and
	// message_id, for consumer-side filtering without deserialization.
	Attributes map[string]string

	// Challenge is set for DispositionChallenge.
	Challenge string

	// Reason explains DispositionIgnore.
	Reason string
}
