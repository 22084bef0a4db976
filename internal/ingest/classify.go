package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ClassifySlack inspects a raw Slack webhook body and determines which
// payload shape it carries. Slash commands arrive form-encoded; everything
// else is JSON. The content type decides when the transport supplies one;
// the substring heuristic is the fallback for transports that don't.
func ClassifySlack(body []byte, contentType string) (*Payload, error) {
	if len(body) == 0 {
		return nil, ErrMissingBody
	}

	if isFormEncoded(body, contentType) {
		cmd, err := parseSlashCommand(body)
		if err != nil {
			return nil, err
		}
		return &Payload{Kind: KindSlashCommand, Command: cmd}, nil
	}

	var envelope struct {
		Type      string `json:"type"`
		Challenge string `json:"challenge"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	switch envelope.Type {
	case "url_verification":
		return &Payload{Kind: KindURLVerification, Challenge: envelope.Challenge}, nil
	case "event_callback":
		var cb EventCallback
		if err := json.Unmarshal(body, &cb); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return &Payload{Kind: KindEventCallback, Event: &cb}, nil
	default:
		return &Payload{Kind: KindUnrecognized, RawType: envelope.Type}, nil
	}
}

// ParsePrompt decodes and validates a generic prompt request body.
func ParsePrompt(body []byte) (*Payload, error) {
	if len(body) == 0 {
		return nil, ErrMissingBody
	}

	var req PromptRequest
	if err := json.Unmarshal(body, &req); err != nil {
		// A type mismatch means the JSON decoded but violates the
		// contract; that is a validation failure, not a decode failure.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrSchemaValidation)
	}
	if strings.TrimSpace(req.Source) == "" {
		return nil, fmt.Errorf("%w: source is required", ErrSchemaValidation)
	}

	return &Payload{Kind: KindGenericPrompt, Prompt: &req}, nil
}

// isFormEncoded reports whether the body is a form-encoded slash command.
// An explicit content type wins; without one, the literal substrings
// "command=" and "text=" identify the shape before any JSON decoding is
// attempted.
func isFormEncoded(body []byte, contentType string) bool {
	if mediaType(contentType) == "application/x-www-form-urlencoded" {
		return true
	}
	if mediaType(contentType) == "application/json" {
		return false
	}
	raw := string(body)
	return strings.Contains(raw, "command=") && strings.Contains(raw, "text=")
}

func mediaType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

func parseSlashCommand(body []byte) (*SlashCommand, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}
	return &SlashCommand{
		Command:     values.Get("command"),
		Text:        values.Get("text"),
		UserID:      values.Get("user_id"),
		UserName:    values.Get("user_name"),
		ChannelID:   values.Get("channel_id"),
		ChannelName: values.Get("channel_name"),
		TeamID:      values.Get("team_id"),
		TeamDomain:  values.Get("team_domain"),
		ResponseURL: values.Get("response_url"),
		TriggerID:   values.Get("trigger_id"),
	}, nil
}
