package ingest

import (
	"errors"
	"testing"
)

func TestClassifySlackSlashCommand(t *testing.T) {
	body := []byte("command=%2Fzara&text=hello+world&user_id=U123&user_name=tester" +
		"&channel_id=C456&channel_name=general&team_id=T789&team_domain=acme" +
		"&response_url=https%3A%2F%2Fhooks.slack.com%2Fcommands%2FT789%2F1%2Fabc" +
		"&trigger_id=13345224609.738474920.8088930838d88f008e0")

	p, err := ClassifySlack(body, "application/x-www-form-urlencoded")
	if err != nil {
		t.Fatalf("ClassifySlack() error = %v", err)
	}
	if p.Kind != KindSlashCommand {
		t.Fatalf("Kind = %v, want %v", p.Kind, KindSlashCommand)
	}

	cmd := p.Command
	if cmd.Command != "/zara" {
		t.Errorf("Command = %q, want %q", cmd.Command, "/zara")
	}
	if cmd.Text != "hello world" {
		t.Errorf("Text = %q, want %q", cmd.Text, "hello world")
	}
	if cmd.ResponseURL != "https://hooks.slack.com/commands/T789/1/abc" {
		t.Errorf("ResponseURL = %q", cmd.ResponseURL)
	}
	if cmd.TeamDomain != "acme" {
		t.Errorf("TeamDomain = %q, want %q", cmd.TeamDomain, "acme")
	}
}

func TestClassifySlackHeuristicWithoutContentType(t *testing.T) {
	// No content type from the transport: the substring heuristic applies
	// before any JSON decoding.
	p, err := ClassifySlack([]byte("command=/zara&text=hello"), "")
	if err != nil {
		t.Fatalf("ClassifySlack() error = %v", err)
	}
	if p.Kind != KindSlashCommand {
		t.Errorf("Kind = %v, want %v", p.Kind, KindSlashCommand)
	}
}

func TestClassifySlackJSONContentTypeBeatsHeuristic(t *testing.T) {
	// A JSON body whose text happens to contain the heuristic substrings
	// must not be misclassified when the transport declares JSON.
	body := []byte(`{"type":"event_callback","event":{"type":"message","text":"run command=deploy text=now"}}`)

	p, err := ClassifySlack(body, "application/json; charset=utf-8")
	if err != nil {
		t.Fatalf("ClassifySlack() error = %v", err)
	}
	if p.Kind != KindEventCallback {
		t.Errorf("Kind = %v, want %v", p.Kind, KindEventCallback)
	}
}

func TestClassifySlackURLVerification(t *testing.T) {
	p, err := ClassifySlack([]byte(`{"type":"url_verification","challenge":"xyz","token":"tok"}`), "application/json")
	if err != nil {
		t.Fatalf("ClassifySlack() error = %v", err)
	}
	if p.Kind != KindURLVerification {
		t.Fatalf("Kind = %v, want %v", p.Kind, KindURLVerification)
	}
	if p.Challenge != "xyz" {
		t.Errorf("Challenge = %q, want %q", p.Challenge, "xyz")
	}
}

func TestClassifySlackEventCallback(t *testing.T) {
	body := []byte(`{
		"type": "event_callback",
		"team_id": "T789",
		"event": {
			"type": "app_mention",
			"text": "<@U0LAN0Z89> do the thing",
			"channel": "C456",
			"user": "U123",
			"ts": "1629294714.000200",
			"event_ts": "1629294714.000200",
			"channel_type": "channel",
			"thread_ts": "1629294700.000100"
		}
	}`)

	p, err := ClassifySlack(body, "application/json")
	if err != nil {
		t.Fatalf("ClassifySlack() error = %v", err)
	}
	if p.Kind != KindEventCallback {
		t.Fatalf("Kind = %v, want %v", p.Kind, KindEventCallback)
	}
	if p.Event.TeamID != "T789" {
		t.Errorf("TeamID = %q, want %q", p.Event.TeamID, "T789")
	}
	if p.Event.Event.Type != "app_mention" {
		t.Errorf("event type = %q, want %q", p.Event.Event.Type, "app_mention")
	}
	if p.Event.Event.ThreadTS != "1629294700.000100" {
		t.Errorf("ThreadTS = %q", p.Event.Event.ThreadTS)
	}
}

func TestClassifySlackErrors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     error
		wantKind    Kind
	}{
		{
			name:    "empty body",
			body:    "",
			wantErr: ErrMissingBody,
		},
		{
			name:        "invalid JSON",
			body:        `{"type": "event_callback"`,
			contentType: "application/json",
			wantErr:     ErrInvalidJSON,
		},
		{
			name:        "unknown type",
			body:        `{"type":"block_actions"}`,
			contentType: "application/json",
			wantKind:    KindUnrecognized,
		},
		{
			name:        "no type field",
			body:        `{"prompt":"hi","source":"curl"}`,
			contentType: "application/json",
			wantKind:    KindUnrecognized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ClassifySlack([]byte(tt.body), tt.contentType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ClassifySlack() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClassifySlack() error = %v", err)
			}
			if p.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", p.Kind, tt.wantKind)
			}
		})
	}
}

func TestParsePrompt(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name: "valid",
			body: `{"prompt":"summarize this","source":"jira","callback_url":"https://example.com/cb","metadata":{"issue":"Z-42"}}`,
		},
		{
			name: "valid minimal",
			body: `{"prompt":"hi","source":"curl"}`,
		},
		{
			name:    "empty body",
			body:    "",
			wantErr: ErrMissingBody,
		},
		{
			name:    "invalid JSON",
			body:    `{"prompt":`,
			wantErr: ErrInvalidJSON,
		},
		{
			name:    "missing prompt",
			body:    `{"source":"jira"}`,
			wantErr: ErrSchemaValidation,
		},
		{
			name:    "missing source",
			body:    `{"prompt":"hi"}`,
			wantErr: ErrSchemaValidation,
		},
		{
			name:    "whitespace prompt",
			body:    `{"prompt":"   ","source":"jira"}`,
			wantErr: ErrSchemaValidation,
		},
		{
			name:    "wrong-shaped prompt",
			body:    `{"prompt":42,"source":"jira"}`,
			wantErr: ErrSchemaValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePrompt([]byte(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParsePrompt() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrompt() error = %v", err)
			}
			if p.Kind != KindGenericPrompt {
				t.Errorf("Kind = %v, want %v", p.Kind, KindGenericPrompt)
			}
			if p.Prompt == nil {
				t.Fatal("Prompt payload is nil")
			}
		})
	}
}
