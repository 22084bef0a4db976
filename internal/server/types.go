package server

// APIResponse is the standard success envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIError is the standard error envelope.
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// PromptQueuedData is the payload for an accepted generic prompt.
type PromptQueuedData struct {
	MessageID      string `json:"message_id"`
	QueueMessageID string `json:"queue_message_id"`
	Status         string `json:"status"`
}

// EventQueuedData is the payload for an accepted Slack event.
type EventQueuedData struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
}

// SlackResponse is the bare reply shape Slack expects for slash commands.
// Never wrapped in the API envelope.
type SlackResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// HealthData is the liveness probe payload.
type HealthData struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

const (
	slackEphemeral = "ephemeral"
	slackInChannel = "in_channel"
)
