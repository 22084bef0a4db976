package server

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// setCORSHeaders mirrors the headers the public API has always emitted.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Slack-Signature,X-Slack-Request-Timestamp")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data any, message string) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// respondError writes an error envelope. The code field carries the HTTP
// status as text.
func respondError(w http.ResponseWriter, status int, message string) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Success: false,
		Error:   message,
		Code:    strconv.Itoa(status),
	})
}

// respondSlack writes the bare reply shape Slack renders in-channel.
// Always 200: Slack treats non-200 as a delivery failure and retries or
// shows the user a raw transport error.
func respondSlack(w http.ResponseWriter, responseType, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SlackResponse{
		ResponseType: responseType,
		Text:         text,
	})
}

// respondChallenge echoes a url_verification challenge as plain text.
func respondChallenge(w http.ResponseWriter, challenge string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}
