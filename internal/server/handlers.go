package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/zarahq/zara-gw/internal/events"
	"github.com/zarahq/zara-gw/internal/ingest"
	"github.com/zarahq/zara-gw/internal/publish"
)

// handleHealthz handles GET /healthz. Static liveness only: no dependency
// checks, the queue channel is not probed.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthData{
		Status:    "healthy",
		Service:   s.config.ServiceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, "Service is healthy")
}

// handlePrompt handles POST /v1/prompt: the generic JSON prompt ingress.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	payload, err := ingest.ParsePrompt(body)
	if err != nil {
		s.hub.Publish(events.TypeRequestInvalid, map[string]string{"path": r.URL.Path})
		switch {
		case errors.Is(err, ingest.ErrMissingBody):
			respondError(w, http.StatusBadRequest, "Request body is required")
		case errors.Is(err, ingest.ErrInvalidJSON):
			respondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		default:
			respondError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		}
		return
	}

	outcome, err := ingest.Normalize(payload)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.publisher.Publish(r.Context(), outcome.Message, outcome.Attributes)
	if err != nil {
		s.publishFailed(outcome.Message.Source, err)
		if errors.Is(err, publish.ErrNotConfigured) {
			respondError(w, http.StatusInternalServerError, "Queue channel not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to queue message")
		return
	}

	s.messageQueued(res, outcome.Message.Source)
	respondJSON(w, http.StatusAccepted, PromptQueuedData{
		MessageID:      res.MessageID,
		QueueMessageID: res.QueueMessageID,
		Status:         "queued",
	}, "Prompt successfully queued for processing")
}

// handleSlack handles POST /v1/slack/events: slash commands and Events API
// callbacks share one endpoint.
func (s *Server) handleSlack(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	// Verify over the exact raw bytes, before any decoding.
	if err := s.verifier.Verify(r.Header, body, time.Now()); err != nil {
		s.logger.Warn("slack signature verification failed", "error", err)
		respondError(w, http.StatusUnauthorized, "Invalid request signature")
		return
	}

	payload, err := ingest.ClassifySlack(body, r.Header.Get("Content-Type"))
	if err != nil {
		s.hub.Publish(events.TypeRequestInvalid, map[string]string{"path": r.URL.Path})
		switch {
		case errors.Is(err, ingest.ErrMissingBody):
			respondError(w, http.StatusBadRequest, "Request body is required")
		case errors.Is(err, ingest.ErrInvalidJSON):
			respondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	outcome, err := ingest.Normalize(payload)
	if err != nil {
		// Unknown top-level payload type.
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch outcome.Disposition {
	case ingest.DispositionChallenge:
		respondChallenge(w, outcome.Challenge)

	case ingest.DispositionUsage:
		respondSlack(w, slackEphemeral, s.config.UsageText)

	case ingest.DispositionIgnore:
		s.hub.Publish(events.TypeSlackIgnored, map[string]string{"reason": outcome.Reason})
		respondJSON(w, http.StatusOK, nil, outcome.Reason)

	case ingest.DispositionQueue:
		s.queueSlackMessage(w, r, payload, outcome)
	}
}

// queueSlackMessage publishes an accepted Slack message and answers in the
// shape the originating payload requires.
func (s *Server) queueSlackMessage(w http.ResponseWriter, r *http.Request, payload *ingest.Payload, outcome *ingest.Outcome) {
	res, err := s.publisher.Publish(r.Context(), outcome.Message, outcome.Attributes)
	if err != nil {
		s.publishFailed(ingest.SourceSlack, err)

		// Slash commands get 200 with an ephemeral error: Slack treats
		// non-200 as a delivery failure and retries or shows a raw error.
		if payload.Kind == ingest.KindSlashCommand {
			if errors.Is(err, publish.ErrNotConfigured) {
				respondSlack(w, slackEphemeral, ":x: Error: service is not configured. Please contact an administrator.")
				return
			}
			respondSlack(w, slackEphemeral, ":x: Error: failed to queue your request. Please try again.")
			return
		}

		if errors.Is(err, publish.ErrNotConfigured) {
			respondError(w, http.StatusInternalServerError, "Queue channel not configured")
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to queue message")
		return
	}

	s.messageQueued(res, ingest.SourceSlack)

	if payload.Kind == ingest.KindSlashCommand {
		respondSlack(w, slackInChannel, fmt.Sprintf("Processing your request...\n> %s", outcome.Message.Prompt))
		return
	}

	// Events API expects a fast 200.
	respondJSON(w, http.StatusOK, EventQueuedData{
		MessageID: res.MessageID,
		Status:    "queued",
	}, "Message queued for processing")
}

// handleEvents streams the gateway activity feed as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	lastID := parseLastEventID(r.Header.Get("Last-Event-ID"))
	// Send buffered events first for late clients.
	for _, ev := range s.hub.SnapshotSince(lastID) {
		if err := writeSSE(w, ev); err != nil {
			return
		}
	}
	flusher.Flush()

	ch, cancel := s.hub.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			// SSE comment line as keep-alive.
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, ev events.Event) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, ev.Data)
	return err
}

func parseLastEventID(v string) int64 {
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// readBody reads the request body under the configured size cap.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limited := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read request body")
		return nil, false
	}
	if int64(len(body)) > s.config.MaxBodySize {
		respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return nil, false
	}
	return body, true
}

func (s *Server) messageQueued(res *publish.Result, source string) {
	s.hub.Publish(events.TypeMessageQueued, map[string]string{
		"message_id":       res.MessageID,
		"queue_message_id": res.QueueMessageID,
		"source":           source,
	})
	s.logger.Info("message queued",
		"message_id", res.MessageID,
		"queue_message_id", res.QueueMessageID,
		"source", source,
	)
}

func (s *Server) publishFailed(source string, err error) {
	s.hub.Publish(events.TypePublishFailed, map[string]string{
		"source": source,
		"error":  err.Error(),
	})
	s.logger.Error("failed to publish message", "source", source, "error", err)
}
