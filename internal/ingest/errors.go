package ingest

import "errors"

var (
	// ErrMissingBody signals an empty request body.
	ErrMissingBody = errors.New("request body is required")

	// ErrInvalidJSON signals a body that failed JSON decoding.
	ErrInvalidJSON = errors.New("invalid JSON in request body")

	// ErrSchemaValidation signals a decodable body that violates the
	// PromptRequest contract. Distinct from a decode failure.
	ErrSchemaValidation = errors.New("request validation failed")

	// ErrUnrecognizedPayload signals a decodable body whose top-level type
	// is not a supported Slack payload shape.
	ErrUnrecognizedPayload = errors.New("unknown payload type")
)
