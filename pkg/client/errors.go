package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError is returned for non-2xx responses. Body holds the raw payload so
// callers can pull the server's own message out of it.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("registry returned %s", e.Status)
	}
	return fmt.Sprintf("registry returned status %d", e.StatusCode)
}

// ErrorMessage extracts a single human readable message from err. For API
// errors the payload is consulted first, in this order: a "detail" array
// (entries' "msg" joined by ", "), a "detail" string, a "message" string.
// Anything else falls back to err.Error().
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if msg := PayloadMessage(apiErr.Body); msg != "" {
			return msg
		}
	}
	return err.Error()
}

// PayloadMessage applies the ErrorMessage extraction order to a raw error
// payload. It returns "" when the payload carries no usable message.
func PayloadMessage(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if msg := detailMessage(payload.Detail); msg != "" {
		return msg
	}

	var message string
	if err := json.Unmarshal(payload.Message, &message); err == nil {
		return strings.TrimSpace(message)
	}
	return ""
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		msgs := make([]string, 0, len(entries))
		for _, entry := range entries {
			if msg := entryMessage(entry); msg != "" {
				msgs = append(msgs, msg)
			}
		}
		return strings.Join(msgs, ", ")
	}

	var detail string
	if err := json.Unmarshal(raw, &detail); err == nil {
		return strings.TrimSpace(detail)
	}
	return ""
}

// entryMessage reads one element of a detail array: either {"msg": "..."}
// (validation error objects) or a bare string.
func entryMessage(raw json.RawMessage) string {
	var obj struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Msg)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
