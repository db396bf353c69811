package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrSessionExpired is the distinguished authentication failure. The
	// query layer matches it with errors.Is to trigger the logout path
	// instead of showing an ordinary error notification.
	ErrSessionExpired = errors.New("session expired, please log in again")

	// ErrNetwork reports that no response was received at all.
	ErrNetwork = errors.New("could not reach the server, check your connection")
)

// Error is a server-reported failure normalized to a user-facing
// message. The raw HTTP status is kept for callers that branch on it.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// StatusCode extracts the HTTP status from a normalized error, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorPayload matches the backend's error body. The message field is
// a plain string for most failures but an array for field validation.
type errorPayload struct {
	Message messageField `json:"message"`
}

type messageField string

func (m *messageField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*m = messageField(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*m = messageField(strings.Join(many, ", "))
		return nil
	}
	*m = ""
	return nil
}

// normalizeError maps an HTTP failure status and decoded payload to
// the message shown to the user.
func normalizeError(status int, payload errorPayload) error {
	msg := string(payload.Message)

	switch status {
	case http.StatusBadRequest:
		if msg == "" {
			msg = "Invalid data. Check the information provided."
		}
	case http.StatusUnauthorized:
		return fmt.Errorf("authentication required: %w", ErrSessionExpired)
	case http.StatusForbidden:
		msg = "You do not have permission to access this resource."
	case http.StatusNotFound:
		if msg == "" {
			msg = "Record not found."
		}
	case http.StatusConflict:
		if msg == "" {
			msg = "The record is still referenced by other data and cannot be removed."
		}
	case http.StatusInternalServerError:
		msg = "Server error. Please try again later."
	default:
		if msg == "" {
			msg = "An error occurred while processing your request."
		}
	}

	return &Error{StatusCode: status, Message: msg}
}
