package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classified from upstream responses. Callers discriminate
// with errors.Is instead of matching description strings themselves.
var (
	ErrChatNotFound  = errors.New("telegram: chat not found")
	ErrInvalidToken  = errors.New("telegram: invalid bot token")
	ErrBlockedByUser = errors.New("telegram: bot blocked by user")
)

// APIError is a non-2xx Bot API response.
type APIError struct {
	StatusCode  int
	Code        int
	Description string
	kind        error
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram: api error %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("telegram: api error %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

// classify maps an upstream failure onto a closed error kind. The Bot API
// multiplexes distinct failures onto HTTP 400/401/403 and only the free-text
// description disambiguates them, so the string inspection happens here, once,
// at the client boundary.
func classify(status, code int, description string) *APIError {
	apiErr := &APIError{StatusCode: status, Code: code, Description: description}

	desc := strings.ToLower(description)
	switch {
	case status == 401 || strings.Contains(desc, "bot token"):
		apiErr.kind = ErrInvalidToken
	case strings.Contains(desc, "chat not found"):
		apiErr.kind = ErrChatNotFound
	case strings.Contains(desc, "blocked by the user"):
		apiErr.kind = ErrBlockedByUser
	}
	return apiErr
}
