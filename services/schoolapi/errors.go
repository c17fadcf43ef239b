package schoolapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a request the school API answered with a status >= 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("school api: %d: %s", e.StatusCode, e.Message)
}

// ServerMessage is the human readable message sent by the school API.
func (e *APIError) ServerMessage() string { return e.Message }

// TransportError is a request that never got an answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("school api: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// errorBody holds the keys the school API may put its message under.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// newAPIError reads the message from body (error, then message, then detail),
// falling back to the status text.
func newAPIError(status int, body string) *APIError {
	var eb errorBody
	msg := ""
	if err := json.Unmarshal([]byte(body), &eb); err == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		case eb.Detail != "":
			msg = eb.Detail
		}
	}
	if msg = strings.TrimSpace(msg); msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
