package parent

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrChildNotFound   = errors.New("child not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrSelectionLost   = errors.New("selected child missing from reconciled children")

	// toasts
	msgLinkSucceeded       = "Child linked successfully!"
	msgLinkFailed          = "Failed to link child. Please try again."
	msgLoadDashboardFailed = "Failed to load dashboard data"
	msgLoadChildrenFailed  = "Failed to load children"
)

type (
	// API is the school API, as seen by one authenticated parent.
	API interface {
		GetMyChildren(ctx context.Context) ([]BackendChild, error)
		GetParentDashboard(ctx context.Context) (DashboardPayload, error)
		LinkChild(ctx context.Context, req LinkChildRequest) (LinkChildResponse, error)
	}

	// APIProvider scopes the school API to a parent's access token.
	APIProvider interface {
		ForToken(token string) API
	}

	SessionStore interface {
		// GetSession returns ErrSessionNotFound when the parent has no session yet.
		GetSession(ctx context.Context, parentID string) (Session, error)
		SaveSession(ctx context.Context, sess Session) error
		DeleteSession(ctx context.Context, parentID string) error
	}
)

// serverMessenger is implemented by errors carrying a human-readable message from the school API.
type serverMessenger interface {
	ServerMessage() string
}

// linkFailureMessage returns the server message carried by err, or the generic fallback.
func linkFailureMessage(err error) string {
	if sm, ok := errors.Cause(err).(serverMessenger); ok {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return msgLinkFailed
}
