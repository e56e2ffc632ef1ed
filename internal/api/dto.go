package api

import (
	"github.com/venapictures/vena/internal/console"
	"github.com/venapictures/vena/internal/models"
	"github.com/venapictures/vena/internal/session"
)

// LoginRequest is the request body of the login screen.
type LoginRequest struct {
	Email    string `json:"email" example:"admin@venapictures.com" validate:"required"`
	Password string `json:"password" example:"password123" validate:"required"`
}

// SignupRequest is the request body of the signup screen.
type SignupRequest = session.SignupForm

// ScreenRequest switches between the unauthenticated screens.
type ScreenRequest struct {
	Screen session.Screen `json:"screen" example:"signup" validate:"required"`
}

// ScreenResponse is what the user currently sees.
type ScreenResponse = console.Screen

// NavigateRequest switches the active view and optionally carries an action.
type NavigateRequest struct {
	View   models.ViewType          `json:"view" example:"Proyek" validate:"required"`
	Action *models.NavigationAction `json:"action,omitempty"`
}

// AcknowledgeRequest consumes the pending action with the given id.
type AcknowledgeRequest struct {
	ID uint64 `json:"id" example:"3" validate:"required"`
}

// SidebarRequest opens or closes the sidebar. A missing Open toggles it.
type SidebarRequest struct {
	Open *bool `json:"open,omitempty"`
}

// NotificationRequest publishes a transient message.
type NotificationRequest struct {
	Message    string `json:"message" example:"Proyek berhasil disimpan" validate:"required"`
	DurationMS int64  `json:"durationMs,omitempty" example:"3000"`
}

// ViewResponse is the context handed to a feature view with the data it may read.
type ViewResponse struct {
	*console.ViewContext
	Data map[string]any `json:"data"`
}

// CollectionResponse wraps a collection snapshot.
type CollectionResponse struct {
	Name     string `json:"name" example:"clients"`
	Items    any    `json:"items"`
	Checksum string `json:"checksum"`
}
