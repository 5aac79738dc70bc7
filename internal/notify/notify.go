package notify

import (
	"context"
	"time"
)

type ActivationType string

const (
	ActionClicked   ActivationType = "actionClicked"
	Closed          ActivationType = "closed"
	Timeout         ActivationType = "timeout"
	ContentsClicked ActivationType = "contentsClicked"
)

// Result is how the user resolved a notification.
type Result struct {
	ActivationType  ActivationType `json:"activationType"`
	ActivationValue string         `json:"activationValue,omitempty"`
}

type Details struct {
	Title   string
	Message string
	// Action labels an optional button.
	Action string
	// Timeout auto-resolves the notification with Timeout. Zero keeps it until resolved.
	Timeout time.Duration
}

// Backend shows notifications in named groups. Showing into a group that is already on
// screen replaces it.
type Backend interface {
	// Notify blocks until the notification is resolved.
	Notify(ctx context.Context, d Details, group string) (Result, error)
	Clear(ctx context.Context, group string) error
}

type Handler func(ctx context.Context, r Result)

// Notification is one desired notification. Notifications with an ID keep their slot across
// SetState calls until resolved; ones without an ID are replaced on every call.
type Notification struct {
	Details Details
	ID      string
	Handler Handler
}
