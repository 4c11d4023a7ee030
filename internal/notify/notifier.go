package notify

import "context"

// Sender delivers a one-shot notification.
type Sender interface {
	// Send delivers a message with the given title. Implementations must be
	// safe to call once per run and must not block past the context.
	Send(ctx context.Context, title, message string) error

	// Name returns the sender identifier for logging.
	Name() string
}
