package push

import "context"

// Message is a single push notification addressed to one device token.
type Message struct {
	Token        string
	Title        string
	Body         string
	Data         map[string]string
	HighPriority bool
}

// Sender delivers a push message to its target device. Implementations do
// not retry; retry policy belongs to whoever re-triggers the caller.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
