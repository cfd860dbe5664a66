package transport

import (
	"context"
	"fmt"
)

// Sender is the one primitive the router needs from a chat transport: deliver
// text to a party and report the transport-assigned id of the delivered
// message. A failed send returns a *DeliveryError.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) (int64, error)
}

// DeliveryError wraps a transport-level send failure. The router branches on
// it per routing rule instead of letting raw transport errors propagate into
// persisted state.
type DeliveryError struct {
	ChatID int64
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to chat %d failed: %v", e.ChatID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
