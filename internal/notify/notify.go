// Package notify defines the delivery channel behind the simulator: the
// notification payload, the template renderer, and the Sender port the
// delivery service talks to.
package notify

import (
	"context"

	"shopbuzz/internal/order"
)

// Notification is a fully rendered payload, ready to hand to a channel.
type Notification struct {
	Title string
	Body  string
	Color string // display hint; channels may ignore it
	Order order.Order
}

// Sender is the OS-notification-center analog. Implementations deliver
// immediately (no future scheduling) and return an opaque delivery id.
type Sender interface {
	// RequestPermission asks the channel whether it may deliver at all.
	// A false result is not an error; delivery is simply unavailable.
	RequestPermission(ctx context.Context) (bool, error)

	Send(ctx context.Context, n Notification) (deliveryID string, err error)
}
