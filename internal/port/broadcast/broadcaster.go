// Package broadcast defines the port for pushing live events to connected
// dashboard clients.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected client. Clients
// that subscribed with a topic filter only receive matching event types.
type Broadcaster interface {
	// BroadcastEvent marshals payload and sends it to all connected
	// clients under the given event type.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
