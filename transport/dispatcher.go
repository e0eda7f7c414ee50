package transport

import (
	"github.com/mcpgen/mcpgen/jsonrpc"
)

// Dispatcher drains incoming frames from a shared stream and resolves the
// correlation slots. SSE and streamable-HTTP share this logic; they differ
// only in framing and endpoint path.
type Dispatcher struct {
	pending *Pending

	// OnNotification, when set, receives server-initiated notifications.
	OnNotification func(notification *jsonrpc.Notification)
}

// NewDispatcher creates a dispatcher over the supplied correlation map.
func NewDispatcher(pending *Pending) *Dispatcher {
	return &Dispatcher{pending: pending}
}

// Dispatch parses one raw frame and routes it: responses resolve their
// pending slot, notifications go to the handler, unparseable frames are
// dropped (they cannot be correlated to any single call).
func (d *Dispatcher) Dispatch(frame []byte) {
	message, err := jsonrpc.ParseMessage(frame)
	if err != nil {
		return
	}
	if message.Notification != nil {
		if d.OnNotification != nil {
			d.OnNotification(message.Notification)
		}
		return
	}
	if message.Response != nil {
		d.pending.Resolve(message.Response)
	}
}
