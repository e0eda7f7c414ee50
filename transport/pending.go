package transport

import (
	"context"

	"github.com/mcpgen/mcpgen/internal/collection"
	"github.com/mcpgen/mcpgen/internal/conv"
	"github.com/mcpgen/mcpgen/jsonrpc"
)

// Pending correlates in-flight requests with asynchronously arriving
// responses. Each entry is a single-resolution slot keyed by the normalized
// request id; inserts from callers and removals from the dispatch loop are
// atomic with respect to each other.
type Pending struct {
	slots *collection.SyncMap[string, chan *jsonrpc.Response]
}

// NewPending creates an empty correlation map.
func NewPending() *Pending {
	return &Pending{slots: collection.NewSyncMap[string, chan *jsonrpc.Response]()}
}

// Add registers a slot for the supplied request id. It fails when the id is
// already in flight; ids are the sole correlation key and must be unique at
// any instant.
func (p *Pending) Add(id jsonrpc.RequestId) (<-chan *jsonrpc.Response, error) {
	key := conv.AsKey(id)
	if key == "" {
		return nil, jsonrpc.NewInvalidRequest("request id is required", nil)
	}
	slot := make(chan *jsonrpc.Response, 1)
	if !p.slots.PutIfAbsent(key, slot) {
		return nil, jsonrpc.NewInvalidRequest("duplicate request id: "+key, nil)
	}
	return slot, nil
}

// Resolve delivers a response to the slot matching its id and removes the
// entry. Responses for unknown ids (already timed out, or never ours) are
// dropped and reported as false.
func (p *Pending) Resolve(response *jsonrpc.Response) bool {
	slot, ok := p.slots.Take(conv.AsKey(response.Id))
	if !ok {
		return false
	}
	slot <- response
	return true
}

// Remove abandons the slot for id, typically on timeout or caller
// cancellation. Other entries are unaffected.
func (p *Pending) Remove(id jsonrpc.RequestId) {
	p.slots.Delete(conv.AsKey(id))
}

// FailAll resolves every outstanding slot with err, waking all waiters. Used
// when the shared stream terminates so no caller is left hanging.
func (p *Pending) FailAll(err error) {
	rpcErr, ok := err.(*jsonrpc.Error)
	if !ok {
		rpcErr = jsonrpc.NewInternalError(err.Error(), nil)
	}
	for key, slot := range p.slots.Drain() {
		slot <- &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: key, Error: rpcErr}
	}
}

// Len reports the number of in-flight entries.
func (p *Pending) Len() int {
	return p.slots.Len()
}

// Await blocks until the slot resolves or the context expires; on expiry the
// entry is removed so the map never leaks across calls.
func (p *Pending) Await(ctx context.Context, id jsonrpc.RequestId, slot <-chan *jsonrpc.Response) (*jsonrpc.Response, error) {
	select {
	case response := <-slot:
		return response, nil
	case <-ctx.Done():
		p.Remove(id)
		return nil, ctx.Err()
	}
}
