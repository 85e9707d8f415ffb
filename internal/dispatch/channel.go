package dispatch

import "context"

// Channel delivers alert payloads to one destination. Deliver must be
// safe for concurrent use; the dispatcher fans out across channels.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, payload Payload) error
}

// Func adapts a function into a named Channel
type Func struct {
	ChannelName string
	Fn          func(ctx context.Context, payload Payload) error
}

// Name returns the channel name
func (f Func) Name() string { return f.ChannelName }

// Deliver invokes the wrapped function
func (f Func) Deliver(ctx context.Context, payload Payload) error {
	return f.Fn(ctx, payload)
}
