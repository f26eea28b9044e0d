package outbox

import "context"

// Dispatcher delivers a claimed message. A nil return acks the message;
// an error schedules a retry with backoff until MaxAttempts, after which
// the message is parked as dead.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg DispatchedMessage) error
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, msg DispatchedMessage) error

func (f DispatcherFunc) Dispatch(ctx context.Context, msg DispatchedMessage) error {
	return f(ctx, msg)
}
