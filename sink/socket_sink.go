package sink

import (
	"context"
	"time"

	"partner-hub/domain/event"
	"partner-hub/errors"
)

// SocketSink is the in-process inbox of one live connection. The
// dispatcher writes into Events; the connection's write pump drains it
// onto the wire. Delivery is bounded: if the buffer stays full past
// the timeout the event is lost, which is acceptable because the
// durable store already owns the data.
type SocketSink struct {
	Events  chan event.Event
	timeout time.Duration
}

func NewSocketSink(bufferSize int, timeout time.Duration) *SocketSink {
	return &SocketSink{
		Events:  make(chan event.Event, bufferSize),
		timeout: timeout,
	}
}

// Consume hands the event to the connection's write pump. A slow
// client can only delay the caller up to the delivery timeout, never
// stall dispatch to other connections indefinitely.
func (s *SocketSink) Consume(ctx context.Context, e event.Event) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.ErrSinkSaturated
	}
}
