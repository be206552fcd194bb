package workers

import (
	"context"
	"log/slog"

	"partner-hub/contract"
	"partner-hub/domain/event"
	"partner-hub/observability"
)

// PresenceFanout broadcasts online/offline transitions to every
// connection except the user's own.
//
// It provides best-effort fan-out with no guarantees regarding
// delivery, ordering, durability, or retries. A client that misses a
// transition resyncs presence on its next reload.
type PresenceFanout struct {
	log      *slog.Logger
	registry contract.IRegistry
	monitor  *observability.HubMonitor
	events   <-chan event.Event
}

func NewPresenceFanout(log *slog.Logger, registry contract.IRegistry,
	monitor *observability.HubMonitor, events <-chan event.Event) *PresenceFanout {
	return &PresenceFanout{log: log, registry: registry, monitor: monitor, events: events}
}

func (w *PresenceFanout) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence fanout")
			return nil
		case evt := <-w.events:
			switch e := evt.(type) {
			case event.UserOnline:
				w.fanout(ctx, e.UserID, evt)
			case event.UserOffline:
				w.fanout(ctx, e.UserID, evt)
			default:
				w.log.Debug("Ignoring non-presence event", "kind", evt.Kind())
			}
		}
	}
}

// fanout One sink for each connection not owned by the transitioning user
func (w *PresenceFanout) fanout(ctx context.Context, userID string, e event.Event) {
	for _, sink := range w.registry.SinksExcept(userID) {
		if err := sink.Consume(ctx, e); err != nil {
			w.monitor.IncrSendFailures()
			w.log.Warn("presence delivery failed", "kind", e.Kind(), "error", err)
			continue
		}
		w.monitor.IncrEventsDispatched()
	}
}
