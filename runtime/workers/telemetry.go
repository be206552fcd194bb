package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"partner-hub/observability"
)

// TelemetryWorker periodically logs hub delivery counters together
// with process self-stats (CPU, RSS). It is the only consumer of
// gopsutil; dispatch paths never block on it.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	monitor        *observability.HubMonitor
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration,
	monitor *observability.HubMonitor) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		monitor:        monitor,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats := w.monitor.GetLatest()
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("hub telemetry",
				"active_connections", stats.ActiveConnections,
				"online_users", stats.OnlineUsers,
				"events_dispatched", stats.EventsDispatched,
				"events_dropped", stats.EventsDropped,
				"send_failures", stats.SendFailures,
				"room_joins", stats.RoomJoins,
				"cpu_percent", cpu,
				"ram_bytes", rss,
			)
		}
	}
}

// selfStats retrieves technical metrics (Memory and CPU) for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
