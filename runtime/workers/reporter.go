package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"heybuddy/domain"

	"github.com/shirou/gopsutil/process"
)

// StatsSource is the part of the orchestrator the reporter reads.
type StatsSource interface {
	Stats() domain.Stats
}

// ReporterWorker periodically logs the server load: rooms, sessions and
// connections, plus CPU and RAM of the current process.
type ReporterWorker struct {
	log      *slog.Logger
	source   StatsSource
	interval time.Duration
	pid      int32
}

func NewReporterWorker(log *slog.Logger, source StatsSource, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{
		log:      log,
		source:   source,
		interval: interval,
		pid:      int32(os.Getpid()),
	}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	startTime := time.Now()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.report(startTime)
			w.log.Debug("Reporter stopped")
			return nil
		case <-ticker.C:
			w.report(startTime)
		}
	}
}

func (w *ReporterWorker) report(startTime time.Time) {
	stats := w.source.Stats()
	attrs := []any{
		"uptime", time.Since(startTime).Round(time.Second).String(),
		"rooms", stats.Rooms,
		"sessions", stats.Sessions,
		"connections", stats.Connections,
	}

	p, err := process.NewProcess(w.pid)
	if err != nil {
		w.log.Debug("Error while retrieving process", "pid", w.pid, "err", err)
		w.log.Info("Server stats", attrs...)
		return
	}
	if cpu, err := p.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	} else {
		w.log.Debug("Error while finding process cpu usage", "err", err)
	}
	if ram, err := p.MemoryPercent(); err == nil {
		attrs = append(attrs, "ram_percent", ram)
	} else {
		w.log.Debug("Error while finding process ram usage", "err", err)
	}
	w.log.Info("Server stats", attrs...)
}
