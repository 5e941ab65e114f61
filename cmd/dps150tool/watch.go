// cmd/dps150tool/watch.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svenk123/dps150tool/internal/config"
	"github.com/svenk123/dps150tool/internal/logging"
	"github.com/svenk123/dps150tool/internal/metrics"
	"github.com/svenk123/dps150tool/internal/poller"
	"github.com/svenk123/dps150tool/internal/status"
	"github.com/svenk123/dps150tool/internal/writer"
)

func watchCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll telemetry continuously and mirror it to Modbus TCP",
		Long: `Poll voltage, current and power on a fixed interval until interrupted.

When mirror.endpoint is configured, every reading is written to a Modbus TCP
server, optionally with a device status block. When metrics.listen is set,
Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *g)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runWatch(ctx, cfg, log)
		},
	}
}

func runWatch(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	if cfg.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Listen, reg, log); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// ---- poller ----
	p, closePoller, err := poller.Build(cfg, log, m)
	if err != nil {
		return err
	}
	defer closeSession(log, closePoller)

	// ---- mirror (optional) ----
	var (
		dataWriter   writer.Writer
		statusWriter writer.StatusWriter
	)

	if plan, ok := writer.BuildPlan(cfg); ok {
		cli, err := writer.BuildEndpointClient(cfg.Mirror)
		if err != nil {
			return err
		}
		defer func() { _ = cli.Close() }()

		dataWriter = writer.New(plan, cli)
		if sw, enabled := writer.NewDeviceStatusWriter(plan, cli); enabled {
			statusWriter = sw
		}
	}

	log.Info("watching",
		zap.String("device", cfg.Device.Port),
		zap.Int("interval_ms", cfg.Poll.IntervalMs),
		zap.String("mirror", cfg.Mirror.Endpoint),
	)

	// ---- channel between poller and writers ----
	out := make(chan poller.PollResult)
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		p.Run(ctx, out)
	}()
	// The poller is closed only after Run has returned.
	defer func() { <-runDone }()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	orchestrate(ctx, out, secTicker.C, dataWriter, statusWriter, log)
	return nil
}

// orchestrate owns the status state and delivers every poll result.
// seconds_in_error advances on ticks only.
func orchestrate(
	ctx context.Context,
	results <-chan poller.PollResult,
	ticks <-chan time.Time,
	data writer.Writer,
	sw writer.StatusWriter,
	log *zap.Logger,
) {
	tracker := status.NewTracker()

	writeStatus := func(s status.Snapshot, changed bool) {
		if sw == nil || !changed {
			return
		}
		if err := sw.WriteStatus(s); err != nil {
			log.Warn("status write failed", zap.Error(err))
		}
	}

	// Full block write on start (identity re-assert) if enabled.
	writeStatus(tracker.Snapshot(), true)

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-results:
			if !ok {
				return
			}
			logResult(log, res)

			// --- data delivery ---
			if data != nil {
				if err := data.Write(res); err != nil {
					log.Warn("writer error", zap.Error(err))
				}
			}

			// --- status update (device-level truth) ---
			if sw != nil && res.Model != "" {
				sw.SetDeviceName(res.Model)
			}
			writeStatus(tracker.Observe(res.Err, failedFields(res), res.ChecksumFailures))

		case <-ticks:
			writeStatus(tracker.Tick())
		}
	}
}

func failedFields(res poller.PollResult) int {
	n := 0
	t := res.Telemetry
	if !t.Voltage.OK() {
		n++
	}
	if !t.Current.OK() {
		n++
	}
	if !t.Power.OK() {
		n++
	}
	return n
}

func logResult(log *zap.Logger, res poller.PollResult) {
	if res.Err != nil {
		log.Warn("poll failed", zap.String("device", res.Name), zap.Error(res.Err))
		return
	}

	t := res.Telemetry
	fields := []zap.Field{zap.String("device", res.Name)}
	if t.Voltage.OK() {
		fields = append(fields, zap.Float32("voltage", t.Voltage.Value))
	} else {
		fields = append(fields, zap.NamedError("voltage_error", t.Voltage.Err))
	}
	if t.Current.OK() {
		fields = append(fields, zap.Float32("current", t.Current.Value))
	} else {
		fields = append(fields, zap.NamedError("current_error", t.Current.Err))
	}
	if t.Power.OK() {
		fields = append(fields, zap.Float32("power", t.Power.Value))
	} else {
		fields = append(fields, zap.NamedError("power_error", t.Power.Err))
	}
	if res.ChecksumFailures > 0 {
		fields = append(fields, zap.Int("checksum_failures", res.ChecksumFailures))
	}

	log.Info("telemetry", fields...)
}
