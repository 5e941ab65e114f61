// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Decode results used as the "result" label.
const (
	ResultOK             = "ok"
	ResultNotAResponse   = "not_a_response"
	ResultTruncated      = "truncated"
	ResultUnknown        = "unknown"
	ResultTransportError = "transport_error"
	ResultEmpty          = "empty"
)

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler exposes reg over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics are the power-supply specific series.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FramesSent       *prometheus.CounterVec // labels: command
	DecodeTotal      *prometheus.CounterVec // labels: result
	ChecksumMismatch prometheus.Counter
	OutputVoltage    prometheus.Gauge
	OutputCurrent    prometheus.Gauge
	OutputPower      prometheus.Gauge
}

// New registers and returns the series on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dps150_frames_sent_total",
			Help: "Frames written to the power supply by command.",
		}, []string{"command"}),
		DecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dps150_decode_total",
			Help: "Response decode attempts by result.",
		}, []string{"result"}),
		ChecksumMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dps150_checksum_mismatch_total",
			Help: "Responses whose trailer did not match; values were still used.",
		}),
		OutputVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dps150_output_voltage_volts",
			Help: "Last measured output voltage.",
		}),
		OutputCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dps150_output_current_amperes",
			Help: "Last measured output current.",
		}),
		OutputPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dps150_output_power_watts",
			Help: "Last measured output power.",
		}),
	}
	reg.MustRegister(m.FramesSent, m.DecodeTotal, m.ChecksumMismatch,
		m.OutputVoltage, m.OutputCurrent, m.OutputPower)
	return m
}

func (m *Metrics) FrameSent(command byte) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(fmt.Sprintf("0x%02X", command)).Inc()
}

func (m *Metrics) Decoded(result string) {
	if m == nil {
		return
	}
	m.DecodeTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) BadChecksum() {
	if m == nil {
		return
	}
	m.ChecksumMismatch.Inc()
}

// SetOutput records the latest telemetry. NaN leaves a gauge untouched.
func (m *Metrics) SetOutput(voltage, current, power float64) {
	if m == nil {
		return
	}
	if !math.IsNaN(voltage) {
		m.OutputVoltage.Set(voltage)
	}
	if !math.IsNaN(current) {
		m.OutputCurrent.Set(current)
	}
	if !math.IsNaN(power) {
		m.OutputPower.Set(power)
	}
}

// Serve exposes reg on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics: %w", err)
	}
	return nil
}
