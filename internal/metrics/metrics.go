package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hbomb79/camcheck/internal/event"
	"github.com/hbomb79/camcheck/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
)

var log = logger.Get("Metrics")

// Config controls where the check report is written. When TextfilePath is
// empty, metrics are still collected but never written.
type Config struct {
	TextfilePath string `yaml:"metrics_textfile" env:"CAMCHECK_METRICS_TEXTFILE"`
}

// Reporter accumulates the outcome of every check performed during a run in a
// Prometheus registry, so that an unattended run can be scraped through the
// node-exporter textfile collector.
type Reporter struct {
	config   Config
	registry *prometheus.Registry

	ChecksTotal     *prometheus.CounterVec
	CheckPassed     *prometheus.GaugeVec
	SessionsTotal   *prometheus.CounterVec
	SessionDuration *prometheus.GaugeVec
	LastRunTime     prometheus.Gauge
}

func New(config Config) *Reporter {
	r := &Reporter{
		config:   config,
		registry: prometheus.NewRegistry(),

		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camcheck_checks_total",
				Help: "Total number of checks performed, by device, check and result",
			},
			[]string{"device", "check", "result"},
		),
		CheckPassed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camcheck_check_passed",
				Help: "Whether the most recent run of a check passed (1) or failed (0)",
			},
			[]string{"device", "check"},
		),
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "camcheck_sessions_total",
				Help: "Total number of sessions run, by device and whether the image was captured",
			},
			[]string{"device", "image_captured"},
		),
		SessionDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "camcheck_session_duration_seconds",
				Help: "Wall time taken by the most recent session for a device",
			},
			[]string{"device"},
		),
		LastRunTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "camcheck_last_run_timestamp_seconds",
				Help: "Unix timestamp of the most recent completed session",
			},
		),
	}

	r.registry.MustRegister(r.ChecksTotal, r.CheckPassed, r.SessionsTotal, r.SessionDuration, r.LastRunTime)
	return r
}

// RegisterEventCoordinator subscribes the reporter to the session events it records.
func (r *Reporter) RegisterEventCoordinator(handler event.EventHandler) {
	handler.RegisterHandlerFunction(event.SESSION_CHECK, r.handleCheck)
	handler.RegisterHandlerFunction(event.SESSION_COMPLETE, r.handleSessionComplete)
}

func (r *Reporter) handleCheck(_ event.Event, payload event.Payload) {
	//nolint:forcetypeassert
	outcome := payload.(event.CheckOutcome)

	result, passed := "fail", 0.0
	if outcome.Passed {
		result, passed = "pass", 1.0
	}

	r.ChecksTotal.WithLabelValues(outcome.Device, outcome.Check, result).Inc()
	r.CheckPassed.WithLabelValues(outcome.Device, outcome.Check).Set(passed)
}

func (r *Reporter) handleSessionComplete(_ event.Event, payload event.Payload) {
	//nolint:forcetypeassert
	summary := payload.(event.SessionSummary)

	r.SessionsTotal.WithLabelValues(summary.Device, fmt.Sprintf("%t", summary.ImageCaptured)).Inc()
	r.SessionDuration.WithLabelValues(summary.Device).Set(summary.Elapsed.Seconds())
	r.LastRunTime.SetToCurrentTime()
}

// Flush writes the collected metrics to the configured textfile, if any.
func (r *Reporter) Flush() error {
	if r.config.TextfilePath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(r.config.TextfilePath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(r.config.TextfilePath, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", r.config.TextfilePath, err)
	}

	log.Emit(logger.SUCCESS, "Wrote check metrics to %s\n", r.config.TextfilePath)
	return nil
}
