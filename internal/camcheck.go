package internal

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/camcheck/internal/device"
	"github.com/hbomb79/camcheck/internal/event"
	"github.com/hbomb79/camcheck/internal/metrics"
	"github.com/hbomb79/camcheck/internal/probe"
	"github.com/hbomb79/camcheck/internal/session"
	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Core")

type EventParticipator interface {
	RegisterEventCoordinator(event.EventHandler)
}

// camcheckImpl represents the top-level object for a run, and is responsible
// for enumerating devices, selecting those to test and running a session
// against each in turn.
type camcheckImpl struct {
	eventBus event.EventCoordinator
	config   CamcheckConfig
	prober   *probe.Prober
	metrics  *metrics.Reporter
	activity *activityReporter
}

func New(config CamcheckConfig) *camcheckImpl {
	log.Emit(logger.DEBUG, "Bootstrapping camcheck using config: %#v\n", config)
	camcheck := &camcheckImpl{
		eventBus: event.New(),
		config:   config,
		prober:   probe.New(config.Probe),
		metrics:  metrics.New(config.Metrics),
		activity: newActivityReporter(),
	}

	for _, participant := range []EventParticipator{camcheck.metrics, camcheck.activity} {
		participant.RegisterEventCoordinator(camcheck.eventBus)
	}

	return camcheck
}

// Run enumerates the capture devices attached to this machine and selects which
// to test (reading from in if the user must be prompted). A session is run against
// each selected device strictly one after another.
//
// Check failures are reported in each sessions audit log, and do not cause an
// error to be returned. A *SelectionError is returned if no device could be selected.
func (camcheck *camcheckImpl) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	detected := device.New(camcheck.config.Device, "").DetectDevices(ctx)
	log.Emit(logger.DEBUG, "Detected devices: %v\n", detected)

	devices, err := SelectDevices(&camcheck.config, detected, in, out)
	if err != nil {
		return err
	}

	runID := uuid.New()
	log.Emit(logger.INFO, "Starting run %s against %d device(s)\n", runID, len(devices))
	var previous time.Time
	for _, dev := range devices {
		started, err := nextSessionTime(ctx, previous)
		if err != nil {
			log.Emit(logger.WARNING, "Run %s cancelled, skipping remaining devices\n", runID)
			break
		}

		camcheck.runSession(ctx, runID, dev, started, out)
		previous = started
	}

	if err := camcheck.metrics.Flush(); err != nil {
		log.Emit(logger.ERROR, "Unable to write check metrics: %v\n", err)
	}

	camcheck.activity.printSummary(out)
	return nil
}

func (camcheck *camcheckImpl) runSession(ctx context.Context, runID uuid.UUID, dev string, started time.Time, out io.Writer) {
	s, err := session.New(camcheck.config.Session, camcheck.config.Device.OutputDir, dev, runID, started)
	if err != nil {
		log.Emit(logger.ERROR, "Unable to start session for %s: %v\n", dev, err)
		camcheck.activity.recordAbandoned(dev, err)
		return
	}
	s = s.WithConsole(out)

	controller := device.New(camcheck.config.Device, dev)
	log.Emit(logger.DEBUG, "Device information for %s:\n%s\n", dev, controller.Info(ctx))

	report := session.NewRunner(s, controller, camcheck.prober, camcheck.eventBus).Run(ctx)
	log.Emit(logger.INFO, "Session %s finished: %d passed, %d failed (audit log: %s)\n", s, report.Passed(), report.Failed(), s.LogPath)
}

// nextSessionTime returns the time the next session should be stamped with. Session
// artifacts and audit logs are named with one second resolution, so a session never
// starts within the same second as the previous one; if necessary, this waits for
// the next second to begin.
func nextSessionTime(ctx context.Context, previous time.Time) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	now := time.Now()
	if previous.IsZero() {
		return now, nil
	}

	earliest := previous.Truncate(time.Second).Add(time.Second)
	for now.Before(earliest) {
		timer := time.NewTimer(earliest.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}, ctx.Err()
		case <-timer.C:
		}

		now = time.Now()
	}

	return now, nil
}
