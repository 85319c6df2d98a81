package internal

import (
	"fmt"
	"io"
	"sync"

	"github.com/hbomb79/camcheck/internal/event"
	"github.com/hbomb79/camcheck/pkg/logger"
)

type (
	deviceActivity struct {
		device        string
		imageCaptured bool
		passed        int
		failed        int
		abandoned     error
	}

	// activityReporter observes the sessions of a run so that a
	// summary of every device tested can be printed once the run ends.
	activityReporter struct {
		*sync.Mutex
		sessions []*deviceActivity
	}
)

func newActivityReporter() *activityReporter {
	return &activityReporter{Mutex: &sync.Mutex{}}
}

func (reporter *activityReporter) RegisterEventCoordinator(handler event.EventHandler) {
	handler.RegisterHandlerFunction(event.SESSION_START, reporter.handleEvent)
	handler.RegisterHandlerFunction(event.SESSION_COMPLETE, reporter.handleEvent)
}

func (reporter *activityReporter) handleEvent(ev event.Event, payload event.Payload) {
	reporter.Lock()
	defer reporter.Unlock()

	switch ev {
	case event.SESSION_START:
		//nolint:forcetypeassert
		info := payload.(event.SessionInfo)
		log.Emit(logger.INFO, "Session started for %s (timestamp %s)\n", info.Device, info.Timestamp)
		reporter.sessions = append(reporter.sessions, &deviceActivity{device: info.Device})
	case event.SESSION_COMPLETE:
		//nolint:forcetypeassert
		summary := payload.(event.SessionSummary)
		activity := reporter.latest(summary.Device)
		if activity == nil {
			log.Emit(logger.WARNING, "Session for %s completed without having started\n", summary.Device)
			return
		}

		activity.imageCaptured = summary.ImageCaptured
		activity.passed = summary.Passed
		activity.failed = summary.Failed
	}
}

// recordAbandoned notes a device whose session could not be started.
func (reporter *activityReporter) recordAbandoned(device string, err error) {
	reporter.Lock()
	defer reporter.Unlock()

	reporter.sessions = append(reporter.sessions, &deviceActivity{device: device, abandoned: err})
}

func (reporter *activityReporter) latest(device string) *deviceActivity {
	for i := len(reporter.sessions) - 1; i >= 0; i-- {
		if reporter.sessions[i].device == device {
			return reporter.sessions[i]
		}
	}

	return nil
}

// printSummary writes one line per session observed, in the order the
// sessions were run.
func (reporter *activityReporter) printSummary(out io.Writer) {
	reporter.Lock()
	defer reporter.Unlock()

	if len(reporter.sessions) == 0 {
		return
	}

	fmt.Fprintln(out, "Summary:")
	for _, activity := range reporter.sessions {
		fmt.Fprintf(out, "  %s\n", activity)
	}
}

func (activity *deviceActivity) String() string {
	if activity.abandoned != nil {
		return fmt.Sprintf("%s: not tested (%v)", activity.device, activity.abandoned)
	}

	image := "image captured"
	if !activity.imageCaptured {
		image = "image capture failed"
	}

	return fmt.Sprintf("%s: %d passed, %d failed, %s", activity.device, activity.passed, activity.failed, image)
}
