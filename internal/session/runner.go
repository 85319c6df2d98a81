package session

import (
	"context"
	"fmt"
	"time"

	"github.com/hbomb79/camcheck/internal/device"
	"github.com/hbomb79/camcheck/internal/event"
	"github.com/hbomb79/camcheck/internal/probe"
	"github.com/hbomb79/camcheck/pkg/logger"
)

type (
	// Capturer produces the artifacts a session validates
	Capturer interface {
		CaptureImage(ctx context.Context, filename string) device.CaptureResult
		RecordVideo(ctx context.Context, duration time.Duration, filename string) device.CaptureResult
	}

	// Prober extracts stream metadata from a recorded video
	Prober interface {
		VideoDimensions(ctx context.Context, path string) (probe.Dimensions, error)
		FrameRate(ctx context.Context, path string) (string, error)
		AudioCodec(ctx context.Context, path string) (string, error)
		Summarise(ctx context.Context, path string) (*probe.Summary, error)
	}

	// Report is the result of running a session: every check outcome in the
	// order it was performed.
	Report struct {
		Session       Session
		ImageCaptured bool
		Outcomes      []event.CheckOutcome
	}

	// Runner performs the capture and validation phases of a single session. The
	// phases always run to completion; check failures are recorded, never raised.
	Runner struct {
		session  Session
		capturer Capturer
		prober   Prober
		bus      event.EventDispatcher
		outcomes []event.CheckOutcome
	}
)

func NewRunner(session Session, capturer Capturer, prober Prober, bus event.EventDispatcher) *Runner {
	return &Runner{
		session:  session,
		capturer: capturer,
		prober:   prober,
		bus:      bus,
	}
}

// Run performs image capture, image validation, video capture and
// video validation, in that order.
func (runner *Runner) Run(ctx context.Context) Report {
	s := runner.session
	started := time.Now()
	runner.outcomes = make([]event.CheckOutcome, 0, 8)
	runner.bus.Dispatch(event.SESSION_START, s.Info())

	s.Log(fmt.Sprintf("Running Tests on Camera: %s", s.Device))

	imageCaptured := runner.captureImage(ctx)
	if !imageCaptured {
		s.Log("Skipping image tests due to failed capture.")
	} else {
		s.Log("Running Image Tests...")
		runner.assert(ImageExistsCheck, ImageExists(s))
		runner.assert(ImageValidCheck, ImageValid(s))
		runner.assert(ImageResolutionCheck, ImageResolution(s))
		runner.assert(ImageBrightnessCheck, ImageBrightness(s))
	}

	runner.recordVideo(ctx)
	s.Log("Running Video Tests...")
	runner.assert(VideoExistsCheck, VideoExists(s))
	runner.assert(VideoValidCheck, VideoValid(ctx, s, runner.prober))
	runner.assert(VideoFPSCheck, VideoFPS(ctx, s, runner.prober))
	runner.assert(VideoAudioCheck, VideoAudio(ctx, s, runner.prober))

	s.Log("Test session completed.")

	report := Report{Session: s, ImageCaptured: imageCaptured, Outcomes: runner.outcomes}
	runner.bus.Dispatch(event.SESSION_COMPLETE, event.SessionSummary{
		SessionInfo:   s.Info(),
		ImageCaptured: imageCaptured,
		Passed:        report.Passed(),
		Failed:        report.Failed(),
		Elapsed:       time.Since(started),
	})

	return report
}

// captureImage triggers the capture and then waits for the image to
// appear (with content) on disk.
func (runner *Runner) captureImage(ctx context.Context) bool {
	s := runner.session
	s.Log(fmt.Sprintf("Capturing an image on %s...", s.Device))

	result := runner.capturer.CaptureImage(ctx, s.ImageFilename())
	log.Emit(logger.DEBUG, "Image capture for %s returned %s\n", s, result)

	for attempt := 1; attempt <= s.Config.CaptureRetries; attempt++ {
		if err := sleep(ctx, s.Config.RetryInterval); err != nil {
			log.Emit(logger.WARNING, "Waiting for image capture interrupted: %v\n", err)
			break
		}

		if fileHasContent(s.ImagePath) {
			s.Log("Image captured successfully.")
			return true
		}

		s.Log(fmt.Sprintf("Retrying image capture... Attempt %d", attempt))
	}

	s.Log("Image capture failed after retries.")
	return false
}

func (runner *Runner) recordVideo(ctx context.Context) {
	s := runner.session
	s.Log(fmt.Sprintf("Starting video recording on %s: %gs at %d FPS...", s.Device, s.Config.Duration.Seconds(), s.Config.FPS))

	result := runner.capturer.RecordVideo(ctx, s.Config.Duration, s.VideoFilename())
	s.Log("Recording complete.")
	if !result.Ok() {
		log.Emit(logger.WARNING, "Recording for %s did not produce a video: %s\n", s, result)
		return
	}

	if summary, err := runner.prober.Summarise(ctx, result.Path()); err == nil {
		log.Emit(logger.INFO, "Recorded %s (%s)\n", result.Path(), summary)
	} else {
		log.Emit(logger.DEBUG, "Unable to summarise recording %s: %v\n", result.Path(), err)
	}
}

func (runner *Runner) assert(check string, passed bool) {
	s := runner.session
	if passed {
		s.Log(passPrefix + check)
	} else {
		s.Log(failPrefix + check)
	}

	outcome := event.CheckOutcome{SessionInfo: s.Info(), Check: check, Passed: passed}
	runner.outcomes = append(runner.outcomes, outcome)
	runner.bus.Dispatch(event.SESSION_CHECK, outcome)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (r Report) Passed() int {
	passed := 0
	for _, o := range r.Outcomes {
		if o.Passed {
			passed++
		}
	}

	return passed
}

func (r Report) Failed() int { return len(r.Outcomes) - r.Passed() }
