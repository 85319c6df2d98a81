package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Device")

// DevicePathMarker is the substring used to pick device nodes out of the
// `v4l2-ctl --list-devices` output.
const DevicePathMarker = "/dev/video"

// Controller drives a single capture device through the v4l2-ctl and ffmpeg
// command line tools. Every operation is a blocking call to an external process;
// failures are reported through the return value rather than an error.
type Controller struct {
	config Config
	device string
}

func New(config Config, device string) *Controller {
	return &Controller{config: config, device: device}
}

// ListDevices returns the raw output of `v4l2-ctl --list-devices`. If the tool
// fails, the text it wrote to stderr is returned instead.
func (c *Controller) ListDevices(ctx context.Context) string {
	out := run(ctx, c.config.CommandTimeout, c.config.V4L2CtlBinaryPath, "--list-devices")
	if out.failed() {
		log.Emit(logger.WARNING, "Device listing failed: %s\n", summariseFfmpegError(out.failureText()))
		return out.failureText()
	}

	return out.stdout
}

// DetectDevices returns the device nodes listed by `v4l2-ctl --list-devices`. If
// the tool fails, nothing it printed is trusted and no devices are returned.
func (c *Controller) DetectDevices(ctx context.Context) []string {
	out := run(ctx, c.config.CommandTimeout, c.config.V4L2CtlBinaryPath, "--list-devices")
	if out.failed() {
		log.Emit(logger.WARNING, "Device detection failed: %s\n", summariseFfmpegError(out.failureText()))
		return nil
	}

	return ParseDevicePaths(out.stdout)
}

// Info returns the raw output of `v4l2-ctl -d <device> --info`.
func (c *Controller) Info(ctx context.Context) string {
	out := run(ctx, c.config.CommandTimeout, c.config.V4L2CtlBinaryPath, "-d", c.device, "--info")
	if out.failed() {
		return out.failureText()
	}

	return out.stdout
}

// SetProperty sets a device control. The name and value are passed through to
// v4l2-ctl as-is, and the raw stdout of the tool is returned.
func (c *Controller) SetProperty(ctx context.Context, name string, value string) string {
	out := run(ctx, c.config.CommandTimeout, c.config.V4L2CtlBinaryPath, "-d", c.device, "--set-ctrl", fmt.Sprintf("%s=%s", name, value))
	return out.stdout
}

// GetProperty reads a device control, returning the raw stdout of v4l2-ctl.
func (c *Controller) GetProperty(ctx context.Context, name string) string {
	out := run(ctx, c.config.CommandTimeout, c.config.V4L2CtlBinaryPath, "-d", c.device, "--get-ctrl", name)
	return out.stdout
}

// CaptureImage pulls exactly one frame from the device in to the output
// directory, using the filename provided.
func (c *Controller) CaptureImage(ctx context.Context, filename string) CaptureResult {
	outputPath, err := c.prepareOutput(filename)
	if err != nil {
		return CaptureFailed(err.Error())
	}

	out := run(ctx, c.config.CommandTimeout, c.config.FfmpegBinaryPath,
		"-y",
		"-f", "video4linux2",
		"-i", c.device,
		"-frames:v", "1",
		outputPath,
	)
	if out.failed() {
		log.Emit(logger.WARNING, "Image capture on %s failed: %s\n", c.device, summariseFfmpegError(out.failureText()))
		return CaptureFailed(out.failureText())
	}

	return Captured(outputPath)
}

// RecordVideo records a clip of the given duration from the device in to the
// output directory. The recording is considered successful only if, once ffmpeg
// exits, the output file exists and is not empty.
func (c *Controller) RecordVideo(ctx context.Context, duration time.Duration, filename string) CaptureResult {
	outputPath, err := c.prepareOutput(filename)
	if err != nil {
		return CaptureFailed(err.Error())
	}

	args := []string{"-y", "-f", "v4l2"}
	if c.config.InputFormat != "" {
		args = append(args, "-input_format", c.config.InputFormat)
	}
	if c.config.VideoSize != "" {
		args = append(args, "-video_size", c.config.VideoSize)
	}
	args = append(args,
		"-framerate", strconv.Itoa(c.config.InputFPS),
		"-t", strconv.FormatFloat(duration.Seconds(), 'f', -1, 64),
		"-i", c.device,
		"-c:v", c.config.VideoCodec,
	)
	if c.config.Preset != "" {
		args = append(args, "-preset", c.config.Preset)
	}
	if c.config.PixelFormat != "" {
		args = append(args, "-pix_fmt", c.config.PixelFormat)
	}
	args = append(args, outputPath)

	out := run(ctx, duration+c.config.RecordTimeoutGrace, c.config.FfmpegBinaryPath, args...)
	if info, err := os.Stat(outputPath); err == nil && info.Size() > 0 {
		return Captured(outputPath)
	}

	if out.err != nil {
		log.Emit(logger.WARNING, "Recording on %s failed: %s\n", c.device, summariseFfmpegError(out.failureText()))
	}
	return CaptureFailed(fmt.Sprintf("Failed to record video. FFmpeg output:\nSTDOUT: %s\nSTDERR: %s", out.stdout, out.stderr))
}

func (c *Controller) prepareOutput(filename string) (string, error) {
	if err := os.MkdirAll(c.config.OutputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", c.config.OutputDir, err)
	}

	return filepath.Join(c.config.OutputDir, filename), nil
}

// ParseDevicePaths extracts the device nodes from the output of
// `v4l2-ctl --list-devices`, preserving the order they were listed in.
func ParseDevicePaths(listing string) []string {
	devices := make([]string, 0)
	for _, line := range strings.Split(listing, "\n") {
		if strings.Contains(line, DevicePathMarker) {
			devices = append(devices, strings.TrimSpace(line))
		}
	}

	return devices
}
