package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Probe")

var (
	ErrNoStream           = errors.New("ffprobe reported no matching stream")
	ErrMissingField       = errors.New("ffprobe output is missing an expected field")
	ErrMalformedFrameRate = errors.New("frame rate is not a valid ratio")
)

// Config contains the options used when invoking ffprobe.
type Config struct {
	FfprobeBinaryPath string        `yaml:"ffprobe_binary" env:"CAMCHECK_FFPROBE_BINARY" env-default:"ffprobe" validate:"required"`
	CommandTimeout    time.Duration `yaml:"command_timeout" env:"CAMCHECK_COMMAND_TIMEOUT" env-default:"30s" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{FfprobeBinaryPath: "ffprobe", CommandTimeout: 30 * time.Second}
}

type (
	// Dimensions is the frame size reported for a video stream
	Dimensions struct {
		Width  int
		Height int
	}

	streamsOutput struct {
		Streams []stream `json:"streams"`
	}

	stream struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
		CodecName  string `json:"codec_name"`
	}
)

// Prober extracts stream metadata from media files using ffprobe. Each
// query selects a single stream and decodes the JSON ffprobe prints.
type Prober struct {
	config Config
}

func New(config Config) *Prober {
	return &Prober{config: config}
}

// VideoDimensions returns the width and height of the first video stream.
func (p *Prober) VideoDimensions(ctx context.Context, path string) (Dimensions, error) {
	s, err := p.firstStream(ctx, path, "v:0", "stream=width,height")
	if err != nil {
		return Dimensions{}, err
	}
	if s.Width <= 0 || s.Height <= 0 {
		return Dimensions{}, fmt.Errorf("video stream dimensions: %w", ErrMissingField)
	}

	return Dimensions{Width: s.Width, Height: s.Height}, nil
}

// FrameRate returns the raw "numerator/denominator" r_frame_rate of the first
// video stream. Use ParseFrameRate to obtain a numeric rate.
func (p *Prober) FrameRate(ctx context.Context, path string) (string, error) {
	s, err := p.firstStream(ctx, path, "v:0", "stream=r_frame_rate")
	if err != nil {
		return "", err
	}
	if s.RFrameRate == "" {
		return "", fmt.Errorf("r_frame_rate: %w", ErrMissingField)
	}

	return s.RFrameRate, nil
}

// AudioCodec returns the codec name of the first audio stream.
func (p *Prober) AudioCodec(ctx context.Context, path string) (string, error) {
	s, err := p.firstStream(ctx, path, "a:0", "stream=codec_name")
	if err != nil {
		return "", err
	}
	if s.CodecName == "" {
		return "", fmt.Errorf("codec_name: %w", ErrMissingField)
	}

	return s.CodecName, nil
}

func (p *Prober) firstStream(ctx context.Context, path string, selector string, entries string) (*stream, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, p.config.CommandTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, p.config.FfprobeBinaryPath,
		"-v", "error",
		"-select_streams", selector,
		"-show_entries", entries,
		"-of", "json",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe %s of %s failed: %w (stderr: %s)", selector, path, err, strings.TrimSpace(stderr.String()))
	}

	var out streamsOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe output for %s: %w", path, err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("%s of %s: %w", selector, path, ErrNoStream)
	}

	log.Emit(logger.VERBOSE, "ffprobe %s of %s: %+v\n", selector, path, out.Streams[0])
	return &out.Streams[0], nil
}

// ParseFrameRate converts an ffprobe frame rate such as "30/1" or
// "30000/1001" in to frames per second. A plain decimal is also accepted.
// A zero denominator, NaN or an infinite rate is rejected.
func ParseFrameRate(rate string) (float64, error) {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return 0, fmt.Errorf("empty frame rate: %w", ErrMalformedFrameRate)
	}

	num, den, isRatio := strings.Cut(rate, "/")
	numerator, err := parseFinite(num)
	if err != nil {
		return 0, fmt.Errorf("frame rate %q: %w", rate, ErrMalformedFrameRate)
	}
	if !isRatio {
		return numerator, nil
	}

	denominator, err := parseFinite(den)
	if err != nil || denominator == 0 {
		return 0, fmt.Errorf("frame rate %q: %w", rate, ErrMalformedFrameRate)
	}

	fps := numerator / denominator
	if math.IsInf(fps, 0) || math.IsNaN(fps) {
		return 0, fmt.Errorf("frame rate %q: %w", rate, ErrMalformedFrameRate)
	}

	return fps, nil
}

// parseFinite parses a decimal number, rejecting NaN and infinities (including
// values which overflow a float64).
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%q is not finite", s)
	}

	return v, nil
}
