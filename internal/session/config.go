package session

import "time"

// Config contains the validation policy applied to every session, along
// with the parameters controlling the capture phases.
type Config struct {
	// The directory in which each session's audit log is created
	LogDir string `yaml:"log_dir" env:"CAMCHECK_LOG_DIR" env-default:"logs" validate:"required"`

	// The target frame rate of recordings, and the length of each recording
	FPS      int           `yaml:"fps" env:"CAMCHECK_FPS" env-default:"30" validate:"gt=0"`
	Duration time.Duration `yaml:"duration" env:"CAMCHECK_DURATION" env-default:"5s" validate:"gt=0"`

	// The expected size of captured images. When ResolutionExact is false, an
	// image passes if it is at least this large in both dimensions.
	ExpectedWidth   int  `yaml:"expected_width" env:"CAMCHECK_EXPECTED_WIDTH" env-default:"1280" validate:"gt=0"`
	ExpectedHeight  int  `yaml:"expected_height" env:"CAMCHECK_EXPECTED_HEIGHT" env-default:"720" validate:"gt=0"`
	ResolutionExact bool `yaml:"resolution_exact" env:"CAMCHECK_RESOLUTION_EXACT" env-default:"true"`

	// Inclusive band, on a 0-255 scale, that the mean grayscale
	// value of a captured image must fall within
	BrightnessMin float64 `yaml:"brightness_min" env:"CAMCHECK_BRIGHTNESS_MIN" env-default:"50" validate:"gte=0,lte=255"`
	BrightnessMax float64 `yaml:"brightness_max" env:"CAMCHECK_BRIGHTNESS_MAX" env-default:"200" validate:"gte=0,lte=255,gtefield=BrightnessMin"`

	// Maximum allowed difference between the recorded and target frame rate
	FPSTolerance float64 `yaml:"fps_tolerance" env:"CAMCHECK_FPS_TOLERANCE" env-default:"1" validate:"gte=0"`

	// ffmpeg may still be flushing the captured frame when it exits, so the
	// image is polled for up to CaptureRetries times, RetryInterval apart.
	CaptureRetries int           `yaml:"capture_retries" env:"CAMCHECK_CAPTURE_RETRIES" env-default:"3" validate:"gt=0"`
	RetryInterval  time.Duration `yaml:"retry_interval" env:"CAMCHECK_RETRY_INTERVAL" env-default:"1s" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		LogDir:          "logs",
		FPS:             30,
		Duration:        5 * time.Second,
		ExpectedWidth:   1280,
		ExpectedHeight:  720,
		ResolutionExact: true,
		BrightnessMin:   50,
		BrightnessMax:   200,
		FPSTolerance:    1,
		CaptureRetries:  3,
		RetryInterval:   time.Second,
	}
}
