package device

import "time"

// Config contains the tool locations and capture parameters used
// by the Controller when driving a capture device.
type Config struct {
	// Directory in to which captured images and videos are written
	OutputDir string `yaml:"output_dir" env:"CAMCHECK_OUTPUT_DIR" env-default:"captures" validate:"required"`

	FfmpegBinaryPath  string `yaml:"ffmpeg_binary" env:"CAMCHECK_FFMPEG_BINARY" env-default:"ffmpeg" validate:"required"`
	V4L2CtlBinaryPath string `yaml:"v4l2_ctl_binary" env:"CAMCHECK_V4L2_CTL_BINARY" env-default:"v4l2-ctl" validate:"required"`

	// Recording parameters passed to ffmpeg. The input format/size/rate
	// are requested from the device, the remainder control the encode.
	InputFormat string `yaml:"input_format" env:"CAMCHECK_INPUT_FORMAT" env-default:"mjpeg"`
	VideoSize   string `yaml:"video_size" env:"CAMCHECK_VIDEO_SIZE" env-default:"640x480"`
	InputFPS    int    `yaml:"input_fps" env:"CAMCHECK_INPUT_FPS" env-default:"30" validate:"gt=0"`
	VideoCodec  string `yaml:"video_codec" env:"CAMCHECK_VIDEO_CODEC" env-default:"libx264" validate:"required"`
	Preset      string `yaml:"preset" env:"CAMCHECK_PRESET" env-default:"ultrafast"`
	PixelFormat string `yaml:"pixel_format" env:"CAMCHECK_PIXEL_FORMAT" env-default:"yuv420p"`

	// Every external command is bounded by CommandTimeout, except for
	// recordings which are given their duration plus RecordTimeoutGrace.
	CommandTimeout     time.Duration `yaml:"command_timeout" env:"CAMCHECK_COMMAND_TIMEOUT" env-default:"30s" validate:"gt=0"`
	RecordTimeoutGrace time.Duration `yaml:"record_timeout_grace" env:"CAMCHECK_RECORD_TIMEOUT_GRACE" env-default:"15s" validate:"gte=0"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are provided.
func DefaultConfig() Config {
	return Config{
		OutputDir:          "captures",
		FfmpegBinaryPath:   "ffmpeg",
		V4L2CtlBinaryPath:  "v4l2-ctl",
		InputFormat:        "mjpeg",
		VideoSize:          "640x480",
		InputFPS:           30,
		VideoCodec:         "libx264",
		Preset:             "ultrafast",
		PixelFormat:        "yuv420p",
		CommandTimeout:     30 * time.Second,
		RecordTimeoutGrace: 15 * time.Second,
	}
}
