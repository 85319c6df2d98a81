package internal_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/hbomb79/camcheck/internal"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/fs"
)

func clearSelectionEnv(t *testing.T) {
	t.Setenv("CAMERA_DEVICE", "")
	t.Setenv("RUNNING_IN_DOCKER", "")
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearSelectionEnv(t)

	config, err := internal.Load("")
	require.NoError(t, err)

	assert.Equal(t, "captures", config.Device.OutputDir)
	assert.Equal(t, "ffmpeg", config.Device.FfmpegBinaryPath)
	assert.Equal(t, "ffprobe", config.Probe.FfprobeBinaryPath)
	assert.Equal(t, "logs", config.Session.LogDir)
	assert.Equal(t, 30, config.Session.FPS)
	assert.Equal(t, 5*time.Second, config.Session.Duration)
	assert.Equal(t, 1280, config.Session.ExpectedWidth)
	assert.Equal(t, 720, config.Session.ExpectedHeight)
	assert.True(t, config.Session.ResolutionExact)
	assert.Equal(t, 50.0, config.Session.BrightnessMin)
	assert.Equal(t, 200.0, config.Session.BrightnessMax)
	assert.Equal(t, 3, config.Session.CaptureRetries)
	assert.Equal(t, "INFO", config.LogLevel)
	assert.Empty(t, config.CameraDevice)
	assert.False(t, config.Headless())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearSelectionEnv(t)
	t.Setenv("CAMERA_DEVICE", "/dev/video3")
	t.Setenv("RUNNING_IN_DOCKER", "yes")
	t.Setenv("CAMCHECK_FPS", "25")
	t.Setenv("CAMCHECK_DURATION", "2s")
	t.Setenv("CAMCHECK_RESOLUTION_EXACT", "false")
	t.Setenv("CAMCHECK_FPS_TOLERANCE", "0.5")

	config, err := internal.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/video3", config.CameraDevice)
	assert.True(t, config.Headless())
	assert.Equal(t, 25, config.Session.FPS)
	assert.Equal(t, 2*time.Second, config.Session.Duration)
	assert.False(t, config.Session.ResolutionExact)
	assert.Equal(t, 0.5, config.Session.FPSTolerance)
}

func TestLoadFromFile(t *testing.T) {
	clearSelectionEnv(t)
	dir := fs.NewDir(t, "camcheck_config", fs.WithFile("config.yaml", `
device:
  output_dir: /srv/camcheck/captures
  ffmpeg_binary: /opt/ffmpeg/bin/ffmpeg
session:
  log_dir: /srv/camcheck/logs
  expected_width: 640
  expected_height: 480
metrics:
  metrics_textfile: /var/lib/node_exporter/camcheck.prom
`))
	defer dir.Remove()

	config, err := internal.Load(dir.Join("config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/srv/camcheck/captures", config.Device.OutputDir)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", config.Device.FfmpegBinaryPath)
	assert.Equal(t, "/srv/camcheck/logs", config.Session.LogDir)
	assert.Equal(t, 640, config.Session.ExpectedWidth)
	assert.Equal(t, 480, config.Session.ExpectedHeight)
	assert.Equal(t, "/var/lib/node_exporter/camcheck.prom", config.Metrics.TextfilePath)

	// Values absent from the file still receive their defaults
	assert.Equal(t, 30, config.Session.FPS)
	assert.Equal(t, "v4l2-ctl", config.Device.V4L2CtlBinaryPath)
}

func TestLoadWithMissingFile(t *testing.T) {
	clearSelectionEnv(t)

	_, err := internal.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadExpandsHomeDirectory(t *testing.T) {
	clearSelectionEnv(t)
	t.Setenv("CAMCHECK_OUTPUT_DIR", "~/camcheck/captures")
	t.Setenv("CAMCHECK_LOG_DIR", "~/camcheck/logs")

	home, err := homedir.Dir()
	require.NoError(t, err)

	config, err := internal.Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "camcheck", "captures"), config.Device.OutputDir)
	assert.Equal(t, filepath.Join(home, "camcheck", "logs"), config.Session.LogDir)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		summary string
		env     map[string]string
	}{
		{"Brightness band inverted", map[string]string{"CAMCHECK_BRIGHTNESS_MIN": "150", "CAMCHECK_BRIGHTNESS_MAX": "100"}},
		{"Brightness out of range", map[string]string{"CAMCHECK_BRIGHTNESS_MAX": "300"}},
		{"Negative frame rate", map[string]string{"CAMCHECK_FPS": "-1"}},
		{"Negative tolerance", map[string]string{"CAMCHECK_FPS_TOLERANCE": "-0.5"}},
		{"Unparseable duration", map[string]string{"CAMCHECK_DURATION": "five seconds"}},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			clearSelectionEnv(t)
			for k, v := range test.env {
				t.Setenv(k, v)
			}

			_, err := internal.Load("")
			assert.Error(t, err)
		})
	}
}
