package internal_test

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hbomb79/camcheck/internal"
	"github.com/hbomb79/camcheck/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetMinLoggingLevel(logger.VERBOSE.Level())
}

var detected = []string{"/dev/video0", "/dev/video2"}

const listingOutput = "Available Cameras:\n1. /dev/video0\n2. /dev/video2\n"

func TestSelectWithNoCameras(t *testing.T) {
	out := &bytes.Buffer{}
	devices, err := internal.SelectDevices(&internal.CamcheckConfig{}, nil, strings.NewReader("1\n"), out)

	assert.Nil(t, devices)
	require.ErrorIs(t, err, internal.ErrNoCameras)

	var selectionErr *internal.SelectionError
	require.ErrorAs(t, err, &selectionErr)
	assert.Equal(t, 1, selectionErr.ExitCode)
	assert.Equal(t, "No cameras detected.\n", out.String())
}

func TestSelectUsesDeviceOverride(t *testing.T) {
	tests := []struct {
		summary  string
		override string
	}{
		{"Detected device", "/dev/video2"},
		{"Undetected device is still used", "/dev/video7"},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			out := &bytes.Buffer{}
			config := &internal.CamcheckConfig{CameraDevice: test.override, RunningInDocker: "1"}

			devices, err := internal.SelectDevices(config, detected, strings.NewReader(""), out)
			require.NoError(t, err)
			assert.Equal(t, []string{test.override}, devices)
			assert.Equal(t, listingOutput+"Using camera from environment variable: "+test.override+"\n", out.String())
		})
	}
}

func TestSelectHeadlessPicksFirstDevice(t *testing.T) {
	out := &bytes.Buffer{}
	config := &internal.CamcheckConfig{RunningInDocker: "true"}

	devices, err := internal.SelectDevices(config, detected, strings.NewReader("2\n"), out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/video0"}, devices)
	assert.Equal(t, listingOutput+"Running in Docker: Auto-selected /dev/video0\n", out.String())
}

func TestSelectFromPrompt(t *testing.T) {
	tests := []struct {
		summary  string
		input    string
		expected []string
	}{
		{"First device", "1\n", []string{"/dev/video0"}},
		{"Second device", "2\n", []string{"/dev/video2"}},
		{"Surrounding whitespace", "  2  \n", []string{"/dev/video2"}},
		{"No trailing newline", "1", []string{"/dev/video0"}},
		{"All devices", "all\n", detected},
		{"All devices (mixed case)", "ALL\n", detected},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			out := &bytes.Buffer{}
			devices, err := internal.SelectDevices(&internal.CamcheckConfig{}, detected, strings.NewReader(test.input), out)

			require.NoError(t, err)
			assert.Equal(t, test.expected, devices)
			assert.Equal(t, listingOutput+"Select a camera (enter number) or type 'all' to test all: ", out.String())
		})
	}
}

func TestSelectFromPromptRejectsBadInput(t *testing.T) {
	tests := []struct {
		summary  string
		input    string
		expected *internal.SelectionError
	}{
		{"Zero", "0\n", internal.ErrInvalidSelection},
		{"Out of range", "3\n", internal.ErrInvalidSelection},
		{"Negative", "-1\n", internal.ErrInvalidSelection},
		{"Not a number", "webcam\n", internal.ErrInvalidInput},
		{"Decimal", "1.5\n", internal.ErrInvalidInput},
		{"Empty line", "\n", internal.ErrInvalidInput},
		{"End of input", "", internal.ErrInvalidInput},
	}

	for _, test := range tests {
		t.Run(test.summary, func(t *testing.T) {
			out := &bytes.Buffer{}
			devices, err := internal.SelectDevices(&internal.CamcheckConfig{}, detected, strings.NewReader(test.input), out)

			assert.Nil(t, devices)
			require.ErrorIs(t, err, test.expected)
			assert.Equal(t, 1, test.expected.ExitCode)
			assert.True(t, strings.HasSuffix(out.String(), test.expected.Message+"\n"))
		})
	}
}

func TestSelectFromNonInteractiveInputIsReported(t *testing.T) {
	input, err := os.CreateTemp(t.TempDir(), "selection")
	require.NoError(t, err)
	defer input.Close()

	_, err = input.WriteString("2\n")
	require.NoError(t, err)
	_, err = input.Seek(0, io.SeekStart)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger.SetOutput(logs)
	defer logger.SetOutput(nil)

	devices, err := internal.SelectDevices(&internal.CamcheckConfig{}, detected, input, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/dev/video2"}, devices)
	assert.Contains(t, logs.String(), "Reading camera selection from non-interactive "+input.Name())
}
