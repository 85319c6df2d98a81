package device_test

import (
	"testing"

	"github.com/hbomb79/camcheck/internal/device"
	"github.com/stretchr/testify/assert"
)

func TestCaptureResultIsTagged(t *testing.T) {
	ok := device.Captured("captures/image.jpg")
	assert.True(t, ok.Ok())
	assert.Equal(t, "captures/image.jpg", ok.Path())
	assert.Empty(t, ok.Diagnostic())
	assert.Equal(t, "CaptureResult{OK path=captures/image.jpg}", ok.String())

	failed := device.CaptureFailed("banner line\n\nInput/output error\n")
	assert.False(t, failed.Ok())
	assert.Empty(t, failed.Path())
	assert.Equal(t, "banner line\n\nInput/output error\n", failed.Diagnostic())
	assert.Equal(t, "CaptureResult{FAILED Input/output error}", failed.String())
}
