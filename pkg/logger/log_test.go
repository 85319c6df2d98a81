package logger_test

import (
	"bytes"
	"testing"

	"github.com/hbomb79/camcheck/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestEmitRespectsMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(nil)
	defer logger.SetMinLoggingLevel(logger.INFO.Level())

	log := logger.Get("Test")
	logger.SetMinLoggingLevel(logger.WARNING.Level())

	log.Emit(logger.INFO, "hidden\n")
	assert.Empty(t, buf.String())

	log.Emit(logger.ERROR, "shown %d\n", 42)
	assert.Contains(t, buf.String(), "[Test]")
	assert.Contains(t, buf.String(), "(!!) shown 42")
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in       string
		expected logger.LogStatus
		ok       bool
	}{
		{"debug", logger.DEBUG, true},
		{" WARN ", logger.WARNING, true},
		{"Error", logger.ERROR, true},
		{"nonsense", logger.INFO, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			status, ok := logger.ParseStatus(tt.in)
			assert.Equal(t, tt.expected, status)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
