package session

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hbomb79/camcheck/internal/event"
	"github.com/hbomb79/camcheck/pkg/logger"
)

var log = logger.Get("Session")

const (
	TimestampFormat = "20060102_150405"
	LogTimeFormat   = "2006-01-02 15:04:05"
)

// Session describes one capture-and-validate run against a single device. It is
// created once, before anything is captured, and never modified afterwards; the
// capture phases and every check receive it by value.
type Session struct {
	RunID     uuid.UUID
	Device    string
	Timestamp string

	ImagePath string
	VideoPath string
	LogPath   string

	// Console receives a copy of every audit log entry, regardless of the
	// logging threshold. Defaults to stdout.
	Console io.Writer

	Config Config
}

// New constructs the session for the device provided, deriving the artifact and
// log paths from the time given. The output and log directories are created, as
// is the audit log (containing only its header line).
func New(config Config, outputDir string, device string, runID uuid.UUID, now time.Time) (Session, error) {
	ts := now.Format(TimestampFormat)
	s := Session{
		RunID:     runID,
		Device:    device,
		Timestamp: ts,
		ImagePath: filepath.Join(outputDir, fmt.Sprintf("image_%s.jpg", ts)),
		VideoPath: filepath.Join(outputDir, fmt.Sprintf("video_%s.mp4", ts)),
		LogPath:   filepath.Join(config.LogDir, fmt.Sprintf("%s_log.txt", ts)),
		Config:    config,
	}

	for _, dir := range []string{outputDir, config.LogDir} {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return Session{}, fmt.Errorf("failed to create session directory %s: %w", dir, err)
		}
	}

	header := fmt.Sprintf("Audit Log - Test Session %s - Camera: %s - Run: %s\n", ts, device, runID)
	if err := s.appendLine(header); err != nil {
		return Session{}, fmt.Errorf("failed to create audit log: %w", err)
	}

	return s, nil
}

// WithConsole returns a copy of the session whose audit log entries are
// echoed to w instead of stdout.
func (s Session) WithConsole(w io.Writer) Session {
	s.Console = w
	return s
}

func (s Session) ImageFilename() string { return filepath.Base(s.ImagePath) }
func (s Session) VideoFilename() string { return filepath.Base(s.VideoPath) }

func (s Session) Info() event.SessionInfo {
	return event.SessionInfo{RunID: s.RunID, Device: s.Device, Timestamp: s.Timestamp}
}

// Log appends a timestamped entry to the session's audit log, and echoes
// it to the console. Failing to write the audit log is reported but does
// not interrupt the session.
func (s Session) Log(message string) {
	if err := s.appendLine(fmt.Sprintf("%s - %s\n", time.Now().Format(LogTimeFormat), message)); err != nil {
		log.Emit(logger.ERROR, "Failed to write to audit log %s: %v\n", s.LogPath, err)
	}

	console := s.Console
	if console == nil {
		console = os.Stdout
	}

	switch {
	case strings.HasPrefix(message, passPrefix):
		logger.SUCCESS.Color().Fprintln(console, message)
	case strings.HasPrefix(message, failPrefix):
		logger.ERROR.Color().Fprintln(console, message)
	default:
		fmt.Fprintln(console, message)
	}
}

// appendLine writes to the audit log without ever truncating it.
func (s Session) appendLine(line string) error {
	f, err := os.OpenFile(s.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

func (s Session) String() string {
	return fmt.Sprintf("Session{device=%s ts=%s run=%s}", s.Device, s.Timestamp, s.RunID)
}
