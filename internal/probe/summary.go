package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/floostack/transcoder/ffmpeg"
)

// Summary is a brief description of a media container, used for
// informational logging once a recording completes.
type Summary struct {
	Duration    string
	StreamCount int
	VideoWidth  int
	VideoHeight int
}

func (s *Summary) String() string {
	return fmt.Sprintf("duration=%ss streams=%d video=%dx%d", s.Duration, s.StreamCount, s.VideoWidth, s.VideoHeight)
}

// Summarise reads the full container metadata for the file at path. The
// ffprobe invocation matches the one the transcoder performs, but is bound
// to ctx and the configured command timeout.
func (p *Prober) Summarise(ctx context.Context, path string) (*Summary, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, p.config.CommandTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, p.config.FfprobeBinaryPath,
		"-i", path,
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-show_error",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if cmdCtx.Err() != nil {
			err = cmdCtx.Err()
		}
		return nil, fmt.Errorf("failed to extract file metadata information using ffprobe: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	var metadata ffmpeg.Metadata
	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return nil, fmt.Errorf("failed to decode ffprobe metadata for %s: %w", path, err)
	}

	streams := metadata.GetStreams()
	summary := &Summary{
		Duration:    metadata.GetFormat().GetDuration(),
		StreamCount: len(streams),
	}
	for _, stream := range streams {
		if stream.GetCodecType() == "video" {
			summary.VideoWidth = stream.GetWidth()
			summary.VideoHeight = stream.GetHeight()
			break
		}
	}

	return summary, nil
}
