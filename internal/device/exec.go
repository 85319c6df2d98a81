package device

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/hbomb79/camcheck/pkg/logger"
)

type commandOutput struct {
	stdout string
	stderr string
	err    error
}

func (o commandOutput) failed() bool { return o.err != nil }

// failureText returns the most useful description of a failed command: the
// captured stderr if there is any, else the error returned by exec.
func (o commandOutput) failureText() string {
	if s := strings.TrimSpace(o.stderr); s != "" {
		return o.stderr
	}
	if o.err != nil {
		return o.err.Error()
	}

	return ""
}

// run executes the binary with the arguments provided, bounded by the timeout
// given. The command's stdout and stderr are captured in full. A command that is
// killed because the timeout elapsed reports context.DeadlineExceeded as its error.
func run(ctx context.Context, timeout time.Duration, binary string, args ...string) commandOutput {
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(cmdCtx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Emit(logger.DEBUG, "Executing %s %s\n", binary, strings.Join(args, " "))
	err := cmd.Run()
	if err != nil && cmdCtx.Err() != nil {
		err = errors.Join(err, cmdCtx.Err())
	}

	return commandOutput{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// summariseFfmpegError picks out the relevant information from the HUGE
// output ffmpeg writes to stderr. The banner describing how the binary was
// compiled is useless to us; the actual failure is almost always the last
// non-empty line.
func summariseFfmpegError(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}

	return ""
}
