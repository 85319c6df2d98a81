package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/hbomb79/camcheck/pkg/logger"
	"golang.org/x/term"
)

const selectionPrompt = "Select a camera (enter number) or type 'all' to test all: "

var (
	ErrNoCameras        = &SelectionError{ExitCode: 1, Message: "No cameras detected."}
	ErrInvalidSelection = &SelectionError{ExitCode: 1, Message: "Invalid selection."}
	ErrInvalidInput     = &SelectionError{ExitCode: 1, Message: "Invalid input."}
)

// SelectionError is returned when no device could be chosen to test. The
// message is intended for the user, and the exit code for the process.
type SelectionError struct {
	ExitCode int
	Message  string
}

func (e *SelectionError) Error() string {
	return e.Message
}

// SelectDevices lists the detected devices to out before choosing which of
// them to test. An explicit CAMERA_DEVICE takes precedence, followed by the
// first device when headless. Otherwise, the user is prompted via in.
func SelectDevices(config *CamcheckConfig, detected []string, in io.Reader, out io.Writer) ([]string, error) {
	if len(detected) == 0 {
		fmt.Fprintln(out, ErrNoCameras.Message)
		return nil, ErrNoCameras
	}

	fmt.Fprintln(out, "Available Cameras:")
	for i, dev := range detected {
		fmt.Fprintf(out, "%d. %s\n", i+1, dev)
	}

	if config.CameraDevice != "" {
		fmt.Fprintf(out, "Using camera from environment variable: %s\n", config.CameraDevice)
		warnIfUndetected(config.CameraDevice, detected)
		return []string{config.CameraDevice}, nil
	}

	if config.Headless() {
		fmt.Fprintf(out, "Running in Docker: Auto-selected %s\n", detected[0])
		return []string{detected[0]}, nil
	}

	return promptForSelection(detected, in, out)
}

func promptForSelection(detected []string, in io.Reader, out io.Writer) ([]string, error) {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		log.Emit(logger.INFO, "Reading camera selection from non-interactive %s; set CAMERA_DEVICE or RUNNING_IN_DOCKER for unattended runs\n", f.Name())
	}

	fmt.Fprint(out, selectionPrompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read camera selection: %w", err)
	}

	choice := strings.TrimSpace(line)
	if strings.EqualFold(choice, "all") {
		return detected, nil
	}

	index, err := strconv.Atoi(choice)
	if err != nil {
		fmt.Fprintln(out, ErrInvalidInput.Message)
		return nil, ErrInvalidInput
	}
	if index < 1 || index > len(detected) {
		fmt.Fprintln(out, ErrInvalidSelection.Message)
		return nil, ErrInvalidSelection
	}

	return []string{detected[index-1]}, nil
}

// warnIfUndetected logs a warning if the device override does not match any of the
// detected devices, suggesting the most similar one in case of a typo.
func warnIfUndetected(override string, detected []string) {
	metric := metrics.NewLevenshtein()
	closest, closestSimilarity := "", -1.0
	for _, dev := range detected {
		if dev == override {
			return
		}

		if similarity := strutil.Similarity(override, dev, metric); similarity > closestSimilarity {
			closest, closestSimilarity = dev, similarity
		}
	}

	log.Emit(logger.WARNING, "Camera %s was not detected (did you mean %s?); attempting to use it anyway\n", override, closest)
}
