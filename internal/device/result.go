package device

import "fmt"

// CaptureResult is the outcome of a capture operation. A result is either
// a success carrying the path of the produced artifact, or a failure carrying
// a diagnostic describing what the external tool reported.
type CaptureResult struct {
	ok         bool
	path       string
	diagnostic string
}

// Captured constructs a successful CaptureResult for the artifact at path.
func Captured(path string) CaptureResult {
	return CaptureResult{ok: true, path: path}
}

// CaptureFailed constructs a failed CaptureResult.
func CaptureFailed(diagnostic string) CaptureResult {
	return CaptureResult{ok: false, diagnostic: diagnostic}
}

func (r CaptureResult) Ok() bool { return r.ok }

// Path returns the artifact path, or an empty string for failed results.
func (r CaptureResult) Path() string { return r.path }

// Diagnostic returns the failure diagnostic, or an empty string for
// successful results.
func (r CaptureResult) Diagnostic() string { return r.diagnostic }

func (r CaptureResult) String() string {
	if r.ok {
		return fmt.Sprintf("CaptureResult{OK path=%s}", r.path)
	}

	return fmt.Sprintf("CaptureResult{FAILED %s}", summariseFfmpegError(r.diagnostic))
}
