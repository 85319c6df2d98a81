package session

import (
	"context"
	"image"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/hbomb79/camcheck/internal/probe"
	"github.com/hbomb79/camcheck/pkg/logger"

	_ "golang.org/x/image/webp"
)

const (
	passPrefix = "PASS: "
	failPrefix = "FAIL: "
)

// Names of the checks, as they appear in the audit log
const (
	ImageExistsCheck     = "Image exists"
	ImageValidCheck      = "Image is a valid JPEG file"
	ImageResolutionCheck = "Image resolution is correct"
	ImageBrightnessCheck = "Image brightness is acceptable"

	VideoExistsCheck = "Video file exists"
	VideoValidCheck  = "Video is a valid file"
	VideoFPSCheck    = "Video FPS is correct"
	VideoAudioCheck  = "Audio track detected in video"
)

// ImageExists reports whether the captured image exists and is not empty.
func ImageExists(s Session) bool {
	return fileHasContent(s.ImagePath)
}

// ImageValid reports whether the captured image decodes as a raster image.
func ImageValid(s Session) bool {
	_, err := imaging.Open(s.ImagePath)
	return err == nil
}

// ImageResolution reports whether the captured image matches the expected
// size, according to the session's resolution policy.
func ImageResolution(s Session) bool {
	img, err := imaging.Open(s.ImagePath)
	if err != nil {
		s.Log("Skipping resolution test: Image cannot be loaded.")
		return false
	}

	bounds := img.Bounds()
	if s.Config.ResolutionExact {
		return bounds.Dx() == s.Config.ExpectedWidth && bounds.Dy() == s.Config.ExpectedHeight
	}

	return bounds.Dx() >= s.Config.ExpectedWidth && bounds.Dy() >= s.Config.ExpectedHeight
}

// ImageBrightness reports whether the mean grayscale value of the captured image
// falls within the session's inclusive brightness band.
func ImageBrightness(s Session) bool {
	img, err := imaging.Open(s.ImagePath)
	if err != nil {
		s.Log("Skipping brightness test: Image cannot be loaded.")
		return false
	}

	brightness := MeanBrightness(img)
	log.Emit(logger.DEBUG, "Mean brightness of %s is %.2f\n", s.ImagePath, brightness)
	return brightness >= s.Config.BrightnessMin && brightness <= s.Config.BrightnessMax
}

// MeanBrightness returns the average luma (0-255) of the image provided.
func MeanBrightness(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var sum uint64
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			sum += uint64(row[x])
		}
	}

	return float64(sum) / float64(w*h)
}

// VideoExists reports whether the recorded video exists.
func VideoExists(s Session) bool {
	_, err := os.Stat(s.VideoPath)
	return err == nil
}

// VideoValid reports whether ffprobe finds a video stream with
// usable dimensions in the recording.
func VideoValid(ctx context.Context, s Session, prober Prober) bool {
	dims, err := prober.VideoDimensions(ctx, s.VideoPath)
	if err != nil {
		log.Emit(logger.DEBUG, "Video validity probe of %s failed: %v\n", s.VideoPath, err)
		return false
	}

	return dims.Width > 0 && dims.Height > 0
}

// VideoFPS reports whether the frame rate of the recording is within the
// session's tolerance of the target frame rate. Any failure to obtain or
// parse the rate fails the check.
func VideoFPS(ctx context.Context, s Session, prober Prober) bool {
	raw, err := prober.FrameRate(ctx, s.VideoPath)
	if err != nil {
		log.Emit(logger.DEBUG, "Frame rate probe of %s failed: %v\n", s.VideoPath, err)
		return false
	}

	fps, err := probe.ParseFrameRate(raw)
	if err != nil {
		log.Emit(logger.DEBUG, "Frame rate of %s could not be parsed: %v\n", s.VideoPath, err)
		return false
	}

	return math.Abs(fps-float64(s.Config.FPS)) <= s.Config.FPSTolerance
}

// VideoAudio reports whether the recording contains an audio stream.
func VideoAudio(ctx context.Context, s Session, prober Prober) bool {
	codec, err := prober.AudioCodec(ctx, s.VideoPath)
	if err != nil {
		log.Emit(logger.DEBUG, "Audio probe of %s failed: %v\n", s.VideoPath, err)
		return false
	}

	return codec != ""
}

func fileHasContent(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}
