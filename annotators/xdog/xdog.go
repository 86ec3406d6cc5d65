// Package xdog - Scribble maps from an extended difference of Gaussians.
package xdog

import (
	"context"
	"image"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultThreshold is the default difference above which a pixel becomes a
	// stroke.
	DefaultThreshold = 32.0
	// NarrowSigma is the standard deviation of the fine blur.
	NarrowSigma = 0.5
	// WideSigma is the standard deviation of the coarse blur.
	WideSigma = 5.0
)

// Annotator is the ScribbleXDOG annotator. It holds no state.
type Annotator struct{}

// New returns the scribble annotator.
func New() *Annotator {
	return &Annotator{}
}

// Name returns annotator.ScribbleXDOG.
func (a *Annotator) Name() annotator.Name {
	return annotator.ScribbleXDOG
}

// Process applies the filter with opts.Resolution and opts.ThresholdA; other
// options are ignored. The boolean result is always true on success.
func (a *Annotator) Process(ctx context.Context, img gocv.Mat, opts annotator.Options) (gocv.Mat, bool, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), false, err
	}
	out, err := Apply(img, opts.ResolutionOr(annotator.DefaultResolution), opts.ThresholdAOr(DefaultThreshold))
	if err != nil {
		return gocv.NewMat(), false, err
	}
	return out, true, nil
}

// Close is a no-op.
func (a *Annotator) Close() error {
	return nil
}

// Apply produces a black and white scribble map of img at the given
// resolution. A pixel is white when twice the darkening between the narrow and
// wide blur exceeds threshold.
//
// Arguments:
//   - img: The source image.
//   - resolution: The target length of the shorter side.
//   - threshold: The stroke threshold.
//
// Returns:
//   - gocv.Mat: A 3 channel map with the resized, unpadded dimensions.
//   - error: An error if img or resolution is invalid.
func Apply(img gocv.Mat, resolution int, threshold float64) (gocv.Mat, error) {
	padded, padding, err := images.ResizeWithPad(img, resolution, false)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer padded.Close()

	src := gocv.NewMat()
	defer src.Close()
	padded.ConvertTo(&src, gocv.MatTypeCV32FC3)

	narrow := gocv.NewMat()
	defer narrow.Close()
	gocv.GaussianBlur(src, &narrow, image.Pt(0, 0), NarrowSigma, 0, gocv.BorderDefault)

	wide := gocv.NewMat()
	defer wide.Close()
	gocv.GaussianBlur(src, &wide, image.Pt(0, 0), WideSigma, 0, gocv.BorderDefault)

	scribble, err := strokes(narrow, wide, threshold)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer scribble.Close()

	return padding.Remove(scribble)
}

// strokes thresholds the per-pixel difference of two blurred 3 channel float
// images.
func strokes(narrow, wide gocv.Mat, threshold float64) (gocv.Mat, error) {
	g1, err := narrow.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to access narrow blur")
	}
	g2, err := wide.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to access wide blur")
	}

	dst := gocv.Zeros(narrow.Rows(), narrow.Cols(), gocv.MatTypeCV8UC3)
	out, err := dst.DataPtrUint8()
	if err != nil {
		dst.Close()
		return gocv.NewMat(), errors.Wrap(err, "failed to access output pixels")
	}

	n := narrow.Rows() * narrow.Cols()
	for i := 0; i < n; i++ {
		d := g2[i*3] - g1[i*3]
		for c := 1; c < 3; c++ {
			d = min(d, g2[i*3+c]-g1[i*3+c])
		}
		dog := dogValue(d)
		if 2*(255-float64(dog)) > threshold {
			out[i*3], out[i*3+1], out[i*3+2] = 255, 255, 255
		}
	}
	return dst, nil
}

// dogValue maps the minimum channel difference to the 8-bit inverted response
// 255 - d, clipped and truncated.
func dogValue(d float32) uint8 {
	v := 255 - d
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
