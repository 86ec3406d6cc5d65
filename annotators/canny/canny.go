// Package canny - Edge maps from the Canny detector.
package canny

import (
	"context"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultLowThreshold is the default hysteresis low threshold.
	DefaultLowThreshold = 100.0
	// DefaultHighThreshold is the default hysteresis high threshold.
	DefaultHighThreshold = 200.0
)

// Annotator is the Canny annotator.
type Annotator struct{}

// New returns the Canny annotator.
func New() *Annotator {
	return &Annotator{}
}

// Name returns annotator.Canny.
func (a *Annotator) Name() annotator.Name {
	return annotator.Canny
}

// Process runs the detector with opts.ThresholdA as the low and
// opts.ThresholdB as the high hysteresis threshold.
func (a *Annotator) Process(ctx context.Context, img gocv.Mat, opts annotator.Options) (gocv.Mat, bool, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), false, err
	}
	out, err := Apply(img,
		opts.ResolutionOr(annotator.DefaultResolution),
		opts.ThresholdAOr(DefaultLowThreshold),
		opts.ThresholdBOr(DefaultHighThreshold),
	)
	if err != nil {
		return gocv.NewMat(), false, err
	}
	return out, true, nil
}

// Close is a no-op.
func (a *Annotator) Close() error {
	return nil
}

// Apply returns a 3 channel edge map of img resized to resolution.
//
// Arguments:
//   - img: The source image.
//   - resolution: The target length of the shorter side.
//   - low: The hysteresis low threshold.
//   - high: The hysteresis high threshold.
//
// Returns:
//   - gocv.Mat: The edge map, 255 on edges and 0 elsewhere.
//   - error: An error if the inputs are invalid.
func Apply(img gocv.Mat, resolution int, low, high float64) (gocv.Mat, error) {
	if low < 0 || high < 0 {
		return gocv.NewMat(), errors.Errorf("canny thresholds must not be negative (low=%v, high=%v)", low, high)
	}
	padded, padding, err := images.ResizeWithPad(img, resolution, false)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer padded.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(padded, &edges, float32(low), float32(high))

	rgb, err := images.HWC3(edges)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()

	return padding.Remove(rgb)
}
