package annotator

import (
	"context"

	"gocv.io/x/gocv"
)

// DefaultResolution is the shorter side length annotators resize to when no
// resolution is given.
const DefaultResolution = 512

// Annotator turns an image into a conditioning map.
type Annotator interface {
	// Name returns the annotator identifier.
	Name() Name
	// Process computes the map for img, an 8-bit RGB(A) Mat that is not
	// modified. The returned Mat is owned by the caller. The boolean reports
	// whether the map is a detection rather than the input itself.
	Process(ctx context.Context, img gocv.Mat, opts Options) (gocv.Mat, bool, error)
	// Close releases any resources held by the annotator.
	Close() error
}

// Options are the per-call parameters. Nil or zero fields select each
// annotator's default.
type Options struct {
	// Resolution is the target length of the shorter side.
	Resolution int `json:"resolution" yaml:"resolution"`
	// ThresholdA is the first annotator specific threshold.
	ThresholdA *float64 `json:"threshold_a" yaml:"threshold_a"`
	// ThresholdB is the second annotator specific threshold.
	ThresholdB *float64 `json:"threshold_b" yaml:"threshold_b"`
	// Seed fixes the random source of stochastic annotators.
	Seed *int64 `json:"seed" yaml:"seed"`
}

// ResolutionOr returns the resolution, or def when unset.
func (o Options) ResolutionOr(def int) int {
	if o.Resolution > 0 {
		return o.Resolution
	}
	return def
}

// ThresholdAOr returns ThresholdA, or def when unset.
func (o Options) ThresholdAOr(def float64) float64 {
	if o.ThresholdA != nil {
		return *o.ThresholdA
	}
	return def
}

// ThresholdBOr returns ThresholdB, or def when unset.
func (o Options) ThresholdBOr(def float64) float64 {
	if o.ThresholdB != nil {
		return *o.ThresholdB
	}
	return def
}

// Float returns a pointer to v, for filling Options.
func Float(v float64) *float64 {
	return &v
}

// Int64 returns a pointer to v, for filling Options.
func Int64(v int64) *int64 {
	return &v
}
