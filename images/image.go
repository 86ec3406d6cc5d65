// Package images - Pixel helpers shared by every annotator.
//
// Images are gocv.Mat values of depth CV_8U laid out height x width x channels,
// with colour channels in R, G, B(, A) order. Functions in this package never
// mutate their inputs; every returned Mat is owned by the caller and must be
// closed.
package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrInvalidImage is returned when an image violates a precondition (wrong
// depth, unsupported channel count, zero size).
var ErrInvalidImage = errors.New("invalid image")

// Shape describes the dimensions of an image.
type Shape struct {
	// Height is the number of rows.
	Height int `json:"height" yaml:"height"`
	// Width is the number of columns.
	Width int `json:"width" yaml:"width"`
	// Channels is the number of interleaved channels per pixel.
	Channels int `json:"channels" yaml:"channels"`
}

// ShapeOf returns the shape of a Mat.
func ShapeOf(m gocv.Mat) Shape {
	return Shape{Height: m.Rows(), Width: m.Cols(), Channels: m.Channels()}
}

// Validate checks that m is a non-empty 8-bit image with 1, 3 or 4 channels.
//
// Arguments:
//   - m: The image to validate.
//
// Returns:
//   - error: An error wrapping ErrInvalidImage if a precondition fails.
func Validate(m gocv.Mat) error {
	if m.Empty() || m.Rows() == 0 || m.Cols() == 0 {
		return errors.Wrap(ErrInvalidImage, "image is empty")
	}
	switch m.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return nil
	default:
		return errors.Wrapf(ErrInvalidImage,
			"unsupported mat type %v (want 8-bit with 1, 3 or 4 channels)", m.Type())
	}
}

// Contiguous returns a deep, continuous copy of m that shares no memory with it.
func Contiguous(m gocv.Mat) gocv.Mat {
	return m.Clone()
}

// pixels returns the raw bytes of an 8-bit Mat, cloning it first when the Mat
// is a non-continuous view. The returned release func must be called once the
// bytes are no longer needed.
func pixels(m gocv.Mat) ([]uint8, func(), error) {
	src := m
	release := func() {}
	if !m.IsContinuous() {
		src = m.Clone()
		release = func() { src.Close() }
	}
	data, err := src.DataPtrUint8()
	if err != nil {
		release()
		return nil, func() {}, errors.Wrap(err, "failed to access pixel data")
	}
	return data, release, nil
}
