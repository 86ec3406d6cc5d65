package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// HWC3 normalizes an image to three 8-bit channels.
//
// Grayscale input is replicated into three channels, three channel input is
// copied unchanged, and four channel input is alpha-composited over an opaque
// white background:
//
//	out = color*alpha + 255*(1-alpha), alpha = A/255
//
// Arguments:
//   - m: The image to normalize. Must be CV_8U with 1, 3 or 4 channels.
//
// Returns:
//   - gocv.Mat: A new 3 channel image owned by the caller.
//   - error: An error wrapping ErrInvalidImage if m violates the preconditions.
func HWC3(m gocv.Mat) (gocv.Mat, error) {
	if err := Validate(m); err != nil {
		return gocv.NewMat(), err
	}

	switch m.Channels() {
	case 3:
		return m.Clone(), nil
	case 1:
		dst := gocv.NewMat()
		gocv.CvtColor(m, &dst, gocv.ColorGrayToBGR)
		return dst, nil
	default:
		return compositeOverWhite(m)
	}
}

// compositeOverWhite flattens a 4 channel image onto white.
func compositeOverWhite(m gocv.Mat) (gocv.Mat, error) {
	src, release, err := pixels(m)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer release()

	dst := gocv.NewMatWithSize(m.Rows(), m.Cols(), gocv.MatTypeCV8UC3)
	out, err := dst.DataPtrUint8()
	if err != nil {
		dst.Close()
		return gocv.NewMat(), errors.Wrap(err, "failed to access output pixels")
	}

	n := m.Rows() * m.Cols()
	for i := 0; i < n; i++ {
		p := src[i*4 : i*4+4 : i*4+4]
		alpha := float32(p[3]) / 255.0
		for c := 0; c < 3; c++ {
			v := float32(p[c])*alpha + 255.0*(1.0-alpha)
			out[i*3+c] = clampUint8(v)
		}
	}
	return dst, nil
}

// clampUint8 clips v to [0, 255] and truncates it toward zero.
func clampUint8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
