package images

import (
	"image"
	"image/color"
	"math"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// PadMultiple is the alignment applied to padded image dimensions.
const PadMultiple = 64

// Padding is the resize context produced by ResizeWithPad. It records the
// pre-pad target dimensions so that a map computed on the padded image can be
// cropped back.
type Padding struct {
	// Height is the resized height before padding.
	Height int `json:"height" yaml:"height"`
	// Width is the resized width before padding.
	Width int `json:"width" yaml:"width"`
	// Bottom is the number of replicated rows appended below the image.
	Bottom int `json:"bottom" yaml:"bottom"`
	// Right is the number of replicated columns appended to the right.
	Right int `json:"right" yaml:"right"`
}

// Remove crops m back to the pre-pad dimensions, anchored at the top-left
// corner, and returns a contiguous copy.
//
// m is expected to share its leading two dimensions with the padded image this
// Padding was created for; any channel count is accepted.
//
// Arguments:
//   - m: The padded image (or a map derived from it).
//
// Returns:
//   - gocv.Mat: The cropped copy.
//   - error: An error if m is smaller than the pre-pad dimensions.
func (p Padding) Remove(m gocv.Mat) (gocv.Mat, error) {
	if m.Rows() < p.Height || m.Cols() < p.Width {
		return gocv.NewMat(), errors.Errorf(
			"cannot remove padding: mat is %dx%d, target is %dx%d",
			m.Cols(), m.Rows(), p.Width, p.Height,
		)
	}
	region := m.Region(image.Rect(0, 0, p.Width, p.Height))
	defer region.Close()
	return Contiguous(region), nil
}

// Pad64 returns the number of pixels needed to grow x to the next multiple of
// 64 at or above x.
func Pad64(x int) int {
	return int(math.Ceil(float64(x)/float64(PadMultiple)))*PadMultiple - x
}

// ResizeWithPad rescales an image so that its shorter side equals resolution and
// pads the bottom and right edges, by replicating the border, up to the next
// multiple of 64.
//
// Enlarging uses bicubic interpolation and shrinking uses area averaging, which
// avoids aliasing when downscaling.
//
// Arguments:
//   - m: The source image.
//   - resolution: The target length of the shorter side. Must be positive.
//   - skipHWC3: When true, m is assumed to already have 3 channels and is not
//     normalized first.
//
// Returns:
//   - gocv.Mat: The padded image.
//   - Padding: The context used to crop derived maps back to the resized size.
//   - error: An error if m is invalid or resolution is not positive.
//
// Example:
//
// ```go
//
//	padded, padding, err := images.ResizeWithPad(img, 512, false)
//	if err != nil {
//	    return err
//	}
//	defer padded.Close()
//	// ... compute a map on padded ...
//	out, err := padding.Remove(edges)
//
// ```
func ResizeWithPad(m gocv.Mat, resolution int, skipHWC3 bool) (gocv.Mat, Padding, error) {
	if resolution <= 0 {
		return gocv.NewMat(), Padding{}, errors.Errorf("resolution must be positive, got %d", resolution)
	}
	if err := Validate(m); err != nil {
		return gocv.NewMat(), Padding{}, err
	}

	img := m
	if !skipHWC3 {
		normalized, err := HWC3(m)
		if err != nil {
			return gocv.NewMat(), Padding{}, err
		}
		defer normalized.Close()
		img = normalized
	}

	rawH, rawW := img.Rows(), img.Cols()
	k := float64(resolution) / float64(min(rawH, rawW))

	interpolation := gocv.InterpolationArea
	if k > 1 {
		interpolation = gocv.InterpolationCubic
	}

	// numpy rounds half to even.
	targetH := int(math.RoundToEven(float64(rawH) * k))
	targetW := int(math.RoundToEven(float64(rawW) * k))

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(targetW, targetH), 0, 0, interpolation)

	padding := Padding{
		Height: targetH,
		Width:  targetW,
		Bottom: Pad64(targetH),
		Right:  Pad64(targetW),
	}

	padded := gocv.NewMat()
	gocv.CopyMakeBorder(resized, &padded, 0, padding.Bottom, 0, padding.Right,
		gocv.BorderReplicate, color.RGBA{})

	return padded, padding, nil
}
