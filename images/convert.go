package images

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FromImage converts a Go image into an RGB(A) ordered Mat.
//
// Grayscale images become 1 channel Mats, fully opaque images become 3 channel
// Mats, and images carrying transparency keep their alpha as a 4th channel.
//
// Arguments:
//   - img: The image to convert.
//
// Returns:
//   - gocv.Mat: The converted image.
//   - error: An error if the image is empty.
func FromImage(img image.Image) (gocv.Mat, error) {
	b := img.Bounds()
	if b.Empty() {
		return gocv.NewMat(), errors.Wrap(ErrInvalidImage, "image is empty")
	}

	if gray, ok := img.(*image.Gray); ok {
		pix := make([]byte, 0, b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := gray.PixOffset(b.Min.X, y)
			pix = append(pix, gray.Pix[off:off+b.Dx()]...)
		}
		return matFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
	}

	// imaging.Clone always returns a tightly packed NRGBA anchored at (0, 0).
	nrgba := imaging.Clone(img)
	if !nrgba.Opaque() {
		return matFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC4, nrgba.Pix)
	}

	n := b.Dx() * b.Dy()
	rgb := make([]byte, n*3)
	for i := 0; i < n; i++ {
		copy(rgb[i*3:i*3+3], nrgba.Pix[i*4:i*4+3])
	}
	return matFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC3, rgb)
}

// ToImage converts an RGB(A) ordered 8-bit Mat into a Go image.
//
// Arguments:
//   - m: The Mat to convert. Must be CV_8U with 1, 3 or 4 channels.
//
// Returns:
//   - *image.NRGBA: The converted image.
//   - error: An error wrapping ErrInvalidImage if m is not a supported image.
func ToImage(m gocv.Mat) (*image.NRGBA, error) {
	if err := Validate(m); err != nil {
		return nil, err
	}
	src, release, err := pixels(m)
	if err != nil {
		return nil, err
	}
	defer release()

	w, h, c := m.Cols(), m.Rows(), m.Channels()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		p := dst.Pix[i*4 : i*4+4 : i*4+4]
		switch c {
		case 1:
			p[0], p[1], p[2], p[3] = src[i], src[i], src[i], 255
		case 3:
			p[0], p[1], p[2], p[3] = src[i*3], src[i*3+1], src[i*3+2], 255
		default:
			copy(p, src[i*4:i*4+4])
		}
	}
	return dst, nil
}

// matFromBytes builds a Mat that owns a copy of data. gocv.NewMatFromBytes
// wraps the Go slice without copying, so the wrapper is cloned and released.
func matFromBytes(rows, cols int, mt gocv.MatType, data []byte) (gocv.Mat, error) {
	view, err := gocv.NewMatFromBytes(rows, cols, mt, data)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to create mat from bytes")
	}
	defer view.Close()
	return view.Clone(), nil
}
