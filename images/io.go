package images

import (
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	// Extra decoders for image.Decode, used by imaging.Open.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load reads an image file into an RGB(A) ordered Mat, applying any EXIF
// orientation.
//
// Arguments:
//   - path: The path of the image file (jpeg, png, gif, bmp, tiff or webp).
//
// Returns:
//   - gocv.Mat: The decoded image with 1, 3 or 4 channels.
//   - error: An error if the file cannot be read or decoded.
func Load(path string) (gocv.Mat, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "failed to open image %s", path)
	}
	m, err := FromImage(img)
	if err != nil {
		return gocv.NewMat(), errors.Wrapf(err, "failed to convert image %s", path)
	}
	return m, nil
}

// Save writes an RGB(A) ordered Mat to path. The format is chosen from the
// file extension.
func Save(m gocv.Mat, path string) error {
	img, err := ToImage(m)
	if err != nil {
		return err
	}
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "failed to save image %s", path)
	}
	return nil
}
