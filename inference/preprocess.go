package inference

import (
	"image"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Normalization is the per-channel affine transform applied to x/255 before
// inference: (x/255 - Mean) / Std.
type Normalization struct {
	Mean [3]float32 `json:"mean" yaml:"mean"`
	Std  [3]float32 `json:"std" yaml:"std"`
}

var (
	// Identity leaves pixels in [0, 1].
	Identity = Normalization{Std: [3]float32{1, 1, 1}}
	// Raw keeps pixels in [0, 255].
	Raw = Normalization{Std: [3]float32{1.0 / 255, 1.0 / 255, 1.0 / 255}}
	// Symmetric maps pixels to [-1, 1].
	Symmetric = Normalization{Mean: [3]float32{0.5, 0.5, 0.5}, Std: [3]float32{0.5, 0.5, 0.5}}
	// ImageNet applies the ImageNet channel statistics.
	ImageNet = Normalization{
		Mean: [3]float32{0.485, 0.456, 0.406},
		Std:  [3]float32{0.229, 0.224, 0.225},
	}
)

// PrepareInput converts an RGB image into a normalized 1x3xHxW tensor.
//
// Arguments:
//   - img: The image to prepare.
//   - width: The tensor width. 0 keeps the image width.
//   - height: The tensor height. 0 keeps the image height.
//   - norm: The normalization to apply.
//
// Returns:
//   - Input: The prepared tensor.
//   - error: An error if the image is empty or norm has a zero deviation.
func PrepareInput(img image.Image, width, height int, norm Normalization) (Input, error) {
	b := img.Bounds()
	if b.Empty() {
		return Input{}, errors.New("cannot prepare an empty image")
	}
	for _, s := range norm.Std {
		if s == 0 {
			return Input{}, errors.New("normalization std must not be zero")
		}
	}
	if width <= 0 {
		width = b.Dx()
	}
	if height <= 0 {
		height = b.Dy()
	}
	if width != b.Dx() || height != b.Dy() {
		img = resize.Resize(uint(width), uint(height), img, resize.Bilinear)
		b = img.Bounds()
	}

	channelSize := width * height
	data := make([]float32, channelSize*3)
	red := data[0:channelSize]
	green := data[channelSize : channelSize*2]
	blue := data[channelSize*2:]

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			red[i] = (float32(r>>8)/255.0 - norm.Mean[0]) / norm.Std[0]
			green[i] = (float32(g>>8)/255.0 - norm.Mean[1]) / norm.Std[1]
			blue[i] = (float32(bl>>8)/255.0 - norm.Mean[2]) / norm.Std[2]
			i++
		}
	}

	return Input{
		Data:  data,
		Shape: []int64{1, 3, int64(height), int64(width)},
	}, nil
}
