// Package shuffle - Content shuffling through a smooth random flow field.
package shuffle

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultFrequency is the default noise cell size in pixels. Larger values
// give smoother warps.
const DefaultFrequency = 256

// Annotator is the ContentShuffle annotator.
type Annotator struct {
	frequency int
}

// New returns the shuffle annotator with the default frequency.
func New() *Annotator {
	return &Annotator{frequency: DefaultFrequency}
}

// Name returns annotator.ContentShuffle.
func (a *Annotator) Name() annotator.Name {
	return annotator.ContentShuffle
}

// Process warps img. opts.Seed makes the result reproducible; without it a
// time based seed is used.
func (a *Annotator) Process(ctx context.Context, img gocv.Mat, opts annotator.Options) (gocv.Mat, bool, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), false, err
	}
	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	out, err := Apply(img, opts.ResolutionOr(annotator.DefaultResolution), a.frequency, rand.New(rand.NewSource(seed)))
	if err != nil {
		return gocv.NewMat(), false, err
	}
	return out, true, nil
}

// Close is a no-op.
func (a *Annotator) Close() error {
	return nil
}

// Apply resizes img to resolution and remaps every pixel through two
// independent noise disks.
//
// Arguments:
//   - img: The source image.
//   - resolution: The target length of the shorter side.
//   - frequency: The noise cell size in pixels.
//   - rng: The random source.
//
// Returns:
//   - gocv.Mat: The shuffled 3 channel image.
//   - error: An error if the inputs are invalid.
func Apply(img gocv.Mat, resolution, frequency int, rng *rand.Rand) (gocv.Mat, error) {
	if frequency <= 0 {
		return gocv.NewMat(), errors.Errorf("frequency must be positive, got %d", frequency)
	}
	padded, padding, err := images.ResizeWithPad(img, resolution, false)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer padded.Close()

	h, w := padded.Rows(), padded.Cols()
	mapX, err := noiseDisk(h, w, frequency, float32(w-1), rng)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer mapX.Close()
	mapY, err := noiseDisk(h, w, frequency, float32(h-1), rng)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer mapY.Close()

	shuffled := gocv.NewMat()
	defer shuffled.Close()
	gocv.Remap(padded, &shuffled, &mapX, &mapY, gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})

	return padding.Remove(shuffled)
}

// noiseDisk returns an h x w float32 map of smooth noise stretched to
// [0, scale]. Uniform noise on a coarse grid is upsampled bicubically with a
// margin of one cell on each side, which is then cropped away.
func noiseDisk(h, w, frequency int, scale float32, rng *rand.Rand) (gocv.Mat, error) {
	grid := gocv.NewMatWithSize(h/frequency+2, w/frequency+2, gocv.MatTypeCV32FC1)
	defer grid.Close()
	cells, err := grid.DataPtrFloat32()
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to access noise grid")
	}
	for i := range cells {
		cells[i] = rng.Float32()
	}

	smooth := gocv.NewMat()
	defer smooth.Close()
	gocv.Resize(grid, &smooth, image.Pt(w+2*frequency, h+2*frequency), 0, 0, gocv.InterpolationCubic)

	region := smooth.Region(image.Rect(frequency, frequency, frequency+w, frequency+h))
	defer region.Close()
	disk := images.Contiguous(region)

	values, err := disk.DataPtrFloat32()
	if err != nil {
		disk.Close()
		return gocv.NewMat(), errors.Wrap(err, "failed to access noise disk")
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		if span > 0 {
			values[i] = (v - lo) / span * scale
		} else {
			values[i] = 0
		}
	}
	return disk, nil
}
