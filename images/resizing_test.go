package images

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestPad64(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: 0},
		{in: 1, want: 63},
		{in: 63, want: 1},
		{in: 64, want: 0},
		{in: 65, want: 63},
		{in: 512, want: 0},
		{in: 683, want: 21},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Pad64(tt.in), "Pad64(%d)", tt.in)
	}
}

// TestResizeWithPadDimensions validates the padded output geometry across
// upscaling, downscaling, square and extreme aspect ratio inputs.
func TestResizeWithPadDimensions(t *testing.T) {
	tests := []struct {
		height, width, resolution int
	}{
		{height: 256, width: 256, resolution: 512},
		{height: 480, width: 640, resolution: 512},
		{height: 1080, width: 1920, resolution: 512},
		{height: 300, width: 200, resolution: 384},
		{height: 37, width: 91, resolution: 100},
		{height: 10, width: 400, resolution: 64},
		{height: 512, width: 512, resolution: 512},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d@%d", tt.width, tt.height, tt.resolution), func(t *testing.T) {
			src := newMat(t, tt.height, tt.width, gocv.MatTypeCV8UC3, func(i int) uint8 { return uint8(i % 251) })
			defer src.Close()

			padded, padding, err := ResizeWithPad(src, tt.resolution, false)
			require.NoError(t, err)
			defer padded.Close()

			assert.Zero(t, padded.Rows()%PadMultiple, "padded height must be a multiple of 64")
			assert.Zero(t, padded.Cols()%PadMultiple, "padded width must be a multiple of 64")
			assert.GreaterOrEqual(t, padded.Rows(), padding.Height)
			assert.GreaterOrEqual(t, padded.Cols(), padding.Width)
			assert.Equal(t, padding.Height+padding.Bottom, padded.Rows())
			assert.Equal(t, padding.Width+padding.Right, padded.Cols())
			assert.Equal(t, 3, padded.Channels())

			short := min(padding.Height, padding.Width)
			assert.InDelta(t, tt.resolution, short, 1, "shorter side should match the resolution")

			cropped, err := padding.Remove(padded)
			require.NoError(t, err)
			defer cropped.Close()
			assert.Equal(t, padding.Height, cropped.Rows())
			assert.Equal(t, padding.Width, cropped.Cols())
			assert.Equal(t, 3, cropped.Channels())
		})
	}
}

func TestResizeWithPadRoundsHalfToEven(t *testing.T) {
	// k = 6/4 = 1.5, so the width becomes 7*1.5 = 10.5 which numpy rounds to 10.
	src := newMat(t, 4, 7, gocv.MatTypeCV8UC3, func(i int) uint8 { return 128 })
	defer src.Close()

	padded, padding, err := ResizeWithPad(src, 6, false)
	require.NoError(t, err)
	defer padded.Close()

	assert.Equal(t, 6, padding.Height)
	assert.Equal(t, 10, padding.Width)
	assert.Equal(t, 64, padded.Rows())
	assert.Equal(t, 64, padded.Cols())
}

func TestResizeWithPadReplicatesEdges(t *testing.T) {
	src := newMat(t, 100, 150, gocv.MatTypeCV8UC3, func(i int) uint8 { return uint8((i * 7) % 256) })
	defer src.Close()

	padded, padding, err := ResizeWithPad(src, 100, false)
	require.NoError(t, err)
	defer padded.Close()
	require.Equal(t, 100, padding.Height)
	require.Equal(t, 150, padding.Width)
	require.Positive(t, padding.Bottom)
	require.Positive(t, padding.Right)

	lastRow, lastCol := padding.Height-1, padding.Width-1
	for _, col := range []int{0, 17, lastCol} {
		for row := padding.Height; row < padded.Rows(); row++ {
			assert.Equal(t, padded.GetVecbAt(lastRow, col), padded.GetVecbAt(row, col),
				"row %d col %d should replicate the last row", row, col)
		}
	}
	for _, row := range []int{0, 42, lastRow} {
		for col := padding.Width; col < padded.Cols(); col++ {
			assert.Equal(t, padded.GetVecbAt(row, lastCol), padded.GetVecbAt(row, col),
				"row %d col %d should replicate the last column", row, col)
		}
	}
}

func TestResizeWithPadNormalizesChannels(t *testing.T) {
	gray := newMat(t, 64, 64, gocv.MatTypeCV8UC1, func(i int) uint8 { return 90 })
	defer gray.Close()

	padded, _, err := ResizeWithPad(gray, 64, false)
	require.NoError(t, err)
	defer padded.Close()
	assert.Equal(t, 3, padded.Channels())
	assert.Equal(t, gocv.Vecb{90, 90, 90}, padded.GetVecbAt(10, 10))

	// With skipHWC3 the channel count is left alone.
	raw, _, err := ResizeWithPad(gray, 64, true)
	require.NoError(t, err)
	defer raw.Close()
	assert.Equal(t, 1, raw.Channels())
}

func TestResizeWithPadRejectsInvalidInput(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, _, err := ResizeWithPad(empty, 512, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidImage))

	src := newMat(t, 8, 8, gocv.MatTypeCV8UC3, func(int) uint8 { return 0 })
	defer src.Close()
	_, _, err = ResizeWithPad(src, 0, false)
	assert.Error(t, err)
}

func TestPaddingRemoveRejectsSmallerMats(t *testing.T) {
	small := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC1)
	defer small.Close()

	_, err := Padding{Height: 20, Width: 10}.Remove(small)
	assert.Error(t, err)
}

func TestPaddingRemoveAcceptsDerivedMaps(t *testing.T) {
	p := Padding{Height: 50, Width: 70, Bottom: 14, Right: 58}
	edges := newMat(t, 64, 128, gocv.MatTypeCV8UC1, func(i int) uint8 { return uint8(i) })
	defer edges.Close()

	out, err := p.Remove(edges)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, Shape{Height: 50, Width: 70, Channels: 1}, ShapeOf(out))
	assert.True(t, out.IsContinuous())
	assert.Equal(t, edges.GetUCharAt(49, 69), out.GetUCharAt(49, 69))
}
