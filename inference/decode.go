package inference

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gorgonia.org/tensor"
)

// OutputKind describes how raw model output values map to pixel intensities.
type OutputKind string

const (
	// Sigmoid applies the logistic function: 255 / (1 + e^-v).
	Sigmoid OutputKind = "sigmoid"
	// Unit clips to [0, 1] and scales by 255.
	Unit OutputKind = "unit"
	// UnitInverted is Unit subtracted from 255.
	UnitInverted OutputKind = "unit_inverted"
	// Signed clips to [-1, 1] and maps it onto [0, 255].
	Signed OutputKind = "signed"
	// SignedInverted is Signed subtracted from 255.
	SignedInverted OutputKind = "signed_inverted"
	// MinMax stretches the tensor range onto [0, 255].
	MinMax OutputKind = "min_max"
	// MinMaxInverted is MinMax subtracted from 255.
	MinMaxInverted OutputKind = "min_max_inverted"
)

// Validate rejects unknown kinds.
func (k OutputKind) Validate() error {
	switch k {
	case Sigmoid, Unit, UnitInverted, Signed, SignedInverted, MinMax, MinMaxInverted:
		return nil
	default:
		return errors.Errorf("unknown output kind: %q", k)
	}
}

// Decode converts a model output of shape [1,C,H,W], [C,H,W] or [H,W] into an
// HxW 8-bit Mat with the requested number of channels, taken from the front of
// the channel axis.
//
// Arguments:
//   - out: The model output.
//   - kind: The value mapping.
//   - channels: 1 or 3.
//
// Returns:
//   - gocv.Mat: The decoded map, owned by the caller.
//   - error: An error if the output shape cannot supply the channels.
func Decode(out Output, kind OutputKind, channels int) (gocv.Mat, error) {
	if err := kind.Validate(); err != nil {
		return gocv.NewMat(), err
	}
	if channels != 1 && channels != 3 {
		return gocv.NewMat(), errors.Errorf("cannot decode into %d channels", channels)
	}

	c, h, w, err := chw(out.Shape)
	if err != nil {
		return gocv.NewMat(), err
	}
	if c < channels {
		return gocv.NewMat(), errors.Errorf("output %v has %d channels, need %d", out.Shape, c, channels)
	}
	if len(out.Data) != c*h*w {
		return gocv.NewMat(), errors.Errorf("output holds %d values, shape %v needs %d", len(out.Data), out.Shape, c*h*w)
	}

	planes := append([]float32(nil), out.Data[:channels*h*w]...)
	dense := tensor.New(tensor.WithShape(channels, h, w), tensor.WithBacking(planes))
	if err := dense.T(1, 2, 0); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to permute output to HWC")
	}
	if err := dense.Transpose(); err != nil {
		return gocv.NewMat(), errors.Wrap(err, "failed to transpose output to HWC")
	}
	hwc, ok := dense.Data().([]float32)
	if !ok {
		return gocv.NewMat(), errors.New("unexpected tensor backing type")
	}

	mt := gocv.MatTypeCV8UC1
	if channels == 3 {
		mt = gocv.MatTypeCV8UC3
	}
	dst := gocv.NewMatWithSize(h, w, mt)
	pix, err := dst.DataPtrUint8()
	if err != nil {
		dst.Close()
		return gocv.NewMat(), errors.Wrap(err, "failed to access output pixels")
	}

	mapValue := mapper(kind, hwc)
	for i, v := range hwc {
		pix[i] = toUint8(mapValue(v))
	}
	return dst, nil
}

// chw extracts channel, height and width from an output shape.
func chw(shape []int64) (int, int, int, error) {
	dims := shape
	if len(dims) == 4 {
		if dims[0] != 1 {
			return 0, 0, 0, errors.Errorf("batched output %v is not supported", shape)
		}
		dims = dims[1:]
	}
	switch len(dims) {
	case 3:
		if dims[0] > 0 && dims[1] > 0 && dims[2] > 0 {
			return int(dims[0]), int(dims[1]), int(dims[2]), nil
		}
	case 2:
		if dims[0] > 0 && dims[1] > 0 {
			return 1, int(dims[0]), int(dims[1]), nil
		}
	}
	return 0, 0, 0, errors.Errorf("unsupported output shape %v", shape)
}

// mapper returns the function mapping a raw value onto [0, 255].
func mapper(kind OutputKind, values []float32) func(float32) float32 {
	switch kind {
	case Sigmoid:
		return func(v float32) float32 { return 255 / (1 + math32.Exp(-v)) }
	case Unit:
		return func(v float32) float32 { return clip(v, 0, 1) * 255 }
	case UnitInverted:
		return func(v float32) float32 { return (1 - clip(v, 0, 1)) * 255 }
	case Signed:
		return func(v float32) float32 { return (clip(v, -1, 1) + 1) * 127.5 }
	case SignedInverted:
		return func(v float32) float32 { return 255 - (clip(v, -1, 1)+1)*127.5 }
	}

	lo, hi := math32.Inf(1), math32.Inf(-1)
	for _, v := range values {
		lo = math32.Min(lo, v)
		hi = math32.Max(hi, v)
	}
	span := hi - lo
	invert := kind == MinMaxInverted
	return func(v float32) float32 {
		n := float32(0)
		if span > 0 {
			n = (v - lo) / span
		}
		if invert {
			n = 1 - n
		}
		return n * 255
	}
}

func clip(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// toUint8 rounds v to the nearest integer in [0, 255].
func toUint8(v float32) uint8 {
	return uint8(clip(math32.Round(v), 0, 255))
}
