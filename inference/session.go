package inference

import (
	"context"

	"github.com/nvr-ai/go-annotators/inference/providers"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Input is a float32 tensor fed to a session.
type Input struct {
	// Data is the row-major tensor contents.
	Data []float32
	// Shape is the tensor shape, typically NCHW.
	Shape []int64
}

// Output is a float32 tensor produced by a session.
type Output struct {
	// Data is a copy of the row-major tensor contents.
	Data []float32
	// Shape is the tensor shape.
	Shape []int64
}

// Session represents a single-input, single-output model session from the
// onnxruntime.
type Session struct {
	session    *ort.DynamicAdvancedSession
	path       string
	inputName  string
	outputName string
	inputShape []int64
}

// NewSession loads the model at path. Input and output names and the declared
// input dimensions are read from the model.
//
// Arguments:
//   - path: The ONNX model file.
//   - cfg: The runtime configuration; the environment must already be
//     initialized with Initialize.
//
// Returns:
//   - *Session: The loaded session.
//   - error: An error if the model cannot be inspected or loaded.
func NewSession(path string, cfg Config) (*Session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model info from %s", path)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.Errorf("model %s has %d inputs and %d outputs", path, len(inputs), len(outputs))
	}

	options, err := providers.SessionOptions(cfg.Provider)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session options")
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		path,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create session for %s", path)
	}

	return &Session{
		session:    session,
		path:       path,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		inputShape: append([]int64(nil), inputs[0].Dimensions...),
	}, nil
}

// Path returns the model file the session was loaded from.
func (s *Session) Path() string {
	return s.path
}

// InputSize returns the fixed spatial input size declared by the model.
// ok is false when the model accepts dynamic height or width.
func (s *Session) InputSize() (width, height int, ok bool) {
	return fixedSize(s.inputShape)
}

// fixedSize reads H and W from an NCHW shape.
func fixedSize(shape []int64) (int, int, bool) {
	if len(shape) != 4 || shape[2] <= 0 || shape[3] <= 0 {
		return 0, 0, false
	}
	return int(shape[3]), int(shape[2]), true
}

// Run executes the model on a single input tensor.
//
// Arguments:
//   - ctx: Checked for cancellation before the model runs.
//   - in: The input tensor.
//
// Returns:
//   - Output: A copy of the first model output.
//   - error: An error if the context is done or inference fails.
func (s *Session) Run(ctx context.Context, in Input) (Output, error) {
	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	default:
	}

	input, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
	if err != nil {
		return Output{}, errors.Wrapf(err, "failed to create input tensor %v", in.Shape)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return Output{}, errors.Wrapf(err, "failed to run %s", s.path)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return Output{}, errors.Errorf("output %s of %s is not a float32 tensor", s.outputName, s.path)
	}
	return Output{
		Data:  append([]float32(nil), tensor.GetData()...),
		Shape: append([]int64(nil), tensor.GetShape()...),
	}, nil
}

// Close releases the session.
func (s *Session) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return errors.Wrap(err, "failed to destroy session")
}
