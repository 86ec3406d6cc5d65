package pretrained

import (
	"context"
	"image"
	"os"
	"time"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Annotator runs one pretrained network.
type Annotator struct {
	spec    Spec
	session *inference.Session
}

// New loads the model at path. The onnxruntime environment is initialized on
// first use.
//
// Arguments:
//   - spec: The network description.
//   - path: The ONNX model file.
//   - cfg: The runtime configuration.
//   - log: The logger, or nil for the logrus standard logger.
//
// Returns:
//   - *Annotator: The loaded annotator.
//   - error: An error wrapping annotator.ErrModelNotFound if path does not
//     exist, or any runtime error.
func New(spec Spec, path string, cfg inference.Config, log logrus.FieldLogger) (*Annotator, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(annotator.ErrModelNotFound, "%s: %s", spec.Name, path)
		}
		return nil, errors.Wrapf(err, "%s: failed to stat model", spec.Name)
	}

	if err := inference.Initialize(cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	session, err := inference.NewSession(path, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to load model", spec.Name)
	}
	log.WithFields(logrus.Fields{
		"annotator": spec.Name,
		"path":      path,
		"duration":  time.Since(start),
	}).Debug("model loaded")

	return &Annotator{spec: spec, session: session}, nil
}

// Name returns the annotator name from the spec.
func (a *Annotator) Name() annotator.Name {
	return a.spec.Name
}

// Process runs the network on img resized to opts.Resolution and returns the
// decoded map as a 3 channel image. Thresholds are ignored.
func (a *Annotator) Process(ctx context.Context, img gocv.Mat, opts annotator.Options) (gocv.Mat, bool, error) {
	padded, padding, err := images.ResizeWithPad(img, opts.ResolutionOr(annotator.DefaultResolution), false)
	if err != nil {
		return gocv.NewMat(), false, err
	}
	defer padded.Close()

	rgb, err := images.ToImage(padded)
	if err != nil {
		return gocv.NewMat(), false, err
	}
	width, height, _ := a.session.InputSize()
	input, err := inference.PrepareInput(rgb, width, height, a.spec.Normalization)
	if err != nil {
		return gocv.NewMat(), false, errors.Wrapf(err, "%s: failed to prepare input", a.spec.Name)
	}

	output, err := a.session.Run(ctx, input)
	if err != nil {
		return gocv.NewMat(), false, err
	}

	detected, err := inference.Decode(output, a.spec.Output, a.spec.Channels)
	if err != nil {
		return gocv.NewMat(), false, errors.Wrapf(err, "%s: failed to decode output", a.spec.Name)
	}
	defer detected.Close()

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(detected, &resized, image.Pt(padded.Cols(), padded.Rows()), 0, 0, gocv.InterpolationLinear)

	full, err := images.HWC3(resized)
	if err != nil {
		return gocv.NewMat(), false, err
	}
	defer full.Close()

	out, err := padding.Remove(full)
	if err != nil {
		return gocv.NewMat(), false, err
	}
	return out, true, nil
}

// Close releases the model session.
func (a *Annotator) Close() error {
	if a.session == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}
