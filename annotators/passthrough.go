package annotators

import (
	"context"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"gocv.io/x/gocv"
)

// passthrough is the None annotator. It returns a copy of its input.
type passthrough struct{}

func (passthrough) Name() annotator.Name {
	return annotator.None
}

// Process returns an unchanged copy of img and false, since no detection ran.
func (passthrough) Process(ctx context.Context, img gocv.Mat, _ annotator.Options) (gocv.Mat, bool, error) {
	if err := ctx.Err(); err != nil {
		return gocv.NewMat(), false, err
	}
	if err := images.Validate(img); err != nil {
		return gocv.NewMat(), false, err
	}
	return images.Contiguous(img), false, nil
}

func (passthrough) Close() error {
	return nil
}
