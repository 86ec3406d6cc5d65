package pretrained

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/images"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// TestProcess runs every network found in ANNOTATORS_MODEL_DIR.
func TestProcess(t *testing.T) {
	dir := os.Getenv("ANNOTATORS_MODEL_DIR")
	if dir == "" {
		t.Skip("ANNOTATORS_MODEL_DIR is not set")
	}

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 120, 40, 0), 120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()

	for _, name := range annotator.Names() {
		if !name.Pretrained() {
			continue
		}
		t.Run(string(name), func(t *testing.T) {
			spec, err := SpecFor(name)
			require.NoError(t, err)
			path := filepath.Join(dir, spec.File)
			if _, err := os.Stat(path); err != nil {
				t.Skipf("%s not present", spec.File)
			}

			log, hook := test.NewNullLogger()
			log.SetLevel(logrus.DebugLevel)
			a, err := New(spec, path, inference.DefaultConfig(), log)
			require.NoError(t, err)
			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, "model loaded", hook.LastEntry().Message)
			defer a.Close()

			out, ok, err := a.Process(context.Background(), img, annotator.Options{Resolution: 128})
			require.NoError(t, err)
			defer out.Close()

			assert.True(t, ok)
			assert.Equal(t, images.Shape{Height: 128, Width: 171, Channels: 3}, images.ShapeOf(out))
		})
	}
}
