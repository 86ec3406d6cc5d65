package pretrained

import (
	"testing"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryPretrainedNameHasASpec(t *testing.T) {
	for _, name := range annotator.Names() {
		spec, err := SpecFor(name)
		if !name.Pretrained() {
			assert.True(t, errors.Is(err, annotator.ErrUnknownAnnotator), name)
			continue
		}
		require.NoError(t, err, name)
		assert.Equal(t, name, spec.Name)
		assert.NoError(t, spec.Validate(), name)
	}
}

func TestSpecOutputs(t *testing.T) {
	tests := map[annotator.Name]inference.OutputKind{
		annotator.Hed:          inference.Sigmoid,
		annotator.Lineart:      inference.UnitInverted,
		annotator.LineartAnime: inference.SignedInverted,
		annotator.Midas:        inference.MinMax,
		annotator.Zoe:          inference.MinMaxInverted,
		annotator.NormalBae:    inference.Signed,
	}
	for name, kind := range tests {
		spec, err := SpecFor(name)
		require.NoError(t, err)
		assert.Equal(t, kind, spec.Output, name)
	}

	spec, err := SpecFor(annotator.NormalBae)
	require.NoError(t, err)
	assert.Equal(t, 3, spec.Channels)
}

func TestSpecValidate(t *testing.T) {
	spec, err := SpecFor(annotator.Hed)
	require.NoError(t, err)

	bad := spec
	bad.File = ""
	assert.Error(t, bad.Validate())

	bad = spec
	bad.Channels = 2
	assert.Error(t, bad.Validate())

	bad = spec
	bad.Output = "tanh"
	assert.Error(t, bad.Validate())

	bad = spec
	bad.Name = annotator.Canny
	assert.Error(t, bad.Validate())
}

func TestNewMissingModel(t *testing.T) {
	spec, err := SpecFor(annotator.Midas)
	require.NoError(t, err)

	_, err = New(spec, t.TempDir()+"/midas.onnx", inference.DefaultConfig(), nil)
	assert.True(t, errors.Is(err, annotator.ErrModelNotFound))
}

func TestRenderedMapSpecs(t *testing.T) {
	tests := map[annotator.Name]int{
		annotator.Openpose:      3,
		annotator.MediapipeFace: 3,
		annotator.MLSD:          1,
	}
	for name, channels := range tests {
		spec, err := SpecFor(name)
		require.NoError(t, err)
		assert.Equal(t, inference.Unit, spec.Output, name)
		assert.Equal(t, channels, spec.Channels, name)
	}
}
