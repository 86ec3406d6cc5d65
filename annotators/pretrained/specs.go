// Package pretrained - Annotators backed by ONNX exports of pretrained networks.
package pretrained

import (
	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"github.com/nvr-ai/go-annotators/inference"
	"github.com/pkg/errors"
)

// Spec describes how a pretrained network is fed and how its output becomes a
// map.
//
// The model file must output the rendered map as its first output, shaped
// [1,C,H,W], [C,H,W] or [H,W]. Decoding only rescales values. Networks whose
// raw outputs need post-processing, such as the keypoint heatmaps and part
// affinity fields of Openpose, the face landmarks of MediapipeFace or the line
// segment tensors of MLSD, must be exported with that post-processing and the
// drawing step included in the graph.
type Spec struct {
	// Name is the annotator the network implements.
	Name annotator.Name `json:"name" yaml:"name"`
	// File is the default model file name inside the model directory.
	File string `json:"file" yaml:"file"`
	// Normalization is applied to the input pixels.
	Normalization inference.Normalization `json:"normalization" yaml:"normalization"`
	// Output selects how raw output values map to intensities.
	Output inference.OutputKind `json:"output" yaml:"output"`
	// Channels is the number of output channels kept, 1 or 3.
	Channels int `json:"channels" yaml:"channels"`
}

// openposeNormalization centers pixels on zero without scaling.
var openposeNormalization = inference.Normalization{
	Mean: [3]float32{0.5, 0.5, 0.5},
	Std:  [3]float32{1, 1, 1},
}

var specs = map[annotator.Name]Spec{
	annotator.Hed: {
		File:          "hed.onnx",
		Normalization: inference.Raw,
		Output:        inference.Sigmoid,
		Channels:      1,
	},
	annotator.Midas: {
		File:          "midas.onnx",
		Normalization: inference.Symmetric,
		Output:        inference.MinMax,
		Channels:      1,
	},
	annotator.MLSD: {
		File:          "mlsd.onnx",
		Normalization: inference.Symmetric,
		Output:        inference.Unit,
		Channels:      1,
	},
	annotator.Openpose: {
		File:          "openpose.onnx",
		Normalization: openposeNormalization,
		Output:        inference.Unit,
		Channels:      3,
	},
	annotator.PidiNet: {
		File:          "pidinet.onnx",
		Normalization: inference.Identity,
		Output:        inference.Unit,
		Channels:      1,
	},
	annotator.NormalBae: {
		File:          "normalbae.onnx",
		Normalization: inference.ImageNet,
		Output:        inference.Signed,
		Channels:      3,
	},
	annotator.Lineart: {
		File:          "lineart.onnx",
		Normalization: inference.Identity,
		Output:        inference.UnitInverted,
		Channels:      1,
	},
	annotator.LineartAnime: {
		File:          "lineart_anime.onnx",
		Normalization: inference.Symmetric,
		Output:        inference.SignedInverted,
		Channels:      1,
	},
	annotator.Zoe: {
		File:          "zoe.onnx",
		Normalization: inference.Identity,
		Output:        inference.MinMaxInverted,
		Channels:      1,
	},
	annotator.MediapipeFace: {
		File:          "mediapipe_face.onnx",
		Normalization: inference.Identity,
		Output:        inference.Unit,
		Channels:      3,
	},
}

// SpecFor returns the built-in spec of a pretrained annotator.
//
// Arguments:
//   - name: The annotator name.
//
// Returns:
//   - Spec: The spec with Name set.
//   - error: An error wrapping annotator.ErrUnknownAnnotator if name is not a
//     pretrained annotator.
func SpecFor(name annotator.Name) (Spec, error) {
	spec, ok := specs[name]
	if !ok {
		return Spec{}, errors.Wrapf(annotator.ErrUnknownAnnotator, "%q is not a pretrained annotator", name)
	}
	spec.Name = name
	return spec, nil
}

// Validate checks the spec fields.
func (s Spec) Validate() error {
	if !s.Name.Pretrained() {
		return errors.Wrapf(annotator.ErrUnknownAnnotator, "%q is not a pretrained annotator", s.Name)
	}
	if s.File == "" {
		return errors.Errorf("%s: model file is empty", s.Name)
	}
	if s.Channels != 1 && s.Channels != 3 {
		return errors.Errorf("%s: channels must be 1 or 3, got %d", s.Name, s.Channels)
	}
	return s.Output.Validate()
}
