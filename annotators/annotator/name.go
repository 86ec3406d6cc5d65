// Package annotator - Names, options and the interface shared by every annotator.
package annotator

import (
	"github.com/pkg/errors"
)

// Name is the unique identifier of an annotator.
type Name string

const (
	// Hed is the holistically-nested soft edge detector.
	Hed Name = "Hed"
	// Midas is the MiDaS monocular depth estimator.
	Midas Name = "Midas"
	// MLSD is the mobile line segment detector.
	MLSD Name = "MLSD"
	// Openpose is the OpenPose body keypoint renderer.
	Openpose Name = "Openpose"
	// PidiNet is the pixel difference network soft edge detector.
	PidiNet Name = "PidiNet"
	// NormalBae is the BAE surface normal estimator.
	NormalBae Name = "NormalBae"
	// Lineart is the realistic line art extractor.
	Lineart Name = "Lineart"
	// LineartAnime is the anime line art extractor.
	LineartAnime Name = "LineartAnime"
	// Zoe is the ZoeDepth metric depth estimator.
	Zoe Name = "Zoe"
	// Canny is the Canny edge detector.
	Canny Name = "Canny"
	// ContentShuffle randomly warps image content.
	ContentShuffle Name = "ContentShuffle"
	// MediapipeFace is the MediaPipe face mesh renderer.
	MediapipeFace Name = "MediapipeFace"
	// ScribbleXDOG is the extended difference-of-Gaussians scribble filter.
	ScribbleXDOG Name = "ScribbleXDOG"
	// None passes the image through unchanged.
	None Name = "None"
)

// ErrUnknownAnnotator is returned for names outside the supported set.
var ErrUnknownAnnotator = errors.New("unknown annotator")

// ErrModelNotFound is returned when the weights of a pretrained annotator are
// missing.
var ErrModelNotFound = errors.New("model not found")

var names = []Name{
	Hed,
	Midas,
	MLSD,
	Openpose,
	PidiNet,
	NormalBae,
	Lineart,
	LineartAnime,
	Zoe,
	Canny,
	ContentShuffle,
	MediapipeFace,
	ScribbleXDOG,
	None,
}

// Names returns every supported annotator name.
func Names() []Name {
	return append([]Name(nil), names...)
}

// ParseName validates s as an annotator name. Matching is exact.
//
// Arguments:
//   - s: The name to parse.
//
// Returns:
//   - Name: The parsed name.
//   - error: An error wrapping ErrUnknownAnnotator if s is not supported.
func ParseName(s string) (Name, error) {
	n := Name(s)
	if !n.Valid() {
		return "", errors.Wrapf(ErrUnknownAnnotator, "%q", s)
	}
	return n, nil
}

// Valid reports whether n is a supported annotator name.
func (n Name) Valid() bool {
	for _, v := range names {
		if v == n {
			return true
		}
	}
	return false
}

// Pretrained reports whether n is backed by model weights.
func (n Name) Pretrained() bool {
	switch n {
	case Canny, ContentShuffle, ScribbleXDOG, None:
		return false
	default:
		return n.Valid()
	}
}

func (n Name) String() string {
	return string(n)
}
