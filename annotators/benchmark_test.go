package annotators

import (
	"context"
	"fmt"
	"testing"

	"github.com/nvr-ai/go-annotators/annotators/annotator"
	"gocv.io/x/gocv"
)

// Benchmarks cover the procedural annotators on common camera frame sizes at
// the default processing resolution.

var benchmarkFrames = []struct {
	name          string
	width, height int
}{
	{"VGA", 640, 480},
	{"HD720p", 1280, 720},
	{"FHD1080p", 1920, 1080},
}

func benchmarkAnnotator(b *testing.B, name annotator.Name) {
	r, err := NewRegistry(DefaultConfig(), nil)
	if err != nil {
		b.Fatal(err)
	}
	defer r.Close()

	for _, frame := range benchmarkFrames {
		b.Run(fmt.Sprintf("%s_%dx%d", frame.name, frame.width, frame.height), func(b *testing.B) {
			img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(30, 60, 90, 0), frame.height, frame.width, gocv.MatTypeCV8UC3)
			defer img.Close()
			opts := annotator.Options{Seed: annotator.Int64(1)}

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				out, _, err := r.Process(context.Background(), name, img, opts)
				if err != nil {
					b.Fatal(err)
				}
				out.Close()
			}
		})
	}
}

func BenchmarkScribbleXDOG(b *testing.B) {
	benchmarkAnnotator(b, annotator.ScribbleXDOG)
}

func BenchmarkCanny(b *testing.B) {
	benchmarkAnnotator(b, annotator.Canny)
}

func BenchmarkContentShuffle(b *testing.B) {
	benchmarkAnnotator(b, annotator.ContentShuffle)
}
