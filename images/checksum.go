package images

import (
	"crypto/md5"
	"fmt"

	"gocv.io/x/gocv"
)

// Checksum generates a deterministic checksum over the dimensions and pixels of
// a Mat. Annotator tests use it to verify that inputs are never mutated.
//
// Arguments:
// - m: The Mat to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string, or "empty" for an empty Mat.
//
// Example:
//
// ```go
//
//	before := images.Checksum(img)
//	out, _, _ := annotator.Process(ctx, img, annotator.Options{})
//	// images.Checksum(img) == before
//
// ```
func Checksum(m gocv.Mat) string {
	if m.Empty() {
		return "empty"
	}

	src := m
	if !m.IsContinuous() {
		src = m.Clone()
		defer src.Close()
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%dx%d:%d;", src.Rows(), src.Cols(), src.Channels(), src.Type())
	hash.Write(src.ToBytes())
	return fmt.Sprintf("%x", hash.Sum(nil))
}
