package images

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// newMat creates a rows x cols Mat of type mt whose i-th byte is fill(i).
func newMat(t *testing.T, rows, cols int, mt gocv.MatType, fill func(i int) uint8) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSize(rows, cols, mt)
	data, err := m.DataPtrUint8()
	require.NoError(t, err)
	for i := range data {
		data[i] = fill(i)
	}
	return m
}

// bytesOf returns a copy of the pixel bytes of m.
func bytesOf(t *testing.T, m gocv.Mat) []byte {
	t.Helper()
	c := m.Clone()
	defer c.Close()
	return c.ToBytes()
}
