// Package metric provides distance functions for float32 vectors.
//
// The kernels are built on the SIMD-accelerated routines from
// github.com/viterin/vek.
package metric

import (
	"errors"
	"math"

	"github.com/viterin/vek/vek32"
)

// ErrSizeMismatch is returned when the two vectors differ in length.
var ErrSizeMismatch = errors.New("vector sizes do not match")

// Magnitude calculates the magnitude (length) of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(vek32.Dot(v, v))))
}

// Dot calculates the dot product of two float32 slices.
func Dot(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	return vek32.Dot(v1, v2), nil
}

// SquaredL2 calculates the squared L2 distance between two float32 slices.
//
// It expands ||a-b||^2 = <a,a> - 2<a,b> + <b,b> so the whole computation
// runs on dot-product kernels without a temporary slice. The result is
// clamped at zero against floating point cancellation.
func SquaredL2(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	d := vek32.Dot(v1, v1) - 2*vek32.Dot(v1, v2) + vek32.Dot(v2, v2)
	if d < 0 {
		d = 0
	}

	return d, nil
}

// CosineSimilarity calculates the cosine similarity between two float32 slices.
func CosineSimilarity(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrSizeMismatch
	}

	dotProduct := vek32.Dot(v1, v2)
	magnitudeA := Magnitude(v1)
	magnitudeB := Magnitude(v2)

	// Avoid division by zero
	if magnitudeA == 0 || magnitudeB == 0 {
		return 0, nil
	}

	return dotProduct / (magnitudeA * magnitudeB), nil
}

// CosineDistance calculates the cosine distance (1 - similarity) between
// two float32 slices. Smaller means more similar, matching the ordering
// convention of the other distance functions.
func CosineDistance(v1, v2 []float32) (float32, error) {
	sim, err := CosineSimilarity(v1, v2)
	if err != nil {
		return 0, err
	}

	return 1 - sim, nil
}
