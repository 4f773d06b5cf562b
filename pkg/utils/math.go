package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// If the norm is zero, the slice is unchanged.
func NormalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}

// FitDimension returns v forced to length dim: zero-padded when shorter,
// truncated when longer. The input slice is never modified.
func FitDimension(v []float32, dim int) []float32 {
	if dim <= 0 {
		return []float32{}
	}
	out := make([]float32, dim)
	copy(out, v)
	return out
}

// Filled returns a slice of length n with every component set to value.
func Filled(n int, value float32) []float32 {
	if n < 0 {
		n = 0
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
