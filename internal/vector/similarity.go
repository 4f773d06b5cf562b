package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b in [-1, 1].
// Mismatched lengths or a zero vector yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}

// CosineDistance returns 1 - CosineSimilarity(a, b), in [0, 2].
func CosineDistance(a, b []float32) float64 {
	return 1 - CosineSimilarity(a, b)
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v * v)
	}
	return math.Sqrt(sum)
}

// EncodeVector packs v as little-endian float32 bytes.
func EncodeVector(v []float32) []byte {
	const size = 4
	out := make([]byte, len(v)*size)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(f))
	}
	return out
}

// DecodeVector unpacks bytes written by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	const size = 4
	if len(b)%size != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of %d", len(b), size)
	}
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out, nil
}
