package utils

import (
	"math"
	"testing"
)

func TestFitDimension(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		dim  int
		want []float32
	}{
		{"pads shorter", []float32{1, 2}, 4, []float32{1, 2, 0, 0}},
		{"truncates longer", []float32{1, 2, 3, 4, 5}, 3, []float32{1, 2, 3}},
		{"keeps exact", []float32{1, 2, 3}, 3, []float32{1, 2, 3}},
		{"nil input", nil, 2, []float32{0, 0}},
		{"zero dim", []float32{1}, 0, []float32{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitDimension(tt.in, tt.dim)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFitDimension_doesNotAliasInput(t *testing.T) {
	in := []float32{1, 2, 3}
	out := FitDimension(in, 3)
	out[0] = 9
	if in[0] != 1 {
		t.Error("FitDimension modified its input")
	}
}

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("got %v", v)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}

func TestFilledAndRound(t *testing.T) {
	v := Filled(3, 0.1)
	if len(v) != 3 || v[2] != 0.1 {
		t.Errorf("Filled: got %v", v)
	}
	if Round(0.123456, 4) != 0.1235 {
		t.Errorf("Round: got %v", Round(0.123456, 4))
	}
}
