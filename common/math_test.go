package common

import (
	"math"
	"testing"
)

func nearly(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestDecomposeMatrix_RoundTrip(t *testing.T) {
	s := float32(math.Sin(math.Pi / 6))
	c := float32(math.Cos(math.Pi / 6))

	tests := []struct {
		name  string
		t     [3]float32
		r     [4]float32
		scale [3]float32
	}{
		{"identity", [3]float32{}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}},
		{"rotated and scaled", [3]float32{1, -2, 3}, [4]float32{0, s, 0, c}, [3]float32{2, 3, 4}},
		{"mirrored", [3]float32{0, 5, 0}, [4]float32{s, 0, 0, c}, [3]float32{-2, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ComposeTRS(tt.t, tt.r, tt.scale)
			tr, rot, sc := DecomposeMatrix(m)
			if tr != tt.t {
				t.Errorf("translation = %v, want %v", tr, tt.t)
			}
			for i := range sc {
				if !nearly(sc[i], tt.scale[i]) {
					t.Errorf("scale = %v, want %v", sc, tt.scale)
					break
				}
			}
			again := ComposeTRS(tr, rot, sc)
			for i := range m {
				if !nearly(m[i], again[i]) {
					t.Fatalf("recomposed %v, want %v", again, m)
				}
			}
		})
	}
}

func TestMul4(t *testing.T) {
	a := ComposeTRS([3]float32{1, 2, 3}, [4]float32{0, 0, 0, 1}, [3]float32{2, 2, 2})
	if Mul4(Identity4(), a) != a || Mul4(a, Identity4()) != a {
		t.Error("identity is not neutral")
	}

	b := ComposeTRS([3]float32{0, 0, 1}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1})
	// a * b applies b first: (0 0 1) scaled by 2 then offset.
	if got := Mul4(a, b); got[12] != 1 || got[13] != 2 || got[14] != 5 {
		t.Errorf("translation = %v, want (1 2 5)", got[12:15])
	}

	if !IsIdentity4(Identity4()) || IsIdentity4(a) {
		t.Error("IsIdentity4 misreports")
	}
}
