package stats

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= tol
}

func TestQuantileLinear(t *testing.T) {
	s := []float64{1, 2, 3, 4, 100}
	if q := Quantile(s, 0.25); q != 2 {
		t.Fatalf("q1 = %v", q)
	}
	if q := Quantile(s, 0.75); q != 4 {
		t.Fatalf("q3 = %v", q)
	}
	if q := Quantile([]float64{1, 2, 3, 4}, 0.5); !almostEqual(q, 2.5, 1e-12) {
		t.Fatalf("median = %v", q)
	}
	if q := Quantile([]float64{10, 20}, 0.1); !almostEqual(q, 11, 1e-12) {
		t.Fatalf("p10 = %v", q)
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Fatalf("empty quantile should be NaN")
	}
}

func TestIQRFence(t *testing.T) {
	f := IQRFence([]float64{100, 1, 3, 2, 4}, 1.5)
	if f.Lower != -1 || f.Upper != 7 {
		t.Fatalf("fence = %+v", f)
	}
	if !f.Outside(100) || f.Outside(4) {
		t.Fatalf("Outside misclassified")
	}
	if f.Clamp(100) != 7 || f.Clamp(-5) != -1 || f.Clamp(3) != 3 {
		t.Fatalf("Clamp wrong")
	}
}

func TestMedianUnsortedInput(t *testing.T) {
	in := []float64{5, 1, 3}
	if m := Median(in); m != 3 {
		t.Fatalf("median = %v", m)
	}
	if in[0] != 5 {
		t.Fatalf("Median mutated its input")
	}
}
