package stats

import (
	"math"
	"slices"
)

// Quantile interpolates linearly between the closest ranks of an ascending slice.
// This matches the default quantile method of most dataframe libraries.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	cp := slices.Clone(vals)
	slices.Sort(cp)
	return cp
}

// Median of vals; NaN when empty.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Fence holds Tukey IQR bounds.
type Fence struct {
	Q1, Q3, IQR  float64
	Lower, Upper float64
}

// IQRFence computes Q1 - k*IQR and Q3 + k*IQR over vals.
func IQRFence(vals []float64, k float64) Fence {
	s := Sorted(vals)
	q1 := Quantile(s, 0.25)
	q3 := Quantile(s, 0.75)
	iqr := q3 - q1
	return Fence{Q1: q1, Q3: q3, IQR: iqr, Lower: q1 - k*iqr, Upper: q3 + k*iqr}
}

// Outside reports whether v lies strictly beyond the fence.
func (f Fence) Outside(v float64) bool { return v < f.Lower || v > f.Upper }

// Clamp caps v to the fence.
func (f Fence) Clamp(v float64) float64 {
	return min(max(v, f.Lower), f.Upper)
}
