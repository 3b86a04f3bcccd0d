package analysis

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Ace30/insightmate/internal/dataset"
)

func identifyClusters(t *dataset.Table, opt Options) Facet[Clusters] {
	num := t.NumericColumns()
	if len(num) < 2 {
		return Skipped[Clusters](MsgClusterColumns)
	}
	var points [][]float64
	for i := 0; i < t.Rows(); i++ {
		row := make([]float64, len(num))
		complete := true
		for j, c := range num {
			if c.Null[i] {
				complete = false
				break
			}
			row[j] = c.Num[i]
		}
		if complete {
			points = append(points, row)
		}
	}
	if len(points) < 10 {
		return Skipped[Clusters](MsgClusterRows)
	}
	k := min(opt.MaxClusters, len(points)/10)
	if k < 2 {
		return Skipped[Clusters](MsgClusterK)
	}

	standardize(points)
	km := kmeans(points, k, opt.ClusterSeed, opt.ClusterRestarts, opt.ClusterMaxIter)

	res := Clusters{
		K:              k,
		Columns:        make([]string, len(num)),
		Sizes:          make([]int, k),
		Centers:        make([][]Float, k),
		Inertia:        Float(km.inertia),
		PointsUsed:     len(points),
		PointsExcluded: t.Rows() - len(points),
	}
	for j, c := range num {
		res.Columns[j] = c.Name
	}
	for _, l := range km.labels {
		res.Sizes[l]++
	}
	for c, center := range km.centers {
		res.Centers[c] = dataset.Floats(center)
	}
	return Computed(res)
}

// standardize rescales each dimension in place to zero mean and unit population
// variance; constant dimensions are only centered.
func standardize(points [][]float64) {
	dims := len(points[0])
	col := make([]float64, len(points))
	for j := 0; j < dims; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		for _, p := range points {
			p[j] = (p[j] - mean) / std
		}
	}
}

type kmResult struct {
	labels  []int
	centers [][]float64
	inertia float64
}

// kmeans runs Lloyd's algorithm from several k-means++ seedings and keeps the
// run with the lowest inertia. The same seed always yields the same result.
func kmeans(points [][]float64, k int, seed uint64, restarts, maxIter int) kmResult {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var best kmResult
	best.inertia = math.Inf(1)
	for r := 0; r < restarts; r++ {
		res := lloyd(points, seedCenters(points, k, rng), maxIter)
		if res.inertia < best.inertia {
			best = res
		}
	}
	return best
}

func seedCenters(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.IntN(len(points))]))
	d2 := make([]float64, len(points))
	for len(centers) < k {
		total := 0.0
		for i, p := range points {
			d2[i] = nearest(p, centers).dist
			total += d2[i]
		}
		if total == 0 {
			centers = append(centers, clone(points[rng.IntN(len(points))]))
			continue
		}
		target := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range d2 {
			target -= d
			if target <= 0 {
				pick = i
				break
			}
		}
		centers = append(centers, clone(points[pick]))
	}
	return centers
}

func lloyd(points [][]float64, centers [][]float64, maxIter int) kmResult {
	k := len(centers)
	dims := len(points[0])
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	for range maxIter {
		changed := false
		for i, p := range points {
			if l := nearest(p, centers).idx; l != labels[i] {
				labels[i] = l
				changed = true
			}
		}
		if !changed {
			break
		}
		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			floats.Add(sums[labels[i]], p)
			counts[labels[i]]++
		}
		for c := range centers {
			if counts[c] == 0 {
				// empty cluster: move it onto the point farthest from its center
				far, farD := 0, -1.0
				for i, p := range points {
					if d := floats.Distance(p, centers[labels[i]], 2); d > farD {
						far, farD = i, d
					}
				}
				centers[c] = clone(points[far])
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centers[c] = sums[c]
		}
	}
	inertia := 0.0
	for i, p := range points {
		labels[i] = nearest(p, centers).idx
		d := floats.Distance(p, centers[labels[i]], 2)
		inertia += d * d
	}
	return kmResult{labels: labels, centers: centers, inertia: inertia}
}

type hit struct {
	idx  int
	dist float64 // squared
}

func nearest(p []float64, centers [][]float64) hit {
	best := hit{idx: 0, dist: math.Inf(1)}
	for c, center := range centers {
		d := floats.Distance(p, center, 2)
		if d*d < best.dist {
			best = hit{idx: c, dist: d * d}
		}
	}
	return best
}

func clone(p []float64) []float64 { return append([]float64(nil), p...) }
