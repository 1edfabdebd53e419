// SPDX-License-Identifier: MIT
package tone

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const referencePoints = 16

// referenceShapes are idealised contours in semitones over normalised time
// x in [0, 1]. They are mean-centred when the classifier is built.
var referenceShapes = map[Tone]func(x float64) float64{
	Middle:  func(x float64) float64 { return -x },
	Low:     func(x float64) float64 { u := 2*x - 1; return 4*u*u - 2 },
	Falling: func(x float64) float64 { return 3 - 6*x*x },
	High:    func(x float64) float64 { u := 2*x - 1; return 2 - 4*u*u },
	Rising:  func(x float64) float64 { return -2 + 6*x*x },
}

// DTWClassifier picks the tone whose reference shape is nearest to the
// contour under dynamic time warping. Contours are compared in semitones
// relative to their own mean, so speaker register does not matter. Flat
// contours are still Middle, as with SegmentClassifier.
type DTWClassifier struct {
	// Band is the Sakoe-Chiba constraint in cells; <= 0 disables it.
	Band       int
	references map[Tone][]float64
}

// NewDTWClassifier builds a classifier over the built-in reference shapes.
func NewDTWClassifier() *DTWClassifier {
	refs := make(map[Tone][]float64, len(referenceShapes))
	for t, shape := range referenceShapes {
		ref := make([]float64, referencePoints)
		for i := range ref {
			ref[i] = shape(float64(i) / (referencePoints - 1))
		}
		floats.AddConst(-stat.Mean(ref, nil), ref)
		refs[t] = ref
	}
	return &DTWClassifier{references: refs}
}

// Classify implements Classifier.
func (d *DTWClassifier) Classify(freqs []float64) Tone {
	t, _ := d.Nearest(freqs)
	return t
}

// Nearest returns the closest tone and its path-normalised DTW distance.
// Short or flat contours return Middle with distance 0.
func (d *DTWClassifier) Nearest(freqs []float64) (Tone, float64) {
	if len(freqs) < minSamples || floats.Max(freqs)-floats.Min(freqs) < FlatRange {
		return Middle, 0
	}

	query := semitones(freqs)
	best, bestDist := Middle, math.Inf(1)
	// Iterate in a fixed order so ties resolve the same way every time.
	for _, t := range All {
		dist := d.distance(query, d.references[t])
		if dist < bestDist {
			best, bestDist = t, dist
		}
	}
	return best, bestDist
}

// semitones converts positive frequencies to mean-centred semitones.
func semitones(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	for i, f := range freqs {
		out[i] = 12 * math.Log2(math.Max(f, 1e-9))
	}
	floats.AddConst(-stat.Mean(out, nil), out)
	return out
}

// distance runs a symmetric DTW between query and ref and divides the
// accumulated cost by the warping path length.
func (d *DTWClassifier) distance(query, ref []float64) float64 {
	n, m := len(query), len(ref)

	cost := make([][]float64, n+1)
	for i := range cost {
		cost[i] = make([]float64, m+1)
		for j := range cost[i] {
			cost[i][j] = math.Inf(1)
		}
	}
	cost[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if d.Band > 0 && outsideBand(i, j, n, m, d.Band) {
				continue
			}
			local := math.Abs(query[i-1] - ref[j-1])
			cost[i][j] = local + min(cost[i-1][j], cost[i][j-1], cost[i-1][j-1])
		}
	}

	if math.IsInf(cost[n][m], 1) {
		return math.Inf(1)
	}
	return cost[n][m] / float64(pathLength(cost, n, m))
}

// outsideBand applies the band along the diagonal scaled to the two lengths.
func outsideBand(i, j, n, m, band int) bool {
	diag := float64(i) * float64(m) / float64(n)
	return math.Abs(float64(j)-diag) > float64(band)
}

// pathLength backtracks the cheapest predecessor chain from (n, m).
func pathLength(cost [][]float64, n, m int) int {
	steps := 0
	i, j := n, m
	for i > 0 && j > 0 {
		steps++
		switch diag, up, left := cost[i-1][j-1], cost[i-1][j], cost[i][j-1]; {
		case diag <= up && diag <= left:
			i, j = i-1, j-1
		case up <= left:
			i--
		default:
			j--
		}
	}
	return steps
}
