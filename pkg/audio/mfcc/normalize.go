package mfcc

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// CMVN applies cepstral mean and variance normalization per coefficient.
func CMVN(frames [][]float64) [][]float64 {
	if len(frames) == 0 {
		return frames
	}
	dim := len(frames[0])
	out := make([][]float64, len(frames))

	col := make([]float64, len(frames))
	means := make([]float64, dim)
	stds := make([]float64, dim)
	for k := range dim {
		for t := range frames {
			col[t] = frames[t][k]
		}
		means[k] = stat.Mean(col, nil)
		stds[k] = popStdDev(col) + 1e-9
	}

	for t := range frames {
		row := make([]float64, dim)
		for k := range dim {
			row[k] = (frames[t][k] - means[k]) / stds[k]
		}
		out[t] = row
	}
	return out
}

// CMVNWithC0Clipping normalizes the spectral-shape coefficients with CMVN and
// rescales the energy coefficient C0 into [0,1] after clipping it to its 5th
// and 95th percentiles. A flat C0 column collapses to a constant 0.5.
func CMVNWithC0Clipping(frames [][]float64) [][]float64 {
	if len(frames) == 0 {
		return frames
	}
	dim := len(frames[0])
	out := make([][]float64, len(frames))
	for t := range out {
		out[t] = make([]float64, dim)
	}

	col := make([]float64, len(frames))
	for k := 1; k < dim; k++ {
		for t := range frames {
			col[t] = frames[t][k]
		}
		mean := stat.Mean(col, nil)
		std := popStdDev(col) + 1e-9
		for t := range frames {
			out[t][k] = (frames[t][k] - mean) / std
		}
	}

	c0 := make([]float64, len(frames))
	for t := range frames {
		c0[t] = frames[t][0]
	}
	lo := percentile(c0, 0.05)
	hi := percentile(c0, 0.95)

	if hi-lo < 1e-6 {
		for t := range frames {
			out[t][0] = 0.5
		}
		return out
	}
	for t := range frames {
		v := min(max(c0[t], lo), hi)
		out[t][0] = (v - lo) / (hi - lo)
	}
	return out
}

// popStdDev is the population standard deviation.
func popStdDev(xs []float64) float64 {
	mean := stat.Mean(xs, nil)
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	if len(xs) == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// percentile mirrors numpy's linear-interpolation percentile.
func percentile(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
