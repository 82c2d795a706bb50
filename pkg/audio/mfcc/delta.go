package mfcc

// WithDeltas appends first and second order delta features to each frame,
// tripling the feature dimension. The regression window shrinks for short
// segments, and segments under MinSegmentFrames frames are edge-padded before
// the deltas are computed.
func WithDeltas(coeffs [][]float64) [][]float64 {
	n := len(coeffs)
	if n == 0 {
		return nil
	}

	work := coeffs
	padSize := 0
	width := 9
	switch {
	case n < MinSegmentFrames:
		padSize = MinSegmentFrames - n
		work = edgePadFrames(coeffs, padSize, padSize)
		width = 3
	case n < 9:
		width = n
		if width%2 == 0 {
			width--
		}
		if width < 3 {
			width = 3
		}
	}

	delta := regressionDelta(work, width)
	delta2 := regressionDelta(delta, width)

	if padSize > 0 {
		delta = delta[padSize : padSize+n]
		delta2 = delta2[padSize : padSize+n]
	}

	dim := len(coeffs[0])
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, 0, dim*3)
		row = append(row, coeffs[i]...)
		row = append(row, delta[i]...)
		row = append(row, delta2[i]...)
		out[i] = row
	}
	return out
}

// regressionDelta computes the standard regression delta over a centered
// window of the given odd width, clamping indices at the edges.
func regressionDelta(frames [][]float64, width int) [][]float64 {
	n := len(frames)
	half := (width - 1) / 2
	denom := 0.0
	for d := 1; d <= half; d++ {
		denom += float64(d) * float64(d)
	}
	denom *= 2

	out := make([][]float64, n)
	for t := range frames {
		row := make([]float64, len(frames[t]))
		for k := range row {
			sum := 0.0
			for d := 1; d <= half; d++ {
				prev := max(t-d, 0)
				next := min(t+d, n-1)
				sum += float64(d) * (frames[next][k] - frames[prev][k])
			}
			row[k] = sum / denom
		}
		out[t] = row
	}
	return out
}

func edgePadFrames(frames [][]float64, before, after int) [][]float64 {
	out := make([][]float64, 0, before+len(frames)+after)
	for range before {
		out = append(out, frames[0])
	}
	out = append(out, frames...)
	for range after {
		out = append(out, frames[len(frames)-1])
	}
	return out
}
