package pitch

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minSegmentPoints is the number of voiced points a segment needs on both
// sides before its contour is compared.
const minSegmentPoints = 5

// Span is a labelled time interval to compare.
type Span struct {
	Text  string
	Start float64
	End   float64
}

// SegmentDetail is the comparison outcome for one span. Similarity is nil
// when either side had too few voiced points.
type SegmentDetail struct {
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Similarity *float64 `json:"similarity"`
}

// Result aggregates the per-segment pitch comparison.
type Result struct {
	Similarity     float64         `json:"pitch_similarity"`
	SegmentDetails []SegmentDetail `json:"segment_details"`
}

// DTWSimilarity compares two pitch contours with dynamic time warping on
// z-normalized values. The warping distance is scaled by the longer contour
// and inverted into [0,1].
func DTWSimilarity(ref, user []float64) float64 {
	if len(ref) < 3 || len(user) < 3 {
		return 0.0
	}

	refNorm := zscore(ref)
	userNorm := zscore(user)

	distance := dtwDistance(refNorm, userNorm)
	maxLen := float64(max(len(ref), len(user)))
	return math.Max(0.0, 1.0-distance/maxLen)
}

// CosineSimilarity compares two contours by resampling them to a common
// length and taking the cosine of the z-normalized values, remapped to [0,1].
// DTWSimilarity is total on its inputs, so the scoring path never falls
// through to this; it remains an alternative metric for callers.
func CosineSimilarity(ref, user []float64) float64 {
	minLen := min(len(ref), len(user))
	if minLen < 3 {
		return 0.0
	}

	refRs := resampleLinear(ref, minLen)
	userRs := resampleLinear(user, minLen)

	refNorm := zscoreEps(refRs)
	userNorm := zscoreEps(userRs)

	dot := floats.Dot(refNorm, userNorm)
	normRef := floats.Norm(refNorm, 2)
	normUser := floats.Norm(userNorm, 2)
	if normRef == 0 || normUser == 0 {
		return 0.0
	}
	return math.Max(0.0, (dot/(normRef*normUser)+1)/2)
}

// CompareSegments scores each span of the two contours and averages the
// segments that could be compared. Spans without enough voiced points on both
// sides are reported with a nil similarity and excluded from the average.
func CompareSegments(refPoints, userPoints []Point, spans []Span) Result {
	details := make([]SegmentDetail, 0, len(spans))
	var similarities []float64

	for _, span := range spans {
		refSeg := SegmentValues(refPoints, span.Start, span.End)
		userSeg := SegmentValues(userPoints, span.Start, span.End)

		detail := SegmentDetail{Text: span.Text, Start: span.Start, End: span.End}
		if len(refSeg) > minSegmentPoints && len(userSeg) > minSegmentPoints {
			sim := DTWSimilarity(refSeg, userSeg)
			detail.Similarity = &sim
			similarities = append(similarities, sim)
		}
		details = append(details, detail)
	}

	avg := 0.0
	if len(similarities) > 0 {
		avg = stat.Mean(similarities, nil)
	}
	return Result{Similarity: avg, SegmentDetails: details}
}

func dtwDistance(a, b []float64) float64 {
	n, m := len(a), len(b)
	prev := make([]float64, m+1)
	cur := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}
	for i := 1; i <= n; i++ {
		cur[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			cur[j] = cost + math.Min(prev[j], math.Min(cur[j-1], prev[j-1]))
		}
		prev, cur = cur, prev
	}
	return prev[m]
}

func zscore(xs []float64) []float64 {
	mean := stat.Mean(xs, nil)
	std := popStd(xs)
	out := make([]float64, len(xs))
	if std == 0 {
		return out
	}
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}

func zscoreEps(xs []float64) []float64 {
	mean := stat.Mean(xs, nil)
	std := popStd(xs) + 1e-8
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = (x - mean) / std
	}
	return out
}

func popStd(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func resampleLinear(xs []float64, n int) []float64 {
	if len(xs) == n {
		return append([]float64(nil), xs...)
	}
	out := make([]float64, n)
	for i := range out {
		pos := float64(i) / float64(n-1) * float64(len(xs)-1)
		lo := int(pos)
		if lo >= len(xs)-1 {
			out[i] = xs[len(xs)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = xs[lo]*(1-frac) + xs[lo+1]*frac
	}
	return out
}
