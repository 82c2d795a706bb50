package mfcc

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// stdRatioThreshold is the user/reference deviation ratio below which the
// user segment is treated as missing speech rather than poor speech.
const stdRatioThreshold = 0.5

// blockWeights scale the base, delta and delta-delta feature blocks before
// the frame distance is computed.
var blockWeights = [3]float64{1.5, 0.8, 0.3}

// RefSegment is one reference word with its precomputed MFCC frames.
type RefSegment struct {
	Word         string
	Start        float64
	End          float64
	Coefficients [][]float64
}

// Comparison is the similarity verdict for one reference word.
type Comparison struct {
	Word string
	// Similarity is the raw frame similarity in [0,1].
	Similarity float64
	// Calibrated is the similarity mapped onto the learner score scale,
	// normalized to [0,1].
	Calibrated float64
}

// StdDeviation returns the mean per-coefficient standard deviation over the
// first NumCoefficients columns. Delta blocks are excluded so padded or
// derived features do not mask a silent segment.
func StdDeviation(frames [][]float64) float64 {
	if len(frames) == 0 {
		return 0.0
	}
	dim := len(frames[0])
	if dim > NumCoefficients {
		dim = NumCoefficients
	}

	col := make([]float64, len(frames))
	total := 0.0
	for k := range dim {
		for t := range frames {
			col[t] = frames[t][k]
		}
		total += popStdDev(col)
	}
	return total / float64(dim)
}

// FrameSimilarity scores two MFCC segments by mean per-frame Euclidean
// distance after delta augmentation, CMVN and block weighting. A user segment
// with far less spectral variance than the reference is scored as missing
// speech instead.
func FrameSimilarity(ref, user [][]float64) float64 {
	if len(ref) == 0 || len(user) == 0 {
		return 0.0
	}
	if len(ref) < MinSegmentFrames || len(user) < MinSegmentFrames {
		return 0.0
	}

	refStd := StdDeviation(ref)
	userStd := StdDeviation(user)
	stdRatio := 0.0
	if refStd > 0 {
		stdRatio = userStd / refStd
	}

	if stdRatio < stdRatioThreshold {
		penalty := 1.0 - stdRatio/stdRatioThreshold
		return 0.05 * (1.0 - penalty)
	}

	if len(ref[0]) == NumCoefficients {
		ref = WithDeltas(ref)
	}
	if len(user[0]) == NumCoefficients {
		user = WithDeltas(user)
	}

	refNorm := applyBlockWeights(CMVN(ref))
	userNorm := applyBlockWeights(CMVN(user))

	if len(refNorm) > len(userNorm) {
		userNorm = edgePadFrames(userNorm, 0, len(refNorm)-len(userNorm))
	} else if len(userNorm) > len(refNorm) {
		refNorm = edgePadFrames(refNorm, 0, len(userNorm)-len(refNorm))
	}

	distances := make([]float64, len(refNorm))
	for t := range refNorm {
		sum := 0.0
		for k := range refNorm[t] {
			d := refNorm[t][k] - userNorm[t][k]
			sum += d * d
		}
		distances[t] = math.Sqrt(sum)
	}
	similarity := 1.0 / (1.0 + stat.Mean(distances, nil))

	if stdRatio < 1.0 {
		similarity *= 1.0 - (1.0-stdRatio)*0.3
	}
	if math.IsNaN(similarity) {
		return 0.0
	}
	return similarity
}

// CompareSegments scores each reference word segment against the matching
// time slice of the user features. Reference segments are shifted so the
// first one starts at zero.
func CompareSegments(refs []RefSegment, user *Features) []Comparison {
	offset := 0.0
	if len(refs) > 0 {
		offset = refs[0].Start
	}

	results := make([]Comparison, 0, len(refs))
	for _, ref := range refs {
		similarity := 0.0
		if len(ref.Coefficients) > 0 {
			userSeg := ExtractSegment(user.Coefficients, user.FrameTimes, ref.Start-offset, ref.End-offset)
			if len(userSeg) > 0 {
				similarity = FrameSimilarity(ref.Coefficients, userSeg)
			}
		}
		results = append(results, Comparison{
			Word:       ref.Word,
			Similarity: similarity,
			Calibrated: Calibrate(similarity) / 100.0,
		})
	}
	return results
}

func applyBlockWeights(frames [][]float64) [][]float64 {
	if len(frames) == 0 {
		return frames
	}
	d := len(frames[0]) / 3
	out := make([][]float64, len(frames))
	for t := range frames {
		row := make([]float64, len(frames[t]))
		for k := range row {
			w := blockWeights[min(k/d, 2)]
			row[k] = frames[t][k] * w
		}
		out[t] = row
	}
	return out
}
