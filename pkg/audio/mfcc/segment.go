package mfcc

import "sort"

// MinSegmentFrames is the minimum number of frames for a segment to carry any
// signal worth comparing.
const MinSegmentFrames = 5

// ExtractSegment cuts the frames that fall inside [start, end]. Segments
// shorter than MinSegmentFrames are treated as missing and return nil.
func ExtractSegment(coeffs [][]float64, frameTimes []float64, start, end float64) [][]float64 {
	startIdx := sort.SearchFloat64s(frameTimes, start)
	endIdx := sort.Search(len(frameTimes), func(i int) bool { return frameTimes[i] > end })

	if startIdx < 0 {
		startIdx = 0
	}
	if endIdx > len(coeffs) {
		endIdx = len(coeffs)
	}
	if endIdx-startIdx < MinSegmentFrames {
		return nil
	}
	return coeffs[startIdx:endIdx]
}
