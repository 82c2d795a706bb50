package textalign

import "math"

// TimeMatch records how well one reference word's interval overlaps the same
// word in the user recording. UserStart and UserEnd are nil when the word was
// never recognized.
type TimeMatch struct {
	Word         string
	Match        bool
	OverlapRatio float64
	RefStart     float64
	RefEnd       float64
	UserStart    *float64
	UserEnd      *float64
}

// DefaultOverlapThreshold is the minimum overlap ratio for a time match.
const DefaultOverlapThreshold = 0.4

// TimeOverlap returns the overlap duration of the two intervals and the
// overlap as a fraction of the reference duration.
func TimeOverlap(refStart, refEnd, userStart, userEnd float64) (float64, float64) {
	start := math.Max(refStart, userStart)
	end := math.Min(refEnd, userEnd)
	if start >= end {
		return 0.0, 0.0
	}
	dur := end - start
	refDur := refEnd - refStart
	if refDur <= 0 {
		return dur, 0.0
	}
	return dur, dur / refDur
}

// MatchTimes pairs each reference word with the recognized user word of the
// same normalized text and checks their interval overlap against threshold.
func MatchTimes(refSegs, userSegs []Segment, threshold float64) []TimeMatch {
	byWord := make(map[string]Segment, len(userSegs))
	for _, u := range userSegs {
		byWord[firstToken(u.Word)] = u
	}

	results := make([]TimeMatch, 0, len(refSegs))
	for _, r := range refSegs {
		m := TimeMatch{
			Word:     r.Word,
			RefStart: r.Start,
			RefEnd:   r.End,
		}
		if u, ok := byWord[firstToken(r.Word)]; ok {
			start, end := u.Start, u.End
			_, ratio := TimeOverlap(r.Start, r.End, start, end)
			m.Match = ratio >= threshold
			m.OverlapRatio = ratio
			m.UserStart = &start
			m.UserEnd = &end
		}
		results = append(results, m)
	}
	return results
}
