package textgrid

import "math"

// Comparison summarizes how closely a user's phone tier tracks the reference.
type Comparison struct {
	PronunciationAccuracy float64 `json:"pronunciation_accuracy"`
	TimingAccuracy        float64 `json:"timing_accuracy"`
	ReferencePhones       int     `json:"reference_phones"`
	UserPhones            int     `json:"user_phones"`
	MatchedPhones         int     `json:"matched_phones"`
	ReferenceDuration     float64 `json:"reference_duration"`
	UserDuration          float64 `json:"user_duration"`
}

// Compare matches the two phone tiers position by position and scores timing
// by total utterance duration.
func Compare(ref, user *TextGrid) Comparison {
	refPhones := ref.Phones()
	userPhones := user.Phones()

	matched := 0
	for i := 0; i < min(len(refPhones), len(userPhones)); i++ {
		if refPhones[i] == userPhones[i] {
			matched++
		}
	}

	accuracy := 0.0
	if len(refPhones) > 0 {
		accuracy = float64(matched) / float64(len(refPhones))
	}

	return Comparison{
		PronunciationAccuracy: accuracy,
		TimingAccuracy:        timingAccuracy(ref.Intervals, user.Intervals),
		ReferencePhones:       len(refPhones),
		UserPhones:            len(userPhones),
		MatchedPhones:         matched,
		ReferenceDuration:     ref.TotalDuration,
		UserDuration:          user.TotalDuration,
	}
}

// timingAccuracy compares the total utterance durations. Twice the reference
// duration or more scores zero.
func timingAccuracy(ref, user []Interval) float64 {
	if len(ref) == 0 || len(user) == 0 {
		return 0.0
	}

	refDur := ref[len(ref)-1].End - ref[0].Start
	userDur := user[len(user)-1].End - user[0].Start

	diffRatio := 1.0
	if refDur > 0 {
		diffRatio = math.Abs(refDur-userDur) / refDur
	}
	return math.Max(0, 1-diffRatio)
}
