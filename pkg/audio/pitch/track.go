// Package pitch extracts fundamental frequency contours and compares them
// between a reference and a user recording, word segment by word segment.
package pitch

import (
	"github.com/RyanBlaney/sonido-sonar/algorithms/tonal"

	"github.com/echovine/speechscore/pkg/audio"
)

// Point is one sample of the pitch contour. Hz is nil for unvoiced frames.
type Point struct {
	Time float64  `json:"time"`
	Hz   *float64 `json:"hz"`
}

// Tracker samples the fundamental frequency every 10ms.
type Tracker struct {
	sampleRate int
	floor      float64
	ceiling    float64
	voicing    float64
	frameSize  int
	hopSize    int
	detector   *tonal.PitchDetector
}

// NewTracker creates a tracker for speech: 75..600 Hz with a 10ms step. The
// analysis window spans three periods of the pitch floor.
func NewTracker(sampleRate int) *Tracker {
	return NewTrackerRange(sampleRate, 75.0, 600.0)
}

// NewTrackerRange creates a tracker with a custom frequency range.
func NewTrackerRange(sampleRate int, floor, ceiling float64) *Tracker {
	return &Tracker{
		sampleRate: sampleRate,
		floor:      floor,
		ceiling:    ceiling,
		voicing:    0.45,
		frameSize:  int(3.0 / floor * float64(sampleRate)),
		hopSize:    int(0.010 * float64(sampleRate)),
		detector:   tonal.NewPitchDetector(sampleRate),
	}
}

// Track returns the pitch contour of the clip. Frames that are unvoiced or
// fall outside the tracker's frequency range have a nil Hz.
func (t *Tracker) Track(clip *audio.Clip) []Point {
	if len(clip.PCM) < t.frameSize {
		return nil
	}

	numFrames := (len(clip.PCM)-t.frameSize)/t.hopSize + 1
	points := make([]Point, 0, numFrames)
	for i := range numFrames {
		start := i * t.hopSize
		frame := clip.PCM[start : start+t.frameSize]
		center := (float64(start) + float64(t.frameSize)/2) / float64(t.sampleRate)

		point := Point{Time: center}
		result, err := t.detector.DetectPitch(frame)
		if err == nil && result.Voicing >= t.voicing && result.Pitch >= t.floor && result.Pitch <= t.ceiling {
			hz := result.Pitch
			point.Hz = &hz
		}
		points = append(points, point)
	}
	return points
}

// SegmentValues collects the voiced pitch values inside [start, end].
func SegmentValues(points []Point, start, end float64) []float64 {
	var values []float64
	for _, p := range points {
		if p.Time < start || p.Time > end {
			continue
		}
		if p.Hz == nil || *p.Hz <= 0 {
			continue
		}
		values = append(values, *p.Hz)
	}
	return values
}
