// Package audio loads recordings into mono PCM at the analysis sample rate.
package audio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-sonar/transcode"
)

// AnalysisSampleRate is the rate all clips are resampled to before feature
// extraction.
const AnalysisSampleRate = 16000

// Clip is decoded mono audio.
type Clip struct {
	PCM        []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.PCM)) / float64(c.SampleRate)
}

// LoadFile decodes an audio file and converts it to mono at targetRate.
func LoadFile(path string, targetRate int) (*Clip, error) {
	decoder := transcode.NewNormalizingDecoder(contentTypeFor(path))
	data, err := decoder.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio file: %w", err)
	}

	clip := &Clip{PCM: data.PCM, SampleRate: data.SampleRate}
	if data.Channels == 2 {
		clip = downmixMono(clip)
	}
	if clip.SampleRate != targetRate {
		clip = resample(clip, targetRate)
	}
	return clip, nil
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/wav"
	}
}

func downmixMono(clip *Clip) *Clip {
	mono := make([]float64, len(clip.PCM)/2)
	for i := range mono {
		mono[i] = (clip.PCM[i*2] + clip.PCM[i*2+1]) / 2.0
	}
	return &Clip{PCM: mono, SampleRate: clip.SampleRate}
}

func resample(clip *Clip, targetRate int) *Clip {
	if clip.SampleRate == targetRate || len(clip.PCM) == 0 {
		return &Clip{PCM: clip.PCM, SampleRate: targetRate}
	}

	ratio := float64(targetRate) / float64(clip.SampleRate)
	out := make([]float64, int(float64(len(clip.PCM))*ratio))
	for i := range out {
		src := float64(i) / ratio
		idx := int(src)
		if idx >= len(clip.PCM)-1 {
			out[i] = clip.PCM[len(clip.PCM)-1]
			continue
		}
		frac := src - float64(idx)
		out[i] = clip.PCM[idx]*(1-frac) + clip.PCM[idx+1]*frac
	}
	return &Clip{PCM: out, SampleRate: targetRate}
}
