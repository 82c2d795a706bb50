package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipDuration(t *testing.T) {
	clip := &Clip{PCM: make([]float64, 32000), SampleRate: 16000}
	assert.InDelta(t, 2.0, clip.Duration(), 1e-9)

	empty := &Clip{SampleRate: 0}
	assert.Equal(t, 0.0, empty.Duration())
}

func TestDownmixMono(t *testing.T) {
	stereo := &Clip{PCM: []float64{1.0, 0.0, 0.5, 0.5}, SampleRate: 48000}
	mono := downmixMono(stereo)
	assert.Equal(t, []float64{0.5, 0.5}, mono.PCM)
	assert.Equal(t, 48000, mono.SampleRate)
}

func TestResample(t *testing.T) {
	clip := &Clip{PCM: []float64{0, 1, 2, 3}, SampleRate: 32000}
	out := resample(clip, 16000)
	assert.Equal(t, 16000, out.SampleRate)
	assert.Len(t, out.PCM, 2)
	assert.InDelta(t, 0.0, out.PCM[0], 1e-9)
	assert.InDelta(t, 2.0, out.PCM[1], 1e-9)

	same := resample(&Clip{PCM: []float64{1, 2}, SampleRate: 16000}, 16000)
	assert.Equal(t, []float64{1, 2}, same.PCM)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "audio/wav", contentTypeFor("/tmp/user_audio.wav"))
	assert.Equal(t, "audio/mpeg", contentTypeFor("clip.MP3"))
	assert.Equal(t, "audio/mp4", contentTypeFor("clip.m4a"))
	assert.Equal(t, "audio/wav", contentTypeFor("unknown.bin"))
}
