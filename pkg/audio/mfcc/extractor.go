// Package mfcc extracts mel-frequency cepstral features from mono PCM and
// scores the similarity of word-aligned segments between a reference and a
// user recording.
package mfcc

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-sonar/algorithms/spectral"
	"github.com/mjibson/go-dsp/fft"

	"github.com/echovine/speechscore/pkg/audio"
)

// NumCoefficients is the number of cepstral coefficients per frame.
const NumCoefficients = 13

// Extractor computes MFCC frames with a 25ms window and 10ms hop.
type Extractor struct {
	sampleRate int
	fftSize    int
	winLength  int
	hopLength  int
	window     []float64
	mfcc       *spectral.MFCC
}

// Features holds MFCC frames and the time each frame maps to.
type Features struct {
	Coefficients [][]float64
	FrameTimes   []float64
}

// NewExtractor creates an extractor for the given sample rate.
func NewExtractor(sampleRate int) *Extractor {
	winLength := int(0.025 * float64(sampleRate))
	return &Extractor{
		sampleRate: sampleRate,
		fftSize:    512,
		winLength:  winLength,
		hopLength:  int(0.010 * float64(sampleRate)),
		window:     hannWindow(winLength),
		mfcc:       spectral.NewMFCC(sampleRate, NumCoefficients),
	}
}

// Extract computes MFCC frames for the whole clip. Frame times are spread
// evenly from zero to the clip duration so segments can be cut by timestamp.
func (e *Extractor) Extract(clip *audio.Clip) (*Features, error) {
	if len(clip.PCM) == 0 {
		return nil, fmt.Errorf("empty audio clip")
	}
	if clip.SampleRate != e.sampleRate {
		return nil, fmt.Errorf("clip sample rate %d does not match extractor rate %d", clip.SampleRate, e.sampleRate)
	}

	magnitude := e.spectrogram(clip.PCM)
	coeffs, err := e.mfcc.ComputeFrames(magnitude)
	if err != nil {
		return nil, fmt.Errorf("MFCC computation failed: %w", err)
	}

	return &Features{
		Coefficients: coeffs,
		FrameTimes:   linspace(0, clip.Duration(), len(coeffs)),
	}, nil
}

// spectrogram computes the magnitude STFT with centered frames. The signal is
// reflect-padded by half the FFT size so frame i is centered on sample i*hop.
func (e *Extractor) spectrogram(pcm []float64) [][]float64 {
	pad := e.fftSize / 2
	padded := reflectPad(pcm, pad)

	numFrames := 1 + len(pcm)/e.hopLength
	freqBins := e.fftSize/2 + 1
	frame := make([]float64, e.fftSize)
	winOffset := (e.fftSize - e.winLength) / 2

	magnitude := make([][]float64, numFrames)
	for i := range numFrames {
		start := i * e.hopLength
		for j := range frame {
			frame[j] = 0
		}
		// Window the 25ms slice, zero-padded to the FFT size.
		for j := range e.winLength {
			src := start + winOffset + j
			if src < len(padded) {
				frame[winOffset+j] = padded[src] * e.window[j]
			}
		}

		spectrum := fft.FFTReal(frame)
		mags := make([]float64, freqBins)
		for j := range freqBins {
			mags[j] = cmplx.Abs(spectrum[j])
		}
		magnitude[i] = mags
	}
	return magnitude
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

func reflectPad(x []float64, pad int) []float64 {
	out := make([]float64, 0, len(x)+2*pad)
	for i := pad; i > 0; i-- {
		idx := i % len(x)
		out = append(out, x[idx])
	}
	out = append(out, x...)
	for i := 0; i < pad; i++ {
		idx := len(x) - 2 - i
		if idx < 0 {
			idx = (-idx) % len(x)
		}
		out = append(out, x[idx])
	}
	return out
}

func linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
