// Package stt turns recorded speech into timed words. The wire types mirror
// the whisper.cpp JSON output so results can come from a whisper-server
// instance or from a cached transcription file.
package stt

import (
	"context"
	"strconv"
	"strings"

	"github.com/echovine/speechscore/pkg/textalign"
)

// Transcriber converts an audio file into a transcription result.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// Result is a whisper.cpp transcription.
type Result struct {
	Transcription []Segment `json:"transcription"`
}

// Segment is one transcribed chunk with its tokens.
type Segment struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
	Words  []Word  `json:"words,omitempty"`
}

// Token is a subword unit with clock timestamps and a confidence.
type Token struct {
	Text       string     `json:"text"`
	Timestamps Timestamps `json:"timestamps"`
	P          float64    `json:"p"`
}

// Timestamps are whisper.cpp clock strings such as "00:00:01,500".
type Timestamps struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Word is a word-level timestamp, in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Text returns the trimmed text of the first segment.
func (r *Result) Text() string {
	if len(r.Transcription) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Transcription[0].Text)
}

// IsSilence reports whether the recognizer saw no speech at all, which
// whisper.cpp marks with a bracketed control token like "[BLANK_AUDIO]".
func (r *Result) IsSilence() bool {
	return strings.HasPrefix(r.Text(), "[")
}

// TokenSegments flattens all non-control tokens into timed segments.
func (r *Result) TokenSegments() []textalign.Segment {
	var segs []textalign.Segment
	for _, segment := range r.Transcription {
		for _, token := range segment.Tokens {
			if strings.HasPrefix(token.Text, "[") {
				continue
			}
			word := strings.TrimSpace(token.Text)
			if word == "" {
				continue
			}
			segs = append(segs, textalign.Segment{
				Word:       word,
				Start:      ParseClock(token.Timestamps.From),
				End:        ParseClock(token.Timestamps.To),
				Confidence: token.P,
			})
		}
	}
	return segs
}

// ParseClock converts a whisper.cpp clock string ("00:00:01,500") to seconds.
func ParseClock(clock string) float64 {
	parts := strings.Split(strings.ReplaceAll(clock, ",", "."), ":")
	if len(parts) != 3 {
		return 0
	}
	hours, _ := strconv.ParseFloat(parts[0], 64)
	minutes, _ := strconv.ParseFloat(parts[1], 64)
	seconds, _ := strconv.ParseFloat(parts[2], 64)
	return hours*3600 + minutes*60 + seconds
}
