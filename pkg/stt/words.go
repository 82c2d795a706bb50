package stt

import (
	"strings"

	"github.com/echovine/speechscore/pkg/textalign"
)

// WordTimestamps extracts word-level timings from the first segment. When the
// recognizer already provides a words array it is used directly; otherwise
// subword tokens are merged, with a leading space marking a word boundary.
func (r *Result) WordTimestamps() []textalign.Segment {
	if len(r.Transcription) == 0 {
		return nil
	}
	segment := r.Transcription[0]

	if len(segment.Words) > 0 {
		words := make([]textalign.Segment, 0, len(segment.Words))
		for _, w := range segment.Words {
			words = append(words, textalign.Segment{Word: w.Word, Start: w.Start, End: w.End})
		}
		return words
	}

	var (
		words     []textalign.Segment
		current   string
		wordStart float64
		prevEnd   float64
	)
	for _, token := range segment.Tokens {
		if textalign.IsControlToken(token.Text) {
			continue
		}
		start := ParseClock(token.Timestamps.From)
		end := ParseClock(token.Timestamps.To)

		if strings.HasPrefix(token.Text, " ") {
			if current != "" {
				words = append(words, textalign.Segment{Word: current, Start: wordStart, End: prevEnd})
			}
			current = strings.TrimSpace(token.Text)
			wordStart = start
		} else {
			current += strings.TrimSpace(token.Text)
		}
		prevEnd = end
	}
	if current != "" {
		words = append(words, textalign.Segment{Word: current, Start: wordStart, End: prevEnd})
	}
	return words
}
