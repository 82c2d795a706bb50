// Package textalign compares reference word timings against recognized user
// speech. Words are matched by normalized text similarity inside a tolerance
// window around the reference interval, then gated on start-point proximity
// and interval overlap.
package textalign

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Segment is a single word with its time interval, in seconds.
type Segment struct {
	Word       string
	Start      float64
	End        float64
	Confidence float64
}

// WordResult is the alignment verdict for one reference word.
type WordResult struct {
	Word          string
	Pass          bool
	LCSSimilarity float64
	Confidence    float64
}

// Params controls the alignment filters.
type Params struct {
	// WindowTol widens the reference interval when collecting candidate
	// user segments.
	WindowTol float64
	// StartTol is the maximum allowed start-point difference.
	StartTol float64
	// LCSThreshold is the minimum character LCS ratio for a word match.
	LCSThreshold float64
	// MinOverlap is the minimum overlap-to-reference-duration ratio.
	MinOverlap float64
}

// DefaultParams returns the alignment thresholds used in production.
func DefaultParams() Params {
	return Params{
		WindowTol:    0.25,
		StartTol:     0.5,
		LCSThreshold: 0.6,
		MinOverlap:   0.70,
	}
}

var (
	dropRx     = regexp.MustCompile(`[^\p{L}\p{N}_\s']`)
	spaceRx    = regexp.MustCompile(`\s+`)
	nonWordTok = regexp.MustCompile(`^[\W_]+$`)
	lowerCaser = cases.Lower(language.Und)
)

// Normalize lowercases text, folds the unicode apostrophe, strips everything
// but word characters, whitespace and apostrophes, and splits on whitespace.
func Normalize(text string) []string {
	text = lowerCaser.String(text)
	text = strings.ReplaceAll(text, "’", "'")
	text = dropRx.ReplaceAllString(text, "")
	text = spaceRx.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(text, " ")
}

// IsControlToken reports whether an STT token is a non-speech marker such as
// "[BLANK_AUDIO]" or a pure-punctuation token.
func IsControlToken(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		return true
	}
	return nonWordTok.MatchString(trimmed)
}

// WordsMatch compares the first normalized token of each word for equality.
func WordsMatch(ref, user string) bool {
	return firstToken(ref) == firstToken(user)
}

func firstToken(word string) string {
	tokens := Normalize(word)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// CharLCSRatio returns the longest-common-subsequence length of the two
// strings divided by the length of the longer one. Two empty strings score 0.
func CharLCSRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	if m == 0 && n == 0 {
		return 0.0
	}
	prev := make([]int, n+1)
	cur := make([]int, n+1)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	longer := max(m, n)
	return float64(prev[n]) / float64(longer)
}

// NormalizeToZero shifts all segments so the first one starts at zero.
func NormalizeToZero(segs []Segment) []Segment {
	if len(segs) == 0 {
		return segs
	}
	offset := segs[0].Start
	out := make([]Segment, len(segs))
	for i, s := range segs {
		s.Start -= offset
		s.End -= offset
		out[i] = s
	}
	return out
}

// AlignWords scores each reference word against the user segments. A word
// passes when the best-overlapping candidate inside the tolerance window
// matches the reference text, starts close enough, and covers at least
// MinOverlap of the reference duration.
func AlignWords(refSegs, userSegs []Segment, p Params) []WordResult {
	ref := NormalizeToZero(refSegs)
	user := NormalizeToZero(userSegs)

	results := make([]WordResult, 0, len(ref))
	for _, r := range ref {
		windowStart := r.Start - p.WindowTol
		windowEnd := r.End + p.WindowTol

		var candidates []Segment
		for _, u := range user {
			if u.End < windowStart || u.Start > windowEnd {
				continue
			}
			candidates = append(candidates, u)
		}
		if len(candidates) == 0 {
			results = append(results, WordResult{Word: r.Word})
			continue
		}

		best := candidates[0]
		bestOverlap := math.Inf(-1)
		for _, c := range candidates {
			overlap := math.Min(windowEnd, c.End) - math.Max(windowStart, c.Start)
			if overlap > bestOverlap {
				bestOverlap = overlap
				best = c
			}
		}

		lcsSim := 1.0
		if !WordsMatch(r.Word, best.Word) {
			lcsSim = CharLCSRatio(r.Word, best.Word)
		}
		if lcsSim < p.LCSThreshold {
			results = append(results, WordResult{Word: r.Word, LCSSimilarity: lcsSim})
			continue
		}

		startOK := math.Abs(best.Start-r.Start) <= p.StartTol
		overlap := math.Min(windowEnd, best.End) - math.Max(windowStart, best.Start)
		refDur := r.End - r.Start
		ratio := 0.0
		if refDur > 0 {
			ratio = overlap / refDur
		}

		results = append(results, WordResult{
			Word:          r.Word,
			Pass:          startOK && ratio >= p.MinOverlap,
			LCSSimilarity: lcsSim,
			Confidence:    best.Confidence,
		})
	}
	return results
}
