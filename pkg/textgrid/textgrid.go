// Package textgrid parses Praat TextGrid files produced by forced alignment
// and compares the phone tiers of two recordings.
package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Interval is one annotated interval of the phones tier.
type Interval struct {
	Start float64
	End   float64
	Phone string
}

// TextGrid holds the phones tier of one file.
type TextGrid struct {
	Path          string
	Intervals     []Interval
	TotalDuration float64
}

// ParseFile reads the phones tier from a TextGrid file.
func ParseFile(path string) (*TextGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TextGrid: %w", err)
	}
	defer f.Close()

	tg, err := Parse(f)
	if err != nil {
		return nil, err
	}
	tg.Path = path
	return tg, nil
}

// Parse reads the phones tier from TextGrid content.
func Parse(r io.Reader) (*TextGrid, error) {
	var (
		intervals  []Interval
		current    Interval
		inTier     bool
		inInterval bool
	)

	flush := func() {
		if inInterval {
			intervals = append(intervals, current)
		}
		current = Interval{}
		inInterval = false
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.Contains(line, `name = "phones"`) {
			inTier = true
			continue
		}
		if !inTier {
			continue
		}

		switch {
		case strings.Contains(line, "intervals ["):
			flush()
			inInterval = true
		case strings.Contains(line, "name ="):
			// Another tier starts.
			flush()
			return result(intervals), scanner.Err()
		case inInterval && strings.Contains(line, "xmin ="):
			current.Start = parseFloatField(line)
		case inInterval && strings.Contains(line, "xmax ="):
			current.End = parseFloatField(line)
		case inInterval && strings.Contains(line, "text ="):
			current.Phone = parseTextField(line)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read TextGrid: %w", err)
	}
	return result(intervals), nil
}

func result(intervals []Interval) *TextGrid {
	tg := &TextGrid{Intervals: intervals}
	if len(intervals) > 0 {
		tg.TotalDuration = intervals[len(intervals)-1].End
	}
	return tg
}

func parseFloatField(line string) float64 {
	_, value, ok := strings.Cut(line, "=")
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseTextField(line string) string {
	_, value, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(value), `"`)
}

// Phones returns the non-empty phone labels in order.
func (tg *TextGrid) Phones() []string {
	var phones []string
	for _, iv := range tg.Intervals {
		if iv.Phone != "" {
			phones = append(phones, iv.Phone)
		}
	}
	return phones
}
