package textgrid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGrid = `File type = "ooTextFile"
Object class = "TextGrid"

xmin = 0
xmax = 1.5
tiers? <exists>
size = 2
item []:
    item [1]:
        class = "IntervalTier"
        name = "words"
        xmin = 0
        xmax = 1.5
        intervals: size = 1
        intervals [1]:
            xmin = 0
            xmax = 1.5
            text = "hello"
    item [2]:
        class = "IntervalTier"
        name = "phones"
        xmin = 0
        xmax = 1.5
        intervals: size = 4
        intervals [1]:
            xmin = 0
            xmax = 0.2
            text = ""
        intervals [2]:
            xmin = 0.2
            xmax = 0.6
            text = "HH"
        intervals [3]:
            xmin = 0.6
            xmax = 1.1
            text = "EH"
        intervals [4]:
            xmin = 1.1
            xmax = 1.5
            text = "L"
`

func TestParse(t *testing.T) {
	tg, err := Parse(strings.NewReader(sampleGrid))
	require.NoError(t, err)

	require.Len(t, tg.Intervals, 4)
	assert.Equal(t, "", tg.Intervals[0].Phone)
	assert.Equal(t, "HH", tg.Intervals[1].Phone)
	assert.Equal(t, 0.2, tg.Intervals[1].Start)
	assert.Equal(t, 0.6, tg.Intervals[1].End)
	assert.Equal(t, 1.5, tg.TotalDuration)

	assert.Equal(t, []string{"HH", "EH", "L"}, tg.Phones())
}

func TestParseStopsAtNextTier(t *testing.T) {
	grid := strings.Replace(sampleGrid, `name = "words"`, `name = "phones"`, 1)
	grid = strings.Replace(grid, `name = "phones"
        xmin = 0
        xmax = 1.5
        intervals: size = 4`, `name = "other"
        xmin = 0
        xmax = 1.5
        intervals: size = 4`, 1)

	tg, err := Parse(strings.NewReader(grid))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, tg.Phones())
}

func TestParseEmptyInput(t *testing.T) {
	tg, err := Parse(strings.NewReader("File type = \"ooTextFile\"\n"))
	require.NoError(t, err)
	assert.Empty(t, tg.Intervals)
	assert.Equal(t, 0.0, tg.TotalDuration)
}

func buildGrid(phones []string, start, step float64) *TextGrid {
	tg := &TextGrid{}
	for i, p := range phones {
		tg.Intervals = append(tg.Intervals, Interval{
			Start: start + float64(i)*step,
			End:   start + float64(i+1)*step,
			Phone: p,
		})
	}
	if len(tg.Intervals) > 0 {
		tg.TotalDuration = tg.Intervals[len(tg.Intervals)-1].End
	}
	return tg
}

func TestCompareIdentical(t *testing.T) {
	ref := buildGrid([]string{"HH", "EH", "L", "OW"}, 0, 0.1)
	cmp := Compare(ref, ref)

	assert.Equal(t, 1.0, cmp.PronunciationAccuracy)
	assert.Equal(t, 1.0, cmp.TimingAccuracy)
	assert.Equal(t, 4, cmp.MatchedPhones)
	assert.Equal(t, 4, cmp.ReferencePhones)
}

func TestComparePartialMatch(t *testing.T) {
	ref := buildGrid([]string{"HH", "EH", "L", "OW"}, 0, 0.1)
	user := buildGrid([]string{"HH", "AH", "L"}, 0, 0.1)

	cmp := Compare(ref, user)
	assert.Equal(t, 2, cmp.MatchedPhones)
	assert.InDelta(t, 0.5, cmp.PronunciationAccuracy, 1e-9)
	assert.Equal(t, 3, cmp.UserPhones)
}

func TestCompareTiming(t *testing.T) {
	ref := buildGrid([]string{"AA", "BB"}, 0, 0.5)
	slow := buildGrid([]string{"AA", "BB"}, 0, 0.75)

	cmp := Compare(ref, slow)
	assert.InDelta(t, 0.5, cmp.TimingAccuracy, 1e-9)

	// A user twice as slow as the reference bottoms out at zero.
	crawl := buildGrid([]string{"AA", "BB"}, 0, 1.5)
	cmp = Compare(ref, crawl)
	assert.Equal(t, 0.0, cmp.TimingAccuracy)
}

func TestCompareEmptyUser(t *testing.T) {
	ref := buildGrid([]string{"AA"}, 0, 0.5)
	cmp := Compare(ref, &TextGrid{})
	assert.Equal(t, 0.0, cmp.PronunciationAccuracy)
	assert.Equal(t, 0.0, cmp.TimingAccuracy)
	assert.Equal(t, 0, cmp.UserPhones)
}
