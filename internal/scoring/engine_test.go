package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echovine/speechscore/configs"
	"github.com/echovine/speechscore/pkg/audio"
	"github.com/echovine/speechscore/pkg/audio/pitch"
	"github.com/echovine/speechscore/pkg/stt"
	"github.com/echovine/speechscore/pkg/textalign"
	"github.com/echovine/speechscore/pkg/textgrid"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(&EngineConfig{Config: configs.GetDefaultConfig()})
}

func floatPtr(v float64) *float64 {
	return &v
}

func sineClip(duration float64, freq float64) *audio.Clip {
	rate := 16000
	n := int(duration * float64(rate))
	pcm := make([]float64, n)
	for i := range pcm {
		pcm[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return &audio.Clip{PCM: pcm, SampleRate: rate}
}

func TestSourceExt(t *testing.T) {
	assert.Equal(t, ".mp3", sourceExt("https://cdn.example.com/clips/audio.mp3?sig=abc"))
	assert.Equal(t, ".wav", sourceExt("/tmp/uploads/learner.wav"))
	assert.Equal(t, ".wav", sourceExt("recording"))
}

func TestBuildReport(t *testing.T) {
	e := testEngine(t)

	ref := &Reference{
		Name: "lesson-1",
		Words: []WordSpan{
			{Word: "hello", Start: 0.0, End: 0.5},
			{Word: "there", Start: 0.6, End: 1.0},
			{Word: "world", Start: 1.1, End: 1.6},
		},
	}
	alignment := []textalign.WordResult{
		{Word: "hello", Pass: true, LCSSimilarity: 1.0, Confidence: 0.9},
		{Word: "there", Pass: false, LCSSimilarity: 0.2},
		{Word: "world", Pass: true, LCSSimilarity: 1.0, Confidence: 1.0},
	}
	matches := []textalign.TimeMatch{
		{Word: "hello", Match: true, OverlapRatio: 0.95, UserStart: floatPtr(0.02), UserEnd: floatPtr(0.48)},
		{Word: "there", Match: false},
		{Word: "world", Match: false, OverlapRatio: 0.1, UserStart: floatPtr(2.0), UserEnd: floatPtr(2.5)},
	}
	sims := []*float64{floatPtr(0.8), nil, floatPtr(0.3)}
	pitchResult := pitch.Result{Similarity: 0.5}
	sttResult := &stt.Result{Transcription: []stt.Segment{{Text: "hello world"}}}

	report := e.buildReport(ref, sttResult, alignment, matches, sims, pitchResult, nil)

	require.Len(t, report.Words, 3)
	assert.Equal(t, "lesson-1", report.Reference)
	assert.Equal(t, "hello world", report.Transcribed)

	// 0.7*0.9 + 0.3*0.8
	assert.InDelta(t, 0.87, report.Words[0].WordScore, 1e-9)
	// Failed text match and no acoustic segment.
	assert.Zero(t, report.Words[1].WordScore)
	// 0.7*1.0 + 0.3*0.3
	assert.InDelta(t, 0.79, report.Words[2].WordScore, 1e-9)
	assert.InDelta(t, (0.87+0.79)/3, report.OverallScore, 1e-9)

	assert.Equal(t, 3, report.Summary.TotalWords)
	assert.Equal(t, 2, report.Summary.PassedWords)
	assert.Equal(t, 1, report.Summary.TimeMatchedWords)
	assert.InDelta(t, 2.0/3, report.Summary.TextAccuracy, 1e-9)
	assert.InDelta(t, 1.0/3, report.Summary.TimeAccuracy, 1e-9)
	assert.InDelta(t, 0.55, report.Summary.MFCCAverage, 1e-9)

	assert.Equal(t, []string{"there"}, report.Failures.STTFailures)
	assert.Equal(t, []string{"world"}, report.Failures.TimeFailures)
	assert.Equal(t, []string{"world"}, report.Failures.MFCCLowQuality)

	// Without a phone comparison the word accuracies stand in.
	require.NotNil(t, report.Components)
	assert.InDelta(t, 200.0/3, report.Components.PronunciationScore, 1e-6)
	assert.InDelta(t, 100.0/3, report.Components.TimingScore, 1e-6)
	assert.InDelta(t, 50.0, report.Components.PitchScore, 1e-9)
	expected := (50*200.0/3 + 25*100.0/3 + 25*50.0) / 100
	assert.InDelta(t, expected, report.Components.FinalScore, 1e-6)
}

func TestBuildReportWithPhones(t *testing.T) {
	e := testEngine(t)

	ref := &Reference{Words: []WordSpan{{Word: "hi", Start: 0, End: 0.4}}}
	alignment := []textalign.WordResult{{Word: "hi", Pass: true, Confidence: 1.0}}
	matches := []textalign.TimeMatch{{Word: "hi", Match: true, UserStart: floatPtr(0.0), UserEnd: floatPtr(0.4)}}
	sims := []*float64{floatPtr(0.9)}
	phones := &textgrid.Comparison{PronunciationAccuracy: 0.8, TimingAccuracy: 0.6}

	report := e.buildReport(ref, &stt.Result{}, alignment, matches, sims, pitch.Result{Similarity: 1.0}, phones)

	assert.InDelta(t, 80.0, report.Components.PronunciationScore, 1e-9)
	assert.InDelta(t, 60.0, report.Components.TimingScore, 1e-9)
	assert.InDelta(t, 100.0, report.Components.PitchScore, 1e-9)
	assert.InDelta(t, (50*80.0+25*60.0+25*100.0)/100, report.Components.FinalScore, 1e-9)
	assert.Same(t, phones, report.Components.Phones)
}

func TestSilentReport(t *testing.T) {
	e := testEngine(t)

	ref := &Reference{
		Name: "lesson-2",
		Words: []WordSpan{
			{Word: "good", Start: 0, End: 0.4},
			{Word: "morning", Start: 0.5, End: 1.1},
		},
	}
	sttResult := &stt.Result{Transcription: []stt.Segment{{Text: "[silence]"}}}

	report := e.silentReport(ref, sttResult)

	assert.Zero(t, report.OverallScore)
	assert.Equal(t, []string{"good", "morning"}, report.Failures.STTFailures)
	assert.Equal(t, 2, report.Summary.TotalWords)
	assert.Zero(t, report.Summary.PassedWords)
	require.Len(t, report.Words, 2)
	assert.Nil(t, report.Words[0].UserStart)
	assert.Zero(t, report.Components.FinalScore)
}

func TestTimeMatchesOffsetReference(t *testing.T) {
	e := testEngine(t)

	// The script starts after three seconds of leading silence; the learner
	// speaks immediately.
	ref := []textalign.Segment{
		{Word: "hello", Start: 3.0, End: 3.5},
		{Word: "world", Start: 3.6, End: 4.1},
	}
	user := []textalign.Segment{
		{Word: "hello", Start: 0.0, End: 0.5},
		{Word: "world", Start: 0.6, End: 1.1},
	}

	matches := e.timeMatches(ref, user)
	require.Len(t, matches, 2)

	assert.True(t, matches[0].Match)
	assert.InDelta(t, 1.0, matches[0].OverlapRatio, 1e-9)
	assert.True(t, matches[1].Match)
	assert.InDelta(t, 1.0, matches[1].OverlapRatio, 1e-9)

	// Reported reference spans are the shifted ones.
	assert.Equal(t, 0.0, matches[0].RefStart)
	assert.InDelta(t, 0.6, matches[1].RefStart, 1e-9)
}

func TestCompareMFCCPrecomputedCoefficients(t *testing.T) {
	e := testEngine(t)

	long := make([][]float64, 30)
	for i := range long {
		frame := make([]float64, 13)
		for j := range frame {
			frame[j] = float64(i)*0.1 + float64(j)
		}
		long[i] = frame
	}
	short := long[:2]

	ref := &Reference{
		Words: []WordSpan{
			{Word: "steady", Start: 0.1, End: 0.9, Coefficients: long},
			{Word: "blip", Start: 0.9, End: 0.95, Coefficients: short},
			{Word: "ghost", Start: 1.0, End: 1.4},
		},
	}

	sims, err := e.compareMFCC(ref, sineClip(1.5, 220))
	require.NoError(t, err)
	require.Len(t, sims, 3)

	require.NotNil(t, sims[0])
	assert.GreaterOrEqual(t, *sims[0], 0.0)
	assert.LessOrEqual(t, *sims[0], 1.0)

	// Too few frames to compare.
	assert.Nil(t, sims[1])

	// A word without a reference matrix is never compared; its acoustic
	// contribution to the word score stays zero.
	assert.Nil(t, sims[2])
}

func TestComparePitchBounds(t *testing.T) {
	e := testEngine(t)

	refClip := sineClip(0.8, 180)
	userClip := sineClip(0.8, 200)
	words := []WordSpan{{Word: "tone", Start: 0.1, End: 0.7}}

	result := e.comparePitch(refClip, userClip, words)
	assert.GreaterOrEqual(t, result.Similarity, 0.0)
	assert.LessOrEqual(t, result.Similarity, 1.0)
	require.Len(t, result.SegmentDetails, 1)
}
