// Package scoring runs the full evaluation pipeline for a learner recording:
// transcription, word alignment, acoustic comparison, phone comparison and
// pitch comparison, aggregated into a single report.
package scoring

import (
	"context"
	"net/url"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/echovine/speechscore/configs"
	"github.com/echovine/speechscore/pkg/aligner"
	"github.com/echovine/speechscore/pkg/audio"
	"github.com/echovine/speechscore/pkg/audio/mfcc"
	"github.com/echovine/speechscore/pkg/audio/pitch"
	"github.com/echovine/speechscore/pkg/fetch"
	"github.com/echovine/speechscore/pkg/logging"
	"github.com/echovine/speechscore/pkg/stt"
	"github.com/echovine/speechscore/pkg/textalign"
	"github.com/echovine/speechscore/pkg/textgrid"
)

// Engine runs scoring jobs
type Engine struct {
	cfg         *configs.Config
	logger      logging.Logger
	transcriber stt.Transcriber
	aligner     aligner.Aligner
	fetcher     fetch.Fetcher
}

// EngineConfig contains the engine dependencies. Aligner may be nil, in
// which case the phone comparison is skipped and the word-level accuracies
// stand in for it.
type EngineConfig struct {
	Config      *configs.Config
	Transcriber stt.Transcriber
	Aligner     aligner.Aligner
	Fetcher     fetch.Fetcher
	Logger      logging.Logger
}

// NewEngine creates a scoring engine
func NewEngine(config *EngineConfig) *Engine {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	fetcher := config.Fetcher
	if fetcher == nil {
		fetcher = fetch.New(config.Config.Fetch.Timeout)
	}

	return &Engine{
		cfg:         config.Config,
		logger:      logger,
		transcriber: config.Transcriber,
		aligner:     config.Aligner,
		fetcher:     fetcher,
	}
}

// Score evaluates a learner recording against the reference
func (e *Engine) Score(ctx context.Context, req *Request) (*Report, error) {
	start := time.Now()
	ref := req.Reference
	log := e.logger.WithFields(logging.Fields{
		"job_id":    req.JobID,
		"reference": ref.Name,
	})

	userPath, err := e.fetchUserAudio(ctx, req)
	if err != nil {
		return nil, err
	}

	refClip, err := audio.LoadFile(ref.AudioPath, e.cfg.Audio.SampleRate)
	if err != nil {
		return nil, NewJobError(ErrCodeDecode, "failed to load reference audio", err)
	}
	userClip, err := audio.LoadFile(userPath, e.cfg.Audio.SampleRate)
	if err != nil {
		return nil, NewJobError(ErrCodeDecode, "failed to load user audio", err)
	}

	log.Debug("audio loaded", logging.Fields{
		"ref_duration":  refClip.Duration(),
		"user_duration": userClip.Duration(),
	})

	sttResult, err := e.transcriber.Transcribe(ctx, userPath)
	if err != nil {
		return nil, NewJobError(ErrCodeSTT, "transcription failed", err)
	}

	if sttResult.IsSilence() {
		log.Warn("no speech detected in user audio")
		report := e.silentReport(ref, sttResult)
		report.ProcessingSeconds = time.Since(start).Seconds()
		return report, nil
	}

	refSegs := make([]textalign.Segment, len(ref.Words))
	for i, w := range ref.Words {
		refSegs[i] = textalign.Segment{Word: w.Word, Start: w.Start, End: w.End}
	}

	// Alignment works on raw tokens so per-token confidences survive; the
	// time match uses merged word timestamps.
	alignment := textalign.AlignWords(refSegs, sttResult.TokenSegments(), e.alignParams())
	matches := e.timeMatches(refSegs, sttResult.WordTimestamps())

	sims, err := e.compareMFCC(ref, userClip)
	if err != nil {
		return nil, err
	}

	var pitchResult pitch.Result
	var phones *textgrid.Comparison

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pitchResult = e.comparePitch(refClip, userClip, ref.Words)
		return nil
	})
	if e.aligner != nil {
		g.Go(func() error {
			var err error
			phones, err = e.comparePhones(gctx, ref, userPath, req.JobID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := e.buildReport(ref, sttResult, alignment, matches, sims, pitchResult, phones)
	report.ProcessingSeconds = time.Since(start).Seconds()

	log.Info("scoring completed", logging.Fields{
		"overall_score": report.OverallScore,
		"final_score":   report.Components.FinalScore,
		"passed_words":  report.Summary.PassedWords,
		"total_words":   report.Summary.TotalWords,
	})

	return report, nil
}

func (e *Engine) fetchUserAudio(ctx context.Context, req *Request) (string, error) {
	dest := filepath.Join(req.ScratchDir, "user"+sourceExt(req.UserAudio))
	if err := e.fetcher.Fetch(ctx, req.UserAudio, dest); err != nil {
		return "", NewJobError(ErrCodeTransport, "failed to fetch user audio", err)
	}
	return dest, nil
}

func sourceExt(source string) string {
	if u, err := url.Parse(source); err == nil && u.Path != "" {
		source = u.Path
	}
	if ext := filepath.Ext(source); ext != "" {
		return ext
	}
	return ".wav"
}

func (e *Engine) alignParams() textalign.Params {
	return textalign.Params{
		WindowTol:    e.cfg.Alignment.WindowTolerance,
		StartTol:     e.cfg.Alignment.StartTolerance,
		LCSThreshold: e.cfg.Alignment.LCSThreshold,
		MinOverlap:   e.cfg.Alignment.MinOverlap,
	}
}

// timeMatches shifts the reference spans to start at zero before the overlap
// check; reference scripts may carry leading silence the user recording does
// not.
func (e *Engine) timeMatches(refSegs, userWords []textalign.Segment) []textalign.TimeMatch {
	return textalign.MatchTimes(textalign.NormalizeToZero(refSegs), userWords, e.cfg.Alignment.OverlapThreshold)
}

// compareMFCC returns the calibrated acoustic similarity per reference word.
// A word without precomputed coefficients, or whose segment has too few
// frames, cannot be compared and yields nil.
func (e *Engine) compareMFCC(ref *Reference, userClip *audio.Clip) ([]*float64, error) {
	extractor := mfcc.NewExtractor(e.cfg.Audio.SampleRate)

	userFeat, err := extractor.Extract(userClip)
	if err != nil {
		return nil, NewJobError(ErrCodeFeature, "user feature extraction failed", err)
	}

	segments := make([]mfcc.RefSegment, len(ref.Words))
	for i, w := range ref.Words {
		segments[i] = mfcc.RefSegment{Word: w.Word, Start: w.Start, End: w.End, Coefficients: w.Coefficients}
	}

	comparisons := mfcc.CompareSegments(segments, userFeat)

	sims := make([]*float64, len(ref.Words))
	for i := range comparisons {
		if len(segments[i].Coefficients) >= mfcc.MinSegmentFrames {
			v := comparisons[i].Calibrated
			sims[i] = &v
		}
	}
	return sims, nil
}

func (e *Engine) comparePitch(refClip, userClip *audio.Clip, words []WordSpan) pitch.Result {
	tracker := pitch.NewTrackerRange(e.cfg.Audio.SampleRate, e.cfg.Audio.PitchFloor, e.cfg.Audio.PitchCeiling)

	refPoints := tracker.Track(refClip)
	userPoints := tracker.Track(userClip)

	spans := make([]pitch.Span, len(words))
	for i, w := range words {
		spans[i] = pitch.Span{Text: w.Word, Start: w.Start, End: w.End}
	}
	return pitch.CompareSegments(refPoints, userPoints, spans)
}

func (e *Engine) comparePhones(ctx context.Context, ref *Reference, userPath, jobID string) (*textgrid.Comparison, error) {
	refGridPath := ref.TextGridPath
	if refGridPath == "" {
		name := ref.Name
		if name == "" {
			name = "reference"
		}
		var err error
		refGridPath, err = e.aligner.Align(ctx, ref.AudioPath, ref.Transcript, name+"_ref")
		if err != nil {
			return nil, NewJobError(ErrCodeAlign, "reference alignment failed", err)
		}
	}

	userGridPath, err := e.aligner.Align(ctx, userPath, ref.Transcript, jobID)
	if err != nil {
		return nil, NewJobError(ErrCodeAlign, "user alignment failed", err)
	}

	refGrid, err := textgrid.ParseFile(refGridPath)
	if err != nil {
		return nil, NewJobError(ErrCodeAlign, "failed to parse reference TextGrid", err)
	}
	userGrid, err := textgrid.ParseFile(userGridPath)
	if err != nil {
		return nil, NewJobError(ErrCodeAlign, "failed to parse user TextGrid", err)
	}

	cmp := textgrid.Compare(refGrid, userGrid)
	return &cmp, nil
}

func (e *Engine) buildReport(ref *Reference, sttResult *stt.Result, alignment []textalign.WordResult, matches []textalign.TimeMatch, sims []*float64, pitchResult pitch.Result, phones *textgrid.Comparison) *Report {
	total := len(ref.Words)
	words := make([]WordAnalysis, total)
	failures := FailureAnalysis{
		STTFailures:    []string{},
		TimeFailures:   []string{},
		MFCCLowQuality: []string{},
	}

	var scoreSum, mfccSum float64
	var mfccCount, passed, matched int

	for i := range ref.Words {
		wr := alignment[i]
		tm := matches[i]

		wa := WordAnalysis{
			Word:           ref.Words[i].Word,
			TextPass:       wr.Pass,
			LCSSimilarity:  wr.LCSSimilarity,
			Confidence:     wr.Confidence,
			TimeMatch:      tm.Match,
			OverlapRatio:   tm.OverlapRatio,
			RefStart:       tm.RefStart,
			RefEnd:         tm.RefEnd,
			UserStart:      tm.UserStart,
			UserEnd:        tm.UserEnd,
			MFCCSimilarity: sims[i],
		}

		var mfccScore float64
		if sims[i] != nil {
			mfccScore = *sims[i]
			mfccSum += mfccScore
			mfccCount++
			if mfccScore < e.cfg.Scoring.LowQualityThreshold {
				failures.MFCCLowQuality = append(failures.MFCCLowQuality, wa.Word)
			}
		}

		var textScore float64
		if wr.Pass {
			textScore = wr.Confidence
			passed++
		}
		wa.WordScore = e.cfg.Scoring.TextWeight*textScore + e.cfg.Scoring.MFCCWeight*mfccScore
		scoreSum += wa.WordScore

		if tm.Match {
			matched++
		}
		switch {
		case tm.UserStart == nil:
			failures.STTFailures = append(failures.STTFailures, wa.Word)
		case !tm.Match:
			failures.TimeFailures = append(failures.TimeFailures, wa.Word)
		}

		words[i] = wa
	}

	summary := Summary{
		TotalWords:       total,
		PassedWords:      passed,
		TimeMatchedWords: matched,
	}
	overall := 0.0
	if total > 0 {
		summary.TextAccuracy = float64(passed) / float64(total)
		summary.TimeAccuracy = float64(matched) / float64(total)
		overall = scoreSum / float64(total)
	}
	if mfccCount > 0 {
		summary.MFCCAverage = mfccSum / float64(mfccCount)
	}

	components := &ComponentScores{
		PitchScore:    pitchResult.Similarity * 100,
		PitchSegments: pitchResult.SegmentDetails,
	}
	if phones != nil {
		components.PronunciationScore = phones.PronunciationAccuracy * 100
		components.TimingScore = phones.TimingAccuracy * 100
		components.Phones = phones
	} else {
		components.PronunciationScore = summary.TextAccuracy * 100
		components.TimingScore = summary.TimeAccuracy * 100
	}
	w := e.cfg.Scoring
	components.FinalScore = (w.PronunciationWeight*components.PronunciationScore +
		w.TimingWeight*components.TimingScore +
		w.PitchWeight*components.PitchScore) / 100

	return &Report{
		Reference:    ref.Name,
		Transcribed:  sttResult.Text(),
		OverallScore: overall,
		Words:        words,
		Summary:      summary,
		Failures:     failures,
		Components:   components,
	}
}

// silentReport covers the case where the transcription produced no speech.
// Every word is a recognition failure and all scores are zero.
func (e *Engine) silentReport(ref *Reference, sttResult *stt.Result) *Report {
	words := make([]WordAnalysis, len(ref.Words))
	sttFailures := make([]string, len(ref.Words))
	for i, w := range ref.Words {
		words[i] = WordAnalysis{
			Word:     w.Word,
			RefStart: w.Start,
			RefEnd:   w.End,
		}
		sttFailures[i] = w.Word
	}

	return &Report{
		Reference:   ref.Name,
		Transcribed: sttResult.Text(),
		Words:       words,
		Summary:     Summary{TotalWords: len(ref.Words)},
		Failures: FailureAnalysis{
			STTFailures:    sttFailures,
			TimeFailures:   []string{},
			MFCCLowQuality: []string{},
		},
		Components: &ComponentScores{},
	}
}
