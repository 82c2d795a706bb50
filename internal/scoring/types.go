package scoring

import (
	"github.com/echovine/speechscore/pkg/audio/pitch"
	"github.com/echovine/speechscore/pkg/textgrid"
)

// WordSpan is one word of the reference script with its time interval.
// Coefficients carry precomputed MFCC frames for the word; when absent the
// features are extracted from the reference audio instead.
type WordSpan struct {
	Word         string      `json:"word" yaml:"word"`
	Start        float64     `json:"start" yaml:"start"`
	End          float64     `json:"end" yaml:"end"`
	Coefficients [][]float64 `json:"mfcc,omitempty" yaml:"mfcc,omitempty"`
}

// Reference is the model recording a learner is scored against
type Reference struct {
	Name         string     `json:"name" yaml:"name"`
	AudioPath    string     `json:"audio_path" yaml:"audio_path"`
	Transcript   string     `json:"transcript" yaml:"transcript"`
	Words        []WordSpan `json:"words" yaml:"words"`
	TextGridPath string     `json:"textgrid_path,omitempty" yaml:"textgrid_path,omitempty"`
}

// Request describes one scoring job
type Request struct {
	JobID      string
	Reference  *Reference
	UserAudio  string
	ScratchDir string
}

// WordAnalysis is the per-word scoring verdict
type WordAnalysis struct {
	Word          string  `json:"word"`
	TextPass      bool    `json:"text_pass"`
	LCSSimilarity float64 `json:"lcs_similarity"`
	Confidence    float64 `json:"confidence"`

	TimeMatch    bool     `json:"time_match"`
	OverlapRatio float64  `json:"overlap_ratio"`
	RefStart     float64  `json:"ref_start"`
	RefEnd       float64  `json:"ref_end"`
	UserStart    *float64 `json:"user_start"`
	UserEnd      *float64 `json:"user_end"`

	// MFCCSimilarity is the calibrated acoustic similarity in [0,1], nil
	// when the word segment was too short to compare.
	MFCCSimilarity *float64 `json:"mfcc_similarity"`

	WordScore float64 `json:"word_score"`
}

// Summary aggregates the word-level results
type Summary struct {
	TextAccuracy     float64 `json:"text_accuracy"`
	TimeAccuracy     float64 `json:"time_accuracy"`
	MFCCAverage      float64 `json:"mfcc_average"`
	TotalWords       int     `json:"total_words"`
	PassedWords      int     `json:"passed_words"`
	TimeMatchedWords int     `json:"time_matched_words"`
}

// FailureAnalysis lists the words that failed, grouped by cause
type FailureAnalysis struct {
	// STTFailures are words the transcription never produced.
	STTFailures []string `json:"stt_failures"`
	// TimeFailures are recognized words spoken at the wrong time.
	TimeFailures []string `json:"time_failures"`
	// MFCCLowQuality are words with acoustic similarity below threshold.
	MFCCLowQuality []string `json:"mfcc_low_quality"`
}

// ComponentScores holds the phone, timing and pitch components of the final
// score, each on a 0..100 scale.
type ComponentScores struct {
	PronunciationScore float64 `json:"pronunciation_score"`
	TimingScore        float64 `json:"timing_score"`
	PitchScore         float64 `json:"pitch_score"`
	FinalScore         float64 `json:"final_score"`

	Phones        *textgrid.Comparison  `json:"phones,omitempty"`
	PitchSegments []pitch.SegmentDetail `json:"pitch_segments,omitempty"`
}

// Report is the complete scoring result for one job
type Report struct {
	Reference         string  `json:"reference"`
	Transcribed       string  `json:"transcribed_text"`
	OverallScore      float64 `json:"overall_score"`
	ProcessingSeconds float64 `json:"processing_time_seconds"`

	Words      []WordAnalysis   `json:"word_analysis"`
	Summary    Summary          `json:"summary"`
	Failures   FailureAnalysis  `json:"failure_analysis"`
	Components *ComponentScores `json:"component_scores,omitempty"`
}

