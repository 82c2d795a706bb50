package configs

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/viper"
)

// weightTolerance absorbs binary rounding in user-supplied weight sums.
const weightTolerance = 1e-6

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose   bool   `mapstructure:"verbose"`
	LogLevel  string `mapstructure:"log_level"`
	ConfigDir string `mapstructure:"config_dir"`
	DataDir   string `mapstructure:"data_dir"`

	// HTTP API settings
	Server ServerConfig `mapstructure:"server"`

	// Audio processing configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Word alignment thresholds
	Alignment AlignmentConfig `mapstructure:"alignment"`

	// Score weighting
	Scoring ScoringConfig `mapstructure:"scoring"`

	// Speech-to-text backend
	STT STTConfig `mapstructure:"stt"`

	// Forced alignment backend
	MFA MFAConfig `mapstructure:"mfa"`

	// Result delivery
	Webhook WebhookConfig `mapstructure:"webhook"`

	// Source audio retrieval
	Fetch FetchConfig `mapstructure:"fetch"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	ScratchDir      string        `mapstructure:"scratch_dir"`
}

// AudioConfig contains audio analysis settings
type AudioConfig struct {
	SampleRate   int     `mapstructure:"sample_rate"`
	PitchFloor   float64 `mapstructure:"pitch_floor"`
	PitchCeiling float64 `mapstructure:"pitch_ceiling"`
}

// AlignmentConfig contains the word alignment thresholds
type AlignmentConfig struct {
	WindowTolerance  float64 `mapstructure:"window_tolerance"`
	StartTolerance   float64 `mapstructure:"start_tolerance"`
	LCSThreshold     float64 `mapstructure:"lcs_threshold"`
	MinOverlap       float64 `mapstructure:"min_overlap"`
	OverlapThreshold float64 `mapstructure:"overlap_threshold"`
}

// ScoringConfig contains score weighting settings. The component weights are
// percentages and must sum to 100.
type ScoringConfig struct {
	PronunciationWeight float64 `mapstructure:"pronunciation_weight"`
	TimingWeight        float64 `mapstructure:"timing_weight"`
	PitchWeight         float64 `mapstructure:"pitch_weight"`

	// Per-word blending of text confidence and acoustic similarity.
	TextWeight float64 `mapstructure:"text_weight"`
	MFCCWeight float64 `mapstructure:"mfcc_weight"`

	// Words scoring below this acoustic similarity are flagged.
	LowQualityThreshold float64 `mapstructure:"low_quality_threshold"`
}

// STTConfig contains speech-to-text backend settings
type STTConfig struct {
	ServerURL string        `mapstructure:"server_url"`
	Language  string        `mapstructure:"language"`
	Model     string        `mapstructure:"model"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// MFAConfig contains forced alignment backend settings
type MFAConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Container     string        `mapstructure:"container"`
	CorpusDir     string        `mapstructure:"corpus_dir"`
	OutputDir     string        `mapstructure:"output_dir"`
	Dictionary    string        `mapstructure:"dictionary"`
	AcousticModel string        `mapstructure:"acoustic_model"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// WebhookConfig contains result delivery settings
type WebhookConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// FetchConfig contains source audio retrieval settings
type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample rate must be positive")
	}

	if config.Audio.PitchFloor <= 0 || config.Audio.PitchCeiling <= config.Audio.PitchFloor {
		return fmt.Errorf("pitch range must satisfy 0 < floor < ceiling")
	}

	if config.Alignment.LCSThreshold < 0 || config.Alignment.LCSThreshold > 1 {
		return fmt.Errorf("LCS threshold must be between 0 and 1")
	}

	if config.Alignment.MinOverlap < 0 || config.Alignment.MinOverlap > 1 {
		return fmt.Errorf("minimum overlap must be between 0 and 1")
	}

	if config.Alignment.OverlapThreshold < 0 || config.Alignment.OverlapThreshold > 1 {
		return fmt.Errorf("overlap threshold must be between 0 and 1")
	}

	total := config.Scoring.PronunciationWeight + config.Scoring.TimingWeight + config.Scoring.PitchWeight
	if math.Abs(total-100) > weightTolerance {
		return fmt.Errorf("component weights must sum to 100, got %.1f", total)
	}

	if math.Abs(config.Scoring.TextWeight+config.Scoring.MFCCWeight-1.0) > weightTolerance {
		return fmt.Errorf("word score weights must sum to 1")
	}

	if config.STT.ServerURL == "" {
		return fmt.Errorf("STT server URL is required")
	}

	if config.STT.Timeout <= 0 {
		return fmt.Errorf("STT timeout must be positive")
	}

	return nil
}
