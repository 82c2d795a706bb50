package configs

import (
	"time"

	"github.com/spf13/viper"
)

// SetDefaults registers the default configuration values on the given viper
// instance. Values from config files, environment or flags take precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", "shared_data")

	v.SetDefault("server.listen_addr", ":8000")
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.scratch_dir", "/tmp")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.pitch_floor", 75.0)
	v.SetDefault("audio.pitch_ceiling", 600.0)

	v.SetDefault("alignment.window_tolerance", 0.25)
	v.SetDefault("alignment.start_tolerance", 0.5)
	v.SetDefault("alignment.lcs_threshold", 0.6)
	v.SetDefault("alignment.min_overlap", 0.70)
	v.SetDefault("alignment.overlap_threshold", 0.4)

	v.SetDefault("scoring.pronunciation_weight", 50.0)
	v.SetDefault("scoring.timing_weight", 25.0)
	v.SetDefault("scoring.pitch_weight", 25.0)
	v.SetDefault("scoring.text_weight", 0.7)
	v.SetDefault("scoring.mfcc_weight", 0.3)
	v.SetDefault("scoring.low_quality_threshold", 0.4)

	v.SetDefault("stt.server_url", "http://localhost:8080")
	v.SetDefault("stt.language", "en")
	v.SetDefault("stt.timeout", 120*time.Second)

	v.SetDefault("mfa.enabled", true)
	v.SetDefault("mfa.container", "mfa-persistent")
	v.SetDefault("mfa.corpus_dir", "shared_data/mfa_corpus")
	v.SetDefault("mfa.output_dir", "shared_data/mfa_output")
	v.SetDefault("mfa.dictionary", "/models/english_us_arpa.dict")
	v.SetDefault("mfa.acoustic_model", "/models/english_us_arpa")
	v.SetDefault("mfa.timeout", 5*time.Minute)

	v.SetDefault("webhook.timeout", 10*time.Second)

	v.SetDefault("fetch.timeout", 30*time.Second)
}

// GetDefaultConfig returns a configuration populated with defaults
func GetDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		// Defaults are static and known to decode.
		panic(err)
	}

	return config
}
