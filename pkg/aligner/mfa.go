package aligner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/echovine/speechscore/pkg/logging"
)

// MFAConfig describes a long-running Montreal Forced Aligner container with
// the corpus and output directories mounted at /data and /output.
type MFAConfig struct {
	Container     string
	CorpusDir     string
	OutputDir     string
	Dictionary    string
	AcousticModel string
	Timeout       time.Duration
}

// DefaultMFAConfig returns the container layout used by the deployment
// scripts.
func DefaultMFAConfig() MFAConfig {
	return MFAConfig{
		Container:     "mfa-persistent",
		CorpusDir:     "shared_data/mfa_corpus",
		OutputDir:     "shared_data/mfa_output",
		Dictionary:    "/models/english_us_arpa.dict",
		AcousticModel: "/models/english_us_arpa",
		Timeout:       5 * time.Minute,
	}
}

// MFAAligner runs mfa align inside a persistent docker container.
type MFAAligner struct {
	config MFAConfig
	logger logging.Logger
}

// NewMFAAligner creates an aligner for the given container setup.
func NewMFAAligner(config MFAConfig) *MFAAligner {
	return &MFAAligner{
		config: config,
		logger: logging.WithFields(logging.Fields{
			"component": "mfa_aligner",
			"container": config.Container,
		}),
	}
}

// Align copies the recording and its transcript into the mounted corpus,
// runs the aligner and returns the path of the generated TextGrid.
func (a *MFAAligner) Align(ctx context.Context, audioPath, transcript, name string) (string, error) {
	if err := a.prepareCorpus(audioPath, transcript, name); err != nil {
		return "", err
	}

	gridPath := filepath.Join(a.config.OutputDir, name+".TextGrid")
	if err := os.Remove(gridPath); err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to remove stale TextGrid: %w", err)
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	args := []string{
		"exec", a.config.Container,
		"mfa", "align",
		"/data",
		a.config.Dictionary,
		a.config.AcousticModel,
		"/output",
		"--single_speaker",
		"--use_mp",
		"--clear",
	}

	a.logger.Debug("running forced alignment", logging.Fields{
		"name":  name,
		"audio": audioPath,
	})

	cmd := exec.CommandContext(ctx, "docker", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("mfa align failed: %w: %s", err, truncate(string(output), 512))
	}

	if _, err := os.Stat(gridPath); err != nil {
		return "", fmt.Errorf("aligner produced no TextGrid at %s", gridPath)
	}
	return gridPath, nil
}

func (a *MFAAligner) prepareCorpus(audioPath, transcript, name string) error {
	if err := os.MkdirAll(a.config.CorpusDir, 0o755); err != nil {
		return fmt.Errorf("failed to create corpus dir: %w", err)
	}
	if err := copyFile(audioPath, filepath.Join(a.config.CorpusDir, name+".wav")); err != nil {
		return fmt.Errorf("failed to stage audio: %w", err)
	}

	labPath := filepath.Join(a.config.CorpusDir, name+".lab")
	if err := os.WriteFile(labPath, []byte(strings.TrimSpace(transcript)), 0o644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
