package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/echovine/speechscore/internal/scoring"
)

// ReferenceStore loads reference scripts from a directory. Scripts are YAML
// or JSON files; relative audio and TextGrid paths inside a script resolve
// against the script's own directory.
type ReferenceStore struct {
	dir string
}

// NewReferenceStore creates a store rooted at the references directory
// under dataDir.
func NewReferenceStore(dataDir string) *ReferenceStore {
	return &ReferenceStore{dir: filepath.Join(dataDir, "references")}
}

// Load resolves a reference by name or by direct file path
func (s *ReferenceStore) Load(name string) (*scoring.Reference, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return LoadReferenceFile(path)
}

func (s *ReferenceStore) resolve(name string) (string, error) {
	// A name with an extension may be a direct path.
	if ext := filepath.Ext(name); ext != "" {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("reference script not found: %s", name)
}

// LoadReferenceFile loads a reference script from a file
func LoadReferenceFile(path string) (*scoring.Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference script: %w", err)
	}

	ref := &scoring.Reference{}
	switch filepath.Ext(path) {
	case ".json":
		err = json.Unmarshal(data, ref)
	default:
		err = yaml.Unmarshal(data, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse reference script %s: %w", path, err)
	}

	if ref.Name == "" {
		ref.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	base := filepath.Dir(path)
	if ref.AudioPath != "" && !filepath.IsAbs(ref.AudioPath) {
		ref.AudioPath = filepath.Join(base, ref.AudioPath)
	}
	if ref.TextGridPath != "" && !filepath.IsAbs(ref.TextGridPath) {
		ref.TextGridPath = filepath.Join(base, ref.TextGridPath)
	}

	if err := validateReference(ref); err != nil {
		return nil, fmt.Errorf("invalid reference script %s: %w", path, err)
	}
	return ref, nil
}

func validateReference(ref *scoring.Reference) error {
	if ref.AudioPath == "" {
		return fmt.Errorf("audio_path is required")
	}
	if len(ref.Words) == 0 {
		return fmt.Errorf("at least one word is required")
	}
	for i, w := range ref.Words {
		if w.Word == "" {
			return fmt.Errorf("word %d has no text", i)
		}
		if w.End <= w.Start {
			return fmt.Errorf("word %q has a non-positive duration", w.Word)
		}
	}
	if ref.Transcript == "" {
		// The transcript feeds forced alignment; reconstruct it from
		// the word list when the script omits it.
		words := make([]string, len(ref.Words))
		for i, w := range ref.Words {
			words[i] = w.Word
		}
		ref.Transcript = strings.Join(words, " ")
	}
	return nil
}
