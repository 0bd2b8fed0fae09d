package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store writes synthesized reply audio to disk and resolves artifact names
// back to file paths for serving.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("audio store dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// SaveWAV persists a WAV payload under a fresh artifact name and returns it.
func (s *Store) SaveWAV(wav []byte) (string, error) {
	name := "reply_" + uuid.NewString() + ".wav"
	if err := os.WriteFile(filepath.Join(s.dir, name), wav, 0o644); err != nil {
		return "", fmt.Errorf("write audio artifact: %w", err)
	}
	return name, nil
}

// Resolve maps an artifact name to its path. Names with path separators are
// rejected so handlers cannot be walked out of the artifact directory.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}
