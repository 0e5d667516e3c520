// Package storage provides per-call scratch space for uploaded spreadsheets.
// Every call owns its own directory; nothing is shared between calls.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"pricesheet/internal/errors"

	"github.com/google/uuid"
)

const defaultChunkSize = 32 * 1024

// Config controls where scratch directories live and how much they may hold
type Config struct {
	BaseDir   string // empty means os.TempDir()
	MaxBytes  int64  // per stored file, 0 means unlimited
	ChunkSize int
}

// DefaultConfig returns a config rooted in the OS temp dir with a 16 MiB cap
func DefaultConfig() Config {
	return Config{
		MaxBytes:  16 * 1024 * 1024,
		ChunkSize: defaultChunkSize,
	}
}

// Scratch is a temporary directory scoped to a single request. Release must
// be called on every exit path; it is safe to call more than once.
type Scratch struct {
	dir      string
	config   Config
	mu       sync.Mutex
	released bool
}

// Acquire creates a fresh scratch directory
func Acquire(config Config) (*Scratch, error) {
	if config.ChunkSize <= 0 {
		config.ChunkSize = defaultChunkSize
	}
	base := config.BaseDir
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create scratch base directory")
		}
	}
	dir, err := os.MkdirTemp(base, "pricesheet-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create scratch directory")
	}
	return &Scratch{dir: dir, config: config}, nil
}

// Dir returns the scratch directory path
func (s *Scratch) Dir() string {
	return s.dir
}

// Store copies src into the scratch directory under a unique, sanitized name
// and returns its path
func (s *Scratch) Store(filename string, src io.Reader) (string, error) {
	s.mu.Lock()
	released := s.released
	s.mu.Unlock()
	if released {
		return "", errors.InternalError("scratch space already released")
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", uuid.New().String()[:8], SanitizeFilename(filename)))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", errors.Wrap(err, "failed to create scratch file")
	}
	defer dst.Close()

	reader := src
	if s.config.MaxBytes > 0 {
		reader = io.LimitReader(src, s.config.MaxBytes+1)
	}

	buf := make([]byte, s.config.ChunkSize)
	n, err := io.CopyBuffer(dst, reader, buf)
	if err != nil {
		os.Remove(path)
		return "", errors.Wrap(err, "failed to copy upload")
	}
	if s.config.MaxBytes > 0 && n > s.config.MaxBytes {
		os.Remove(path)
		return "", errors.TooLarge(fmt.Sprintf("%s exceeds the %d byte upload limit", SanitizeFilename(filename), s.config.MaxBytes))
	}
	return path, nil
}

// Release removes the scratch directory and everything in it
func (s *Scratch) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil
	}
	s.released = true
	if err := os.RemoveAll(s.dir); err != nil {
		return errors.Wrap(err, "failed to remove scratch directory")
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename strips directories and anything outside [A-Za-z0-9._-]
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}
