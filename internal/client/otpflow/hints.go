package otpflow

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// HintStore remembers the email awaiting verification across restarts.
type HintStore interface {
	Load() (string, error)
	Save(email string) error
	Clear() error
}

// MemoryHints keeps the hint in process.
type MemoryHints struct {
	mu    sync.Mutex
	email string
}

func (m *MemoryHints) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.email, nil
}

func (m *MemoryHints) Save(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.email = email
	return nil
}

func (m *MemoryHints) Clear() error {
	return m.Save("")
}

// FileHints keeps the hint in a single file.
type FileHints struct {
	Path string
}

func NewFileHints(dir string) *FileHints {
	return &FileHints{Path: filepath.Join(dir, "otp-email")}
}

// Load returns "" without error when no hint has been saved.
func (h *FileHints) Load() (string, error) {
	data, err := os.ReadFile(h.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (h *FileHints) Save(email string) error {
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(h.Path, []byte(email+"\n"), 0o600)
}

func (h *FileHints) Clear() error {
	err := os.Remove(h.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
