package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// ErrFileTooLarge upload exceeds the configured limit
var ErrFileTooLarge = errors.New("el archivo excede el tamaño máximo permitido")

const documentsDir = "documents"

// timestampLayout YYYYMMDD_HHMMSS
const timestampLayout = "20060102_150405"

// Storage local file storage for graduate documents.
// Layout: documents/{control}/{control}-{key}-{timestamp}.{ext}
type Storage struct {
	root        string
	maxFileSize int64
	now         func() time.Time
}

// New creates the storage rooted at root
func New(root string, maxFileSize int64) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(root, documentsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Storage{root: root, maxFileSize: maxFileSize, now: time.Now}, nil
}

// WithClock replaces the clock used for file names (tests)
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

// GraduateDir relative folder of a graduate
func GraduateDir(controlNumber string) string {
	return path.Join(documentsDir, controlNumber)
}

// DocumentPath relative path for a new upload
func DocumentPath(controlNumber, documentKey, originalName string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := fmt.Sprintf("%s-%s-%s%s", controlNumber, documentKey, at.Format(timestampLayout), ext)
	return path.Join(GraduateDir(controlNumber), name)
}

// EnsureGraduateDir creates the graduate folder if it does not exist
func (s *Storage) EnsureGraduateDir(controlNumber string) error {
	dir := filepath.Join(s.root, filepath.FromSlash(GraduateDir(controlNumber)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graduate folder %s: %w", controlNumber, err)
	}
	return nil
}

// Save writes src under the graduate folder and returns its relative path.
// size is the declared upload size; < 0 skips the pre-check.
func (s *Storage) Save(controlNumber, documentKey, originalName string, size int64, src io.Reader) (string, error) {
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return "", ErrFileTooLarge
	}
	if err := s.EnsureGraduateDir(controlNumber); err != nil {
		return "", err
	}

	rel := s.uniquePath(controlNumber, documentKey, originalName)
	dst, err := os.OpenFile(s.abs(rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	reader := src
	if s.maxFileSize > 0 {
		reader = io.LimitReader(src, s.maxFileSize+1)
	}
	n, err := io.Copy(dst, reader)
	if err != nil {
		_ = os.Remove(s.abs(rel))
		return "", fmt.Errorf("write file: %w", err)
	}
	if s.maxFileSize > 0 && n > s.maxFileSize {
		_ = os.Remove(s.abs(rel))
		return "", ErrFileTooLarge
	}
	return rel, nil
}

// Open opens a stored file by relative path
func (s *Storage) Open(rel string) (*os.File, error) {
	return os.Open(s.abs(rel))
}

// AbsPath absolute path of a stored file
func (s *Storage) AbsPath(rel string) string { return s.abs(rel) }

// Remove deletes a stored file; a missing file is not an error
func (s *Storage) Remove(rel string) error {
	if err := os.Remove(s.abs(rel)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// uniquePath avoids collisions when the same key is uploaded twice within a second
func (s *Storage) uniquePath(controlNumber, documentKey, originalName string) string {
	at := s.now()
	rel := DocumentPath(controlNumber, documentKey, originalName, at)
	for i := 1; ; i++ {
		if _, err := os.Stat(s.abs(rel)); os.IsNotExist(err) {
			return rel
		}
		ext := path.Ext(rel)
		rel = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(DocumentPath(controlNumber, documentKey, originalName, at), ext), i, ext)
	}
}

func (s *Storage) abs(rel string) string {
	clean := path.Clean("/" + rel)
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
}
