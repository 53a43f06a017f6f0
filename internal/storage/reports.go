// Package storage persists uploaded report files on local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedReport is returned for file types the portal does not
// accept.
var ErrUnsupportedReport = errors.New("unsupported report file type")

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ReportStore writes report files under a base directory and hands back
// the relative path stored on the booking. Filenames are random so an
// uploaded name can never clobber or traverse anything.
type ReportStore struct {
	baseDir string
}

// NewReportStore returns a ReportStore rooted at baseDir, creating the
// directory if needed.
func NewReportStore(baseDir string) (*ReportStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &ReportStore{baseDir: baseDir}, nil
}

// Save streams src to disk and returns the stored relative path, e.g.
// "uploads/reports/<uuid>.pdf".
func (s *ReportStore) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedReport
	}
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	full := filepath.Join(s.baseDir, name)

	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return filepath.ToSlash(filepath.Join(s.baseDir, name)), nil
}

// Open opens a stored report for download.
func (s *ReportStore) Open(relPath string) (*os.File, error) {
	clean, err := s.contained(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(clean)
}

// Remove deletes a stored report, used when attaching the file to its
// booking fails after the upload already hit disk.
func (s *ReportStore) Remove(relPath string) error {
	clean, err := s.contained(relPath)
	if err != nil {
		return err
	}
	return os.Remove(clean)
}

// contained rejects paths outside the base directory. Stored paths are
// server generated, but keep the check anyway.
func (s *ReportStore) contained(relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if !strings.HasPrefix(clean, filepath.Clean(s.baseDir)+string(os.PathSeparator)) {
		return "", os.ErrNotExist
	}
	return clean, nil
}
