package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Ensure FileSystemArchive implements PDFArchive
var _ PDFArchive = (*FileSystemArchive)(nil)

// FileSystemArchive stores PDFs below a local directory.
// Download URLs are built from PublicBaseURL and never expire.
type FileSystemArchive struct {
	basePath      string
	publicBaseURL string
	logger        *zap.Logger
}

// NewFileSystemArchive creates the base directory if needed
func NewFileSystemArchive(basePath, publicBaseURL string, logger *zap.Logger) (*FileSystemArchive, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, errors.New("archive base path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FileSystemArchive{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Store writes the PDF atomically via a temp file and rename
func (a *FileSystemArchive) Store(ctx context.Context, key string, pdf []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := a.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".pdf-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move archive file: %w", err)
	}

	a.logger.Debug("Archived PDF", zap.String("path", path), zap.Int("bytes", len(pdf)))
	return nil
}

// DownloadURL returns the public URL of a stored PDF
func (a *FileSystemArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	if err := validateKey(key); err != nil {
		return "", time.Time{}, err
	}
	if _, err := os.Stat(a.path(key)); err != nil {
		return "", time.Time{}, fmt.Errorf("archived object not found: %w", err)
	}

	if a.publicBaseURL == "" {
		return (&url.URL{Scheme: "file", Path: a.path(key)}).String(), time.Time{}, nil
	}
	u, err := url.JoinPath(a.publicBaseURL, key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build download URL: %w", err)
	}
	return u, time.Time{}, nil
}

// Exists stats the file behind key
func (a *FileSystemArchive) Exists(ctx context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(a.path(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat archive file: %w", err)
	}
}

func (a *FileSystemArchive) path(key string) string {
	return filepath.Join(a.basePath, filepath.FromSlash(key))
}
