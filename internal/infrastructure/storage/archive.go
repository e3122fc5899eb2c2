// Package storage archives rendered invoice PDFs in object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PDFContentType is the content type of archived documents
const PDFContentType = "application/pdf"

// ErrKeyRequired is returned when an archive key is empty
var ErrKeyRequired = errors.New("storage key is required")

// PDFArchive stores rendered PDFs and hands out download URLs for them
type PDFArchive interface {
	// Store writes pdf under key, replacing any previous object
	Store(ctx context.Context, key string, pdf []byte) error

	// DownloadURL returns a time-limited URL for the object at key
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)

	// Exists reports whether an object is stored at key
	Exists(ctx context.Context, key string) (bool, error)
}

// InvoiceKey returns the archive key of an invoice PDF for one schema version.
// A style change produces a new key, so stale renders are never served as current.
func InvoiceKey(invoiceID, schemaVersion string) string {
	version := strings.NewReplacer("/", "-", "\\", "-", "..", "-").Replace(schemaVersion)
	if version == "" {
		version = "unversioned"
	}
	return fmt.Sprintf("invoices/%s/%s.pdf", invoiceID, version)
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrKeyRequired
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid storage key: %q", key)
	}
	return nil
}
