package domain

import (
	"context"
	"io"
	"strings"
	"time"
)

// ExportKind names a downloadable export
type ExportKind string

const (
	ExportKindTransactions ExportKind = "transactions"
	ExportKindFinancings   ExportKind = "financings"
	ExportKindDocument     ExportKind = "document"
)

var ErrExportKindInvalid = invalidField("kind", "must be transactions, financings or document")

// ErrArchiveDisabled is returned when no object storage is configured
var ErrArchiveDisabled = &StateError{Message: "export archive is not configured"}

func ParseExportKind(s string) (ExportKind, error) {
	k := ExportKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case ExportKindTransactions, ExportKindFinancings, ExportKindDocument:
		return k, nil
	}
	return "", ErrExportKindInvalid
}

// ContentType returns the MIME type of the rendered export
func (k ExportKind) ContentType() string {
	if k == ExportKindDocument {
		return "application/xhtml+xml"
	}
	return "text/csv"
}

// Extension returns the file extension of the rendered export
func (k ExportKind) Extension() string {
	if k == ExportKindDocument {
		return "xhtml"
	}
	return "csv"
}

// ExportFile is a rendered export ready to be served or archived
type ExportFile struct {
	Kind     ExportKind
	Filename string
	Content  []byte
}

// ArchivedExport points at an export stored in object storage
type ArchivedExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportStore persists rendered exports and hands out temporary download links
type ExportStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}
