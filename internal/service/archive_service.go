package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/dafibh/qfin/qfin-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultArchiveURLExpiry is how long a presigned download link stays valid
const DefaultArchiveURLExpiry = 15 * time.Minute

// ArchiveService uploads rendered exports to object storage
type ArchiveService struct {
	reports *ReportService
	store   domain.ExportStore
	expiry  time.Duration
}

// NewArchiveService creates a new ArchiveService. A nil store disables archiving.
func NewArchiveService(reports *ReportService, store domain.ExportStore, expiry time.Duration) *ArchiveService {
	if expiry <= 0 {
		expiry = DefaultArchiveURLExpiry
	}
	return &ArchiveService{
		reports: reports,
		store:   store,
		expiry:  expiry,
	}
}

// Enabled reports whether object storage is configured
func (s *ArchiveService) Enabled() bool {
	return s.store != nil
}

// Archive renders an export, stores it and returns a temporary download link
func (s *ArchiveService) Archive(ctx context.Context, ownerID int32, kind domain.ExportKind, filter domain.ReportFilter) (*domain.ArchivedExport, error) {
	if !s.Enabled() {
		return nil, domain.ErrArchiveDisabled
	}

	file, err := s.reports.Export(ctx, ownerID, kind, filter)
	if err != nil {
		return nil, err
	}

	// exports/<owner>/<kind>/<uuid>-<filename>
	key := path.Join("exports", strconv.Itoa(int(ownerID)), string(kind), uuid.New().String()+"-"+file.Filename)

	if _, err := s.store.Upload(ctx, key, bytes.NewReader(file.Content), kind.ContentType(), int64(len(file.Content))); err != nil {
		return nil, domain.NewStorageError("upload export", err)
	}

	url, err := s.store.GeneratePresignedURL(ctx, key, s.expiry)
	if err != nil {
		return nil, domain.NewStorageError("presign export", fmt.Errorf("%s: %w", key, err))
	}

	log.Info().Int32("owner_id", ownerID).Str("kind", string(kind)).Str("key", key).Msg("Export archived")
	return &domain.ArchivedExport{
		Key:       key,
		URL:       url,
		ExpiresAt: s.reports.Now().Add(s.expiry),
	}, nil
}
