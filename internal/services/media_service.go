package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/models"
	"github.com/fathima-sithara/social-app/internal/storage"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// MediaService uploads attachments to the blob store and hands back opaque
// references. A deployment without a configured store refuses uploads rather
// than silently dropping them.
type MediaService struct {
	blob storage.BlobStore
	log  *zap.SugaredLogger
}

func NewMediaService(blob storage.BlobStore, log *zap.SugaredLogger) *MediaService {
	return &MediaService{blob: blob, log: log}
}

func (s *MediaService) Upload(ctx context.Context, filename, contentType string, data []byte) (*models.MediaRef, error) {
	if s.blob == nil {
		return nil, fmt.Errorf("media uploads are not configured: %w", apperr.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload: %w", apperr.ErrValidation)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("upload exceeds %d bytes: %w", maxUploadBytes, apperr.ErrValidation)
	}

	key := uuid.NewString() + filepath.Ext(filename)
	url, err := s.blob.Upload(ctx, key, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("blob upload failed: %w", err)
	}
	return &models.MediaRef{
		URL:  url,
		Type: storage.MediaTypeFromContentType(contentType),
	}, nil
}
