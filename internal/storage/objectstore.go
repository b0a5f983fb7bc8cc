package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/config"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// StoredFile describes one persisted attachment.
type StoredFile struct {
	URL              string
	OriginalFilename string
}

// ObjectStore abstracts the external file store attachments are
// forwarded to. Consumed as a collaborator; the bundled implementation
// writes to local disk.
type ObjectStore interface {
	Put(ctx context.Context, r io.Reader, originalFilename string) (*StoredFile, error)
}

type localStore struct {
	dir     string
	baseURL string
	logger  *zap.Logger
}

// NewLocalStore returns a disk-backed ObjectStore rooted at the
// configured upload directory.
func NewLocalStore(cfg config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, err
	}
	return &localStore{dir: cfg.UploadDir, baseURL: cfg.BaseURL, logger: logger}, nil
}

func (s *localStore) Put(_ context.Context, r io.Reader, originalFilename string) (*StoredFile, error) {
	key := uuid.NewString() + filepath.Ext(originalFilename)
	dest := filepath.Join(s.dir, key)

	f, err := os.Create(dest)
	if err != nil {
		return nil, apperrors.NewDependencyError("object store", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(dest)
		return nil, apperrors.NewDependencyError("object store", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return nil, apperrors.NewDependencyError("object store", err)
	}

	s.logger.Debug("stored attachment", zap.String("key", key), zap.String("original", originalFilename))
	return &StoredFile{
		URL:              s.baseURL + "/" + key,
		OriginalFilename: originalFilename,
	}, nil
}
