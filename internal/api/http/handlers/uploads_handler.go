package handlers

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opsdesk/helpdesk/internal/api/dto"
	"github.com/opsdesk/helpdesk/internal/storage"
	apperrors "github.com/opsdesk/helpdesk/pkg/util"
)

// UploadsHandler streams multipart attachments through a local temp
// file into the object store.
type UploadsHandler struct {
	store  storage.ObjectStore
	logger *zap.Logger
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(store storage.ObjectStore, logger *zap.Logger) *UploadsHandler {
	return &UploadsHandler{store: store, logger: logger}
}

// Upload POST /upload-attachment.
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return apperrors.NewValidationError("multipart form required", nil)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return apperrors.NewValidationError("no files provided", nil)
	}

	uploaded := make([]dto.UploadedFileResponse, 0, len(files))
	for _, header := range files {
		stored, err := h.forwardViaTempFile(c, header.Filename, func(tmpPath string) error {
			return c.SaveFile(header, tmpPath)
		})
		if err != nil {
			return err
		}
		uploaded = append(uploaded, dto.UploadedFileResponse{
			URL:              stored.URL,
			OriginalFilename: stored.OriginalFilename,
		})
	}
	return c.JSON(fiber.Map{"files": uploaded})
}

// forwardViaTempFile saves the part to local disk, forwards it to the
// object store as a stream, and removes the temp file in all outcomes.
func (h *UploadsHandler) forwardViaTempFile(c *fiber.Ctx, originalFilename string, save func(string) error) (*storage.StoredFile, error) {
	tmpPath := os.TempDir() + string(os.PathSeparator) + "upload-" + uuid.NewString()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to remove temp upload", zap.String("path", tmpPath), zap.Error(err))
		}
	}()

	if err := save(tmpPath); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	f, err := os.Open(tmpPath)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	defer f.Close()

	return h.store.Put(c.UserContext(), f, originalFilename)
}
