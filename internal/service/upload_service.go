package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/secureleak/report-service/internal/auth"
	"github.com/secureleak/report-service/internal/config"
	"github.com/secureleak/report-service/internal/domain"
	"github.com/secureleak/report-service/internal/events"
	"github.com/secureleak/report-service/internal/repository"
	apperrors "github.com/secureleak/report-service/pkg/util"
)

// allowedImageExts is the extension allow-list for report images.
var allowedImageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// UploadService validates and stores report images. Stored files are
// re-encoded from decoded pixel data, which drops EXIF and every other
// embedded metadata block, and written under a server-generated random
// name, so the client-supplied filename never reaches the filesystem.
type UploadService struct {
	reports    repository.ReportRepository
	guards     *auth.Guards
	dispatcher events.Dispatcher
	baseDir    string
	maxBytes   int64
	maxWidth   int
	maxHeight  int
}

// NewUploadService builds the service.
func NewUploadService(cfg config.UploadConfig, reports repository.ReportRepository, guards *auth.Guards, dispatcher events.Dispatcher) *UploadService {
	baseDir := cfg.Dir
	if baseDir == "" {
		baseDir = "uploads"
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 2 * 1024 * 1024
	}
	maxWidth := cfg.MaxPixelWidth
	if maxWidth <= 0 {
		maxWidth = 2048
	}
	maxHeight := cfg.MaxPixelHeight
	if maxHeight <= 0 {
		maxHeight = 2048
	}
	return &UploadService{
		reports:    reports,
		guards:     guards,
		dispatcher: dispatcher,
		baseDir:    baseDir,
		maxBytes:   maxBytes,
		maxWidth:   maxWidth,
		maxHeight:  maxHeight,
	}
}

// StoreReportImage validates the upload and attaches it to the report.
// All checks pass before anything touches disk; a report carries at most
// one image.
func (s *UploadService) StoreReportImage(ctx context.Context, identity *domain.Identity, reportID int64, file *multipart.FileHeader, clientIP string) (string, error) {
	report, err := s.fetchOwned(ctx, identity, reportID)
	if err != nil {
		return "", err
	}
	if report.ImageName != nil {
		return "", apperrors.NewConflict("report already has an image", nil)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		return "", apperrors.NewUploadRejected("file type not allowed", map[string]any{
			"accepted": []string{".png", ".jpg", ".jpeg", ".gif"},
		})
	}
	if mimeType := file.Header.Get("Content-Type"); !strings.HasPrefix(mimeType, "image/") {
		return "", apperrors.NewUploadRejected("content type must be an image", nil)
	}
	if file.Size > s.maxBytes {
		return "", apperrors.NewUploadRejected("file too large", map[string]any{
			"max_bytes": s.maxBytes,
		})
	}

	src, err := file.Open()
	if err != nil {
		return "", apperrors.MapError(err)
	}
	defer src.Close()

	decoded, _, err := image.Decode(src)
	if err != nil {
		return "", apperrors.NewUploadRejected("file is not a decodable image", nil)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() > s.maxWidth || bounds.Dy() > s.maxHeight {
		return "", apperrors.NewUploadRejected("image dimensions too large", map[string]any{
			"max_width":  s.maxWidth,
			"max_height": s.maxHeight,
		})
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	reportDir := filepath.Join(s.baseDir, formatID(reportID))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", apperrors.MapError(err)
	}

	destPath := filepath.Join(reportDir, name)
	if err := writeReencoded(destPath, decoded, ext); err != nil {
		return "", apperrors.MapError(err)
	}

	if err := s.reports.UpdateFields(ctx, reportID, map[string]any{"image_name": name}); err != nil {
		_ = os.Remove(destPath)
		return "", apperrors.MapError(err)
	}

	s.emit(ctx, events.EventImageStored, actorID(identity), fmt.Sprintf("%d/%s", reportID, name), clientIP)
	return name, nil
}

// ResolveReportImage re-applies the report visibility policy and returns
// the on-disk path of the requested image. Only the exact filename
// recorded against the report is ever served; any other name answers
// "not found" even if such a file exists.
func (s *UploadService) ResolveReportImage(ctx context.Context, identity *domain.Identity, reportID int64, name string) (string, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NewNotFound("image", nil)
		}
		return "", apperrors.MapError(err)
	}
	if !IsVisible(report, identity) {
		return "", apperrors.NewNotFound("image", nil)
	}
	if report.ImageName == nil || name != *report.ImageName {
		return "", apperrors.NewNotFound("image", nil)
	}

	path := filepath.Join(s.baseDir, formatID(reportID), *report.ImageName)
	if _, err := os.Stat(path); err != nil {
		return "", apperrors.NewNotFound("image", nil)
	}
	return path, nil
}

func (s *UploadService) fetchOwned(ctx context.Context, identity *domain.Identity, reportID int64) (*domain.Report, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("report", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !s.guards.OwnsOrIsAdmin(ctx, identity, report.OwnerID) {
		return nil, apperrors.NewNotFound("report", nil)
	}
	return report, nil
}

// writeReencoded encodes the decoded pixel data into a fresh file using
// the codec matching the extension. The partial file is removed when
// encoding fails.
func writeReencoded(path string, decoded image.Image, ext string) error {
	dest, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext {
	case ".png":
		err = png.Encode(dest, decoded)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(dest, decoded, &jpeg.Options{Quality: 90})
	case ".gif":
		err = gif.Encode(dest, decoded, nil)
	default:
		err = fmt.Errorf("unsupported image extension %q", ext)
	}

	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (s *UploadService) emit(ctx context.Context, eventType events.EventType, userID *int64, target, clientIP string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:      eventType,
		UserID:    userID,
		Target:    target,
		ClientIP:  clientIP,
		Timestamp: time.Now(),
	})
}
