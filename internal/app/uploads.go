package app

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"unishelf/pkg/domain"
	"unishelf/pkg/storage"
)

// Upload field purposes. The folder split is an organizational convention,
// not a security boundary.
const (
	FieldPDF       = "file"
	FieldThumbnail = "thumbnail"
)

const (
	MaxThumbnailBytes = 5 * 1024 * 1024
	MaxPDFBytes       = 50 * 1024 * 1024
)

var allowedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/webp": {},
}

// UploadAsset validates and stores one uploaded file, returning the stored
// key plus a 24-hour presigned view URL. All validation happens before any
// store I/O so a rejected upload never touches object storage.
func (a *App) UploadAsset(ctx context.Context, field, filename, mimetype string, data []byte) (domain.Asset, error) {
	mimetype = strings.ToLower(strings.TrimSpace(mimetype))
	size := int64(len(data))
	if size == 0 {
		return domain.Asset{}, validationf("please select a file to upload")
	}

	switch field {
	case FieldThumbnail:
		if _, ok := allowedImageTypes[mimetype]; !ok {
			return domain.Asset{}, validationf("only JPG, JPEG, PNG, and WebP images are allowed")
		}
		if size > MaxThumbnailBytes {
			return domain.Asset{}, validationf("thumbnail exceeds the 5 MiB limit")
		}
	case FieldPDF:
		if mimetype != "application/pdf" {
			return domain.Asset{}, validationf("only PDF documents are allowed")
		}
		if size > MaxPDFBytes {
			return domain.Asset{}, validationf("file exceeds the 50 MiB limit")
		}
	default:
		return domain.Asset{}, validationf("unknown upload field %q", field)
	}

	key := buildObjectKey(field, filename)

	putCtx, cancel := context.WithTimeout(ctx, a.uploadTimeout)
	defer cancel()
	if err := a.objects.Put(putCtx, key, bytes.NewReader(data), size, mimetype); err != nil {
		return domain.Asset{}, storagef(err, "upload %s: %v", field, err)
	}

	url, err := a.objects.PresignGet(ctx, key, a.viewTTL, storage.PresignOptions{})
	if err != nil {
		return domain.Asset{}, storagef(err, "sign upload URL: %v", err)
	}

	asset := domain.Asset{
		FileKey:    key,
		FileName:   filepath.Base(filename),
		FileURL:    url,
		FileSize:   size,
		FileType:   mimetype,
		UploadedAt: time.Now().UTC(),
	}
	if field == FieldPDF {
		asset.PageCount = pdfPageCount(data)
	}
	return asset, nil
}

// DownloadURL returns a presigned URL with attachment disposition, valid for
// the store's maximum lifetime.
func (a *App) DownloadURL(ctx context.Context, fileKey, fileName string) (string, error) {
	if strings.TrimSpace(fileKey) == "" {
		return "", validationf("fileKey is required")
	}
	if strings.TrimSpace(fileName) == "" {
		fileName = "download"
	}
	url, err := a.objects.PresignGet(ctx, fileKey, a.downloadTTL, storage.PresignOptions{AttachmentFilename: fileName})
	if err != nil {
		return "", storagef(err, "sign download URL: %v", err)
	}
	return url, nil
}

// ViewURL returns a fresh 24-hour presigned view URL for an object key.
func (a *App) ViewURL(ctx context.Context, fileKey string) (string, error) {
	if strings.TrimSpace(fileKey) == "" {
		return "", validationf("fileKey is required")
	}
	url, err := a.objects.PresignGet(ctx, fileKey, a.viewTTL, storage.PresignOptions{})
	if err != nil {
		return "", storagef(err, "sign view URL: %v", err)
	}
	return url, nil
}

// buildObjectKey produces "{folder}/{field}-{unixms}-{random}{ext}". The
// timestamp plus random suffix keeps concurrent uploads from colliding;
// keys are never reused.
func buildObjectKey(field, filename string) string {
	folder := "uploads"
	switch field {
	case FieldThumbnail:
		folder = "blogs"
	case FieldPDF:
		folder = "files"
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s-%d-%d%s", folder, field, time.Now().UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

// pdfPageCount extracts the page count, best-effort. A malformed PDF just
// yields zero.
func pdfPageCount(data []byte) int {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
