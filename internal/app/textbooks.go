package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"unishelf/pkg/domain"
	"unishelf/pkg/storage"
	"unishelf/pkg/store"
)

// CreateTextbookInput carries the client-supplied fields of a new record.
// Owner identity and display name are derived from the principal, never
// trusted from the body.
type CreateTextbookInput struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Author        string  `json:"author"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	ISBN          string  `json:"isbn"`
	FileKey       string  `json:"fileKey"`
	FileName      string  `json:"fileName"`
	ThumbnailKey  string  `json:"thumbnailKey"`
	ThumbnailName string  `json:"thumbnailName"`
	PageCount     int     `json:"pageCount"`
}

// UpdateTextbookInput carries optional field updates; nil means unchanged.
type UpdateTextbookInput struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Author        *string  `json:"author"`
	Price         *float64 `json:"price"`
	Category      *string  `json:"category"`
	ISBN          *string  `json:"isbn"`
	FileKey       *string  `json:"fileKey"`
	FileName      *string  `json:"fileName"`
	ThumbnailKey  *string  `json:"thumbnailKey"`
	ThumbnailName *string  `json:"thumbnailName"`
}

// CreateTextbook registers a catalog record referencing already-uploaded
// asset keys. Lecturers only.
func (a *App) CreateTextbook(ctx context.Context, principal domain.User, in CreateTextbookInput) (domain.Textbook, error) {
	if principal.Role != domain.RoleLecturer {
		return domain.Textbook{}, forbidden("only lecturers can create textbooks")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" ||
		strings.TrimSpace(in.Author) == "" || strings.TrimSpace(in.Category) == "" ||
		strings.TrimSpace(in.FileKey) == "" || strings.TrimSpace(in.FileName) == "" {
		return domain.Textbook{}, validationf("please provide all required fields")
	}
	if in.Price <= 0 {
		return domain.Textbook{}, validationf("price must be a positive number")
	}
	now := time.Now().UTC()
	textbook := domain.Textbook{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Author:        strings.TrimSpace(in.Author),
		Price:         in.Price,
		Category:      strings.TrimSpace(in.Category),
		ISBN:          strings.TrimSpace(in.ISBN),
		LecturerID:    principal.ID,
		LecturerName:  principal.FullName,
		FileKey:       in.FileKey,
		FileName:      in.FileName,
		ThumbnailKey:  in.ThumbnailKey,
		ThumbnailName: in.ThumbnailName,
		PageCount:     in.PageCount,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := a.store.SaveTextbook(textbook); err != nil {
		return domain.Textbook{}, fmt.Errorf("save textbook: %w", err)
	}
	return a.enrich(ctx, textbook)
}

// ListTextbooks returns enriched catalog records matching the filter.
func (a *App) ListTextbooks(ctx context.Context, filter store.TextbookFilter) ([]domain.Textbook, error) {
	textbooks, err := a.store.ListTextbooks(filter)
	if err != nil {
		return nil, fmt.Errorf("list textbooks: %w", err)
	}
	return a.enrichAll(ctx, textbooks)
}

// GetTextbook returns one enriched record.
func (a *App) GetTextbook(ctx context.Context, id string) (domain.Textbook, error) {
	textbook, ok, err := a.store.GetTextbook(id)
	if err != nil {
		return domain.Textbook{}, fmt.Errorf("fetch textbook: %w", err)
	}
	if !ok {
		return domain.Textbook{}, notFound("textbook not found")
	}
	return a.enrich(ctx, textbook)
}

// UpdateTextbook applies partial updates. Owner or admin only.
func (a *App) UpdateTextbook(ctx context.Context, principal domain.User, id string, in UpdateTextbookInput) (domain.Textbook, error) {
	textbook, ok, err := a.store.GetTextbook(id)
	if err != nil {
		return domain.Textbook{}, fmt.Errorf("fetch textbook: %w", err)
	}
	if !ok {
		return domain.Textbook{}, notFound("textbook not found")
	}
	if principal.Role != domain.RoleAdmin && principal.ID != textbook.LecturerID {
		return domain.Textbook{}, forbidden("not authorized to update this textbook")
	}
	if in.Title != nil {
		textbook.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		textbook.Description = strings.TrimSpace(*in.Description)
	}
	if in.Author != nil {
		textbook.Author = strings.TrimSpace(*in.Author)
	}
	if in.Price != nil {
		if *in.Price <= 0 {
			return domain.Textbook{}, validationf("price must be a positive number")
		}
		textbook.Price = *in.Price
	}
	if in.Category != nil {
		textbook.Category = strings.TrimSpace(*in.Category)
	}
	if in.ISBN != nil {
		textbook.ISBN = strings.TrimSpace(*in.ISBN)
	}
	if in.FileKey != nil {
		textbook.FileKey = *in.FileKey
	}
	if in.FileName != nil {
		textbook.FileName = *in.FileName
	}
	if in.ThumbnailKey != nil {
		textbook.ThumbnailKey = *in.ThumbnailKey
	}
	if in.ThumbnailName != nil {
		textbook.ThumbnailName = *in.ThumbnailName
	}
	if textbook.Title == "" || textbook.FileKey == "" {
		return domain.Textbook{}, validationf("title and fileKey cannot be cleared")
	}
	textbook.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTextbook(textbook); err != nil {
		return domain.Textbook{}, fmt.Errorf("save textbook: %w", err)
	}
	return a.enrich(ctx, textbook)
}

// DeleteTextbook removes the record and its stored assets. Asset deletion is
// best-effort: a failed object delete is logged and never blocks removal of
// the catalog record.
func (a *App) DeleteTextbook(ctx context.Context, principal domain.User, id string) error {
	textbook, ok, err := a.store.GetTextbook(id)
	if err != nil {
		return fmt.Errorf("fetch textbook: %w", err)
	}
	if !ok {
		return notFound("textbook not found")
	}
	if principal.Role != domain.RoleAdmin && principal.ID != textbook.LecturerID {
		return forbidden("not authorized to delete this textbook")
	}
	for _, key := range []string{textbook.FileKey, textbook.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := a.objects.Delete(ctx, key); err != nil {
			slog.Warn("asset cleanup failed", "textbook_id", id, "key", key, "err", err)
		}
	}
	if err := a.store.DeleteTextbook(id); err != nil {
		return fmt.Errorf("delete textbook: %w", err)
	}
	return nil
}

// enrich recomputes the presigned views from the stored keys. Persisted URLs
// expire, so this runs on every read path and is never cached.
func (a *App) enrich(ctx context.Context, t domain.Textbook) (domain.Textbook, error) {
	if t.FileKey != "" {
		url, err := a.objects.PresignGet(ctx, t.FileKey, a.viewTTL, storage.PresignOptions{})
		if err != nil {
			return domain.Textbook{}, storagef(err, "sign pdf URL: %v", err)
		}
		t.PdfURL = url
	}
	if t.ThumbnailKey != "" {
		url, err := a.objects.PresignGet(ctx, t.ThumbnailKey, a.viewTTL, storage.PresignOptions{})
		if err != nil {
			return domain.Textbook{}, storagef(err, "sign cover URL: %v", err)
		}
		t.CoverImage = url
	}
	return t, nil
}

func (a *App) enrichAll(ctx context.Context, textbooks []domain.Textbook) ([]domain.Textbook, error) {
	res := make([]domain.Textbook, 0, len(textbooks))
	for _, t := range textbooks {
		enriched, err := a.enrich(ctx, t)
		if err != nil {
			return nil, err
		}
		res = append(res, enriched)
	}
	return res, nil
}
