package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"unishelf/pkg/domain"
	"unishelf/pkg/store"
)

func registerUser(t *testing.T, a *App, email string, role domain.UserRole) domain.User {
	t.Helper()
	user, err := a.Register(email, "passw0rd", "Test "+string(role), role)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func createTextbook(t *testing.T, a *App, lecturer domain.User, title string, price float64) domain.Textbook {
	t.Helper()
	textbook, err := a.CreateTextbook(context.Background(), lecturer, CreateTextbookInput{
		Title:         title,
		Description:   "A thorough treatment",
		Author:        "Author",
		Price:         price,
		Category:      "math",
		FileKey:       "files/file-1-1.pdf",
		FileName:      title + ".pdf",
		ThumbnailKey:  "blogs/thumbnail-1-1.png",
		ThumbnailName: title + ".png",
	})
	if err != nil {
		t.Fatalf("create textbook: %v", err)
	}
	return textbook
}

func TestCreateTextbookRequiresLecturer(t *testing.T) {
	a, _, _ := newTestApp(t)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	_, err := a.CreateTextbook(context.Background(), student, CreateTextbookInput{
		Title: "X", Description: "d", Author: "a", Price: 10, Category: "c",
		FileKey: "files/f.pdf", FileName: "f.pdf",
	})
	assertKind(t, err, KindForbidden)
}

func TestCreateTextbookValidation(t *testing.T) {
	a, _, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)

	_, err := a.CreateTextbook(context.Background(), lecturer, CreateTextbookInput{Title: "X"})
	assertKind(t, err, KindValidation)

	_, err = a.CreateTextbook(context.Background(), lecturer, CreateTextbookInput{
		Title: "X", Description: "d", Author: "a", Price: -1, Category: "c",
		FileKey: "files/f.pdf", FileName: "f.pdf",
	})
	assertKind(t, err, KindValidation)
}

func TestCreateTextbookTakesOwnerFromPrincipal(t *testing.T) {
	a, _, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	textbook := createTextbook(t, a, lecturer, "Calculus", 45.99)
	if textbook.LecturerID != lecturer.ID {
		t.Fatalf("expected lecturer id %q, got %q", lecturer.ID, textbook.LecturerID)
	}
	if textbook.LecturerName != lecturer.FullName {
		t.Fatalf("expected lecturer name %q, got %q", lecturer.FullName, textbook.LecturerName)
	}
}

func TestCatalogReadsRecomputeSignedURLs(t *testing.T) {
	a, dataStore, _ := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	created := createTextbook(t, a, lecturer, "Calculus", 45.99)
	if created.PdfURL == "" || created.CoverImage == "" {
		t.Fatalf("expected creation response enriched, got %+v", created)
	}

	// The durable record carries keys only; URLs are derived per read.
	stored, ok, err := dataStore.GetTextbook(created.ID)
	if err != nil || !ok {
		t.Fatalf("get stored textbook: ok=%v err=%v", ok, err)
	}
	if stored.PdfURL != "" || stored.CoverImage != "" {
		t.Fatalf("expected no persisted URLs, got %+v", stored)
	}

	got, err := a.GetTextbook(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get textbook: %v", err)
	}
	if !strings.Contains(got.PdfURL, stored.FileKey) {
		t.Fatalf("expected pdf URL to target %q, got %q", stored.FileKey, got.PdfURL)
	}
	if !strings.Contains(got.CoverImage, stored.ThumbnailKey) {
		t.Fatalf("expected cover URL to target %q, got %q", stored.ThumbnailKey, got.CoverImage)
	}

	list, err := a.ListTextbooks(context.Background(), store.TextbookFilter{})
	if err != nil {
		t.Fatalf("list textbooks: %v", err)
	}
	if len(list) != 1 || list[0].PdfURL == "" || list[0].CoverImage == "" {
		t.Fatalf("expected enriched listing, got %+v", list)
	}
}

func TestUpdateTextbookOwnerOrAdminOnly(t *testing.T) {
	a, _, _ := newTestApp(t)
	owner := registerUser(t, a, "owner@example.edu", domain.RoleLecturer)
	other := registerUser(t, a, "other@example.edu", domain.RoleLecturer)
	admin := registerUser(t, a, "admin@example.edu", domain.RoleAdmin)
	textbook := createTextbook(t, a, owner, "Calculus", 45.99)

	newTitle := "Calculus II"
	_, err := a.UpdateTextbook(context.Background(), other, textbook.ID, UpdateTextbookInput{Title: &newTitle})
	assertKind(t, err, KindForbidden)

	updated, err := a.UpdateTextbook(context.Background(), owner, textbook.ID, UpdateTextbookInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != "Calculus II" {
		t.Fatalf("expected updated title, got %q", updated.Title)
	}

	newPrice := 59.99
	updated, err = a.UpdateTextbook(context.Background(), admin, textbook.ID, UpdateTextbookInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("admin update: %v", err)
	}
	if updated.Price != 59.99 {
		t.Fatalf("expected updated price, got %v", updated.Price)
	}

	zero := 0.0
	_, err = a.UpdateTextbook(context.Background(), owner, textbook.ID, UpdateTextbookInput{Price: &zero})
	assertKind(t, err, KindValidation)
}

func TestDeleteTextbookSwallowsAssetFailures(t *testing.T) {
	a, dataStore, objects := newTestApp(t)
	lecturer := registerUser(t, a, "lec@example.edu", domain.RoleLecturer)
	textbook := createTextbook(t, a, lecturer, "Calculus", 45.99)

	objects.DeleteErr = errors.New("store unavailable")
	if err := a.DeleteTextbook(context.Background(), lecturer, textbook.ID); err != nil {
		t.Fatalf("expected delete to succeed despite asset failure: %v", err)
	}
	if _, ok, _ := dataStore.GetTextbook(textbook.ID); ok {
		t.Fatalf("expected catalog record removed")
	}
}

func TestDeleteTextbookOwnerOrAdminOnly(t *testing.T) {
	a, _, _ := newTestApp(t)
	owner := registerUser(t, a, "owner@example.edu", domain.RoleLecturer)
	other := registerUser(t, a, "other@example.edu", domain.RoleLecturer)
	student := registerUser(t, a, "stu@example.edu", domain.RoleStudent)
	textbook := createTextbook(t, a, owner, "Calculus", 45.99)

	err := a.DeleteTextbook(context.Background(), other, textbook.ID)
	assertKind(t, err, KindForbidden)
	err = a.DeleteTextbook(context.Background(), student, textbook.ID)
	assertKind(t, err, KindForbidden)

	if err := a.DeleteTextbook(context.Background(), owner, textbook.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	err = a.DeleteTextbook(context.Background(), owner, textbook.ID)
	assertKind(t, err, KindNotFound)
}
