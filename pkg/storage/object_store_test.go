package storage

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestClampExpiry(t *testing.T) {
	if got := ClampExpiry(time.Hour); got != time.Hour {
		t.Fatalf("expected 1h unchanged, got %v", got)
	}
	if got := ClampExpiry(0); got != MaxPresignExpiry {
		t.Fatalf("expected zero clamped to max, got %v", got)
	}
	if got := ClampExpiry(-time.Minute); got != MaxPresignExpiry {
		t.Fatalf("expected negative clamped to max, got %v", got)
	}
	if got := ClampExpiry(30 * 24 * time.Hour); got != MaxPresignExpiry {
		t.Fatalf("expected oversized clamped to max, got %v", got)
	}
}

func TestMemoryStorePutPresignDelete(t *testing.T) {
	s := NewMemoryObjectStore()
	ctx := context.Background()

	if err := s.Put(ctx, "files/a.pdf", strings.NewReader("pdf-bytes"), 9, "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !s.Has("files/a.pdf") || s.Len() != 1 {
		t.Fatalf("expected one stored object")
	}

	signed, err := s.PresignGet(ctx, "files/a.pdf", 24*time.Hour, PresignOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	if !strings.HasSuffix(u.Path, "files/a.pdf") {
		t.Fatalf("expected url to target the key, got %q", u.Path)
	}
	if u.Query().Get("signature") == "" {
		t.Fatalf("expected signature param")
	}
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		t.Fatalf("parse expires: %v", err)
	}
	deadline := time.Unix(expires, 0)
	if until := time.Until(deadline); until < 23*time.Hour || until > 25*time.Hour {
		t.Fatalf("expected roughly 24h validity, got %v", until)
	}

	if err := s.Delete(ctx, "files/a.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Has("files/a.pdf") {
		t.Fatalf("expected object removed")
	}
	// Deleting an absent key is not an error.
	if err := s.Delete(ctx, "files/a.pdf"); err != nil {
		t.Fatalf("delete absent key: %v", err)
	}
}

func TestMemoryStorePresignAttachmentDisposition(t *testing.T) {
	s := NewMemoryObjectStore()
	signed, err := s.PresignGet(context.Background(), "files/a.pdf", time.Hour, PresignOptions{AttachmentFilename: "calculus.pdf"})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse signed url: %v", err)
	}
	disposition := u.Query().Get("response-content-disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, "calculus.pdf") {
		t.Fatalf("expected attachment disposition with filename, got %q", disposition)
	}
}

func TestMemoryStorePresignURLsDifferPerCall(t *testing.T) {
	s := NewMemoryObjectStore()
	first, err := s.PresignGet(context.Background(), "files/a.pdf", time.Hour, PresignOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	second, err := s.PresignGet(context.Background(), "files/a.pdf", time.Hour, PresignOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if first == second {
		t.Fatalf("expected fresh signatures per call")
	}
}
