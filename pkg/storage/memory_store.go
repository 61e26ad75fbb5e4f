package storage

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MemoryObjectStore keeps objects in-process. It signs URLs with an HMAC
// scheme shaped like the real store's so handler tests can assert on key,
// expiry, and disposition without network access.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	secret  []byte
	objects map[string]memoryObject

	// PutErr and DeleteErr, when set, are returned by the respective
	// operations to simulate store failures.
	PutErr    error
	DeleteErr error
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryObjectStore initializes an empty store with a fixed signing secret.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		secret:  []byte("memory-object-store"),
		objects: make(map[string]memoryObject),
	}
}

// Put records the object bytes.
func (s *MemoryObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("read object %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

// PresignGet returns a deterministic signed URL for the key.
func (s *MemoryObjectStore) PresignGet(_ context.Context, key string, expiry time.Duration, opts PresignOptions) (string, error) {
	expiry = ClampExpiry(expiry)
	expires := time.Now().UTC().Add(expiry).Unix()
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s:%d", key, expires)
	q := url.Values{}
	q.Set("expires", strconv.FormatInt(expires, 10))
	q.Set("signature", hex.EncodeToString(mac.Sum(nil)))
	if opts.AttachmentFilename != "" {
		q.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", opts.AttachmentFilename))
	}
	return "https://objects.test/" + key + "?" + q.Encode(), nil
}

// Delete removes the object; missing keys are not an error.
func (s *MemoryObjectStore) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Has reports whether the key currently holds an object.
func (s *MemoryObjectStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
