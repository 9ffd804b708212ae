// Package blob stores uploaded media (voice circulars and chat attachments)
// behind a small key/value interface.
package blob

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Object describes a stored blob
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store is an object store. Keys are slash separated and never start with a slash.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)
	// Stat returns the stored metadata of key without reading it
	Stat(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
}

const (
	PrefixCirculars = "circulars"
	PrefixChat      = "chat"
)

// NewKey builds a fresh key under prefix/eventID, keeping the extension of filename
func NewKey(prefix string, eventID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return prefix + "/" + eventID.String() + "/" + uuid.NewString() + ext
}

// EventIDFromKey returns the event a key was stored under
func EventIDFromKey(key string) (uuid.UUID, bool) {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) != 3 {
		return uuid.Nil, false
	}
	if parts[0] != PrefixCirculars && parts[0] != PrefixChat {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CleanKey rejects keys that could escape the store namespace
func CleanKey(key string) (string, bool) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", false
	}
	if path.Clean(key) != key {
		return "", false
	}
	return key, true
}
