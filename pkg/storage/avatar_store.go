// Package storage persists uploaded avatar images on local disk.
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AvatarStore validates and persists avatar uploads under a base directory.
type AvatarStore struct {
	baseDir      string
	maxSizeBytes int64
	allowedMIMEs map[string]string
}

// mime -> file extension for the default allow-list.
var defaultMIMEs = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// NewAvatarStore ensures the base directory exists and returns a handle.
func NewAvatarStore(baseDir string, maxSizeBytes int64, allowedMIMEs []string) (*AvatarStore, error) {
	if baseDir == "" {
		baseDir = "./avatars"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatars directory: %w", err)
	}
	mimes := make(map[string]string)
	if len(allowedMIMEs) == 0 {
		mimes = defaultMIMEs
	} else {
		for _, m := range allowedMIMEs {
			if ext, ok := defaultMIMEs[m]; ok {
				mimes[m] = ext
			}
		}
	}
	return &AvatarStore{baseDir: baseDir, maxSizeBytes: maxSizeBytes, allowedMIMEs: mimes}, nil
}

// Save sniffs the content type, enforces the size limit and MIME allow-list,
// and writes the file as <userID><ext>. It returns the stored filename.
func (s *AvatarStore) Save(userID string, r io.Reader, declaredSize int64) (string, error) {
	if s.maxSizeBytes > 0 && declaredSize > s.maxSizeBytes {
		return "", fmt.Errorf("avatar exceeds maximum size of %d bytes", s.maxSizeBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read avatar header: %w", err)
	}
	head = head[:n]

	mime := strings.Split(http.DetectContentType(head), ";")[0]
	ext, ok := s.allowedMIMEs[mime]
	if !ok {
		return "", fmt.Errorf("unsupported avatar content type %q", mime)
	}

	filename := userID + ext
	path := filepath.Join(s.baseDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := file.Write(head); err != nil {
		return "", fmt.Errorf("write avatar file: %w", err)
	}

	limit := io.Reader(r)
	if s.maxSizeBytes > 0 {
		limit = io.LimitReader(r, s.maxSizeBytes-int64(len(head))+1)
	}
	written, err := io.Copy(file, limit)
	if err != nil {
		return "", fmt.Errorf("write avatar stream: %w", err)
	}
	if s.maxSizeBytes > 0 && int64(len(head))+written > s.maxSizeBytes {
		_ = os.Remove(path)
		return "", fmt.Errorf("avatar exceeds maximum size of %d bytes", s.maxSizeBytes)
	}
	return filename, nil
}

// Delete removes a stored avatar if present.
func (s *AvatarStore) Delete(filename string) error {
	if err := os.Remove(filepath.Join(s.baseDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete avatar file: %w", err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *AvatarStore) Path(filename string) string {
	return filepath.Join(s.baseDir, filename)
}
