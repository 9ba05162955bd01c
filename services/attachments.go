package services

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"task-manager/models"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFileName replaces every character outside [a-zA-Z0-9._-] with an
// underscore.
func SanitizeFileName(name string) string {
	return unsafeFileChars.ReplaceAllString(name, "_")
}

// AttachmentStore writes uploaded attachment payloads to a local directory
// that is served read-only under /uploads/.
type AttachmentStore struct {
	dir string
}

func NewAttachmentStore(dir string) *AttachmentStore {
	return &AttachmentStore{dir: dir}
}

// Save decodes and persists an inline attachment payload and returns its
// descriptor. A nil upload, or one missing fileName or contentBase64, is
// silently skipped: both return values are nil.
func (s *AttachmentStore) Save(upload *models.AttachmentUpload) (*models.Attachment, error) {
	if upload == nil || upload.FileName == "" || upload.ContentBase64 == "" {
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(upload.ContentBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: attachment content is not valid base64", ErrValidation)
	}

	safeName := SanitizeFileName(upload.FileName)
	targetName := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), safeName)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, targetName), data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store attachment: %v", err)
	}

	return &models.Attachment{
		FileName: safeName,
		FileUrl:  "/uploads/" + targetName,
		FileType: upload.FileType,
		Size:     coerceSize(upload.Size),
	}, nil
}

// coerceSize turns whatever JSON value the client sent as the size into an
// integer byte count, defaulting to 0.
func coerceSize(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i
		}
	}
	return 0
}
