package services

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"task-manager/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean name untouched", in: "report_v2.final-1.png", want: "report_v2.final-1.png"},
		{name: "spaces and slashes", in: "a b/c.png", want: "a_b_c.png"},
		{name: "path traversal characters", in: "../../etc/passwd", want: ".._.._etc_passwd"},
		{name: "unicode replaced", in: "izveštaj €.pdf", want: "izve_taj__.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, `^[a-zA-Z0-9._-]*$`, got)
		})
	}
}

func TestAttachmentStore_Save(t *testing.T) {
	store := NewAttachmentStore(t.TempDir())

	t.Run("nil upload is skipped", func(t *testing.T) {
		saved, err := store.Save(nil)
		require.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("missing content is skipped", func(t *testing.T) {
		saved, err := store.Save(&models.AttachmentUpload{FileName: "a.png"})
		require.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("missing file name is skipped", func(t *testing.T) {
		saved, err := store.Save(&models.AttachmentUpload{ContentBase64: "aGVsbG8="})
		require.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("invalid base64 is a validation error", func(t *testing.T) {
		_, err := store.Save(&models.AttachmentUpload{
			FileName:      "a.png",
			ContentBase64: "not base64!!",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAttachmentStore_Save_WritesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewAttachmentStore(dir)
	content := []byte("attachment bytes")

	saved, err := store.Save(&models.AttachmentUpload{
		FileName:      "a b/c.png",
		FileType:      "image/png",
		ContentBase64: base64.StdEncoding.EncodeToString(content),
		Size:          float64(16),
	})
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "a_b_c.png", saved.FileName)
	assert.Equal(t, "image/png", saved.FileType)
	assert.Equal(t, int64(16), saved.Size)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/\d+-a_b_c\.png$`), saved.FileUrl)

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(saved.FileUrl)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestCoerceSize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{name: "json number", in: float64(1024), want: 1024},
		{name: "numeric string", in: "2048", want: 2048},
		{name: "garbage string", in: "huge", want: 0},
		{name: "missing", in: nil, want: 0},
		{name: "int", in: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceSize(tt.in))
		})
	}
}
