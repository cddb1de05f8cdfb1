package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newStorage(t *testing.T) *DeliveryStorage {
	t.Helper()
	s, err := NewDeliveryStorage(t.TempDir(), 1)
	require.NoError(t, err)
	return s
}

func TestSave_DetectsTypeBySignature(t *testing.T) {
	s := newStorage(t)

	pdf := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 512)...)
	file, err := s.Save(context.Background(), 42, bytes.NewReader(pdf))
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", file.MIME)
	assert.True(t, strings.HasPrefix(file.URL, PublicPrefix+"/42/"))
	assert.True(t, strings.HasSuffix(file.URL, ".pdf"))
	assert.Equal(t, int64(len(pdf)), file.Size)

	stored, err := os.ReadFile(filepath.Join(s.Root(), file.Path))
	require.NoError(t, err)
	assert.Equal(t, pdf, stored)
}

func TestSave_RejectsUnknownAndEmpty(t *testing.T) {
	s := newStorage(t)

	_, err := s.Save(context.Background(), 1, strings.NewReader("просто текст, не файл"))
	assert.True(t, apperror.IsValidation(err))

	_, err = s.Save(context.Background(), 1, bytes.NewReader(nil))
	assert.True(t, apperror.IsValidation(err))
}

func TestSave_RejectsOversize(t *testing.T) {
	s := newStorage(t)

	big := append(append([]byte{}, pngHeader...), make([]byte, 2*1024*1024)...)
	_, err := s.Save(context.Background(), 7, bytes.NewReader(big))
	assert.True(t, apperror.IsValidation(err))

	entries, err := os.ReadDir(filepath.Join(s.Root(), "7"))
	require.NoError(t, err)
	assert.Empty(t, entries, "временный файл должен быть удалён")
}

func TestDelete(t *testing.T) {
	s := newStorage(t)

	file, err := s.Save(context.Background(), 3, bytes.NewReader(append(pngHeader, make([]byte, 300)...)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), file.Path))
	_, err = os.Stat(filepath.Join(s.Root(), file.Path))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), "../../etc/passwd"))
	assert.NoError(t, s.Delete(context.Background(), file.Path), "повторное удаление не ошибка")
}
