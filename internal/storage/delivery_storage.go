package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/freelance-orders/internal/domain/gateway"
	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

// PublicPrefix URL-префикс, под которым роутер раздаёт сохранённые файлы.
const PublicPrefix = "/files/deliveries"

// headerSize столько байт filetype нужно для распознавания сигнатуры.
const headerSize = 262

func allowedMIME(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp",
		"application/pdf", "application/zip", "application/x-rar-compressed", "application/x-7z-compressed",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"video/mp4":
		return true
	}
	return false
}

// DeliveryStorage файловое хранилище вложений к сдаче работы.
type DeliveryStorage struct {
	rootPath       string
	maxUploadBytes int64
}

func NewDeliveryStorage(rootPath string, maxUploadMB int64) (*DeliveryStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &DeliveryStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

func (s *DeliveryStorage) Root() string {
	return s.rootPath
}

// Save проверяет реальный тип по сигнатуре и сохраняет файл под случайным именем.
// Имя от клиента не используется, чтобы не зависеть от его содержимого.
func (s *DeliveryStorage) Save(ctx context.Context, orderID int64, r io.Reader) (*gateway.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(r, headerSize)
	head, err := br.Peek(headerSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	if len(head) == 0 {
		return nil, apperror.Validation("file", "файл пустой")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.Validation("file", "не удалось определить тип файла")
	}
	if !allowedMIME(kind.MIME.Value) {
		return nil, apperror.Validation("file", fmt.Sprintf("тип файла %s не поддерживается", kind.MIME.Value))
	}

	dir := strconv.FormatInt(orderID, 10)
	if err := os.MkdirAll(filepath.Join(s.rootPath, dir), 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог заказа: %w", err)
	}

	name := uuid.NewString() + "." + kind.Extension
	target := filepath.Join(s.rootPath, dir, name)
	tmp := target + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, &io.LimitedReader{R: br, N: s.maxUploadBytes + 1})
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tmp)
		return nil, apperror.Validation("file", fmt.Sprintf("размер файла превышает %d МБ", s.maxUploadBytes/1024/1024))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &gateway.StoredFile{
		URL:  path.Join(PublicPrefix, dir, name),
		Path: filepath.Join(dir, name),
		Size: written,
		MIME: kind.MIME.Value,
	}, nil
}

// Delete удаляет файл по относительному пути. Путь за пределами корня игнорируется.
func (s *DeliveryStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean := filepath.Clean(relativePath)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil
	}
	if err := os.Remove(filepath.Join(s.rootPath, clean)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}
