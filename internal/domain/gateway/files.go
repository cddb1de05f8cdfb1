package gateway

import (
	"context"
	"io"
)

// StoredFile сохранённое вложение к сдаче работы.
type StoredFile struct {
	URL  string
	Path string
	Size int64
	MIME string
}

// FileStore хранилище вложений. Тип файла проверяется по содержимому.
type FileStore interface {
	Save(ctx context.Context, orderID int64, r io.Reader) (*StoredFile, error)
}
