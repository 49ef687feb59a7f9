package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/oklog/ulid/v2"

	"github.com/ignatzorin/lending-backend/internal/pkg/apperror"
)

const (
	damageDir  = "damage"
	headerSize = 512
)

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heif": ".heic",
}

// StoredPhoto: сохранённая фотография повреждения. Ref кладётся в imageRefs возврата.
type StoredPhoto struct {
	Ref         string
	ContentType string
	Size        int64
}

// PhotoStorage отвечает за файловое хранилище фотографий повреждений.
type PhotoStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewPhotoStorage создаёт файловое хранилище.
func NewPhotoStorage(rootPath string, maxUploadMB int64) (*PhotoStorage, error) {
	if err := os.MkdirAll(filepath.Join(rootPath, damageDir), 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &PhotoStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Root: каталог, который раздаётся как /media.
func (s *PhotoStorage) Root() string {
	return s.rootPath
}

// SaveDamagePhoto проверяет содержимое по магическим байтам и сохраняет файл.
// Расширение берётся из определённого типа, а не из имени файла клиента.
func (s *PhotoStorage) SaveDamagePhoto(ctx context.Context, userID uuid.UUID, r io.Reader) (*StoredPhoto, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	header := make([]byte, headerSize)
	n, err := io.ReadFull(r, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return nil, apperror.Validation("файл пуст")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}
	header = header[:n]

	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.Validation("не удалось определить тип файла")
	}
	ext, ok := allowedMimeTypes[kind.MIME.Value]
	if !ok {
		return nil, apperror.Validation(fmt.Sprintf("тип файла %s не поддерживается, допустимы: %s", kind.MIME.Value, allowedList()))
	}

	userDir := filepath.Join(s.rootPath, damageDir, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	fileName := strings.ToLower(ulid.Make().String()) + ext
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limitedReader := io.LimitedReader{R: io.MultiReader(bytes.NewReader(header), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Validation(fmt.Sprintf("размер файла превышает лимит %d МБ", s.maxUploadBytes/1024/1024))
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &StoredPhoto{
		Ref:         filepath.ToSlash(filepath.Join(damageDir, userID.String(), fileName)),
		ContentType: kind.MIME.Value,
		Size:        written,
	}, nil
}

// Delete удаляет файл из хранилища.
func (s *PhotoStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := filepath.Clean("/" + ref)
	target := filepath.Join(s.rootPath, clean)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

func allowedList() string {
	types := make([]string, 0, len(allowedMimeTypes))
	for mime := range allowedMimeTypes {
		types = append(types, mime)
	}
	return strings.Join(types, ", ")
}
