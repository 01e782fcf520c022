// backend-erp/internal/storage/storage.go
//
// Хранилище загруженных файлов на локальном диске. Имена файлов
// генерируются через uuid, клиентское имя сохраняется только в базе.
package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store складывает файлы в один каталог, создавая его при необходимости.
type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("создание каталога %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Save записывает загруженный файл под новым uuid-именем и возвращает
// имя внутри каталога хранилища.
func (s *Store) Save(file *multipart.FileHeader, saveFunc func(*multipart.FileHeader, string) error) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext

	if err := saveFunc(file, filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("сохранение файла: %w", err)
	}
	return name, nil
}

// Path возвращает абсолютный путь к ранее сохранённому файлу. Имя с
// разделителями пути отклоняется: в хранилище лежат только uuid-имена.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("недопустимое имя файла: %q", name)
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("файл не найден: %w", err)
	}
	return path, nil
}

// Remove удаляет файл из хранилища. Отсутствие файла не считается
// ошибкой: запись в базе могла пережить файл.
func (s *Store) Remove(name string) error {
	if name == "" || name != filepath.Base(name) {
		return fmt.Errorf("недопустимое имя файла: %q", name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
