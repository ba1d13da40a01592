package filerepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-session-client/storage"
)

var _ storage.BatchRepo = (*FileRepo)(nil)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// FileRepo keeps every key in one JSON document on disk. The document is
// re-read on each call so values written by another process are visible, and
// every write replaces the file through a rename.
type FileRepo struct {
	path string
	lock sync.Mutex
}

// New returns a repo backed by path, creating its parent directory.
func New(path string) (*FileRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("[filerepo.New] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("[filerepo.New] create data folder: %w", err)
	}
	return &FileRepo{path: path}, nil
}

// Path returns the backing file.
func (fr *FileRepo) Path() string {
	return fr.path
}

func (fr *FileRepo) Set(ctx context.Context, key, value string) error {
	return fr.SetAll(ctx, map[string]string{key: value})
}

func (fr *FileRepo) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fr.lock.Lock()
	defer fr.lock.Unlock()

	values, err := fr.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (fr *FileRepo) Remove(ctx context.Context, key string) error {
	return fr.RemoveAll(ctx, key)
}

func (fr *FileRepo) SetAll(ctx context.Context, entries map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fr.lock.Lock()
	defer fr.lock.Unlock()

	values, err := fr.load()
	if err != nil {
		return err
	}
	for k, v := range entries {
		values[k] = v
	}
	return fr.save(values)
}

func (fr *FileRepo) RemoveAll(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fr.lock.Lock()
	defer fr.lock.Unlock()

	values, err := fr.load()
	if err != nil {
		return err
	}
	changed := false
	for _, k := range keys {
		if _, ok := values[k]; ok {
			delete(values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return fr.save(values)
}

func (fr *FileRepo) load() (map[string]string, error) {
	data, err := os.ReadFile(fr.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fr.path, err)
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", fr.path, err)
	}
	return values, nil
}

func (fr *FileRepo) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fr.path), filepath.Base(fr.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename has succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, fr.path); err != nil {
		return fmt.Errorf("replace %s: %w", fr.path, err)
	}
	return nil
}
