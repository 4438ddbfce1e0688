package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/m1stadev/ios-beta-api/internal/utils"
)

const (
	defaultDirPermissions  = 0775
	defaultFilePermissions = 0664
	catalogLockTimeout     = 5 * time.Second
	catalogLockRetryDelay  = 13 * time.Millisecond
)

// FileStore keeps the catalog as a single JSON file. Writes go through
// a temp-file-and-rename so that a concurrent serving process either
// sees the old or the new document, never a torn one. A lock file
// serializes writers across processes.
type FileStore struct {
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	path, err := utils.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error expanding catalog file path %s: %w", path, err)
	}
	return &FileStore{path: abs}, nil
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Write(ctx context.Context, cat *model.Catalog) error {
	data, err := utils.EncodeJSONWithoutEscapeHTML(cat)
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(f.path), defaultDirPermissions)
	if err != nil {
		return fmt.Errorf("could not create catalog directory: %w", err)
	}

	unlock, err := f.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	err = utils.AtomicWriteFile(f.path, data, defaultFilePermissions)
	if err != nil {
		return fmt.Errorf("could not write catalog: %w", err)
	}
	slog.Default().Info("saved catalog file", "filename", f.path, "devices", len(cat.Devices), "records", cat.Size())
	return nil
}

func (f *FileStore) Read(_ context.Context) (*model.Catalog, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExists
		}
		return nil, fmt.Errorf("error reading catalog file %s: %w", f.path, err)
	}
	var cat model.Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("catalog file %s is not valid JSON: %w", f.path, err)
	}
	if cat.Devices == nil {
		cat.Devices = map[string][]model.FirmwareRecord{}
	}
	return &cat, nil
}

func (f *FileStore) lock(ctx context.Context) (func(), error) {
	fl := flock.New(f.path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, catalogLockTimeout)
	defer cancel()
	locked, err := fl.TryLockContext(ctx, catalogLockRetryDelay)
	if err != nil || !locked {
		return nil, fmt.Errorf("could not acquire lock on catalog file: %w", err)
	}
	return func() { _ = fl.Unlock() }, nil
}
