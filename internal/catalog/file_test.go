package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kinbiko/jsonassert"
	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *model.Catalog {
	cat := model.NewCatalog(time.Date(2023, time.September, 1, 12, 0, 0, 0, time.UTC))
	cat.Insert(model.FirmwareRecord{
		Identifier: "iPhone14,5",
		Version:    "15.1 beta 2",
		Build:      "19B5060d",
		URL:        "https://updates.cdn-apple.com/iPhone14,5_Restore.ipsw?a=1&b=2",
		Filesize:   6577109397,
		Signed:     model.StatusSigned,
	})
	cat.Sort()
	return cat
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betas.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	written := testCatalog()
	require.NoError(t, store.Write(context.Background(), written))

	read, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, written, read)
}

func TestFileStore_WrittenDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betas.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Write(context.Background(), testCatalog()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	ja := jsonassert.New(t)
	ja.Assertf(string(raw), `{
		"generatedAt": "2023-09-01T12:00:00Z",
		"devices": {
			"iphone14,5": [
				{
					"identifier": "iPhone14,5",
					"version": "15.1 beta 2",
					"build": "19B5060d",
					"url": "https://updates.cdn-apple.com/iPhone14,5_Restore.ipsw?a=1&b=2",
					"filesize": 6577109397,
					"signed": "signed"
				}
			]
		}
	}`)
}

func TestFileStore_ReadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "betas.json"))
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.ErrorIs(t, err, ErrNotExists)
}

func TestFileStore_ReadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betas.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0664))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Read(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotExists)
}

func TestFileStore_WriteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "betas.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Write(context.Background(), testCatalog()))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStore_WriteReplacesWholly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "betas.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	first := testCatalog()
	require.NoError(t, store.Write(context.Background(), first))

	second := model.NewCatalog(time.Date(2023, time.September, 2, 12, 0, 0, 0, time.UTC))
	second.Insert(model.FirmwareRecord{Identifier: "iPad13,1", Version: "15.1 beta 1", Build: "19B5042h",
		URL: "https://updates.cdn-apple.com/iPad13,1_Restore.ipsw", Filesize: 42, Signed: model.StatusUnknown})
	require.NoError(t, store.Write(context.Background(), second))

	read, err := store.Read(context.Background())
	require.NoError(t, err)
	_, ok := read.Lookup("iPhone14,5")
	assert.False(t, ok, "previous run's records must not survive a replace")
	_, ok = read.Lookup("iPad13,1")
	assert.True(t, ok)
}
