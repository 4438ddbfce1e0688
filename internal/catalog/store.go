// Package catalog persists and serves the published firmware catalog.
// A store holds exactly one catalog document, replaced wholesale on
// every successful pipeline run. Readers of a store or a snapshot never
// observe a partially written document.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/m1stadev/ios-beta-api/internal/config"
	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/spf13/viper"
)

// ErrNotExists is returned by Read when no catalog has been published yet.
var ErrNotExists = errors.New("catalog does not exist")

// Store reads and replaces the published catalog document.
type Store interface {
	// Write atomically replaces the published catalog.
	Write(ctx context.Context, cat *model.Catalog) error
	// Read returns the last published catalog, or ErrNotExists.
	Read(ctx context.Context) (*model.Catalog, error)
}

// NewStore builds the configured catalog store.
func NewStore(ctx context.Context) (Store, error) {
	switch storeType := viper.GetString(config.KeyCatalogStore); storeType {
	case config.StoreTypeFile:
		return NewFileStore(viper.GetString(config.KeyCatalogFile))
	case config.StoreTypeS3:
		return NewS3Store(ctx, S3Config{
			Bucket:          viper.GetString(config.KeyAWSBucket),
			Key:             viper.GetString(config.KeyAWSKey),
			Region:          viper.GetString(config.KeyAWSRegion),
			Endpoint:        viper.GetString(config.KeyAWSEndpoint),
			AccessKeyID:     viper.GetString(config.KeyAWSAccessKeyID),
			SecretAccessKey: viper.GetString(config.KeyAWSSecretAccessKey),
		})
	default:
		return nil, fmt.Errorf("unknown catalog store type: %q", storeType)
	}
}
