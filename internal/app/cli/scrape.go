package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m1stadev/ios-beta-api/internal/catalog"
	"github.com/m1stadev/ios-beta-api/internal/checker"
	"github.com/m1stadev/ios-beta-api/internal/config"
	"github.com/m1stadev/ios-beta-api/internal/pipeline"
	"github.com/m1stadev/ios-beta-api/internal/wiki"
	"github.com/spf13/viper"
)

// Scrape runs the pipeline once: collect firmware records from the
// wiki, enrich them with signing status, publish the catalog.
// outputFile overrides the configured catalog store with a file store
// at that path, storeType overrides the configured store type.
// skipSigning leaves all signing statuses unknown.
func Scrape(ctx context.Context, outputFile, storeType string, skipSigning bool) error {
	store, err := resolveStore(ctx, outputFile, storeType)
	if err != nil {
		Stderrf("invalid catalog store configuration: %v", err)
		return err
	}

	opts := []pipeline.Option{
		pipeline.WithWorkers(viper.GetInt(config.KeyScrapeWorkers)),
	}
	if !skipSigning {
		chk, err := checker.NewTSSChecker(
			viper.GetString(config.KeyCheckerPath),
			viper.GetDuration(config.KeyCheckerTimeout),
			viper.GetString(config.KeyDeviceAPIURL),
		)
		if err != nil {
			Stderrf("%v", err)
			return err
		}
		opts = append(opts, pipeline.WithChecker(chk))
	}

	collector := wiki.NewCollector(
		wiki.NewClient(viper.GetString(config.KeyWikiURL)),
		viper.GetInt(config.KeyScrapeWorkers),
	)

	started := time.Now()
	fmt.Println("Scraping beta firmware info off of the wiki...")
	cat, err := pipeline.New(collector, store, opts...).Run(ctx)
	if err != nil {
		Stderrf("scrape failed: %v", err)
		return err
	}
	fmt.Printf("Done! Published %d firmwares for %d devices. Took %ds.\n",
		cat.Size(), len(cat.Devices), int(time.Since(started).Seconds()))
	return nil
}

func resolveStore(ctx context.Context, outputFile, storeType string) (catalog.Store, error) {
	if outputFile != "" {
		return catalog.NewFileStore(outputFile)
	}
	if storeType != "" {
		viper.Set(config.KeyCatalogStore, storeType)
	}
	return catalog.NewStore(ctx)
}
