package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	nethttp "net/http"
	"time"

	"github.com/m1stadev/ios-beta-api/internal/app/http"
	"github.com/m1stadev/ios-beta-api/internal/app/http/cors"
	"github.com/m1stadev/ios-beta-api/internal/catalog"
	"github.com/m1stadev/ios-beta-api/internal/checker"
	"github.com/m1stadev/ios-beta-api/internal/config"
	"github.com/m1stadev/ios-beta-api/internal/pipeline"
	"github.com/m1stadev/ios-beta-api/internal/utils"
	"github.com/m1stadev/ios-beta-api/internal/wiki"
	"github.com/spf13/viper"
)

// Serve starts the catalog HTTP server on host:port. The last published
// catalog is loaded from the configured store before serving. When
// scrapeInterval is positive, the scraping pipeline additionally runs
// in-process on that interval, republishing the catalog without a
// restart.
func Serve(ctx context.Context, host, port string, scrapeInterval time.Duration) error {
	store, err := catalog.NewStore(ctx)
	if err != nil {
		Stderrf("invalid catalog store configuration: %v", err)
		return err
	}

	snapshot := catalog.NewSnapshot()
	cat, err := store.Read(ctx)
	switch {
	case err == nil:
		snapshot.Swap(cat)
		slog.Default().Info("loaded published catalog", "devices", len(cat.Devices), "records", cat.Size())
	case errors.Is(err, catalog.ErrNotExists):
		slog.Default().Info("no published catalog yet, serving will start once one is published")
	default:
		Stderrf("cannot load published catalog: %v", err)
		return err
	}

	if scrapeInterval > 0 {
		go runPeriodicScrape(ctx, store, snapshot, scrapeInterval)
	}

	handler := http.NewCatalogHandler(http.NewDefaultHandlerService(snapshot))
	r := http.NewRouter(handler)

	var corsOpts cors.CORSOptions
	corsOpts.AddAllowedOrigins(utils.ParseAsList(viper.GetString(config.KeyCorsAllowedOrigins), DefaultListSeparator, true)...)
	corsOpts.AddAllowedHeaders(utils.ParseAsList(viper.GetString(config.KeyCorsAllowedHeaders), DefaultListSeparator, true)...)
	corsOpts.AllowCredentials(viper.GetBool(config.KeyCorsAllowCredentials))

	s := &nethttp.Server{
		Handler: cors.Protect(r, corsOpts),
		Addr:    net.JoinHostPort(host, port),
	}

	fmt.Printf("Start beta firmware catalog server on %s:%s\n", host, port)
	err = s.ListenAndServe()
	if err != nil {
		Stderrf("Could not start catalog server on %s:%s, %v", host, port, err)
		return err
	}

	return nil
}

// runPeriodicScrape re-runs the pipeline on a fixed interval, the way
// the catalog was originally refreshed by an external scheduler. A
// failing run only logs; the previously published catalog stays
// available.
func runPeriodicScrape(ctx context.Context, store catalog.Store, snapshot *catalog.Snapshot, interval time.Duration) {
	log := slog.Default().With("where", "periodic scrape")

	opts := []pipeline.Option{
		pipeline.WithSnapshot(snapshot),
		pipeline.WithWorkers(viper.GetInt(config.KeyScrapeWorkers)),
	}
	chk, err := checker.NewTSSChecker(
		viper.GetString(config.KeyCheckerPath),
		viper.GetDuration(config.KeyCheckerTimeout),
		viper.GetString(config.KeyDeviceAPIURL),
	)
	if err != nil {
		// signing status is supplementary, serve the catalog without it
		log.Warn("signing checker not available, scraping without signing status", "error", err)
	} else {
		opts = append(opts, pipeline.WithChecker(chk))
	}

	collector := wiki.NewCollector(
		wiki.NewClient(viper.GetString(config.KeyWikiURL)),
		viper.GetInt(config.KeyScrapeWorkers),
	)
	p := pipeline.New(collector, store, opts...)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := p.Run(ctx); err != nil {
			log.Error("scrape run failed, keeping previously published catalog", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
