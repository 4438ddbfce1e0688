// Package pipeline orchestrates one batch run of the firmware catalog:
// collect records from the wiki, enrich them with signing status, and
// publish the resulting catalog. Runs are independent of each other;
// the only state carried across runs is the last published document,
// which supplies last-known-good signing results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m1stadev/ios-beta-api/internal/catalog"
	"github.com/m1stadev/ios-beta-api/internal/checker"
	"github.com/m1stadev/ios-beta-api/internal/model"
)

// Collector produces the raw firmware records of one run.
type Collector interface {
	Collect(ctx context.Context) ([]model.FirmwareRecord, error)
}

type Pipeline struct {
	collector Collector
	checker   checker.SigningChecker // nil skips enrichment
	store     catalog.Store
	snapshot  *catalog.Snapshot // optional, swapped after a successful publish
	workers   int
	now       func() time.Time
}

type Option func(*Pipeline)

// WithChecker enables signing status enrichment.
func WithChecker(c checker.SigningChecker) Option {
	return func(p *Pipeline) { p.checker = c }
}

// WithSnapshot makes the pipeline swap the given snapshot after every
// successful publish, so an in-process HTTP server picks up the result.
func WithSnapshot(s *catalog.Snapshot) Option {
	return func(p *Pipeline) { p.snapshot = s }
}

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(collector Collector, store catalog.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector: collector,
		store:     store,
		workers:   4,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one full pipeline pass and returns the published
// catalog. A run that collects nothing returns model.ErrEmptyCatalog
// and leaves the previously published document untouched.
func (p *Pipeline) Run(ctx context.Context) (*model.Catalog, error) {
	log := slog.Default().With("run", uuid.NewString())
	started := p.now()
	log.Info("pipeline run started")

	records, err := p.collector.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting firmware records: %w", err)
	}
	if len(records) == 0 {
		return nil, model.ErrEmptyCatalog
	}

	cat := model.NewCatalog(started)
	for _, rec := range records {
		if !cat.Insert(rec) {
			log.Debug("dropping duplicate firmware record", "identifier", rec.Identifier, "build", rec.Build)
		}
	}
	log.Info("collected firmware records", "devices", len(cat.Devices), "records", cat.Size())

	if p.checker != nil {
		p.enrich(ctx, log, cat)
	}

	prev, err := p.store.Read(ctx)
	if err != nil && !errors.Is(err, catalog.ErrNotExists) {
		log.Warn("cannot read previously published catalog, signing history not carried over", "error", err)
	}
	cat.MergeSigningStatus(prev)
	cat.Sort()

	if err := p.store.Write(ctx, cat); err != nil {
		return nil, fmt.Errorf("publishing catalog: %w", err)
	}
	if p.snapshot != nil {
		p.snapshot.Swap(cat)
	}
	log.Info("pipeline run finished", "took", p.now().Sub(started).Round(time.Second))
	return cat, nil
}

// enrich resolves signing status for all records with a bounded worker
// pool. Checker failures degrade the affected record to unknown status,
// they never remove it or abort the run.
func (p *Pipeline) enrich(ctx context.Context, log *slog.Logger, cat *model.Catalog) {
	type job struct {
		device string
		idx    int
	}
	jobs := make(chan job)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rec := cat.Devices[j.device][j.idx]
				status, err := p.checker.Check(ctx, rec)
				if err != nil {
					log.Warn("signing check failed, keeping status unknown",
						"identifier", rec.Identifier, "build", rec.Build, "error", err)
					continue
				}
				// each (device, idx) pair is handed to exactly one
				// worker, so this write is not racy
				cat.Devices[j.device][j.idx].Signed = status
				cat.Devices[j.device][j.idx].SignedCheckedAt = p.now()
			}
		}()
	}
	for device, recs := range cat.Devices {
		for i := range recs {
			jobs <- job{device: device, idx: i}
		}
	}
	close(jobs)
	wg.Wait()
}
