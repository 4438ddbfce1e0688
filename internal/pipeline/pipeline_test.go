package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m1stadev/ios-beta-api/internal/catalog"
	"github.com/m1stadev/ios-beta-api/internal/checker"
	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/m1stadev/ios-beta-api/internal/pipeline"
	"github.com/m1stadev/ios-beta-api/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCollector struct {
	records []model.FirmwareRecord
	err     error
}

func (c *stubCollector) Collect(_ context.Context) ([]model.FirmwareRecord, error) {
	return c.records, c.err
}

type stubChecker struct {
	statuses map[string]model.SigningStatus // by build
}

func (c *stubChecker) Check(_ context.Context, rec model.FirmwareRecord) (model.SigningStatus, error) {
	status, ok := c.statuses[rec.Build]
	if !ok {
		return model.StatusUnknown, fmt.Errorf("%w: no response for %s", checker.ErrCheckerUnavailable, rec.Build)
	}
	return status, nil
}

type memStore struct {
	cat      *model.Catalog
	writeErr error
	writes   int
}

func (s *memStore) Write(_ context.Context, cat *model.Catalog) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.cat = cat
	s.writes++
	return nil
}

func (s *memStore) Read(_ context.Context) (*model.Catalog, error) {
	if s.cat == nil {
		return nil, catalog.ErrNotExists
	}
	return s.cat, nil
}

func testRecords() []model.FirmwareRecord {
	return []model.FirmwareRecord{
		{Identifier: "iPhone14,5", Version: "15.1 beta 2", Build: "19B5060d", URL: "https://example.com/a.ipsw", Signed: model.StatusUnknown},
		{Identifier: "iPhone14,5", Version: "15.1 beta 1", Build: "19B5042h", URL: "https://example.com/b.ipsw", Signed: model.StatusUnknown},
		{Identifier: "iPad13,1", Version: "15.1 beta 2", Build: "19B5060d", URL: "https://example.com/c.ipsw", Signed: model.StatusUnknown},
	}
}

func TestPipeline_Run(t *testing.T) {
	store := &memStore{}
	snapshot := catalog.NewSnapshot()
	clock := testutils.NewTestClock(time.Date(2023, time.September, 1, 12, 0, 0, 0, time.UTC), time.Second)

	p := pipeline.New(
		&stubCollector{records: testRecords()},
		store,
		pipeline.WithChecker(&stubChecker{statuses: map[string]model.SigningStatus{
			"19B5060d": model.StatusSigned,
			"19B5042h": model.StatusUnsigned,
		}}),
		pipeline.WithSnapshot(snapshot),
		pipeline.WithWorkers(2),
		pipeline.WithClock(clock.Now),
	)

	cat, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cat)

	assert.Equal(t, 3, cat.Size())
	recs, ok := cat.Lookup("iPhone14,5")
	require.True(t, ok)
	require.Len(t, recs, 2)
	// deterministic order: newest first
	assert.Equal(t, "19B5060d", recs[0].Build)
	assert.Equal(t, model.StatusSigned, recs[0].Signed)
	assert.False(t, recs[0].SignedCheckedAt.IsZero())
	assert.Equal(t, model.StatusUnsigned, recs[1].Signed)

	assert.Same(t, cat, store.cat, "published catalog must reach the store")
	assert.Same(t, cat, snapshot.Current(), "published catalog must reach the snapshot")
}

func TestPipeline_RunDeduplicates(t *testing.T) {
	records := append(testRecords(), model.FirmwareRecord{
		Identifier: "iPhone14,5", Version: "15.1 beta 2", Build: "19B5060d", URL: "https://example.com/dup.ipsw",
	})
	store := &memStore{}
	p := pipeline.New(&stubCollector{records: records}, store)

	cat, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Size())
}

func TestPipeline_RunEmptyCollect(t *testing.T) {
	prev := model.NewCatalog(time.Date(2023, time.August, 1, 12, 0, 0, 0, time.UTC))
	prev.Insert(model.FirmwareRecord{Identifier: "iPhone14,5", Build: "19B5042h", Signed: model.StatusSigned})
	store := &memStore{cat: prev}

	p := pipeline.New(&stubCollector{records: nil}, store)

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, model.ErrEmptyCatalog)
	assert.Same(t, prev, store.cat, "previously published catalog must remain untouched")
	assert.Equal(t, 0, store.writes)
}

func TestPipeline_RunCollectorFails(t *testing.T) {
	store := &memStore{}
	p := pipeline.New(&stubCollector{err: errors.New("wiki unreachable")}, store)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, store.writes)
}

func TestPipeline_RunRetainsLastKnownSigningStatus(t *testing.T) {
	checkedAt := time.Date(2023, time.August, 1, 12, 0, 0, 0, time.UTC)
	prev := model.NewCatalog(checkedAt)
	prev.Insert(model.FirmwareRecord{Identifier: "iPhone14,5", Build: "19B5042h", Signed: model.StatusSigned, SignedCheckedAt: checkedAt})
	store := &memStore{cat: prev}

	// checker is unreachable for every record this run
	p := pipeline.New(
		&stubCollector{records: testRecords()},
		store,
		pipeline.WithChecker(&stubChecker{}),
	)

	cat, err := p.Run(context.Background())
	require.NoError(t, err)

	recs, _ := cat.Lookup("iPhone14,5")
	require.Len(t, recs, 2)
	assert.Equal(t, model.StatusUnknown, recs[0].Signed)
	// 19B5042h was known signed before: value and staleness timestamp retained
	assert.Equal(t, model.StatusSigned, recs[1].Signed)
	assert.Equal(t, checkedAt, recs[1].SignedCheckedAt)
}

func TestPipeline_RunStoreWriteFails(t *testing.T) {
	store := &memStore{writeErr: errors.New("disk full")}
	p := pipeline.New(&stubCollector{records: testRecords()}, store)

	_, err := p.Run(context.Background())
	assert.Error(t, err)
}

func TestPipeline_RunWithoutChecker(t *testing.T) {
	store := &memStore{}
	p := pipeline.New(&stubCollector{records: testRecords()}, store)

	cat, err := p.Run(context.Background())
	require.NoError(t, err)
	for _, recs := range cat.Devices {
		for _, rec := range recs {
			assert.Equal(t, model.StatusUnknown, rec.Signed)
			assert.True(t, rec.SignedCheckedAt.IsZero())
		}
	}
}
