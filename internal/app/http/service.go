package http

import (
	"context"
	"fmt"

	"github.com/m1stadev/ios-beta-api/internal/catalog"
	"github.com/m1stadev/ios-beta-api/internal/model"
)

// HandlerService provides the data the HTTP handlers serve, mockable
// for testing.
type HandlerService interface {
	GetFirmwares(ctx context.Context, identifier string) ([]model.FirmwareRecord, error)
	ListIdentifiers(ctx context.Context) ([]string, error)
	CheckHealthLive(ctx context.Context) error
	CheckHealthReady(ctx context.Context) error
	CheckHealthStartup(ctx context.Context) error
}

// defaultHandlerService serves from the process-local catalog snapshot.
type defaultHandlerService struct {
	snapshot *catalog.Snapshot
}

func NewDefaultHandlerService(snapshot *catalog.Snapshot) *defaultHandlerService {
	return &defaultHandlerService{snapshot: snapshot}
}

func (s *defaultHandlerService) GetFirmwares(_ context.Context, identifier string) ([]model.FirmwareRecord, error) {
	cat := s.snapshot.Current()
	if cat == nil {
		return nil, model.ErrCatalogNotReady
	}
	firmwares, ok := cat.Lookup(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, identifier)
	}
	return firmwares, nil
}

func (s *defaultHandlerService) ListIdentifiers(_ context.Context) ([]string, error) {
	cat := s.snapshot.Current()
	if cat == nil {
		return nil, model.ErrCatalogNotReady
	}
	return cat.Identifiers(), nil
}

func (s *defaultHandlerService) CheckHealthLive(_ context.Context) error {
	return nil
}

// CheckHealthReady reports readiness only once a catalog has been
// loaded or published, so load balancers do not route to a process that
// would answer every lookup with 503.
func (s *defaultHandlerService) CheckHealthReady(_ context.Context) error {
	if s.snapshot.Current() == nil {
		return model.ErrCatalogNotReady
	}
	return nil
}

func (s *defaultHandlerService) CheckHealthStartup(ctx context.Context) error {
	return s.CheckHealthReady(ctx)
}
