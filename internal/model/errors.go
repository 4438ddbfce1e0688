package model

import "errors"

var (
	// ErrDeviceNotFound is returned when a device identifier is not
	// present in the published catalog.
	ErrDeviceNotFound = errors.New("device identifier not found in catalog")
	// ErrCatalogNotReady is returned when no catalog has been published
	// yet, e.g. before the first successful scrape.
	ErrCatalogNotReady = errors.New("no catalog published yet")
	// ErrEmptyCatalog is returned by a pipeline run that collected no
	// records. Such a run must never replace a previously published
	// catalog.
	ErrEmptyCatalog = errors.New("collected no firmware records, refusing to publish empty catalog")
)
