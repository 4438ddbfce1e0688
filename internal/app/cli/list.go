package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/m1stadev/ios-beta-api/internal/catalog"
)

// List prints the device identifiers of the published catalog, one per
// line, with the number of known firmwares per device.
func List(ctx context.Context) error {
	store, err := catalog.NewStore(ctx)
	if err != nil {
		Stderrf("invalid catalog store configuration: %v", err)
		return err
	}
	cat, err := store.Read(ctx)
	if err != nil {
		if errors.Is(err, catalog.ErrNotExists) {
			Stderrf("no catalog published yet. Run `scrape` first")
		} else {
			Stderrf("cannot read catalog: %v", err)
		}
		return err
	}

	for _, id := range cat.Identifiers() {
		recs, _ := cat.Lookup(id)
		fmt.Printf("%-20s %d firmwares\n", id, len(recs))
	}
	return nil
}
