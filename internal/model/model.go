package model

import (
	"slices"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// SigningStatus is the signing state of a firmware as reported by the
// external checker. Unknown means the checker has not run successfully
// for this build yet.
type SigningStatus string

const (
	StatusSigned   SigningStatus = "signed"
	StatusUnsigned SigningStatus = "unsigned"
	StatusUnknown  SigningStatus = "unknown"
)

// FirmwareRecord describes one beta firmware build for one device.
// A record is uniquely identified by the (Identifier, Build) pair.
type FirmwareRecord struct {
	Identifier      string        `json:"identifier"`
	Version         string        `json:"version"`
	Build           string        `json:"build"`
	URL             string        `json:"url"`
	Filesize        int64         `json:"filesize,omitempty"`
	ReleaseDate     time.Time     `json:"releaseDate,omitzero"`
	Signed          SigningStatus `json:"signed"`
	SignedCheckedAt time.Time     `json:"signedCheckedAt,omitzero"`
}

// Key returns the natural key of the record within a catalog.
func (r FirmwareRecord) Key() string {
	return strings.ToLower(r.Identifier) + "/" + strings.ToLower(r.Build)
}

// Catalog is the full published mapping of device identifiers to their
// known firmware records. Device keys are lowercased identifiers, which
// makes lookups case-insensitive. The catalog is treated as immutable
// once published.
type Catalog struct {
	GeneratedAt time.Time                   `json:"generatedAt"`
	Devices     map[string][]FirmwareRecord `json:"devices"`
}

func NewCatalog(generatedAt time.Time) *Catalog {
	return &Catalog{
		GeneratedAt: generatedAt,
		Devices:     map[string][]FirmwareRecord{},
	}
}

// Insert adds the record to the catalog unless a record with the same
// (identifier, build) pair is already present. Reports whether the
// record was added.
func (c *Catalog) Insert(rec FirmwareRecord) bool {
	key := strings.ToLower(rec.Identifier)
	for _, existing := range c.Devices[key] {
		if strings.EqualFold(existing.Build, rec.Build) {
			return false
		}
	}
	c.Devices[key] = append(c.Devices[key], rec)
	return true
}

// Lookup returns the firmware records for the given device identifier.
// The lookup is case-insensitive. The second return value reports
// whether the identifier is known.
func (c *Catalog) Lookup(identifier string) ([]FirmwareRecord, bool) {
	recs, ok := c.Devices[strings.ToLower(strings.TrimSpace(identifier))]
	return recs, ok
}

// Identifiers returns all known device identifiers in their original
// spelling, sorted lexicographically.
func (c *Catalog) Identifiers() []string {
	ids := make([]string, 0, len(c.Devices))
	for _, recs := range c.Devices {
		if len(recs) > 0 {
			ids = append(ids, recs[0].Identifier)
		}
	}
	slices.Sort(ids)
	return ids
}

// Size returns the total number of firmware records across all devices.
func (c *Catalog) Size() int {
	n := 0
	for _, recs := range c.Devices {
		n += len(recs)
	}
	return n
}

// Sort brings the records of every device into the canonical published
// order: newest firmware first. Ordering is deterministic regardless of
// the order in which records were collected or enriched.
func (c *Catalog) Sort() {
	for _, recs := range c.Devices {
		sortRecords(recs)
	}
}

// MergeSigningStatus carries last-known-good signing results over from
// a previously published catalog. A record whose status is unknown in
// this catalog, but was successfully checked in prev, keeps the old
// value together with its SignedCheckedAt timestamp, so consumers can
// tell how stale the information is. Known results in this catalog
// always win.
func (c *Catalog) MergeSigningStatus(prev *Catalog) {
	if prev == nil {
		return
	}
	for key, recs := range c.Devices {
		prevRecs, ok := prev.Devices[key]
		if !ok {
			continue
		}
		for i := range recs {
			if recs[i].Signed != StatusUnknown {
				continue
			}
			for _, p := range prevRecs {
				if strings.EqualFold(p.Build, recs[i].Build) && p.Signed != StatusUnknown {
					recs[i].Signed = p.Signed
					recs[i].SignedCheckedAt = p.SignedCheckedAt
					break
				}
			}
		}
		c.Devices[key] = recs
	}
}

// sortRecords orders firmware records newest first. Versions that parse
// as semantic versions are compared as such; everything else falls back
// to a descending build string comparison, which matches how build
// numbers grow for Apple firmwares.
func sortRecords(recs []FirmwareRecord) {
	slices.SortStableFunc(recs, func(a, b FirmwareRecord) int {
		va, errA := semver.NewVersion(versionCore(a.Version))
		vb, errB := semver.NewVersion(versionCore(b.Version))
		if errA == nil && errB == nil && !va.Equal(vb) {
			return vb.Compare(va)
		}
		if a.Build != b.Build {
			return strings.Compare(b.Build, a.Build)
		}
		return strings.Compare(a.Identifier, b.Identifier)
	})
}

// versionCore strips beta suffixes like "15.1 beta 2" down to the
// numeric core so that semver can parse it.
func versionCore(v string) string {
	v = strings.TrimSpace(v)
	if cut, _, found := strings.Cut(v, " "); found {
		v = cut
	}
	return v
}
