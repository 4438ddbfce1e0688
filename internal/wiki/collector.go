package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/m1stadev/ios-beta-api/internal/model"
)

const searchExpression = "Beta Firmware/"

// Pre-iOS 9 / pre-tvOS 7 beta firmwares were not distributed as IPSWs
// and cannot be checked for signing status.
const (
	minMajorVersion       = 9
	minMajorVersionTVOS   = 7
	appleTVTitleSubstring = "Apple TV"
)

var deviceTypeKeywords = []string{"Apple TV", "iPad", "iPhone", "iPod touch"}

var deviceRegex = regexp.MustCompile(`(iPhone|AppleTV|iPad|iPod)[0-9]+,[0-9]+`)

var releaseDateLayouts = []string{"2006-01-02", "January 2, 2006", "Jan 2, 2006"}

// PageClient is the part of the wiki API used by the Collector.
type PageClient interface {
	SearchPages(ctx context.Context, search string) ([]string, error)
	PageHTML(ctx context.Context, title string) (string, error)
}

// Collector retrieves beta firmware listing pages from the wiki and
// extracts firmware records from their tables. Failures are isolated
// per page: a page that cannot be fetched or parsed is logged and
// skipped, it never aborts the whole collection.
type Collector struct {
	client  PageClient
	workers int
}

func NewCollector(client PageClient, workers int) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{client: client, workers: workers}
}

// Collect returns all firmware records currently listed on the wiki.
// Pages are fetched concurrently, but the returned order is
// deterministic: records appear in lexicographic page title order,
// within a page in document order.
func (c *Collector) Collect(ctx context.Context) ([]model.FirmwareRecord, error) {
	titles, err := c.client.SearchPages(ctx, searchExpression)
	if err != nil {
		return nil, err
	}

	var relevant []string
	for _, title := range titles {
		if relevantPage(title) {
			relevant = append(relevant, title)
		}
	}
	slices.Sort(relevant)
	slog.Default().Info("collecting beta firmware pages", "total", len(titles), "relevant", len(relevant))

	type pageResult struct {
		records []model.FirmwareRecord
		err     error
	}
	results := make(map[string]pageResult, len(relevant))
	var mu sync.Mutex
	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for title := range jobs {
				recs, err := c.collectPage(ctx, title)
				mu.Lock()
				results[title] = pageResult{records: recs, err: err}
				mu.Unlock()
			}
		}()
	}
	for _, title := range relevant {
		jobs <- title
	}
	close(jobs)
	wg.Wait()

	var records []model.FirmwareRecord
	for _, title := range relevant {
		res := results[title]
		if res.err != nil {
			slog.Default().Warn("skipping wiki page", "title", title, "error", res.err)
			continue
		}
		records = append(records, res.records...)
	}
	return records, nil
}

func (c *Collector) collectPage(ctx context.Context, title string) ([]model.FirmwareRecord, error) {
	html, err := c.client.PageHTML(ctx, title)
	if err != nil {
		return nil, err
	}
	return parsePage(title, html)
}

// relevantPage reports whether the page title refers to a beta firmware
// listing that may contain IPSW firmwares for a known device type.
func relevantPage(title string) bool {
	if !strings.Contains(title, ".x") {
		return false
	}
	known := false
	for _, kw := range deviceTypeKeywords {
		if strings.Contains(title, kw) {
			known = true
			break
		}
	}
	if !known {
		return false
	}
	major, ok := majorVersion(title)
	if !ok {
		return false
	}
	cutoff := minMajorVersion
	if strings.Contains(title, appleTVTitleSubstring) {
		cutoff = minMajorVersionTVOS
	}
	return major >= cutoff
}

// majorVersion extracts N from titles like "Beta Firmware/iPhone/15.x".
func majorVersion(title string) (int, bool) {
	parts := strings.Split(title, "/")
	if len(parts) < 3 {
		return 0, false
	}
	v, _, found := strings.Cut(parts[2], ".")
	if !found {
		return 0, false
	}
	major, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return major, true
}

// parsePage extracts firmware records from the rendered firmware tables
// of one wiki page. Rows without an .ipsw download URL or without a
// filesize are not IPSW beta firmwares and are skipped. Within a page,
// (identifier, build) pairs are unique.
func parsePage(title, html string) ([]model.FirmwareRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, title, err)
	}
	tables := doc.Find("table.wikitable")
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: %s: no firmware tables found", ErrParse, title)
	}

	var records []model.FirmwareRecord
	seen := map[string]bool{}
	tables.Each(func(_ int, table *goquery.Selection) {
		records = append(records, parseTable(table, seen)...)
	})
	if len(records) == 0 {
		slog.Default().Debug("page contained no usable firmware rows", "title", title)
	}
	return records, nil
}

func parseTable(table *goquery.Selection, seen map[string]bool) []model.FirmwareRecord {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil
	}

	var headers []string
	rows.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(strings.TrimSpace(th.Text())))
	})
	versionCol := columnIndex(headers, "version")
	buildCol := columnIndex(headers, "build")
	deviceCol := columnIndex(headers, "keys")
	if deviceCol < 0 {
		deviceCol = columnIndex(headers, "codename")
	}
	dateCol := columnIndex(headers, "release date")
	sizeCol := columnIndex(headers, "size")
	if versionCol < 0 || buildCol < 0 || deviceCol < 0 {
		return nil
	}

	var records []model.FirmwareRecord
	// cells spanning multiple rows are carried forward, so that
	// continuation rows resolve to full column values
	carried := make([]string, len(headers))
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		offset := len(headers) - cells.Length()
		if offset < 0 {
			offset = 0
		}
		values := make([]string, len(headers))
		for i := range values {
			if i < offset {
				values[i] = carried[i]
			} else {
				values[i] = strings.TrimSpace(cells.Eq(i - offset).Text())
			}
		}
		copy(carried, values)

		url, ok := row.Find(`a[href$=".ipsw"]`).First().Attr("href")
		if !ok || url == "" {
			return
		}
		filesize, ok := parseFilesize(values, sizeCol)
		if !ok {
			return
		}
		version := values[versionCol]
		build := values[buildCol]
		if version == "" || build == "" {
			return
		}
		var releaseDate time.Time
		if dateCol >= 0 {
			releaseDate = parseReleaseDate(values[dateCol])
		}

		for _, identifier := range extractDevices(values[deviceCol]) {
			rec := model.FirmwareRecord{
				Identifier:  identifier,
				Version:     version,
				Build:       build,
				URL:         url,
				Filesize:    filesize,
				ReleaseDate: releaseDate,
				Signed:      model.StatusUnknown,
			}
			if seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			records = append(records, rec)
		}
	})
	return records
}

func columnIndex(headers []string, substr string) int {
	for i, h := range headers {
		if strings.Contains(h, substr) {
			return i
		}
	}
	return -1
}

// extractDevices pulls device identifiers like iPhone14,5 out of the
// keys/codename cell, preserving document order without duplicates.
func extractDevices(cell string) []string {
	var devices []string
	for _, m := range deviceRegex.FindAllString(cell, -1) {
		if !slices.Contains(devices, m) {
			devices = append(devices, m)
		}
	}
	return devices
}

var digitsRegex = regexp.MustCompile(`[0-9][0-9,]*`)

// parseFilesize finds the IPSW size in bytes in the size column.
// Values below a threshold are table artifacts, not filesizes.
func parseFilesize(values []string, sizeCol int) (int64, bool) {
	if sizeCol < 0 || sizeCol >= len(values) {
		return 0, false
	}
	for _, m := range digitsRegex.FindAllString(values[sizeCol], -1) {
		n, err := strconv.ParseInt(strings.ReplaceAll(m, ",", ""), 10, 64)
		if err == nil && n > 10 {
			return n, true
		}
	}
	return 0, false
}

func parseReleaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
