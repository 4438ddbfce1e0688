package wiki

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m1stadev/ios-beta-api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const firmwareTableHTML = `
<div class="mw-parser-output">
<table class="wikitable">
<tr>
  <th>Version</th><th>Build</th><th>Keys</th><th>Release Date</th><th>Download URL</th><th>File Size</th>
</tr>
<tr>
  <td rowspan="2">15.1 beta 2</td><td rowspan="2">19B5060d</td>
  <td><a href="/wiki/Keys:EagleSept_19B5060d_(iPhone14,5)">iPhone14,5</a></td>
  <td>2021-09-28</td>
  <td><a rel="nofollow" href="https://updates.cdn-apple.com/iPhone14,5_15.1_19B5060d_Restore.ipsw">IPSW</a></td>
  <td>6,577,109,397</td>
</tr>
<tr>
  <td><a href="/wiki/Keys:EagleSept_19B5060d_(iPhone14,4)">iPhone14,4</a></td>
  <td>2021-09-28</td>
  <td><a rel="nofollow" href="https://updates.cdn-apple.com/iPhone14,4_15.1_19B5060d_Restore.ipsw">IPSW</a></td>
  <td>6,424,721,312</td>
</tr>
<tr>
  <td>15.1 beta 1</td><td>19B5042h</td>
  <td><a href="/wiki/Keys:EagleSept_19B5042h_(iPhone14,5)">iPhone14,5</a></td>
  <td>2021-09-21</td>
  <td>No link</td>
  <td>6,570,000,000</td>
</tr>
</table>
</div>`

func TestParsePage(t *testing.T) {
	records, err := parsePage("Beta Firmware/iPhone/15.x", firmwareTableHTML)
	require.NoError(t, err)
	require.Len(t, records, 2, "row without .ipsw link must be skipped")

	assert.Equal(t, model.FirmwareRecord{
		Identifier:  "iPhone14,5",
		Version:     "15.1 beta 2",
		Build:       "19B5060d",
		URL:         "https://updates.cdn-apple.com/iPhone14,5_15.1_19B5060d_Restore.ipsw",
		Filesize:    6577109397,
		ReleaseDate: time.Date(2021, time.September, 28, 0, 0, 0, 0, time.UTC),
		Signed:      model.StatusUnknown,
	}, records[0])

	// continuation row inherits version and build from the rowspan cells
	assert.Equal(t, "iPhone14,4", records[1].Identifier)
	assert.Equal(t, "19B5060d", records[1].Build)
	assert.Equal(t, "15.1 beta 2", records[1].Version)
	assert.Equal(t, int64(6424721312), records[1].Filesize)
}

func TestParsePage_NoDuplicatePairs(t *testing.T) {
	// the same page rendered twice into one document must not produce
	// duplicate (identifier, build) pairs
	records, err := parsePage("Beta Firmware/iPhone/15.x", firmwareTableHTML+firmwareTableHTML)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, rec := range records {
		key := rec.Key()
		assert.False(t, seen[key], "duplicate record %s", key)
		seen[key] = true
	}
	assert.Len(t, records, 2)
}

func TestParsePage_NoTables(t *testing.T) {
	_, err := parsePage("Beta Firmware/iPhone/15.x", "<p>This page intentionally left blank</p>")
	assert.ErrorIs(t, err, ErrParse)
}

func TestRelevantPage(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Beta Firmware/iPhone/15.x", true},
		{"Beta Firmware/iPad Pro/15.x", true},
		{"Beta Firmware/Apple TV/7.x", true},
		{"Beta Firmware/iPod touch/9.x", true},
		{"Beta Firmware/iPhone/8.x", false},
		{"Beta Firmware/Apple TV/6.x", false},
		{"Beta Firmware/iPhone", false},
		{"Beta Firmware/Mac/12.x", false},
		{"Firmware/iPhone/15.x", true},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, relevantPage(tt.title))
		})
	}
}

func TestExtractDevices(t *testing.T) {
	cell := "EagleSept 19B5060d (iPhone14,5) AppleTV11,1 iPhone14,5 something iPad13,1"
	assert.Equal(t, []string{"iPhone14,5", "AppleTV11,1", "iPad13,1"}, extractDevices(cell))
}

type fakePageClient struct {
	titles []string
	pages  map[string]string
	err    error
}

func (f *fakePageClient) SearchPages(_ context.Context, _ string) ([]string, error) {
	return f.titles, f.err
}

func (f *fakePageClient) PageHTML(_ context.Context, title string) (string, error) {
	html, ok := f.pages[title]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrFetch, title)
	}
	return html, nil
}

func TestCollector_Collect(t *testing.T) {
	client := &fakePageClient{
		titles: []string{
			"Beta Firmware/iPhone/15.x",
			"Beta Firmware/iPhone/8.x",     // filtered by version cutoff
			"Beta Firmware/iPad/15.x",      // fetch fails, skipped
			"Beta Firmware/iPod touch/9.x", // parse fails, skipped
		},
		pages: map[string]string{
			"Beta Firmware/iPhone/15.x":    firmwareTableHTML,
			"Beta Firmware/iPod touch/9.x": "<p>no tables here</p>",
		},
	}

	records, err := NewCollector(client, 2).Collect(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2, "one record per usable firmware row")
}

func TestCollector_CollectSearchFails(t *testing.T) {
	client := &fakePageClient{err: fmt.Errorf("%w: boom", ErrFetch)}

	_, err := NewCollector(client, 2).Collect(context.Background())
	assert.True(t, errors.Is(err, ErrFetch))
}
