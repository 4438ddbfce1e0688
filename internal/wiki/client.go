package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/go-resty/resty/v2"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/m1stadev/ios-beta-api/internal/config"
)

var (
	// ErrFetch indicates a network or HTTP level failure reaching the wiki.
	ErrFetch = errors.New("cannot fetch wiki page")
	// ErrParse indicates that a page did not have the expected structure.
	ErrParse = errors.New("cannot parse wiki page")
)

var httpTransport http.RoundTripper
var once sync.Once

func getCachingTransport() http.RoundTripper {
	once.Do(func() {
		if config.ConfigDir == "" { // this is probably a test run, but even if it isn't, we don't want to write the cache in the working directory
			httpTransport = http.DefaultTransport
			return
		}
		cacheDir := filepath.Join(config.ConfigDir, ".http-cache")
		err := os.MkdirAll(cacheDir, 0770)
		if err != nil {
			panic(err)
		}
		cache := diskcache.New(cacheDir)
		httpTransport = httpcache.NewTransport(cache)
	})
	return httpTransport
}

// Client talks to the MediaWiki API of a firmware wiki.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	hc := &http.Client{
		Transport: getCachingTransport(),
		Timeout:   60 * time.Second,
	}
	c := resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "betacat")
	return &Client{http: c}
}

// newClientWithTransport is used by tests to bypass the disk cache.
func newClientWithTransport(baseURL string, rt http.RoundTripper) *Client {
	hc := &http.Client{Transport: rt, Timeout: 10 * time.Second}
	return &Client{http: resty.NewWithClient(hc).SetBaseURL(baseURL)}
}

// SearchPages returns the titles of all wiki pages matching the given
// search expression, following API continuation until the result set is
// exhausted.
func (c *Client) SearchPages(ctx context.Context, search string) ([]string, error) {
	var titles []string
	offset := int64(0)
	for {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"action":   "query",
				"list":     "search",
				"srsearch": search,
				"srlimit":  "500",
				"sroffset": fmt.Sprintf("%d", offset),
				"format":   "json",
			}).
			Get("/w/api.php")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetch, err)
		}
		if res.IsError() {
			return nil, fmt.Errorf("%w: search returned status %d", ErrFetch, res.StatusCode())
		}

		body := res.Body()
		_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
			if title, err := jsonparser.GetString(value, "title"); err == nil {
				titles = append(titles, title)
			}
		}, "query", "search")
		if err != nil {
			return nil, fmt.Errorf("%w: unexpected search response: %w", ErrParse, err)
		}

		next, err := jsonparser.GetInt(body, "continue", "sroffset")
		if err != nil {
			break // no continuation, all results consumed
		}
		offset = next
	}
	return titles, nil
}

// PageHTML fetches the given page rendered as HTML.
func (c *Client) PageHTML(ctx context.Context, title string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":        "parse",
			"page":          title,
			"prop":          "text",
			"format":        "json",
			"formatversion": "2",
		}).
		Get("/w/api.php")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrFetch, title, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s returned status %d", ErrFetch, title, res.StatusCode())
	}

	html, err := jsonparser.GetString(res.Body(), "parse", "text")
	if err != nil {
		return "", fmt.Errorf("%w: %s: no rendered text in response", ErrParse, title)
	}
	return html, nil
}
