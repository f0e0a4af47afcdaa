// Package catalog is a client for the repository's Solr-backed search API.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

const (
	// PageSize is the number of rows requested per search page.
	PageSize = 500

	// LocalIDField holds the local identifier, e.g. HH123456_0001.
	LocalIDField = "mods_id_local_ssim"
)

// Doc is a single search result document.
type Doc struct {
	LocalIDs     []string `json:"mods_id_local_ssim"`
	Identifier   []string `json:"identifier"`
	PID          string   `json:"pid"`
	PrimaryTitle string   `json:"primary_title"`
}

// LocalID returns the first local identifier, or "" when absent.
func (d Doc) LocalID() string {
	if len(d.LocalIDs) == 0 {
		return ""
	}
	return d.LocalIDs[0]
}

// ID returns the first generic identifier, or "" when absent.
func (d Doc) ID() string {
	if len(d.Identifier) == 0 {
		return ""
	}
	return d.Identifier[0]
}

type searchResponse struct {
	Response struct {
		NumFound int   `json:"numFound"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
}

// Client queries the search API.
type Client struct {
	httpClient *utils.HTTPClient
	apiRoot    string
	timeout    time.Duration
	retries    int
	retryDelay time.Duration
	pageSize   int
}

// NewClient creates a new catalog client.
func NewClient(cfg config.CatalogConfig) *Client {
	return &Client{
		// Per-page deadlines come from the request context.
		httpClient: utils.NewHTTPClient(0),
		apiRoot:    cfg.APIRoot,
		timeout:    cfg.Timeout,
		retries:    cfg.Retries,
		retryDelay: utils.DefaultInitialDelay,
		pageSize:   PageSize,
	}
}

// Close closes the underlying HTTP client.
func (c *Client) Close() {
	c.httpClient.Close()
}

// OrgDocs returns every document whose local identifier contains org.
func (c *Client) OrgDocs(ctx context.Context, org string) ([]Doc, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s:*%s*", LocalIDField, org))
	params.Set("fl", LocalIDField+",primary_title,pid")
	docs, err := c.searchAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching docs for org %s: %w", org, err)
	}
	logger.Debug("catalog returned %d docs for org %s", len(docs), org)
	return docs, nil
}

// TopLevelOrgs returns the records in collectionPID that are not part of another record.
func (c *Client) TopLevelOrgs(ctx context.Context, collectionPID string) ([]Doc, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf(`-rel_is_part_of_ssim:* +rel_is_member_of_collection_ssim:"%s"`, collectionPID))
	params.Set("fl", "pid,identifier,primary_title")
	docs, err := c.searchAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching orgs in %s: %w", collectionPID, err)
	}
	return docs, nil
}

// PartOf returns the records that are part of parentPID.
func (c *Client) PartOf(ctx context.Context, parentPID string) ([]Doc, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf(`rel_is_part_of_ssim:"%s"`, parentPID))
	params.Set("fl", "pid,identifier")
	docs, err := c.searchAll(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching parts of %s: %w", parentPID, err)
	}
	return docs, nil
}

// searchAll pages through a query until a page comes back short.
// A result set that is an exact multiple of the page size ends with one empty page.
func (c *Client) searchAll(ctx context.Context, params url.Values) ([]Doc, error) {
	var all []Doc
	for start := 0; ; start += c.pageSize {
		page, err := c.searchPage(ctx, params, start)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
		logger.Debug("page at start=%d was full; requesting start=%d", start, start+c.pageSize)
	}
}

func (c *Client) searchPage(ctx context.Context, params url.Values, start int) ([]Doc, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("rows", strconv.Itoa(c.pageSize))
	q.Set("start", strconv.Itoa(start))
	pageURL := c.apiRoot + "/search/?" + q.Encode()

	var resp searchResponse
	if err := c.getWithRetry(ctx, pageURL, &resp); err != nil {
		return nil, fmt.Errorf("search page start=%d: %w", start, err)
	}
	return resp.Response.Docs, nil
}

func (c *Client) getWithRetry(ctx context.Context, url string, target any) error {
	return utils.Retry(ctx, c.retries, c.retryDelay, func() error {
		return c.getJSON(ctx, url, target)
	}, utils.IsTransientError)
}

// getJSON fetches url under the per-request deadline and decodes it into target.
func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	logger.Debug("GET %s", url)
	resp, err := c.httpClient.DoRequest(ctx, http.MethodGet, url, nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	return utils.ParseResponse(resp, target)
}
