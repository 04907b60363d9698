// Package fetch resolves the current dataset URL from the provider's
// publications page and downloads the dataset into the local cache file.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/vliden/coronamap/internal/cache"
	"github.com/vliden/coronamap/internal/model"
)

// Client performs all network access for the pipeline.
type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxPageBytes int64
	limiter      *rate.Limiter
	robots       *robotsChecker
	pages        cache.Cache // nil disables page caching
	log          *logrus.Entry
}

// NewClient creates a fetch client. pages may be nil to disable caching of
// the provider page.
func NewClient(cfg model.HTTPConfig, pages cache.Cache) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1.0
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent:    cfg.UserAgent,
		maxPageBytes: cfg.MaxPageBytes,
		limiter:      rate.NewLimiter(rate.Limit(rps), 2),
		robots:       newRobotsChecker(cfg.UserAgent, cfg.Timeout),
		pages:        pages,
		log:          logrus.WithField("component", "fetch"),
	}
}

// ResolveSource scrapes pageURL for the current dataset link and returns the
// absolute download URL together with the local filename derived from it.
func (c *Client) ResolveSource(ctx context.Context, pageURL string) (string, string, error) {
	body, err := c.fetchPage(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", "", fmt.Errorf("%w: parse page URL: %v", model.ErrFetch, err)
	}

	link, err := findDatasetLink(body, base)
	if err != nil {
		return "", "", err
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return "", "", fmt.Errorf("%w: parse link %q: %v", model.ErrParse, link, err)
	}
	return link, path.Base(parsed.Path), nil
}

// fetchPage retrieves the landing page, honoring the cache, robots.txt and
// the rate limiter.
func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	key := cache.PageKey(pageURL)
	if c.pages != nil {
		if body, found := c.pages.Get(key); found {
			c.log.WithField("url", pageURL).Debug("landing page served from cache")
			return body, nil
		}
	}

	allowed, err := c.robots.canFetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: robots check: %v", model.ErrFetch, err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: robots.txt disallows %s", model.ErrFetch, pageURL)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", model.ErrFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", model.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get page: %v", model.ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: unexpected status: %d %s", model.ErrFetch, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read page: %v", model.ErrFetch, err)
	}

	if c.pages != nil {
		if err := c.pages.Set(key, body, 0); err != nil {
			c.log.WithError(err).Warn("failed to cache landing page")
		}
	}
	return body, nil
}

// findDatasetLink returns the first anchor href ending in a spreadsheet
// extension, resolved against base.
func findDatasetLink(body []byte, base *url.URL) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: parse page: %v", model.ErrParse, err)
	}

	var link string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if link != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if isDatasetHref(href) {
					link = href
					return
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if link == "" {
		return "", fmt.Errorf("%w: no spreadsheet link on page", model.ErrParse)
	}

	resolved, err := base.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: resolve link %q: %v", model.ErrParse, link, err)
	}
	return resolved.String(), nil
}

func isDatasetHref(href string) bool {
	lower := strings.ToLower(href)
	// Strip query and fragment before checking the extension.
	if idx := strings.IndexAny(lower, "?#"); idx >= 0 {
		lower = lower[:idx]
	}
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}
