package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// robotsChecker answers whether the provider's robots.txt permits a path.
// Results are cached per host for the lifetime of the run.
type robotsChecker struct {
	mu         sync.RWMutex
	perHost    map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

func newRobotsChecker(userAgent string, timeout time.Duration) *robotsChecker {
	return &robotsChecker{
		perHost:    make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// canFetch reports whether rawURL may be fetched. When robots.txt itself
// cannot be retrieved the fetch is allowed.
func (r *robotsChecker) canFetch(ctx context.Context, rawURL string) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.robotsData(ctx, parsed.Scheme, parsed.Host)
	if err != nil {
		return true, nil
	}
	return data.TestAgent(parsed.Path, r.userAgent), nil
}

func (r *robotsChecker) robotsData(ctx context.Context, scheme, host string) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.perHost[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.perHost[host] = data
	r.mu.Unlock()
	return data, nil
}
