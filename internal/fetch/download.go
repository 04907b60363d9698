package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/vliden/coronamap/internal/model"
)

// EnsureDownloaded streams url into filename unless the file already exists.
// With force the file is re-downloaded regardless. A cached file means zero
// network requests. Single attempt, no retry: a failed run is simply re-run.
func (c *Client) EnsureDownloaded(ctx context.Context, url, filename string, force bool) error {
	if !force {
		if _, err := os.Stat(filename); err == nil {
			c.log.WithField("file", filename).Info("dataset already downloaded")
			return nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit wait: %v", model.ErrFetch, err)
	}

	c.log.WithFields(map[string]interface{}{
		"url":  url,
		"file": filename,
	}).Info("downloading dataset")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", model.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: download: %v", model.ErrFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status: %d %s", model.ErrFetch, resp.StatusCode, resp.Status)
	}

	// Write to a partial file first so an interrupted download never
	// satisfies the exists-check of a later run.
	partial := filename + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", model.ErrFetch, partial, err)
	}

	bar := progressbar.DefaultBytes(resp.ContentLength, "downloading")
	_, err = io.Copy(io.MultiWriter(out, bar), resp.Body)
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: write %s: %v", model.ErrFetch, partial, err)
	}
	if closeErr != nil {
		_ = os.Remove(partial)
		return fmt.Errorf("%w: close %s: %v", model.ErrFetch, partial, closeErr)
	}

	if err := os.Rename(partial, filename); err != nil {
		return fmt.Errorf("%w: rename %s: %v", model.ErrFetch, partial, err)
	}
	return nil
}
