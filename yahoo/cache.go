package yahoo

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/pricelog/date"
	"github.com/rs/zerolog"
)

// diskCache is an http.RoundTripper that keeps successful responses on disk
// for the current day.
type diskCache struct {
	base http.RoundTripper
	dir  string
	log  zerolog.Logger
}

func newDailyCache(dir string, log zerolog.Logger) *diskCache {
	if dir == "" {
		dir = os.TempDir()
	}
	return &diskCache{base: http.DefaultTransport, dir: dir, log: log}
}

// RoundTrip implements http.RoundTripper.
func (c *diskCache) RoundTrip(req *http.Request) (*http.Response, error) {
	// the day is part of the key, so entries expire every day.
	key := fmt.Sprintf("%s %s %s", date.Today(), req.Method, req.URL.String())
	key = fmt.Sprintf("yahoo-%x", sha1.Sum([]byte(key)))

	if cached, err := c.get(key, req); err == nil {
		return cached, nil
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).Str("status", resp.Status).Msg("http")
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		c.log.Warn().Err(err).Msg("cache write failed (ignored)")
	}
	return resp, nil
}

func (c *diskCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores resp. The body is read and replaced by an in memory copy.
func (c *diskCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0644)
}
