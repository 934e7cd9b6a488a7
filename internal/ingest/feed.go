package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "jobapply-engine/1.0 (+local)"

// FeedSource pulls listings from an HTTP endpoint that serves the same JSON
// shapes FileSource accepts.
type FeedSource struct {
	name    string
	url     string
	hc      *http.Client
	limiter *HostLimiter
}

// NewFeedSource with a nil limiter does not rate-limit.
func NewFeedSource(name, url string, timeout time.Duration, limiter *HostLimiter) *FeedSource {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &FeedSource{
		name:    name,
		url:     url,
		hc:      &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

func (f *FeedSource) Name() string { return "feed:" + f.name }

func (f *FeedSource) Fetch(ctx context.Context) (Result, error) {
	if f.limiter != nil {
		if err := f.limiter.WaitURL(ctx, f.url); err != nil {
			return Result{}, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.hc.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Result{}, fmt.Errorf("%s: status %d: %q", f.name, resp.StatusCode, string(b))
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return Result{}, err
	}
	ls, err := decodeListings(b)
	if err != nil {
		return Result{}, fmt.Errorf("%s: decode: %w", f.name, err)
	}
	for i := range ls {
		if ls[i].Source == "" {
			ls[i].Source = f.Name()
		}
	}
	return Result{Source: f.Name(), Listings: ls}, nil
}
