package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/logging"
)

const leverAPI = "https://api.lever.co/v0/postings"

type LeverBoard struct {
	Slug string // api.lever.co/v0/postings/<slug>
	Name string
}

// LeverSource reads the public Lever postings API for a set of boards. A
// board that fails is logged and skipped; the others still count.
type LeverSource struct {
	boards  []LeverBoard
	baseURL string
	hc      *http.Client
	limiter *HostLimiter
	log     *zap.Logger
}

func NewLeverSource(boards []LeverBoard, limiter *HostLimiter, log *zap.Logger) *LeverSource {
	return &LeverSource{
		boards:  boards,
		baseURL: leverAPI,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: limiter,
		log:     logging.OrNop(log),
	}
}

func (s *LeverSource) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
	Description string `json:"description"` // html
	Additional  string `json:"additional"`  // html, benefits usually live here
}

func (s *LeverSource) Fetch(ctx context.Context) (Result, error) {
	const workers = 4

	jobsCh := make(chan []domain.Listing, len(s.boards))
	workCh := make(chan LeverBoard)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		lastErr error
		failed  int
	)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for b := range workCh {
				bctx, cancel := context.WithTimeout(ctx, 15*time.Second)
				jobs, err := s.fetchBoard(bctx, b)
				cancel()
				if err != nil {
					s.log.Warn("lever board failed", zap.String("slug", b.Slug), zap.Error(err))
					mu.Lock()
					lastErr, failed = err, failed+1
					mu.Unlock()
					continue
				}
				jobsCh <- jobs
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, b := range s.boards {
			select {
			case <-ctx.Done():
				return
			case workCh <- b:
			}
		}
	}()

	wg.Wait()
	close(jobsCh)

	var out []domain.Listing
	for batch := range jobsCh {
		out = append(out, batch...)
	}
	if len(s.boards) > 0 && failed == len(s.boards) {
		return Result{}, fmt.Errorf("all %d lever boards failed, last: %w", failed, lastErr)
	}
	return Result{Source: s.Name(), Listings: out}, nil
}

func (s *LeverSource) fetchBoard(ctx context.Context, b LeverBoard) ([]domain.Listing, error) {
	apiURL := fmt.Sprintf("%s/%s?mode=json", s.baseURL, b.Slug)
	if s.limiter != nil {
		if err := s.limiter.WaitURL(ctx, apiURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever get: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, fmt.Errorf("lever status %d: %q", res.StatusCode, string(snippet))
	}

	var postings []leverPosting
	if err := json.NewDecoder(res.Body).Decode(&postings); err != nil {
		return nil, fmt.Errorf("lever decode: %w", err)
	}

	name := b.Name
	if name == "" {
		name = b.Slug
	}
	out := make([]domain.Listing, 0, len(postings))
	for _, p := range postings {
		if p.ID == "" || p.HostedURL == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		l := domain.Listing{
			ID:          fmt.Sprintf("lever:%s:%s", b.Slug, p.ID),
			Title:       p.Text,
			Company:     name,
			URL:         p.HostedURL,
			Description: strings.TrimSpace(p.Description + " " + p.Additional),
			Location:    p.Categories.Location,
			Source:      s.Name(),
		}
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			l.PostedAt = &t
		}
		out = append(out, l)
	}
	return out, nil
}
