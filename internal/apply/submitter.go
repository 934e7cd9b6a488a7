package apply

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jobapply-engine/internal/domain"
	"jobapply-engine/internal/logging"
)

// Submission is everything a submitter gets for one application.
type Submission struct {
	RunID       string         `json:"run_id"`
	Listing     domain.Listing `json:"listing"`
	Score       float64        `json:"score"`
	Resume      string         `json:"resume"`
	CoverLetter string         `json:"cover_letter,omitempty"`
}

type Outcome struct {
	Reference string `json:"reference,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Submitter performs the actual application. How that happens is up to the
// implementation; the engine only needs to know whether it worked.
type Submitter interface {
	Submit(ctx context.Context, s Submission) (Outcome, error)
}

// LogSubmitter records the intent and reports success. It is the default
// until a real channel is configured.
type LogSubmitter struct {
	Log *zap.Logger
}

func (ls LogSubmitter) Submit(_ context.Context, s Submission) (Outcome, error) {
	logging.OrNop(ls.Log).Info("application submitted (log only)",
		zap.String("run_id", s.RunID),
		zap.String("listing_id", s.Listing.ID),
		zap.String("title", s.Listing.Title),
		zap.String("company", s.Listing.Company),
		zap.Float64("score", s.Score),
		zap.String("resume", s.Resume),
		zap.String("cover_letter", s.CoverLetter),
		zap.String("url", s.Listing.URL),
	)
	return Outcome{Detail: "logged only; no submission channel configured"}, nil
}

// WebhookSubmitter POSTs the submission as JSON to an endpoint that knows
// how to apply. A non-empty token is sent as a bearer token.
type WebhookSubmitter struct {
	URL    string
	Token  func() (string, error)
	Client *http.Client
}

func NewWebhookSubmitter(url string, timeout time.Duration, token func() (string, error)) *WebhookSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookSubmitter{URL: url, Token: token, Client: &http.Client{Timeout: timeout}}
}

func (ws *WebhookSubmitter) Submit(ctx context.Context, s Submission) (Outcome, error) {
	body, err := json.Marshal(s)
	if err != nil {
		return Outcome{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ws.URL, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", s.RunID+":"+s.Listing.ID)
	if ws.Token != nil {
		tok, err := ws.Token()
		if err != nil {
			return Outcome{}, fmt.Errorf("webhook token: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	client := ws.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Outcome{}, fmt.Errorf("webhook status %s: %q", resp.Status, string(b))
	}

	var out Outcome
	// An empty or non-JSON 2xx body is still a success.
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out)
	if out.Detail == "" {
		out.Detail = resp.Status
	}
	return out, nil
}
