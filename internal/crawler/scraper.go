package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"imemirror/internal/config"
	"imemirror/internal/logger"
	"imemirror/pkg/utils"
)

// ErrBodyTooLarge indicates a response larger than the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds limit")

// Scraper performs single bulletin requests.
type Scraper struct {
	client  *http.Client
	headers http.Header
	maxBody int64
}

// NewScraper creates a scraper. A nil client uses a client without its own
// timeout, since every attempt carries a context deadline.
func NewScraper(client *http.Client, headers http.Header, maxBodyKb int) *Scraper {
	if client == nil {
		client = &http.Client{}
	}

	if headers == nil {
		headers = utils.BulletinHeaders(nil)
	}

	return &Scraper{
		client:  client,
		headers: headers,
		maxBody: int64(maxBodyKb) * 1024,
	}
}

// Attempt issues one GET against the candidate. The body is only read for
// 200 responses; other statuses are reported without it.
func (s *Scraper) Attempt(ctx context.Context, c Candidate) Attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, http.NoBody)
	if err != nil {
		return Attempt{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return Attempt{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return Attempt{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return Attempt{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if int64(len(body)) > s.maxBody {
		return Attempt{StatusCode: resp.StatusCode, Err: fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, s.maxBody)}
	}

	return Attempt{StatusCode: resp.StatusCode, Body: body}
}

// Result is the outcome of fetching one bulletin: decoded text, or absence.
type Result struct {
	Text     string
	Source   string
	Attempts int
	Found    bool
}

// Fetcher resolves a canonical bulletin URL to text.
type Fetcher struct {
	scraper   *Scraper
	retrier   *Retrier
	attempts  *AttemptLog
	log       *logger.Logger
	relayBase string
}

// NewFetcher creates a fetcher from its parts.
func NewFetcher(scraper *Scraper, retrier *Retrier, relayBase string, l *logger.Logger) *Fetcher {
	if l == nil {
		l = logger.Discard()
	}

	return &Fetcher{
		scraper:   scraper,
		retrier:   retrier,
		attempts:  NewAttemptLog(),
		log:       l,
		relayBase: relayBase,
	}
}

// NewFetcherFromConfig wires a fetcher from configuration.
func NewFetcherFromConfig(cfg *config.Config, client *http.Client, l *logger.Logger) *Fetcher {
	var custom map[string]string
	if cfg.Crawler.UserAgent != "" {
		custom = map[string]string{"User-Agent": cfg.Crawler.UserAgent}
	}

	scraper := NewScraper(client, utils.BulletinHeaders(custom), cfg.Advanced.MaxBodyKb)
	retrier := NewRetrier(PolicyFromConfig(cfg.Crawler.Retry))

	return NewFetcher(scraper, retrier, cfg.Mirror.RelayBase, l)
}

// Attempts returns the log of every attempt made by this fetcher.
func (f *Fetcher) Attempts() *AttemptLog {
	return f.attempts
}

// Fetch resolves canonicalURL to decoded text. Failures are logged and
// reduced to a Result with Found false.
func (f *Fetcher) Fetch(ctx context.Context, canonicalURL string) Result {
	candidates := Candidates(canonicalURL, f.relayBase)
	l := f.log.With("url", canonicalURL)

	r := *f.retrier
	r.OnAttempt = func(a Attempt, v Verdict) {
		f.attempts.Record(a, v == VerdictSuccess)

		if v == VerdictSuccess {
			return
		}

		l.Warn("fetch attempt failed",
			"candidate", a.Candidate.Name,
			"attempt", a.Number,
			"status", a.StatusCode,
			"error", a.Err,
			"next", v.String(),
		)
	}

	outcome := r.Run(ctx, candidates, f.scraper.Attempt)
	if !outcome.Found {
		l.Warn("bulletin not available", "attempts", len(outcome.Attempts))

		return Result{Attempts: len(outcome.Attempts)}
	}

	l.Debug("bulletin fetched",
		"candidate", outcome.Candidate.Name,
		"attempts", len(outcome.Attempts),
		"bytes", len(outcome.Body),
	)

	return Result{
		Text:     Decode(outcome.Body),
		Source:   outcome.Candidate.URL,
		Attempts: len(outcome.Attempts),
		Found:    true,
	}
}
