package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"imemirror/internal/crawler"
	"imemirror/internal/logger"
	"imemirror/internal/models"
)

// ErrNoWorkUnits indicates a run with nothing to fetch.
var ErrNoWorkUnits = errors.New("no work units to process")

// BulletinFetcher resolves a bulletin URL to text or absence.
type BulletinFetcher interface {
	Fetch(ctx context.Context, url string) crawler.Result
}

// NoticeParser turns bulletin text into notices.
type NoticeParser interface {
	Parse(text string) []models.Notice
}

// Options configures a Runner.
type Options struct {
	Fetcher     BulletinFetcher
	Parser      NoticeParser
	Store       *Store
	Logger      *logger.Logger
	RunID       string
	BaseURL     string
	Courts      []models.Court
	Shifts      []string
	Date        Date
	Concurrency int
}

// Runner performs one mirroring pass.
type Runner struct {
	opts Options
	log  *logger.Logger
}

// UnitReport is the outcome of one work unit.
type UnitReport struct {
	Unit     models.WorkUnit
	Source   string
	Records  int
	Attempts int
	Found    bool
}

// Report summarizes a run.
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time
	RunID      string
	Aggregate  string
	Date       Date
	Units      []UnitReport
	Total      int
}

// Found returns how many units produced a bulletin.
func (r *Report) Found() int {
	n := 0

	for _, u := range r.Units {
		if u.Found {
			n++
		}
	}

	return n
}

// NewRunner creates a runner. Shifts default to models.Shifts and concurrency to 1.
func NewRunner(opts Options) *Runner {
	if len(opts.Shifts) == 0 {
		opts.Shifts = models.Shifts()
	}

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	l := opts.Logger
	if l == nil {
		l = logger.Discard()
	}

	return &Runner{opts: opts, log: l}
}

type unitResult struct {
	notices []models.Notice
	report  UnitReport
}

// Run fetches and parses every unit, writes per-unit files for the bulletins
// found and always writes the aggregate. Absent bulletins are skipped;
// filesystem failures abort the run.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		StartedAt: time.Now(),
		RunID:     r.opts.RunID,
		Date:      r.opts.Date,
	}

	units := BuildWorkSet(r.opts.Courts, r.opts.Shifts, r.opts.Date, r.opts.BaseURL)
	if len(units) == 0 {
		return nil, ErrNoWorkUnits
	}

	if err := r.opts.Store.PrepareDay(r.opts.Date); err != nil {
		return nil, err
	}

	r.log.Info("run started", "date", r.opts.Date.ISO(), "units", len(units), "concurrency", r.opts.Concurrency)

	results, err := r.processAll(ctx, units)
	if err != nil {
		return nil, err
	}

	all := make([]models.Notice, 0)
	for _, res := range results {
		all = append(all, res.notices...)
		report.Units = append(report.Units, res.report)
	}

	if err := r.opts.Store.SaveAggregate(r.opts.Date, all); err != nil {
		return nil, err
	}

	report.Total = len(all)
	report.Aggregate = r.opts.Store.AggregatePath(r.opts.Date)
	report.FinishedAt = time.Now()

	r.log.Info("run finished",
		"records", report.Total,
		"found", report.Found(),
		"units", len(units),
		"aggregate", report.Aggregate,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	return report, nil
}

// processAll runs units with bounded parallelism. Results are slotted by
// unit index so the aggregate keeps iteration order.
func (r *Runner) processAll(parent context.Context, units []models.WorkUnit) ([]unitResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([]unitResult, len(units))
	sem := make(chan struct{}, r.opts.Concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, unit := range units {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}

		if ctx.Err() != nil {
			break
		}

		wg.Go(func() {
			defer func() { <-sem }()

			res, err := r.processUnit(ctx, unit)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()

				return
			}

			results[i] = res
		})
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if err := parent.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	return results, nil
}

func (r *Runner) processUnit(ctx context.Context, u models.WorkUnit) (unitResult, error) {
	l := r.log.With("court", u.CourtNumber, "shift", u.Shift)
	l.Info("fetching bulletin", "url", u.URL)

	fetched := r.opts.Fetcher.Fetch(ctx, u.URL)

	res := unitResult{
		report: UnitReport{
			Unit:     u,
			Attempts: fetched.Attempts,
			Found:    fetched.Found,
			Source:   fetched.Source,
		},
	}

	if !fetched.Found {
		l.Info("bulletin not available")

		return res, nil
	}

	if err := r.opts.Store.SaveRaw(u, fetched.Text); err != nil {
		return res, err
	}

	parsed := r.opts.Parser.Parse(fetched.Text)
	notices := make([]models.Notice, 0, len(parsed))

	for _, n := range parsed {
		notices = append(notices, n.Enrich(u))
	}

	if err := r.opts.Store.SaveUnit(u, notices); err != nil {
		return res, err
	}

	res.notices = notices
	res.report.Records = len(notices)

	l.Info("bulletin mirrored", "records", len(notices), "source", fetched.Source)

	return res, nil
}
