package crawler

import (
	"fmt"
	"sync"
	"time"
)

// AttemptResult records the result of one fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Candidate  string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// AttemptLog collects fetch attempts across a run. Safe for concurrent use.
type AttemptLog struct {
	byURL map[string][]AttemptResult
	order []string
	mu    sync.Mutex
}

// NewAttemptLog creates an empty attempt log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{
		byURL: make(map[string][]AttemptResult),
	}
}

// Record appends an attempt.
func (l *AttemptLog) Record(a Attempt, success bool) {
	errMsg := ""
	if a.Err != nil {
		errMsg = a.Err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.byURL[a.Candidate.URL]; !ok {
		l.order = append(l.order, a.Candidate.URL)
	}

	l.byURL[a.Candidate.URL] = append(l.byURL[a.Candidate.URL], AttemptResult{
		Timestamp:  time.Now(),
		URL:        a.Candidate.URL,
		Candidate:  a.Candidate.Name,
		Error:      errMsg,
		Attempt:    a.Number,
		Duration:   a.Duration,
		StatusCode: a.StatusCode,
		Success:    success,
	})
}

// Stats summarizes the log.
func (l *AttemptLog) Stats() AttemptStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := AttemptStats{
		TotalURLs:   len(l.order),
		URLAttempts: make(map[string]int, len(l.order)),
	}

	for _, url := range l.order {
		results := l.byURL[url]
		stats.URLAttempts[url] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}
