package crawler

import (
	"context"
	"net/http"
	"time"

	"imemirror/internal/config"
)

// Verdict is what the retry loop does after an attempt.
type Verdict int

const (
	// VerdictSuccess ends the loop with the attempt's body.
	VerdictSuccess Verdict = iota
	// VerdictRetry tries the same candidate again after a backoff.
	VerdictRetry
	// VerdictNextCandidate abandons the current candidate.
	VerdictNextCandidate
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictRetry:
		return "retry"
	case VerdictNextCandidate:
		return "next-candidate"
	}

	return "unknown"
}

// Attempt is the result of one try against one candidate.
type Attempt struct {
	Candidate  Candidate
	Err        error
	Body       []byte
	Number     int
	StatusCode int
	Duration   time.Duration
}

// Classify decides how the loop proceeds after an attempt. Transport errors,
// 404 (not yet published) and 5xx are retried; 200 succeeds; any other status
// moves on to the next candidate.
func Classify(a Attempt) Verdict {
	switch {
	case a.Err != nil:
		return VerdictRetry
	case a.StatusCode == http.StatusOK:
		return VerdictSuccess
	case a.StatusCode == http.StatusNotFound, a.StatusCode >= 500:
		return VerdictRetry
	default:
		return VerdictNextCandidate
	}
}

// Policy bounds the attempts made against each candidate.
type Policy struct {
	MaxAttempts int
	Timeout     time.Duration
	Backoff     time.Duration
}

// PolicyFromConfig converts the configured retry policy.
func PolicyFromConfig(rp config.RetryPolicy) Policy {
	return Policy{
		MaxAttempts: rp.MaxAttempts,
		Timeout:     rp.GetTimeout(),
		Backoff:     time.Duration(rp.BackoffMs) * time.Millisecond,
	}
}

// Delay returns the wait after failed attempt number n.
func (p Policy) Delay(n int) time.Duration {
	return p.Backoff * time.Duration(n)
}

// AttemptFunc performs a single try. ctx carries the per-attempt deadline.
type AttemptFunc func(ctx context.Context, c Candidate) Attempt

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Outcome is the result of a retry run.
type Outcome struct {
	Candidate Candidate
	Body      []byte
	Attempts  []Attempt
	Found     bool
}

// Retrier runs candidates in order, each with bounded attempts.
type Retrier struct {
	Sleep     SleepFunc
	OnAttempt func(Attempt, Verdict)
	Policy    Policy
}

// NewRetrier creates a retrier that sleeps on the wall clock.
func NewRetrier(policy Policy) *Retrier {
	return &Retrier{
		Policy: policy,
		Sleep:  SleepContext,
	}
}

// Run tries each candidate in order and returns the first successful body.
// An outcome with Found false means every candidate was exhausted or ctx was
// cancelled.
func (r *Retrier) Run(ctx context.Context, candidates []Candidate, do AttemptFunc) Outcome {
	var out Outcome

	maxAttempts := r.Policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for _, candidate := range candidates {
	tries:
		for n := 1; n <= maxAttempts; n++ {
			if ctx.Err() != nil {
				return out
			}

			attempt := r.attempt(ctx, candidate, n, do)
			out.Attempts = append(out.Attempts, attempt)

			verdict := Classify(attempt)
			if r.OnAttempt != nil {
				r.OnAttempt(attempt, verdict)
			}

			switch verdict {
			case VerdictSuccess:
				out.Found = true
				out.Candidate = candidate
				out.Body = attempt.Body

				return out
			case VerdictNextCandidate:
				break tries
			case VerdictRetry:
				if n == maxAttempts {
					break tries
				}

				if err := r.sleep(ctx, r.Policy.Delay(n)); err != nil {
					return out
				}
			}
		}
	}

	return out
}

func (r *Retrier) attempt(ctx context.Context, candidate Candidate, n int, do AttemptFunc) Attempt {
	attemptCtx := ctx

	if r.Policy.Timeout > 0 {
		var cancel context.CancelFunc

		attemptCtx, cancel = context.WithTimeout(ctx, r.Policy.Timeout)
		defer cancel()
	}

	start := time.Now()
	attempt := do(attemptCtx, candidate)
	attempt.Candidate = candidate
	attempt.Number = n

	if attempt.Duration == 0 {
		attempt.Duration = time.Since(start)
	}

	return attempt
}

func (r *Retrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep == nil {
		return SleepContext(ctx, d)
	}

	return r.Sleep(ctx, d)
}

// SleepContext waits for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
