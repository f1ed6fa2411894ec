package crawler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"imemirror/internal/config"
)

var errConnReset = errors.New("connection reset by peer")

// scriptedAttempts returns an AttemptFunc answering from a per-candidate script.
// The last entry of a script repeats once it runs out.
func scriptedAttempts(script map[string][]Attempt, calls *[]string) AttemptFunc {
	seen := map[string]int{}

	return func(_ context.Context, c Candidate) Attempt {
		*calls = append(*calls, c.Name)

		steps := script[c.Name]
		if len(steps) == 0 {
			return Attempt{StatusCode: http.StatusNotFound}
		}

		i := seen[c.Name]
		seen[c.Name]++

		if i >= len(steps) {
			i = len(steps) - 1
		}

		return steps[i]
	}
}

func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func testCandidates(withRelay bool) []Candidate {
	relay := ""
	if withRelay {
		relay = "https://relay.example.com/?url="
	}

	return Candidates("https://courts.example.com/Civil/J1/file.txt", relay)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		attempt Attempt
		want    Verdict
	}{
		{Attempt{StatusCode: 200}, VerdictSuccess},
		{Attempt{StatusCode: 404}, VerdictRetry},
		{Attempt{StatusCode: 500}, VerdictRetry},
		{Attempt{StatusCode: 503}, VerdictRetry},
		{Attempt{Err: errConnReset}, VerdictRetry},
		{Attempt{StatusCode: 403}, VerdictNextCandidate},
		{Attempt{StatusCode: 301}, VerdictNextCandidate},
		{Attempt{StatusCode: 429}, VerdictNextCandidate},
	}

	for _, tt := range tests {
		if got := Classify(tt.attempt); got != tt.want {
			t.Errorf("Classify(%+v) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetrier_FirstTrySucceeds(t *testing.T) {
	var calls []string

	var delays []time.Duration

	r := &Retrier{Policy: Policy{MaxAttempts: 3, Backoff: time.Second}, Sleep: recordingSleep(&delays)}
	do := scriptedAttempts(map[string][]Attempt{
		CandidateSecure: {{StatusCode: 200, Body: []byte("ok")}},
	}, &calls)

	out := r.Run(context.Background(), testCandidates(true), do)

	if !out.Found || string(out.Body) != "ok" {
		t.Fatalf("Expected success with body 'ok', got %+v", out)
	}

	if len(out.Attempts) != 1 || len(delays) != 0 {
		t.Errorf("Expected exactly one attempt and no waits, got %d attempts, %d waits", len(out.Attempts), len(delays))
	}

	if out.Candidate.Name != CandidateSecure {
		t.Errorf("Expected secure candidate, got %s", out.Candidate.Name)
	}
}

func TestRetrier_AllNotFoundExhaustsEveryCandidate(t *testing.T) {
	var calls []string

	var delays []time.Duration

	r := &Retrier{Policy: Policy{MaxAttempts: 3, Backoff: 900 * time.Millisecond}, Sleep: recordingSleep(&delays)}
	candidates := testCandidates(false)

	out := r.Run(context.Background(), candidates, scriptedAttempts(nil, &calls))

	if out.Found {
		t.Fatal("Expected absent outcome")
	}

	if want := len(candidates) * 3; len(calls) != want {
		t.Errorf("Expected %d requests, got %d", want, len(calls))
	}

	wantDelays := []time.Duration{900 * time.Millisecond, 1800 * time.Millisecond, 900 * time.Millisecond, 1800 * time.Millisecond}
	if len(delays) != len(wantDelays) {
		t.Fatalf("Expected waits %v, got %v", wantDelays, delays)
	}

	for i := range wantDelays {
		if delays[i] != wantDelays[i] {
			t.Errorf("wait %d = %v, want %v", i, delays[i], wantDelays[i])
		}
	}
}

func TestRetrier_NonRetryableStatusAdvancesCandidate(t *testing.T) {
	var calls []string

	var delays []time.Duration

	r := &Retrier{Policy: Policy{MaxAttempts: 3}, Sleep: recordingSleep(&delays)}
	do := scriptedAttempts(map[string][]Attempt{
		CandidateSecure:   {{StatusCode: http.StatusForbidden}},
		CandidateInsecure: {{StatusCode: 200, Body: []byte("plain")}},
	}, &calls)

	out := r.Run(context.Background(), testCandidates(true), do)

	if !out.Found || out.Candidate.Name != CandidateInsecure {
		t.Fatalf("Expected success on insecure candidate, got %+v", out)
	}

	want := []string{CandidateSecure, CandidateInsecure}
	if len(calls) != len(want) || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("Expected call order %v, got %v", want, calls)
	}

	if len(delays) != 0 {
		t.Errorf("Expected no waits after a non-retryable status, got %v", delays)
	}
}

func TestRetrier_RelayIsLastResort(t *testing.T) {
	var calls []string

	r := &Retrier{Policy: Policy{MaxAttempts: 2}, Sleep: recordingSleep(new([]time.Duration))}
	do := scriptedAttempts(map[string][]Attempt{
		CandidateSecure:   {{Err: errConnReset}},
		CandidateInsecure: {{StatusCode: 502}},
		CandidateRelay:    {{StatusCode: 200, Body: []byte("relayed")}},
	}, &calls)

	out := r.Run(context.Background(), testCandidates(true), do)

	if !out.Found || string(out.Body) != "relayed" {
		t.Fatalf("Expected relayed body, got %+v", out)
	}

	if len(calls) != 5 {
		t.Errorf("Expected 2+2+1 attempts, got %v", calls)
	}
}

func TestRetrier_TransportErrorThenSuccess(t *testing.T) {
	var calls []string

	var delays []time.Duration

	r := &Retrier{Policy: Policy{MaxAttempts: 3, Backoff: time.Second}, Sleep: recordingSleep(&delays)}
	do := scriptedAttempts(map[string][]Attempt{
		CandidateSecure: {{Err: errConnReset}, {StatusCode: 200, Body: []byte("second")}},
	}, &calls)

	out := r.Run(context.Background(), testCandidates(false), do)

	if !out.Found || string(out.Body) != "second" {
		t.Fatalf("Expected success on second try, got %+v", out)
	}

	if len(out.Attempts) != 2 || out.Attempts[1].Number != 2 {
		t.Errorf("Expected second attempt to be numbered 2, got %+v", out.Attempts)
	}

	if len(delays) != 1 || delays[0] != time.Second {
		t.Errorf("Expected one 1s wait, got %v", delays)
	}
}

func TestRetrier_TimeoutAbortsAttempt(t *testing.T) {
	r := &Retrier{Policy: Policy{MaxAttempts: 2, Timeout: 20 * time.Millisecond}, Sleep: recordingSleep(new([]time.Duration))}

	do := func(ctx context.Context, _ Candidate) Attempt {
		<-ctx.Done()
		return Attempt{Err: ctx.Err()}
	}

	out := r.Run(context.Background(), testCandidates(false), do)

	if out.Found {
		t.Fatal("Expected absent outcome when every attempt times out")
	}

	if len(out.Attempts) != 4 {
		t.Fatalf("Expected 4 attempts, got %d", len(out.Attempts))
	}

	if !errors.Is(out.Attempts[0].Err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", out.Attempts[0].Err)
	}
}

func TestRetrier_ParentCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls []string

	r := &Retrier{
		Policy: Policy{MaxAttempts: 3, Backoff: time.Hour},
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	out := r.Run(ctx, testCandidates(true), scriptedAttempts(nil, &calls))

	if out.Found {
		t.Fatal("Expected absent outcome after cancellation")
	}

	if len(calls) != 1 {
		t.Errorf("Expected loop to stop after the first wait, got %d calls", len(calls))
	}
}

func TestRetrier_OnAttemptSeesEveryVerdict(t *testing.T) {
	var verdicts []Verdict

	r := &Retrier{
		Policy:    Policy{MaxAttempts: 2},
		Sleep:     recordingSleep(new([]time.Duration)),
		OnAttempt: func(_ Attempt, v Verdict) { verdicts = append(verdicts, v) },
	}

	do := scriptedAttempts(map[string][]Attempt{
		CandidateSecure:   {{StatusCode: 500}, {StatusCode: 403}},
		CandidateInsecure: {{StatusCode: 200}},
	}, new([]string))

	r.Run(context.Background(), testCandidates(false), do)

	want := []Verdict{VerdictRetry, VerdictNextCandidate, VerdictSuccess}
	if len(verdicts) != len(want) {
		t.Fatalf("Expected verdicts %v, got %v", want, verdicts)
	}

	for i := range want {
		if verdicts[i] != want[i] {
			t.Errorf("verdict %d = %v, want %v", i, verdicts[i], want[i])
		}
	}
}

func TestSleepContext(t *testing.T) {
	if err := SleepContext(context.Background(), 0); err != nil {
		t.Errorf("Expected nil for zero delay, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := SleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.RetryPolicy{MaxAttempts: 3, BackoffMs: 900, TimeoutSec: 25})

	if p.MaxAttempts != 3 || p.Timeout != 25*time.Second {
		t.Errorf("Unexpected policy: %+v", p)
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 900 * time.Millisecond},
		{2, 1800 * time.Millisecond},
		{3, 2700 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.expected {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.expected)
		}
	}
}
