// poller.go - Drives an asynchronous analysis job to a synchronous result

package analyzer

import (
	"context"
	"fmt"
	"time"
)

// AnalysisSubmissionError means the analyzer rejected the file outright (no
// job handle returned). Fatal for that file only.
type AnalysisSubmissionError struct {
	FileRef string
	Err     error
}

func (e *AnalysisSubmissionError) Error() string {
	return fmt.Sprintf("analysis submission failed for %s: %v", e.FileRef, e.Err)
}

func (e *AnalysisSubmissionError) Unwrap() error { return e.Err }

// AnalysisTimeoutError means the poll budget was exhausted before the job
// reached a terminal state. Fatal for that file only.
type AnalysisTimeoutError struct {
	JobID   string
	Elapsed time.Duration
}

func (e *AnalysisTimeoutError) Error() string {
	return fmt.Sprintf("analysis job %s timed out after %s", e.JobID, e.Elapsed)
}

// AnalysisFailedError means the analyzer reached a terminal failure status.
// Fatal for that file only.
type AnalysisFailedError struct {
	JobID   string
	Status  string
	Payload string
}

func (e *AnalysisFailedError) Error() string {
	return fmt.Sprintf("analysis job %s failed with status %s: %s", e.JobID, e.Status, e.Payload)
}

// PollConfig bounds the polling loop
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultPollConfig matches the analyzer's typical job latency: up to
// 35 polls at 3s apart (105s budget).
var DefaultPollConfig = PollConfig{
	Interval:    3 * time.Second,
	MaxAttempts: 35,
}

// Poller turns the analyzer's asynchronous job API into a synchronous call.
// Waiting goes through the wait hook so tests can drive the loop with a fake
// clock; the default honors context cancellation.
type Poller struct {
	client Client
	config PollConfig
	wait   func(ctx context.Context, d time.Duration) error
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithWaitFunc replaces the inter-poll wait (for testing with a fake clock)
func WithWaitFunc(wait func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		p.wait = wait
	}
}

// NewPoller creates a poller over the given client
func NewPoller(client Client, config PollConfig, opts ...PollerOption) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollConfig.Interval
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultPollConfig.MaxAttempts
	}
	p := &Poller{
		client: client,
		config: config,
		wait:   sleepWait,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AwaitResult polls the job until it succeeds, fails terminally, or the
// attempt budget runs out. Every non-success poll consumes one attempt,
// including unrecognized statuses and transport errors.
func (p *Poller) AwaitResult(ctx context.Context, jobID string) (string, error) {
	start := time.Now()

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		status, err := p.client.Poll(ctx, jobID)
		if err == nil {
			switch status.Status {
			case StatusSucceeded:
				return status.Content, nil
			case StatusFailed, StatusAnalyzeError:
				return "", &AnalysisFailedError{JobID: jobID, Status: status.Status, Payload: status.Message}
			}
			// Running or unrecognized: fall through and wait
		} else if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt == p.config.MaxAttempts {
			break
		}
		if werr := p.wait(ctx, p.config.Interval); werr != nil {
			return "", werr
		}
	}

	return "", &AnalysisTimeoutError{JobID: jobID, Elapsed: time.Since(start)}
}

func sleepWait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
