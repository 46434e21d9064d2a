package analyzer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned poll responses in order, repeating the last
type scriptedClient struct {
	responses []*JobStatus
	errs      []error
	polls     int
}

func (s *scriptedClient) Submit(ctx context.Context, fileRef string) (string, error) {
	return "job-1", nil
}

func (s *scriptedClient) Poll(ctx context.Context, jobID string) (*JobStatus, error) {
	i := s.polls
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	s.polls++
	if s.errs != nil && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return s.responses[i], nil
}

func noWait(ctx context.Context, d time.Duration) error { return nil }

func TestAwaitResult_SucceedsAfterRunning(t *testing.T) {
	client := &scriptedClient{responses: []*JobStatus{
		{Status: StatusRunning},
		{Status: StatusRunning},
		{Status: StatusSucceeded, Content: "page text"},
	}}
	p := NewPoller(client, PollConfig{Interval: time.Millisecond, MaxAttempts: 5}, WithWaitFunc(noWait))

	content, err := p.AwaitResult(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "page text", content)
	assert.Equal(t, 3, client.polls)
}

func TestAwaitResult_TerminalFailure(t *testing.T) {
	client := &scriptedClient{responses: []*JobStatus{
		{Status: StatusAnalyzeError, Message: "corrupt file"},
	}}
	p := NewPoller(client, PollConfig{Interval: time.Millisecond, MaxAttempts: 5}, WithWaitFunc(noWait))

	_, err := p.AwaitResult(context.Background(), "job-1")

	var failed *AnalysisFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, StatusAnalyzeError, failed.Status)
	assert.Equal(t, "corrupt file", failed.Payload)
	assert.Equal(t, 1, client.polls)
}

func TestAwaitResult_TimeoutAfterBudget(t *testing.T) {
	client := &scriptedClient{responses: []*JobStatus{{Status: StatusRunning}}}
	waits := 0
	countWait := func(ctx context.Context, d time.Duration) error {
		waits++
		return nil
	}
	p := NewPoller(client, PollConfig{Interval: 3 * time.Second, MaxAttempts: 4}, WithWaitFunc(countWait))

	_, err := p.AwaitResult(context.Background(), "job-1")

	var timeout *AnalysisTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 4, client.polls)
	// No wait after the final attempt
	assert.Equal(t, 3, waits)
}

func TestAwaitResult_UnrecognizedStatusCountsAttempt(t *testing.T) {
	client := &scriptedClient{responses: []*JobStatus{
		{Status: "Queued"},
		{Status: StatusSucceeded, Content: "ok"},
	}}
	p := NewPoller(client, PollConfig{Interval: time.Millisecond, MaxAttempts: 2}, WithWaitFunc(noWait))

	content, err := p.AwaitResult(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestAwaitResult_TransportErrorCountsAttempt(t *testing.T) {
	client := &scriptedClient{
		responses: []*JobStatus{nil, {Status: StatusSucceeded, Content: "ok"}},
		errs:      []error{fmt.Errorf("connection reset"), nil},
	}
	p := NewPoller(client, PollConfig{Interval: time.Millisecond, MaxAttempts: 3}, WithWaitFunc(noWait))

	content, err := p.AwaitResult(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestAwaitResult_CancelledContextStopsPromptly(t *testing.T) {
	client := &scriptedClient{responses: []*JobStatus{{Status: StatusRunning}}}
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(client, PollConfig{Interval: time.Second, MaxAttempts: 35})

	cancel()
	_, err := p.AwaitResult(ctx, "job-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.LessOrEqual(t, client.polls, 1)
}
