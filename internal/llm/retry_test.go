package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// retryFor wraps p with cfg and records requested sleeps instead of waiting.
func retryFor(p Provider, cfg RetryConfig) (*retrying, *[]time.Duration) {
	var slept []time.Duration
	r := WithRetry(p, cfg).(*retrying)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

func testRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Second, MaxWait: 10 * time.Second, Multiplier: 2}
}

func TestRetry_TransientThenSuccess(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Err: &Error{Kind: KindRateLimited}},
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	r, slept := retryFor(mock, testRetryConfig())

	resp, err := r.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"ok":true}` || mock.CallCount() != 3 {
		t.Fatalf("content %s after %d calls", resp.Content, mock.CallCount())
	}
	if len(*slept) != 2 {
		t.Fatalf("expected 2 waits, got %v", *slept)
	}
	first, second := (*slept)[0], (*slept)[1]
	if first < 500*time.Millisecond || first >= time.Second {
		t.Fatalf("first wait %v outside [0.5s,1s)", first)
	}
	if second < time.Second || second >= 2*time.Second {
		t.Fatalf("second wait %v outside [1s,2s)", second)
	}
}

func TestRetry_StopsAtConfiguredAttempts(t *testing.T) {
	cfg := testRetryConfig()
	cfg.MaxAttempts = 2
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	r, _ := retryFor(mock, cfg)

	if _, err := r.Generate(context.Background(), Request{}); KindOf(err) != KindUnavailable {
		t.Fatalf("expected last error, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsStillTriesOnce(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	r, _ := retryFor(mock, RetryConfig{})
	if _, err := r.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetry_NotRetried(t *testing.T) {
	for _, err := range []error{
		&Error{Kind: KindRejected, Status: 401},
		&Error{Kind: KindTruncated},
		errors.New("programming error"),
	} {
		mock := NewMockProvider(MockResponse{Err: err}, MockResponse{Content: json.RawMessage(`{}`)})
		r, _ := retryFor(mock, testRetryConfig())
		if _, got := r.Generate(context.Background(), Request{}); got != err {
			t.Fatalf("expected %v returned as is, got %v", err, got)
		}
		if mock.CallCount() != 1 {
			t.Fatalf("%v was retried", err)
		}
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	cfg := testRetryConfig()
	cfg.MaxAttempts = 5
	invalid := MockResponse{Content: json.RawMessage(`{"letter":"Q","reason":""}`)}
	mock := NewMockProvider(invalid, invalid, invalid)
	r, _ := retryFor(mock, cfg)

	_, err := r.Generate(context.Background(), Request{Schema: verdictSchema})
	if KindOf(err) != KindInvalidResponse {
		t.Fatalf("expected invalid response, got %v", err)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_RetryAfterCappedByMaxWait(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: 3 * time.Second}},
		MockResponse{Err: &Error{Kind: KindRateLimited, RetryAfter: time.Minute}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	r, slept := retryFor(mock, testRetryConfig())
	if _, err := r.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*slept)[0] != 3*time.Second || (*slept)[1] != 10*time.Second {
		t.Fatalf("waits = %v", *slept)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockProvider(
		MockResponse{Err: &Error{Kind: KindUnavailable}},
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	r, _ := retryFor(mock, testRetryConfig())
	r.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	if _, err := r.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if err := sleepCtx(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
