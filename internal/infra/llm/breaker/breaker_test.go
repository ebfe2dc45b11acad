package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/synergy-circle/internal/infra/llm/gemini"
)

type flakyGenerator struct {
	calls int
	err   error
}

func (f *flakyGenerator) GenerateContent(context.Context, gemini.Request) (gemini.Response, error) {
	f.calls++
	if f.err != nil {
		return gemini.Response{}, f.err
	}
	return gemini.Response{Text: "{}"}, nil
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	next := &flakyGenerator{err: errors.New("503 from upstream")}
	b := New(next, Settings{Name: "test", MinRequests: 3, FailureThreshold: 0.5, Timeout: time.Minute}, newTestLogger())

	for i := 0; i < 3; i++ {
		_, err := b.GenerateContent(context.Background(), gemini.Request{})
		require.Error(t, err)
	}
	require.Equal(t, "open", b.State())

	_, err := b.GenerateContent(context.Background(), gemini.Request{})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, 3, next.calls)
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	next := &flakyGenerator{}
	b := New(next, Settings{}, newTestLogger())

	resp, err := b.GenerateContent(context.Background(), gemini.Request{})
	require.NoError(t, err)
	require.Equal(t, "{}", resp.Text)
	require.Equal(t, "closed", b.State())
}

func TestBreakerIgnoresCanceledCalls(t *testing.T) {
	next := &flakyGenerator{err: context.Canceled}
	b := New(next, Settings{MinRequests: 1, FailureThreshold: 0.1}, newTestLogger())

	for i := 0; i < 5; i++ {
		_, err := b.GenerateContent(context.Background(), gemini.Request{})
		require.ErrorIs(t, err, context.Canceled)
	}
	require.Equal(t, "closed", b.State())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
