package workspace

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
)

// --- Run tests ---

// TestRun_SortedResults returns results in path order regardless of the
// order the edits finish in.
func TestRun_SortedResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	files := []string{"/c/vite.config.ts", "/a/vite.config.ts", "/b/vite.config.ts"}
	edit := func(_ context.Context, path string) (Result, error) {
		if path == "/c/vite.config.ts" {
			time.Sleep(5 * time.Millisecond)
		}
		return Result{Outcome: federation.OutcomeReplaced}, nil
	}

	results, err := Run(context.Background(), files, edit, Options{Jobs: 3, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "/a/vite.config.ts", results[0].Path)
	assert.Equal(t, "/b/vite.config.ts", results[1].Path)
	assert.Equal(t, "/c/vite.config.ts", results[2].Path)
	for _, r := range results {
		assert.Equal(t, federation.OutcomeReplaced, r.Outcome)
	}
}

// TestRun_ErrorDoesNotStopOthers records a failing file and still edits the
// rest.
func TestRun_ErrorDoesNotStopOthers(t *testing.T) {
	defer goleak.VerifyNone(t)

	boom := errors.New("boom")
	var edited atomic.Int32
	edit := func(_ context.Context, path string) (Result, error) {
		edited.Add(1)
		if path == "b" {
			return Result{}, boom
		}
		return Result{Outcome: federation.OutcomeUnchanged}, nil
	}

	results, err := Run(context.Background(), []string{"a", "b", "c"}, edit, Options{Jobs: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(3), edited.Load())
	assert.Equal(t, 1, Failed(results))
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "b", results[1].Path)
}

// TestRun_Limit never runs more edits at once than Jobs.
func TestRun_Limit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var active, peak atomic.Int32
	edit := func(_ context.Context, _ string) (Result, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return Result{}, nil
	}

	files := make([]string, 12)
	for i := range files {
		files[i] = string(rune('a' + i))
	}

	_, err := Run(context.Background(), files, edit, Options{Jobs: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// TestRun_Cancelled reports the context error and edits nothing.
func TestRun_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var edited atomic.Int32
	edit := func(_ context.Context, _ string) (Result, error) {
		edited.Add(1)
		return Result{}, nil
	}

	results, err := Run(ctx, []string{"a", "b"}, edit, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), edited.Load())
	require.Len(t, results, 2)
	assert.Equal(t, 2, Failed(results))
}

func TestRun_NoFiles(t *testing.T) {
	results, err := Run(context.Background(), nil, func(context.Context, string) (Result, error) {
		return Result{}, nil
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}
