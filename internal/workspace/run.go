package workspace

import (
	"context"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmr-tortoise/fedpatch/internal/federation"
)

// Result is the outcome of editing one file.
type Result struct {
	// Path is the config file the edit ran on.
	Path string `json:"path"`

	// Outcome reports how the file text changed.
	Outcome federation.Outcome `json:"-"`

	// Diff is a unified diff of the change, when the edit produced one.
	Diff string `json:"diff,omitempty"`

	// Err is the error the edit returned, if any.
	Err error `json:"-"`
}

// EditFunc edits one file. The returned Result's Path is filled in by Run.
type EditFunc func(ctx context.Context, path string) (Result, error)

// Options controls Run.
type Options struct {
	// Jobs is the maximum number of files edited at once. Zero or less
	// means GOMAXPROCS.
	Jobs int

	// Logger receives per-file progress. Nil means no logging.
	Logger *zap.Logger
}

// Run applies edit to every file with at most opts.Jobs edits in flight and
// returns one Result per file, sorted by path.
//
// Errors returned by edit are stored in the file's Result. The returned
// error is non-nil only when ctx is cancelled; results for files that were
// not reached then carry the context error.
func Run(ctx context.Context, files []string, edit EditFunc, opts Options) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Path: path, Err: err}
				return err
			}

			res, err := edit(gctx, path)
			res.Path = path
			if err != nil {
				res.Err = err
				logger.Warn("edit failed", zap.String("path", path), zap.Error(err))
			} else {
				logger.Debug("edited", zap.String("path", path), zap.Stringer("outcome", res.Outcome))
			}
			results[i] = res
			return nil
		})
	}

	err := g.Wait()
	sort.Slice(results, func(a, b int) bool { return results[a].Path < results[b].Path })
	return results, err
}

// Failed counts the results that carry an error.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
