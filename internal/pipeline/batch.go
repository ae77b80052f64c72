package pipeline

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/wjojarth123/uicheck/internal/config"
)

// Item is the outcome for one image of a batch. Exactly one of Result and
// Err is set.
type Item struct {
	Path   string
	Result *Result
	Err    error
}

// Report builds the JSON view of the item, carrying Err as a string.
func (it Item) Report() Report {
	if it.Result == nil {
		rep := Report{Image: it.Path}
		if it.Err != nil {
			rep.Error = it.Err.Error()
		}
		return rep
	}
	return it.Result.Report(it.Path)
}

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// RunBatch analyzes every file in paths with at most workers images in
// flight. workers <= 0 uses DefaultWorkers.
//
// A failing image records its error on its Item and never stops the
// others. Cancelling ctx stops new images from starting; those are marked
// with ctx's error, and RunBatch returns it. Items come back in the order
// of paths.
func RunBatch(ctx context.Context, paths []string, cfg config.Config, workers int, opts ...Option) ([]Item, error) {
	p, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	items := make([]Item, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		items[i].Path = path
		if gctx.Err() != nil {
			items[i].Err = gctx.Err()
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := p.AnalyzeFile(path)
			if err != nil {
				items[i].Err = err
				p.debugf("%s: %v", path, err)
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	g.Wait()
	return items, ctx.Err()
}
