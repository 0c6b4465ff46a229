package library

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Banh-Canh/trapview/internal/utils"
	"github.com/Banh-Canh/trapview/pkg/timelapse"
)

// Prefetched is one neighbour decoded off the interaction goroutine
type Prefetched struct {
	Index  int
	Record timelapse.FileRecord
	Bitmap *timelapse.Bitmap
}

// Batch is the result of one prefetch round. Version is the sequence version
// the records were read under; stale batches are dropped by the cache.
type Batch struct {
	Version uint64
	Items   []Prefetched
}

// Prefetcher decodes the neighbours of the cursor in parallel
type Prefetcher struct {
	Source  timelapse.BitmapSource
	Radius  int
	Workers int
}

// NewPrefetcher creates a prefetcher decoding radius records on each side
func NewPrefetcher(source timelapse.BitmapSource, radius, workers int) *Prefetcher {
	if workers <= 0 {
		workers = 2
	}
	return &Prefetcher{Source: source, Radius: radius, Workers: workers}
}

// Plan lists the indices around center worth decoding, nearest first, skipping resident ones.
// It reads the sequence and must run on the interaction goroutine.
func (p *Prefetcher) Plan(seq timelapse.Sequence, center int, resident func(int) bool) []Prefetched {
	var plan []Prefetched
	for d := 1; d <= p.Radius; d++ {
		for _, i := range []int{center + d, center - d} {
			if i < 0 || i >= seq.Len() || resident(i) {
				continue
			}
			plan = append(plan, Prefetched{Index: i, Record: seq.At(i)})
		}
	}
	return plan
}

// Decode loads every planned record. Only the BitmapSource runs concurrently;
// the returned batch is adopted back on the interaction goroutine.
func (p *Prefetcher) Decode(ctx context.Context, version uint64, plan []Prefetched) (Batch, error) {
	items := make([]Prefetched, len(plan))
	copy(items, plan)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			items[i].Bitmap = p.Source.Load(items[i].Record)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	utils.Logger.Debug("Neighbours prefetched", zap.Int("count", len(items)), zap.Uint64("version", version))
	return Batch{Version: version, Items: items}, nil
}

// Adopt hands a decoded batch to the cache and returns how many bitmaps were kept
func Adopt(cache *timelapse.NavigableCache, batch Batch) int {
	kept := 0
	for _, item := range batch.Items {
		if cache.Adopt(item.Index, batch.Version, item.Record, item.Bitmap) {
			kept++
		}
	}
	return kept
}
