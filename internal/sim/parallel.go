package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/picsim/internal/pic"
)

// RunTiles runs independent tiles concurrently, one simulator per tile. The
// first failure cancels the remaining runs.
func RunTiles(ctx context.Context, tiles []*pic.Tile, build func(i int) *Simulator, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(tiles))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range tiles {
		g.Go(func() error {
			res, err := build(i).Run(ctx, t, cfg)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
