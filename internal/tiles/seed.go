package tiles

import (
	"context"
	"errors"
	"sync"

	"github.com/woozymasta/antipode/internal/geo"

	"github.com/rs/zerolog/log"
)

// SeedOptions controls cache pre-population.
type SeedOptions struct {
	// Around limits seeding to the tiles containing these points
	// (plus their neighbours). Empty means the whole pyramid.
	Around      []geo.Coordinate
	MinZoom     int
	MaxZoom     int
	Concurrency int
}

// SeedResult summarizes a seeding run.
type SeedResult struct {
	Fetched int
	Missing int
	Failed  int
}

type result struct {
	err   error
	coord geo.Tile
}

// Seed fills the cache zoom level by zoom level. For the full pyramid only
// children of tiles that exist are queued, so sparse sources stop early.
func (p *Proxy) Seed(ctx context.Context, opts SeedOptions) (SeedResult, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.MaxZoom <= 0 || (p.source.MaxZoom > 0 && opts.MaxZoom > p.source.MaxZoom) {
		opts.MaxZoom = p.source.MaxZoom
	}

	var total SeedResult
	level := []geo.Tile{{Z: 0}}

	for z := 0; z <= opts.MaxZoom; z++ {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		if len(opts.Around) > 0 {
			level = tilesAround(opts.Around, z)
		}
		if len(level) == 0 {
			break
		}

		if z < opts.MinZoom {
			if len(opts.Around) == 0 {
				level = children(level)
			}
			continue
		}

		log.Debug().Int("zoom", z).Int("count", len(level)).Msg("Seeding zoom level")

		valid, res := p.seedBatch(ctx, level, opts.Concurrency)
		total.Fetched += res.Fetched
		total.Missing += res.Missing
		total.Failed += res.Failed

		if len(opts.Around) == 0 {
			if len(valid) == 0 {
				log.Info().Int("zoom", z).Msg("No data found at zoom level, stopping")
				break
			}
			level = children(valid)
		}
	}

	return total, nil
}

func (p *Proxy) seedBatch(ctx context.Context, batch []geo.Tile, concurrency int) ([]geo.Tile, SeedResult) {
	jobs := make(chan geo.Tile, len(batch))
	results := make(chan result, len(batch))

	for _, t := range batch {
		jobs <- t
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				_, err := p.Tile(ctx, t)
				if err != nil && !errors.Is(err, ErrNotFound) {
					log.Trace().Err(err).Str("url", p.source.URL(t)).Msg("Failed to seed tile")
				}
				results <- result{coord: t, err: err}
			}
		}()
	}
	wg.Wait()
	close(results)

	var (
		valid []geo.Tile
		res   SeedResult
	)
	for r := range results {
		switch {
		case r.err == nil:
			res.Fetched++
			valid = append(valid, r.coord)
		case errors.Is(r.err, ErrNotFound):
			res.Missing++
		default:
			res.Failed++
		}
	}

	return valid, res
}

func children(level []geo.Tile) []geo.Tile {
	next := make([]geo.Tile, 0, len(level)*4)
	for _, t := range level {
		nx, ny := t.X*2, t.Y*2
		next = append(next,
			geo.Tile{Z: t.Z + 1, X: nx, Y: ny},
			geo.Tile{Z: t.Z + 1, X: nx + 1, Y: ny},
			geo.Tile{Z: t.Z + 1, X: nx, Y: ny + 1},
			geo.Tile{Z: t.Z + 1, X: nx + 1, Y: ny + 1},
		)
	}
	return next
}

// tilesAround returns the 3x3 block of tiles centred on each point,
// wrapping horizontally and dropping rows outside the pyramid.
func tilesAround(points []geo.Coordinate, z int) []geo.Tile {
	n := 1 << z
	seen := make(map[geo.Tile]bool)
	out := make([]geo.Tile, 0, len(points)*9)

	for _, pt := range points {
		c := geo.TileAt(pt, z)
		for dy := -1; dy <= 1; dy++ {
			y := c.Y + dy
			if y < 0 || y >= n {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				x := ((c.X+dx)%n + n) % n
				t := geo.Tile{Z: z, X: x, Y: y}
				if seen[t] {
					continue
				}
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	return out
}
