package milk

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minBandRows keeps small images on few goroutines.
const minBandRows = 8

// forEachRowBand splits [0,height) into contiguous bands of whole rows and
// runs fn on each band across GOMAXPROCS workers. Bands never overlap, so fn
// may write its rows without locking. Returns once every band is done.
func forEachRowBand(height int, fn func(y0, y1 int)) {
	if height <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	band := (height + workers - 1) / workers
	if band < minBandRows {
		band = minBandRows
	}
	if band >= height {
		fn(0, height)
		return
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
