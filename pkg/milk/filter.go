package milk

import (
	"image/color"
	"time"

	"github.com/Fepozopo/milk/pkg/splitmix"
)

// NumBuckets is the number of luminance buckets.
const NumBuckets = 6

// rowSeedMask is mixed into every per-row seed.
const rowSeedMask uint64 = 0x123456789abcdef0

// Palette is an ordered triple of colors indexed 0, 1, 2.
type Palette [3]color.RGBA

var (
	// PaletteA is used when Alt is off.
	PaletteA = Palette{{0, 0, 0, 0xff}, {102, 0, 31, 0xff}, {137, 0, 146, 0xff}}
	// PaletteB is used when Alt is on.
	PaletteB = Palette{{0, 0, 0, 0xff}, {92, 36, 60, 0xff}, {203, 43, 43, 0xff}}
)

// PaletteFor selects the palette for the alt flag.
func PaletteFor(alt bool) Palette {
	if alt {
		return PaletteB
	}
	return PaletteA
}

// pick chooses between two palette slots. When random is set, first wins
// with the configured chance; otherwise first is always used.
type pick struct {
	first, second uint8
	random        bool
}

func fixed(i uint8) pick     { return pick{first: i, second: i} }
func either(a, b uint8) pick { return pick{first: a, second: b, random: true} }

// bucketRule is one row of the bucket table: the exclusive upper brightness
// bound and the default pick for eff==1 and for any other eff.
type bucketRule struct {
	upper  uint16
	effOne pick
	other  pick
}

// bucketRules returns the table for the alt flag, in ascending brightness.
func bucketRules(alt bool) [NumBuckets]bucketRule {
	mid1, mid2 := uint16(120), uint16(200)
	if alt {
		mid1, mid2 = 90, 150
	}
	return [NumBuckets]bucketRule{
		{upper: 26, effOne: fixed(0), other: fixed(0)},
		{upper: 71, effOne: either(1, 0), other: either(0, 1)},
		{upper: mid1, effOne: fixed(0), other: either(1, 0)},
		{upper: mid2, effOne: either(0, 1), other: fixed(1)},
		{upper: 230, effOne: fixed(2), other: either(2, 1)},
		{upper: 256, effOne: fixed(2), other: fixed(2)},
	}
}

// bucketIndex maps every brightness value to its bucket.
func bucketIndex(rules *[NumBuckets]bucketRule) [256]uint8 {
	var idx [256]uint8
	b := 0
	for v := 0; v < 256; v++ {
		for uint16(v) >= rules[b].upper {
			b++
		}
		idx[v] = uint8(b)
	}
	return idx
}

// BucketOf reports which bucket (0..5) a brightness value falls in.
func BucketOf(bright uint8, alt bool) int {
	rules := bucketRules(alt)
	return int(bucketIndex(&rules)[bright])
}

// RowSeed is the generator seed for row y of an image width pixels wide.
func RowSeed(width, y int) uint64 {
	return uint64(width*3+y) ^ rowSeedMask
}

// resolve returns the palette slot pinned by o, clamped to the palette.
func (o Override) resolve() (uint8, bool) {
	if !o.Valid {
		return 0, false
	}
	return uint8(clampInt(o.Index, 0, len(Palette{})-1)), true
}

// Filter recolors img in place into the configured palette. Every row draws
// from its own generator seeded by RowSeed, so the output depends only on
// the pixels, the config and the image width. A buffer whose Pix length does
// not match its dimensions is left untouched.
func Filter(img *RGB, cfg *Config) {
	if !img.valid() || cfg == nil || !cfg.Enabled || len(img.Pix) == 0 {
		return
	}
	start := time.Now()
	colors := PaletteFor(cfg.Alt)
	rules := bucketRules(cfg.Alt)
	index := bucketIndex(&rules)
	p := 1.0
	if cfg.Pointism {
		p = 0.7
	}

	var picks [NumBuckets]pick
	for b := range picks {
		if slot, ok := cfg.Overrides[b].resolve(); ok {
			picks[b] = fixed(slot)
			continue
		}
		if cfg.Eff == 1 {
			picks[b] = rules[b].effOne
		} else {
			picks[b] = rules[b].other
		}
	}

	width := img.Width
	forEachRowBand(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			rng := splitmix.New(RowSeed(width, y))
			row := img.Row(y)
			for i := 0; i+2 < len(row); i += 3 {
				bright := (uint16(row[i]) + uint16(row[i+1]) + uint16(row[i+2])) / 3
				pk := picks[index[bright]]
				slot := pk.first
				if pk.random && !rng.Probably(p) {
					slot = pk.second
				}
				c := colors[slot]
				row[i+0] = c.R
				row[i+1] = c.G
				row[i+2] = c.B
			}
		}
	})
	Logger().Debug("color filter", "alt", cfg.Alt, "pointism", cfg.Pointism, "eff", cfg.Eff, "elapsed", time.Since(start))
}
