package milk

import (
	"math"
	"time"
)

const (
	// MaxComp is the strongest compression setting; larger values are clamped.
	MaxComp = 100
	// MaxBlockSize bounds an explicitly configured block width.
	MaxBlockSize = 64

	minQualityFactor = 0.05
	autoBlockMax     = 8
)

// QualityFactor maps a compression strength to a quality in [0.05, 1].
func QualityFactor(comp uint8) float64 {
	c := math.Min(float64(comp), MaxComp)
	return math.Max((MaxComp-c)/MaxComp, minQualityFactor)
}

// QuantizationLevels returns how many intensity levels survive at quality qf.
func QuantizationLevels(qf float64) int {
	qf = math.Max(0, math.Min(1, qf))
	return clampInt(int(math.Round(2+254*qf)), 2, 256)
}

// QuantizationTable builds the byte lookup table for the given level count
// (clamped to [2,256]). The table is monotonic non-decreasing.
func QuantizationTable(levels int) [256]uint8 {
	n := uint32(clampInt(levels, 2, 256))
	var lut [256]uint8
	for v := uint32(0); v < 256; v++ {
		level := v * n / 256
		lut[v] = uint8(min(level*255/(n-1), 255))
	}
	return lut
}

// Quantize posterizes every byte of img independently with the table for
// quality qf.
func Quantize(img *RGB, qf float64) {
	if !img.valid() || len(img.Pix) == 0 {
		return
	}
	levels := QuantizationLevels(qf)
	lut := QuantizationTable(levels)
	start := time.Now()
	s := img.stride()
	forEachRowBand(img.Height, func(y0, y1 int) {
		seg := img.Pix[y0*s : y1*s]
		for i, v := range seg {
			seg[i] = lut[v]
		}
	})
	Logger().Debug("quantize", "levels", levels, "elapsed", time.Since(start))
}

// BlockSizeFor resolves the block width: an explicit size wins (capped at
// MaxBlockSize), zero derives it from comp.
func BlockSizeFor(comp uint8, configured uint32) int {
	if configured != 0 {
		return int(min(configured, MaxBlockSize))
	}
	c := math.Min(float64(comp), MaxComp)
	return clampInt(int(math.Round(c/MaxComp*7)), 1, autoBlockMax)
}

// Blockiness replaces each horizontal run of size pixels with the run's
// truncated mean color. Runs never cross rows; a short run at the end of a
// row is averaged over its own pixel count. size <= 1 or a malformed buffer
// leaves img unchanged.
func Blockiness(img *RGB, size int) {
	if !img.valid() || size <= 1 || img.Width == 0 {
		return
	}
	start := time.Now()
	step := size * 3
	forEachRowBand(img.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.Row(y)
			for x := 0; x < len(row); x += step {
				fillMean(row[x:min(x+step, len(row))])
			}
		}
	})
	Logger().Debug("blockiness", "size", size, "elapsed", time.Since(start))
}

// fillMean overwrites every pixel in run with the run's mean color.
func fillMean(run []uint8) {
	n := uint32(len(run) / 3)
	if n == 0 {
		return
	}
	var sr, sg, sb uint32
	for i := 0; i+2 < len(run); i += 3 {
		sr += uint32(run[i+0])
		sg += uint32(run[i+1])
		sb += uint32(run[i+2])
	}
	r, g, b := uint8(sr/n), uint8(sg/n), uint8(sb/n)
	for i := 0; i+2 < len(run); i += 3 {
		run[i+0] = r
		run[i+1] = g
		run[i+2] = b
	}
}

// SimulateArtifacts runs the enabled compression passes on img in place,
// quantization strictly before blockiness. Nothing happens when Comp is 0 or
// when Pix does not match the dimensions.
func SimulateArtifacts(img *RGB, cfg *Config) {
	if !img.valid() || cfg == nil || cfg.Comp == 0 {
		return
	}
	if cfg.Quant {
		Quantize(img, QualityFactor(cfg.Comp))
	}
	if cfg.Block {
		Blockiness(img, BlockSizeFor(cfg.Comp, cfg.BlockSize))
	}
}
