package milk

import "strconv"

// Override pins a luminance bucket to a palette slot. The zero value is unset.
type Override struct {
	Index int
	Valid bool
}

// Pin returns an override selecting palette slot i.
func Pin(i int) Override { return Override{Index: i, Valid: true} }

func (o Override) String() string {
	if !o.Valid {
		return "none"
	}
	return strconv.Itoa(o.Index)
}

// Config is the live filter configuration. Nothing is validated on
// assignment; out-of-range numbers are clamped where they are used.
type Config struct {
	Enabled  bool // master switch for the color filter
	Alt      bool // palette B and its thresholds
	Pointism bool // randomized dithering between neighbouring buckets

	Comp      uint8  // compression artifact strength, 0..100
	Quant     bool   // run the quantization pass
	Block     bool   // run the blockiness pass
	BlockSize uint32 // block width in pixels, 0 derives it from Comp

	Eff       uint8 // 1 flips which side ties resolve to
	Overrides [NumBuckets]Override
}

// DefaultConfig returns the configuration a fresh Image starts with.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Quant:   true,
		Block:   true,
	}
}

// Apply runs the full transform on img in place: artifact passes first,
// then the color filter.
func Apply(img *RGB, cfg *Config) {
	SimulateArtifacts(img, cfg)
	Filter(img, cfg)
}
