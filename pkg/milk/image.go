// Package milk implements the milk filter: a simulated compression-artifact
// pass (quantization and blockiness) followed by a luminance-bucketed color
// reduction into a fixed three-color palette, with optional reproducible
// dithering.
//
// The pipeline works on packed RGB24 buffers (RGB). Image owns a decoded
// source, a live Config and the last processed output:
//
//	m := milk.New()
//	if err := m.Load(data); err != nil { ... }
//	m.Config().Comp = 40
//	if err := m.Process(); err != nil { ... }
//	_ = milk.Encode(w, m.Processed(), "png")
package milk

import (
	"errors"
	"image"
	"io"
	"time"
)

// State is the lifecycle stage of an Image.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateProcessed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateProcessed:
		return "processed"
	}
	return "unknown"
}

// Image sequences decode, artifact simulation and color filtering. The source
// buffer is never modified; every Process works on a fresh clone so the image
// can be reprocessed under a new configuration without decoding again.
//
// An Image is not safe for concurrent use.
type Image struct {
	src       *RGB
	processed *RGB
	conf      Config
}

// New returns an empty Image with the default configuration.
func New() *Image {
	return &Image{conf: DefaultConfig()}
}

// Load decodes PNG or JPEG bytes as the new source and drops any previous
// output. On failure the Image is left as it was and a *DecodeError is returned.
func (m *Image) Load(data []byte) error {
	start := time.Now()
	img, err := Decode(data)
	if err != nil {
		Logger().Warn("failed to open image", "err", err)
		return err
	}
	m.src = img
	m.processed = nil
	Logger().Info("image loaded", "width", img.Width, "height", img.Height, "elapsed", time.Since(start))
	return nil
}

// LoadImage adopts an already decoded image as the new source.
func (m *Image) LoadImage(img image.Image) error {
	src := FromImage(img)
	if src == nil {
		return &DecodeError{Err: errors.New("nil image")}
	}
	m.src = src
	m.processed = nil
	return nil
}

// Process clones the source, runs the configured passes and stores the
// result. Calling it again with the same source and config yields the same
// buffer.
func (m *Image) Process() error {
	if m.src == nil {
		return ErrNotLoaded
	}
	start := time.Now()
	out := m.src.Clone()
	Apply(out, &m.conf)
	m.processed = out
	Logger().Info("image processed", "comp", m.conf.Comp, "enabled", m.conf.Enabled, "elapsed", time.Since(start))
	return nil
}

// Config exposes the live configuration for in-place edits.
func (m *Image) Config() *Config { return &m.conf }

// Source returns the decoded source buffer, or nil.
func (m *Image) Source() *RGB { return m.src }

// Processed returns the last processed buffer, or nil.
func (m *Image) Processed() *RGB { return m.processed }

// State reports the lifecycle stage.
func (m *Image) State() State {
	switch {
	case m.processed != nil:
		return StateProcessed
	case m.src != nil:
		return StateLoaded
	}
	return StateEmpty
}

// Encode writes the processed buffer in the named format.
func (m *Image) Encode(w io.Writer, format string) error {
	if m.src == nil {
		return ErrNotLoaded
	}
	if m.processed == nil {
		return ErrNotProcessed
	}
	return Encode(w, m.processed, format)
}
