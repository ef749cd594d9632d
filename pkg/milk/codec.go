package milk

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
)

var (
	// ErrDecode matches every *DecodeError via errors.Is.
	ErrDecode = errors.New("image decode failed")
	// ErrNotLoaded is returned when an operation needs a source image and none was loaded.
	ErrNotLoaded = errors.New("no image loaded")
	// ErrNotProcessed is returned when an operation needs processed output that does not exist yet.
	ErrNotProcessed = errors.New("image not processed")

	errUnsupportedFormat = errors.New("unsupported format (png | jpg | jpeg only)")
)

// DecodeError reports input bytes that could not be turned into an RGB buffer.
type DecodeError struct {
	Format string // detected container, empty if unknown
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Decode parses PNG or JPEG bytes into a new RGB buffer. Any other container,
// even if a decoder for it is registered elsewhere in the binary, is rejected.
func Decode(data []byte) (*RGB, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("empty input")}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if format != "png" && format != "jpeg" {
		return nil, &DecodeError{Format: format, Err: errUnsupportedFormat}
	}
	return FromImage(img), nil
}

// Encode writes img in the named format: "png" (default for empty or unknown
// names) or "jpeg"/"jpg" at quality 92.
func Encode(w io.Writer, img *RGB, format string) error {
	if img == nil {
		return ErrNotProcessed
	}
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "jpg", "jpeg":
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 92}); err != nil {
			return fmt.Errorf("jpeg encode failed: %w", err)
		}
	default:
		if err := png.Encode(w, img.NRGBA()); err != nil {
			return fmt.Errorf("png encode failed: %w", err)
		}
	}
	return nil
}
