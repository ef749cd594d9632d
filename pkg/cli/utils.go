package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/milk/pkg/milk"
	"github.com/Fepozopo/milk/pkg/splitmix"
)

// stdin is shared by the command loop and every prompt so buffered input is
// never lost between readers.
var stdin = bufio.NewReader(os.Stdin)

// readLine reads one line from r, trimmed of surrounding whitespace. A final
// line without a newline is returned with a nil error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PromptLine displays a prompt and reads a full line of input from the user.
func PromptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	return readLine(stdin)
}

// outputFormat maps a file extension to the encoder name passed to milk.Encode.
func outputFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return "png", nil
	case ".jpg", ".jpeg":
		return "jpeg", nil
	default:
		return "", fmt.Errorf("unsupported output extension %q (png | jpg | jpeg)", ext)
	}
}

// DefaultOutputName returns a random export name of the form filt_<16 hex>.png.
func DefaultOutputName() string {
	return fmt.Sprintf("filt_%016x.png", splitmix.Random())
}

// LoadImageFile reads path from disk and loads it into m.
func LoadImageFile(m *milk.Image, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.Load(b)
}

// SaveImage writes the processed output of m to path. The format follows the
// extension; a path without one gets ".png" appended. The final path is returned.
func SaveImage(path string, m *milk.Image) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	format, err := outputFormat(path)
	if err != nil {
		return "", err
	}
	switch m.State() {
	case milk.StateEmpty:
		return "", milk.ErrNotLoaded
	case milk.StateLoaded:
		return "", milk.ErrNotProcessed
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := m.Encode(f, format); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// GetImageInfo returns a short info string for the loaded image.
func GetImageInfo(m *milk.Image) (string, error) {
	src := m.Source()
	if src == nil {
		return "", milk.ErrNotLoaded
	}
	cfg := m.Config()
	return fmt.Sprintf("Width: %d, Height: %d, State: %s, comp: %d, enabled: %v, alt: %v, pointism: %v",
		src.Width, src.Height, m.State(), cfg.Comp, cfg.Enabled, cfg.Alt, cfg.Pointism), nil
}
