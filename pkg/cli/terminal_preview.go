package cli

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/image/draw"
)

// Terminal preview helper for Kitty and iTerm2 inline-image protocols.
//
// Behavior:
//   - The image is scaled down (never up) to fit the preview area, then encoded as PNG.
//   - If an inline-capable terminal is detected (iTerm2, WezTerm, Warp, VSCode, ...),
//     the PNG is sent with the OSC 1337 inline file sequence.
//   - Else if kitty is detected (KITTY_WINDOW_ID or TERM contains "kitty"), the PNG is sent
//     using the kitty graphics protocol (chunked base64 inside ESC _G ... ESC \).
//   - Else, if chafa is on PATH, it renders a block-character approximation.
//   - PREVIEW_BACKEND=kitty|inline|chafa forces a backend first; NO_PREVIEW=1 disables previews.
//
// Debugging helper controlled by PREVIEW_DEBUG=1
var previewDebug bool

func init() {
	// .env is optional
	_ = godotenv.Load()

	debug := os.Getenv("PREVIEW_DEBUG")
	if debug == "1" || debug == "true" {
		previewDebug = true
	}
}

func debugf(format string, args ...any) {
	if previewDebug {
		fmt.Fprintf(os.Stderr, "milk-preview: "+format+"\n", args...)
	}
}

func isKitty() bool {
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return true
	}
	// ghostty implements the kitty graphics protocol as well
	term := strings.ToLower(os.Getenv("TERM"))
	return strings.Contains(term, "kitty") || strings.Contains(term, "ghostty")
}

// isInlineImageCapable detects terminals that implement the iTerm2 style
// inline images OSC, based on TERM_PROGRAM and TERM.
func isInlineImageCapable() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm", "Warp", "Hyper", "vscode", "VSCode", "Tabby", "Bobcat":
		debugf("TERM_PROGRAM indicates inline-capable: %s", os.Getenv("TERM_PROGRAM"))
		return true
	}
	term := strings.ToLower(os.Getenv("TERM"))
	if strings.Contains(term, "wezterm") || strings.Contains(term, "warp") || strings.Contains(term, "tabby") ||
		strings.Contains(term, "vscode") {
		debugf("TERM suggests inline-capable: %s", term)
		return true
	}
	return os.Getenv("ITERM_SESSION_ID") != ""
}

// hasChafa reports whether the external 'chafa' binary is available in PATH.
func hasChafa() bool {
	if os.Getenv("NO_CHAFA") == "1" {
		return false
	}
	_, err := exec.LookPath("chafa")
	return err == nil
}

func previewDisabled() bool {
	v := strings.ToLower(os.Getenv("NO_PREVIEW"))
	return v == "1" || v == "true"
}

// PreviewSupported returns true if the running environment likely supports a terminal inline preview.
func PreviewSupported() bool {
	if previewDisabled() {
		return false
	}
	return isKitty() || isInlineImageCapable() || hasChafa()
}

// postImageNewlines returns how many lines to advance after an image so the
// prompt shows below it.
func postImageNewlines(requestedRows int) int {
	switch {
	case requestedRows <= 2:
		return 1
	case requestedRows <= 6:
		return 2
	case requestedRows <= 20:
		return 3
	}
	return 4
}

// PreviewSize conveys a target placement for terminal preview backends.
type PreviewSize struct {
	Cols        int // terminal character columns
	Rows        int // terminal character rows
	PixelWidth  int // Cols * cell width
	PixelHeight int // Rows * cell height
}

const (
	cellW   = 8
	cellH   = 16
	minCols = 6
	minRows = 3
	maxCols = 80
	maxRows = 40
)

// fitScale returns the uniform factor that fits w×h inside the preview
// area. It never exceeds 1.
func fitScale(w, h int) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	scaleW := float64(maxCols*cellW) / float64(w)
	scaleH := float64(maxRows*cellH) / float64(h)
	return math.Min(1.0, math.Min(scaleW, scaleH))
}

// computePreviewSize maps an image's pixel dimensions into a character cell
// area, preserving the aspect ratio and clamping to the preview bounds.
func computePreviewSize(w, h int) PreviewSize {
	scale := fitScale(w, h)
	targetW := int(math.Round(float64(w) * scale))
	targetH := int(math.Round(float64(h) * scale))

	cols := min(max(int(math.Round(float64(targetW)/cellW)), minCols), maxCols)
	rows := min(max(int(math.Round(float64(targetH)/cellH)), minRows), maxRows)

	return PreviewSize{
		Cols:        cols,
		Rows:        rows,
		PixelWidth:  cols * cellW,
		PixelHeight: rows * cellH,
	}
}

// downscaleForPreview shrinks img to fit the preview area. Images that
// already fit are returned unchanged.
func downscaleForPreview(img image.Image) image.Image {
	b := img.Bounds()
	scale := fitScale(b.Dx(), b.Dy())
	if scale >= 1 {
		return img
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	debugf("downscaled %dx%d -> %dx%d", b.Dx(), b.Dy(), w, h)
	return dst
}

// PreviewImage scales img to the preview area and shows it in the terminal.
func PreviewImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image")
	}
	if previewDisabled() {
		return nil
	}
	b := img.Bounds()
	small := downscaleForPreview(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	return previewBytes(buf.Bytes(), computePreviewSize(b.Dx(), b.Dy()))
}

// previewBytes sends PNG bytes through the first backend that works.
func previewBytes(blob []byte, size PreviewSize) error {
	if len(blob) == 0 {
		return fmt.Errorf("empty image blob")
	}

	if v := strings.ToLower(os.Getenv("PREVIEW_BACKEND")); v != "" {
		debugf("PREVIEW_BACKEND override: %s", v)
		var err error
		switch v {
		case "kitty":
			err = sendKittyImage(blob, size)
		case "inline", "iterm", "wezterm":
			err = sendInlineImage(blob, size)
		case "chafa":
			err = sendChafaImage(blob, size)
		default:
			err = fmt.Errorf("unknown PREVIEW_BACKEND value: %s", v)
		}
		if err == nil {
			return nil
		}
		debugf("override failed: %v", err)
	}

	if isInlineImageCapable() {
		err := sendInlineImage(blob, size)
		if err == nil {
			return nil
		}
		debugf("inline protocol failed: %v", err)
		if hasChafa() && sendChafaImage(blob, size) == nil {
			return nil
		}
		return fmt.Errorf("inline image preview failed: %w", err)
	}

	if isKitty() {
		err := sendKittyImage(blob, size)
		if err == nil {
			return nil
		}
		debugf("kitty protocol failed: %v", err)
		if hasChafa() && sendChafaImage(blob, size) == nil {
			return nil
		}
		return fmt.Errorf("kitty preview failed: %w", err)
	}

	if hasChafa() {
		return sendChafaImage(blob, size)
	}
	return fmt.Errorf("no preview protocol matched")
}

// sendKittyImage sends PNG bytes using the kitty graphics protocol. The
// base64 payload is split into 4096-byte chunks; the first carries the
// placement (c, r) and q=2 suppresses terminal responses.
func sendKittyImage(data []byte, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	enc := base64.StdEncoding.EncodeToString(data)
	const chunkSize = 4096

	debugf("kitty placement: cols=%d rows=%d, %d bytes", size.Cols, size.Rows, len(data))

	var out strings.Builder
	for pos := 0; pos < len(enc); pos += chunkSize {
		end := min(pos+chunkSize, len(enc))
		more := "0"
		if end < len(enc) {
			more = "1"
		}
		if pos == 0 {
			fmt.Fprintf(&out, "\x1b_Ga=T,f=100,t=d,q=2,c=%d,r=%d,m=%s;%s\x1b\\", size.Cols, size.Rows, more, enc[pos:end])
			continue
		}
		fmt.Fprintf(&out, "\x1b_Gm=%s;%s\x1b\\", more, enc[pos:end])
	}
	out.WriteString(strings.Repeat("\n", postImageNewlines(size.Rows)))
	_, err := os.Stdout.WriteString(out.String())
	return err
}

// sendInlineImage emits the iTerm2-style inline image OSC (1337) sequence.
func sendInlineImage(data []byte, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	enc := base64.StdEncoding.EncodeToString(data)
	meta := fmt.Sprintf("size=%d;", len(data))
	if size.PixelWidth > 0 && size.PixelHeight > 0 {
		meta += fmt.Sprintf("width=%dpx;height=%dpx;", size.PixelWidth, size.PixelHeight)
	}
	seq := "\x1b]1337;File=name=preview.png;inline=1;" + meta + ":" + enc + "\a"
	seq += strings.Repeat("\n", postImageNewlines(0))
	n, err := os.Stdout.WriteString(seq)
	debugf("wrote %d bytes to stdout for inline image (err=%v)", n, err)
	return err
}

// sendChafaImage pipes the image bytes through chafa.
func sendChafaImage(data []byte, size PreviewSize) error {
	if len(data) == 0 {
		return fmt.Errorf("no data")
	}
	if _, err := exec.LookPath("chafa"); err != nil {
		return fmt.Errorf("chafa not found in PATH: %w", err)
	}

	cmd := exec.Command("chafa", "--fill=block", "--symbols=block", "-s", fmt.Sprintf("%dx%d", size.Cols, size.Rows), "-")
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("chafa failed: %w", err)
	}
	fmt.Print(strings.Repeat("\n", postImageNewlines(size.Rows)))
	return nil
}
