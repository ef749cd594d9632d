package cli

import (
	"bufio"
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/Fepozopo/milk/pkg/milk"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("  o  \npath with spaces.png\nlast"))
	for _, want := range []string{"o", "path with spaces.png", "last"} {
		got, err := readLine(r)
		if err != nil || got != want {
			t.Fatalf("readLine = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := readLine(r); err == nil {
		t.Fatal("expected EOF")
	}
}

func TestOutputFormat(t *testing.T) {
	cases := map[string]string{"a.png": "png", "b.JPG": "jpeg", "c.jpeg": "jpeg"}
	for path, want := range cases {
		if got, err := outputFormat(path); err != nil || got != want {
			t.Errorf("outputFormat(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := outputFormat("d.gif"); err == nil {
		t.Fatal("gif output should be rejected")
	}
}

func TestDefaultOutputName(t *testing.T) {
	re := regexp.MustCompile(`^filt_[0-9a-f]{16}\.png$`)
	if name := DefaultOutputName(); !re.MatchString(name) {
		t.Fatalf("unexpected default name %q", name)
	}
}

func TestSaveAndLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, noiseImage(24, 18))

	m := milk.New()
	if _, err := SaveImage(filepath.Join(dir, "early.png"), m); !errors.Is(err, milk.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := LoadImageFile(m, in); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveImage(filepath.Join(dir, "early.png"), m); !errors.Is(err, milk.ErrNotProcessed) {
		t.Fatalf("expected ErrNotProcessed, got %v", err)
	}
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}

	saved, err := SaveImage(filepath.Join(dir, "out"), m)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(saved) != ".png" {
		t.Fatalf("missing extension should default to png, got %s", saved)
	}
	back := milk.New()
	if err := LoadImageFile(back, saved); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(back.Source().Pix, m.Processed().Pix) {
		t.Fatal("saved PNG does not round trip")
	}

	if _, err := SaveImage(filepath.Join(dir, "out.jpg"), m); err != nil {
		t.Fatalf("jpeg save failed: %v", err)
	}
	if _, err := SaveImage(filepath.Join(dir, "out.bmp"), m); err == nil {
		t.Fatal("bmp output should be rejected")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.bmp")); !os.IsNotExist(err) {
		t.Fatal("rejected save must not create a file")
	}
}

func TestLoadImageFileErrors(t *testing.T) {
	dir := t.TempDir()
	m := milk.New()
	if err := LoadImageFile(m, filepath.Join(dir, "missing.png")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadImageFile(m, bad); !errors.Is(err, milk.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestGetImageInfo(t *testing.T) {
	m := milk.New()
	if _, err := GetImageInfo(m); !errors.Is(err, milk.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := m.LoadImage(noiseImage(7, 5)); err != nil {
		t.Fatal(err)
	}
	info, err := GetImageInfo(m)
	if err != nil || !strings.HasPrefix(info, "Width: 7, Height: 5, State: loaded") {
		t.Fatalf("GetImageInfo = %q, %v", info, err)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	src := noiseImage(40, 30)
	writePNG(t, in, src)
	out := filepath.Join(dir, "out.png")

	captureStdout(t, func() {
		if err := RunBatch([]string{in, out, "comp=50", "pointism=on", "s6=0"}); err != nil {
			t.Errorf("RunBatch failed: %v", err)
		}
	})

	got := milk.New()
	if err := LoadImageFile(got, out); err != nil {
		t.Fatal(err)
	}
	want := milk.FromImage(src)
	cfg := milk.DefaultConfig()
	cfg.Comp = 50
	cfg.Pointism = true
	cfg.Overrides[5] = milk.Pin(0)
	milk.Apply(want, &cfg)
	if !bytes.Equal(got.Source().Pix, want.Pix) {
		t.Fatal("batch output differs from the pipeline result")
	}
}

func TestRunBatchErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writePNG(t, in, noiseImage(4, 4))
	cases := [][]string{
		{in},
		{in, filepath.Join(dir, "o.png"), "comp"},
		{in, filepath.Join(dir, "o.png"), "comp=500"},
		{in, filepath.Join(dir, "o.png"), "colour=1"},
		{filepath.Join(dir, "nope.png"), filepath.Join(dir, "o.png")},
		{in, filepath.Join(dir, "o.tiff")},
	}
	for _, args := range cases {
		if err := RunBatch(args); err == nil {
			t.Errorf("RunBatch(%v) succeeded, want error", args)
		}
	}
}
