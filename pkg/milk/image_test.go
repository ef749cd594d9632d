package milk

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func loadedImage(t *testing.T, w, h int) (*Image, *RGB) {
	t.Helper()
	src := makeNoiseRGB(w, h)
	m := New()
	if err := m.Load(encodePNG(t, src.NRGBA())); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return m, src
}

func TestRoundTripNoopPipeline(t *testing.T) {
	m, src := loadedImage(t, 17, 13)
	if !bytes.Equal(m.Source().Pix, src.Pix) {
		t.Fatal("decoded buffer differs from encoded pixels")
	}
	cfg := m.Config()
	cfg.Enabled = false
	cfg.Comp = 0
	if err := m.Process(); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if !bytes.Equal(m.Processed().Pix, src.Pix) {
		t.Fatal("no-op pipeline changed the image")
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	m := New()
	err := m.Load([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if m.State() != StateEmpty {
		t.Fatalf("state = %v, want empty", m.State())
	}
	if err := m.Load(nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("empty input: expected ErrDecode, got %v", err)
	}
}

func TestLoadRejectsOtherFormats(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, pal, nil); err != nil {
		t.Fatalf("gif encode failed: %v", err)
	}
	err := New().Load(buf.Bytes())
	var de *DecodeError
	if !errors.As(err, &de) || de.Format != "gif" {
		t.Fatalf("expected gif DecodeError, got %v", err)
	}
}

func TestLoadJPEG(t *testing.T) {
	var buf bytes.Buffer
	src := makeNoiseRGB(16, 16)
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	m := New()
	if err := m.Load(buf.Bytes()); err != nil {
		t.Fatalf("Load jpeg failed: %v", err)
	}
	if s := m.Source(); s.Width != 16 || s.Height != 16 || len(s.Pix) != 16*16*3 {
		t.Fatalf("unexpected decoded size %dx%d len %d", s.Width, s.Height, len(s.Pix))
	}
}

func TestLoadFailureKeepsPreviousImage(t *testing.T) {
	m, _ := loadedImage(t, 5, 5)
	if err := m.Process(); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if err := m.Load([]byte{0x89, 'P', 'N', 'G'}); err == nil {
		t.Fatal("expected truncated png to fail")
	}
	if m.State() != StateProcessed {
		t.Fatalf("state = %v, want processed", m.State())
	}
}

func TestProcessRequiresLoad(t *testing.T) {
	m := New()
	if err := m.Process(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if err := m.Encode(&bytes.Buffer{}, "png"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded from Encode, got %v", err)
	}
}

func TestStateTransitions(t *testing.T) {
	m := New()
	if m.State() != StateEmpty {
		t.Fatalf("new image state = %v", m.State())
	}
	data := encodePNG(t, makeNoiseRGB(6, 6).NRGBA())
	if err := m.Load(data); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateLoaded {
		t.Fatalf("after load state = %v", m.State())
	}
	if err := m.Encode(&bytes.Buffer{}, "png"); !errors.Is(err, ErrNotProcessed) {
		t.Fatalf("expected ErrNotProcessed, got %v", err)
	}
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateProcessed {
		t.Fatalf("after process state = %v", m.State())
	}
	if err := m.Process(); err != nil || m.State() != StateProcessed {
		t.Fatalf("reprocess: err=%v state=%v", err, m.State())
	}
	if err := m.Load(data); err != nil {
		t.Fatal(err)
	}
	if m.State() != StateLoaded || m.Processed() != nil {
		t.Fatal("load must discard the processed output")
	}
}

func TestProcessLeavesSourceIntact(t *testing.T) {
	m, src := loadedImage(t, 20, 11)
	cfg := m.Config()
	cfg.Comp = 75
	cfg.Pointism = true
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(m.Source().Pix, src.Pix) {
		t.Fatal("source buffer was modified")
	}
	if bytes.Equal(m.Processed().Pix, src.Pix) {
		t.Fatal("expected processed output to differ from source")
	}
}

func TestProcessIdempotent(t *testing.T) {
	m, _ := loadedImage(t, 30, 25)
	cfg := m.Config()
	cfg.Comp = 40
	cfg.Pointism = true
	cfg.Alt = true
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	first := m.Processed().Clone()
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Pix, m.Processed().Pix) {
		t.Fatal("reprocessing with the same config differs")
	}
	if os.Getenv("MILK_SAVE_TEST_OUTPUT") == "1" {
		f, _ := os.Create("process_test_out.png")
		defer f.Close()
		_ = m.Encode(f, "png")
	}
}

func TestProcessMatchesApply(t *testing.T) {
	m, src := loadedImage(t, 19, 7)
	cfg := m.Config()
	cfg.Comp = 90
	cfg.Eff = 1
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	want := src.Clone()
	Apply(want, cfg)
	if !bytes.Equal(want.Pix, m.Processed().Pix) {
		t.Fatal("Process differs from Apply on a clone")
	}
}

func TestEncodeFormats(t *testing.T) {
	m, _ := loadedImage(t, 9, 9)
	if err := m.Process(); err != nil {
		t.Fatal(err)
	}
	for _, format := range []string{"png", "jpeg", "jpg", ".png", ""} {
		var buf bytes.Buffer
		if err := m.Encode(&buf, format); err != nil {
			t.Fatalf("Encode(%q) failed: %v", format, err)
		}
		_, got, err := image.Decode(&buf)
		if err != nil {
			t.Fatalf("Encode(%q) produced undecodable output: %v", format, err)
		}
		want := "png"
		if format == "jpeg" || format == "jpg" {
			want = "jpeg"
		}
		if got != want {
			t.Fatalf("Encode(%q) wrote %s, want %s", format, got, want)
		}
	}
}

func TestLoadImageAdoptsDecoded(t *testing.T) {
	m := New()
	if err := m.LoadImage(nil); !errors.Is(err, ErrDecode) {
		t.Fatalf("nil image: expected ErrDecode, got %v", err)
	}
	if err := m.LoadImage((*RGB)(nil)); !errors.Is(err, ErrDecode) {
		t.Fatalf("typed nil image: expected ErrDecode, got %v", err)
	}
	if m.State() != StateEmpty {
		t.Fatalf("state after nil load = %s", m.State())
	}
	src := makeNoiseRGB(4, 3)
	if err := m.LoadImage(src); err != nil {
		t.Fatal(err)
	}
	if m.Source() == src || !bytes.Equal(m.Source().Pix, src.Pix) {
		t.Fatal("LoadImage should hold an equal copy")
	}
}

func TestLoadSixteenBitTransparentPNG(t *testing.T) {
	src := image.NewNRGBA64(image.Rect(0, 0, 2, 1))
	src.SetNRGBA64(0, 0, color.NRGBA64{0xffff, 0x8000, 0x1000, 0})
	src.SetNRGBA64(1, 0, color.NRGBA64{0x2000, 0x4000, 0x6000, 0x8000})
	m := New()
	if err := m.Load(encodePNG(t, src)); err != nil {
		t.Fatal(err)
	}
	want := []uint8{255, 128, 16, 32, 64, 96}
	if got := m.Source().Pix; !bytes.Equal(got, want) {
		t.Fatalf("pix = %v, want %v", got, want)
	}
}

func TestStateString(t *testing.T) {
	if StateEmpty.String() != "empty" || StateLoaded.String() != "loaded" || StateProcessed.String() != "processed" {
		t.Fatal("unexpected state names")
	}
}
