package chromakey

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return png.Decode(f)
}

func TestPixmap_ResizeReusesBacking(t *testing.T) {
	pm := NewPixmap(8, 8)
	base := &pm.Data()[0]

	pm.Resize(4, 4)
	if got := len(pm.Data()); got != 4*4*4 {
		t.Errorf("data length = %d, want %d", got, 4*4*4)
	}
	if &pm.Data()[0] != base {
		t.Error("shrinking should reuse the backing array")
	}

	pm.Resize(8, 8)
	if &pm.Data()[0] != base {
		t.Error("resizing back within capacity should reuse the backing array")
	}

	pm.Resize(16, 16)
	if got := len(pm.Data()); got != 16*16*4 {
		t.Errorf("data length = %d, want %d", got, 16*16*4)
	}
}

func TestPixmap_SetGetRoundTrip(t *testing.T) {
	pm := NewPixmap(2, 2)
	in := RGBA{R: 0.2, G: 0.4, B: 0.6, A: 0.8}
	pm.SetPixel(1, 1, in)
	out := pm.GetPixel(1, 1)

	// Byte quantization allows up to 1/255 per channel.
	const tol = 1.0/255 + 1e-9
	if absDiff(out.R, in.R) > tol || absDiff(out.G, in.G) > tol ||
		absDiff(out.B, in.B) > tol || absDiff(out.A, in.A) > tol {
		t.Errorf("round trip %v -> %v", in, out)
	}
}

func TestPixmap_OutOfBounds(t *testing.T) {
	pm := NewPixmap(2, 2)
	pm.Fill(White)

	pm.SetPixel(-1, 0, Red)
	pm.SetPixel(0, 2, Red)
	if pm.GetPixel(-1, 0) != Transparent {
		t.Error("out-of-bounds read should return Transparent")
	}
	if pm.Alpha(5, 5) != 0 {
		t.Error("out-of-bounds alpha should be 0")
	}
	if pm.GetPixel(0, 0) != White {
		t.Error("out-of-bounds writes must not touch real pixels")
	}
}

func TestPixmap_FlipRows(t *testing.T) {
	pm := NewPixmap(2, 3)
	rows := []RGBA{Red, Green, Blue}
	for y, c := range rows {
		pm.SetPixel(0, y, c)
		pm.SetPixel(1, y, c)
	}

	pm.FlipRows()
	for y := range rows {
		want := rows[len(rows)-1-y]
		if pm.GetPixel(0, y) != want {
			t.Errorf("row %d = %v, want %v", y, pm.GetPixel(0, y), want)
		}
	}

	pm.FlipRows()
	for y, want := range rows {
		if pm.GetPixel(0, y) != want {
			t.Errorf("double flip row %d = %v, want %v", y, pm.GetPixel(0, y), want)
		}
	}
}

func TestFromImage_NRGBAFastPath(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 11)
	}

	pm := FromImage(img)
	if pm.Width() != 3 || pm.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", pm.Width(), pm.Height())
	}
	for i, b := range pm.Data() {
		if b != img.Pix[i] {
			t.Fatalf("byte %d = %d, want %d", i, b, img.Pix[i])
		}
	}
}

func TestFromImage_GenericPath(t *testing.T) {
	// An RGBA (premultiplied) image takes the generic At() path.
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetRGBA(1, 1, color.RGBA{R: 0, G: 0, B: 255, A: 255})

	pm := FromImage(img)
	if pm.GetPixel(0, 0) != Red {
		t.Errorf("pixel (0,0) = %v, want Red", pm.GetPixel(0, 0))
	}
	if pm.GetPixel(1, 1) != Blue {
		t.Errorf("pixel (1,1) = %v, want Blue", pm.GetPixel(1, 1))
	}
}

func TestPixmap_ImageInterface(t *testing.T) {
	pm := NewPixmap(2, 2)
	pm.SetPixel(0, 0, RGBA{R: 1, G: 0, B: 0, A: 0.5})

	var img image.Image = pm
	if img.Bounds() != image.Rect(0, 0, 2, 2) {
		t.Errorf("Bounds() = %v", img.Bounds())
	}
	if img.ColorModel() != color.NRGBAModel {
		t.Error("ColorModel() should be NRGBA (straight alpha)")
	}
	c := img.At(0, 0).(color.NRGBA)
	if c.R != 255 || c.A != 127 {
		t.Errorf("At(0,0) = %v, want straight-alpha red at half opacity", c)
	}
}

func TestPixmap_SavePNG(t *testing.T) {
	pm := NewPixmap(4, 4)
	pm.Fill(RGBA{R: 0, G: 1, B: 0, A: 0.5})

	path := filepath.Join(t.TempDir(), "out.png")
	if err := pm.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	img, err := loadPNG(path)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := FromImage(img)
	if got.Alpha(0, 0) != 127 {
		t.Errorf("alpha after round trip = %d, want 127", got.Alpha(0, 0))
	}
}
