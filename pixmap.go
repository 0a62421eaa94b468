package chromakey

import (
	"image"
	"image/color"
	"image/png"
	"os"
)

// Pixmap represents a rectangular pixel buffer in straight-alpha RGBA
// format, 4 bytes per pixel, rows stored top-down. It is both the frame
// buffer the compositors read source pixels into and the composited frame
// they write.
type Pixmap struct {
	width  int
	height int
	data   []uint8
}

// NewPixmap creates a new pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the pixmap.
func (p *Pixmap) Width() int {
	return p.width
}

// Height returns the height of the pixmap.
func (p *Pixmap) Height() int {
	return p.height
}

// Data returns the raw pixel data (RGBA format).
func (p *Pixmap) Data() []uint8 {
	return p.data
}

// Resize reallocates the buffer for the given dimensions. The backing
// array is reused when it is already large enough, so resizing to the same
// size every tick allocates nothing. Pixel contents are undefined after a
// size change.
func (p *Pixmap) Resize(width, height int) {
	n := width * height * 4
	if cap(p.data) < n {
		p.data = make([]uint8, n)
	}
	p.data = p.data[:n]
	p.width = width
	p.height = height
}

// SetPixel sets the color of a single pixel.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	p.data[i+0] = uint8(clamp255(c.R * 255))
	p.data[i+1] = uint8(clamp255(c.G * 255))
	p.data[i+2] = uint8(clamp255(c.B * 255))
	p.data[i+3] = uint8(clamp255(c.A * 255))
}

// GetPixel returns the color of a single pixel.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	return RGBA{
		R: float64(p.data[i+0]) / 255,
		G: float64(p.data[i+1]) / 255,
		B: float64(p.data[i+2]) / 255,
		A: float64(p.data[i+3]) / 255,
	}
}

// Alpha returns the alpha byte of a single pixel. Out-of-bounds reads
// return 0.
func (p *Pixmap) Alpha(x, y int) uint8 {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return 0
	}
	return p.data[(y*p.width+x)*4+3]
}

// Fill sets the entire pixmap to a single color.
func (p *Pixmap) Fill(c RGBA) {
	r := uint8(clamp255(c.R * 255))
	g := uint8(clamp255(c.G * 255))
	b := uint8(clamp255(c.B * 255))
	a := uint8(clamp255(c.A * 255))

	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = a
	}
}

// FlipRows reverses the vertical order of rows in place, converting between
// bottom-up and top-down storage.
func (p *Pixmap) FlipRows() {
	stride := p.width * 4
	tmp := make([]uint8, stride)
	for y := 0; y < p.height/2; y++ {
		top := p.data[y*stride : (y+1)*stride]
		bot := p.data[(p.height-1-y)*stride : (p.height-y)*stride]
		copy(tmp, top)
		copy(top, bot)
		copy(bot, tmp)
	}
}

// ToImage converts the pixmap to an image.NRGBA (straight alpha).
func (p *Pixmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pm := NewPixmap(width, height)

	if src, ok := img.(*image.NRGBA); ok && src.Stride == width*4 {
		copy(pm.data, src.Pix)
		return pm
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			pm.SetPixel(x, y, FromColor(c))
		}
	}

	return pm
}

// SavePNG saves the pixmap to a PNG file, preserving alpha.
func (p *Pixmap) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	return png.Encode(f, p.ToImage())
}

// At implements the image.Image interface.
func (p *Pixmap) At(x, y int) color.Color {
	return p.GetPixel(x, y).Color()
}

// Bounds implements the image.Image interface.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements the image.Image interface.
func (p *Pixmap) ColorModel() color.Model {
	return color.NRGBAModel
}
