// Command keyview shows a live chroma-keyed feed in a window.
//
// A synthetic green-screen animation is keyed every display tick and drawn
// over a checkerboard so the transparency is visible. Keys:
//
//	1/2/3      apply the default / sharp / soft preset
//	q/a        raise / lower similarity
//	w/s        raise / lower smoothness
//	e/d        raise / lower spill
//
// A YAML file of named presets can be supplied with -presets; its entries
// are applied with the number keys 4-9 in name order.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/gogpu/chromakey"
	_ "github.com/gogpu/chromakey/gpu" // enable GPU compositing
)

const (
	viewWidth  = 640
	viewHeight = 480
	paramStep  = 0.01
)

type game struct {
	src      *syntheticSource
	renderer *chromakey.Renderer

	display  *ebiten.Image
	premul   []byte
	backdrop *ebiten.Image

	extraPresets []namedPreset
}

func newGame(presetFile string) (*game, error) {
	src := newSyntheticSource(viewWidth, viewHeight)
	g := &game{
		src:      src,
		renderer: chromakey.NewRenderer(src),
		display:  ebiten.NewImage(viewWidth, viewHeight),
		premul:   make([]byte, viewWidth*viewHeight*4),
		backdrop: checkerboard(viewWidth, viewHeight, 16),
	}
	if presetFile != "" {
		presets, err := loadPresets(presetFile)
		if err != nil {
			return nil, fmt.Errorf("load presets: %w", err)
		}
		g.extraPresets = presets
	}
	return g, nil
}

func (g *game) Update() error {
	g.handleInput()
	g.src.advance()
	if g.renderer.Tick() {
		g.blitFrame()
	}
	return nil
}

func (g *game) handleInput() {
	ctl := g.renderer.Controller()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.Key1):
		ctl.ApplyPreset(chromakey.PresetDefault)
	case inpututil.IsKeyJustPressed(ebiten.Key2):
		ctl.ApplyPreset(chromakey.PresetSharp)
	case inpututil.IsKeyJustPressed(ebiten.Key3):
		ctl.ApplyPreset(chromakey.PresetSoft)
	}
	for i, np := range g.extraPresets {
		if i > 5 {
			break
		}
		if inpututil.IsKeyJustPressed(ebiten.Key(int(ebiten.Key4) + i)) {
			ctl.Set(np.params)
		}
	}

	p := ctl.Get()
	if ebiten.IsKeyPressed(ebiten.KeyQ) {
		p.Similarity += paramStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		p.Similarity -= paramStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		p.Smoothness += paramStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		p.Smoothness -= paramStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyE) {
		p.Spill += paramStep
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		p.Spill -= paramStep
	}
	if p != ctl.Get() {
		ctl.Set(p)
	}
}

// blitFrame converts the straight-alpha composited frame to the
// premultiplied bytes ebiten textures expect and uploads it.
func (g *game) blitFrame() {
	frame := g.renderer.Frame()
	if frame.Width() != viewWidth || frame.Height() != viewHeight {
		return
	}
	src := frame.Data()
	for i := 0; i < len(src); i += 4 {
		a := uint32(src[i+3])
		g.premul[i+0] = byte(uint32(src[i+0]) * a / 255)
		g.premul[i+1] = byte(uint32(src[i+1]) * a / 255)
		g.premul[i+2] = byte(uint32(src[i+2]) * a / 255)
		g.premul[i+3] = byte(a)
	}
	g.display.WritePixels(g.premul)
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.backdrop, nil)
	screen.DrawImage(g.display, nil)

	p := g.renderer.Controller().Get()
	status := fmt.Sprintf(
		"compositor: %s\nsimilarity: %.2f (q/a)\nsmoothness: %.2f (w/s)\nspill: %.2f (e/d)\npresets: 1/2/3",
		g.renderer.CompositorName(), p.Similarity, p.Smoothness, p.Spill)
	if g.renderer.SourceNeverReady() {
		status += "\nSOURCE NEVER BECAME READY"
	}
	ebitenutil.DebugPrint(screen, status)
}

func (g *game) Layout(_, _ int) (int, int) {
	return viewWidth, viewHeight
}

// checkerboard builds the classic transparency backdrop.
func checkerboard(w, h, cell int) *ebiten.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(200)
			if (x/cell+y/cell)%2 == 0 {
				v = 255
			}
			i := (y*w + x) * 4
			img.Pix[i+0] = v
			img.Pix[i+1] = v
			img.Pix[i+2] = v
			img.Pix[i+3] = 255
		}
	}
	return ebiten.NewImageFromImage(img)
}

func main() {
	var (
		presetFile = flag.String("presets", "", "YAML file of named parameter presets")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	chromakey.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	g, err := newGame(*presetFile)
	if err != nil {
		log.Fatal(err)
	}
	defer g.renderer.Close()

	ebiten.SetWindowSize(viewWidth, viewHeight)
	ebiten.SetWindowTitle("chromakey - live keying demo")
	ebiten.SetVsyncEnabled(true)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}

// namedPreset keeps YAML presets in a deterministic key order.
type namedPreset struct {
	name   string
	params chromakey.Parameters
}

func sortPresets(m map[string]chromakey.Parameters) []namedPreset {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]namedPreset, 0, len(names))
	for _, name := range names {
		out = append(out, namedPreset{name: name, params: m[name]})
	}
	return out
}
