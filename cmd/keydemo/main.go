// Command keydemo keys a single image against a colored backdrop and writes
// the result as a PNG with alpha.
package main

import (
	"flag"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/chromakey"
	_ "github.com/gogpu/chromakey/gpu" // enable GPU compositing
)

func main() {
	var (
		input      = flag.String("input", "", "input image (png or jpeg)")
		output     = flag.String("output", "keyed.png", "output PNG file")
		keyColor   = flag.String("key", "#00FF00", "backdrop color")
		preset     = flag.String("preset", "", "parameter preset (default, sharp, soft)")
		similarity = flag.Float64("similarity", 0.4, "chroma-distance threshold")
		smoothness = flag.Float64("smoothness", 0.08, "alpha falloff band width")
		spill      = flag.Float64("spill", 0.15, "spill desaturation band width")
		cpuOnly    = flag.Bool("cpu", false, "force the CPU pixel compositor")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if *verbose {
		chromakey.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	} else {
		chromakey.SetLogger(slog.Default())
	}

	if *input == "" {
		log.Fatal("missing -input")
	}
	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	img, _, err := image.Decode(f)
	_ = f.Close()
	if err != nil {
		log.Fatalf("Failed to decode input: %v", err)
	}

	opts := []chromakey.RendererOption{
		chromakey.WithKeyColor(chromakey.Hex(*keyColor)),
	}
	if *cpuOnly {
		opts = append(opts, chromakey.WithCompositor(chromakey.NewPixelCompositor()))
	}

	r := chromakey.NewRenderer(chromakey.NewImageSource(img), opts...)
	defer r.Close()

	params := chromakey.Parameters{
		Similarity: *similarity,
		Smoothness: *smoothness,
		Spill:      *spill,
	}
	if *preset != "" {
		p, ok := chromakey.Preset(*preset)
		if !ok {
			log.Fatalf("Unknown preset %q (have: %v)", *preset, chromakey.PresetNames())
		}
		params = p
	}
	r.Controller().Set(params)

	if !r.Tick() {
		log.Fatal("Compositing produced no frame")
	}
	if err := r.Frame().SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	b := img.Bounds()
	log.Printf("Keyed %s via %s compositor -> %s (%dx%d)\n",
		*input, r.CompositorName(), *output, b.Dx(), b.Dy())
}
