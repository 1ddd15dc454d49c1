// Command gones is a thin Ebitengine-backed desktop shell around the
// gones NES core: it owns a window, polls keyboard state into controller
// port 1, and blits the core's frame buffer once per tick.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gones/internal/bus"
	"gones/internal/version"
)

const (
	screenWidth  = 256
	screenHeight = 240
)

// game implements ebiten.Game, driving one emulated frame per tick and
// presenting the core's frame buffer scaled to the window.
type game struct {
	bus     *bus.Bus
	pixels  []byte
	image   *ebiten.Image
	scale   int
}

func newGame(b *bus.Bus, scale int) *game {
	return &game{
		bus:    b,
		pixels: make([]byte, screenWidth*screenHeight*4),
		image:  ebiten.NewImage(screenWidth, screenHeight),
		scale:  scale,
	}
}

// player1Keys maps keyboard state onto the NES pad's A/B/Select/Start/Up/
// Down/Left/Right order.
func player1Keys() [8]bool {
	return [8]bool{
		ebiten.IsKeyPressed(ebiten.KeyZ),
		ebiten.IsKeyPressed(ebiten.KeyX),
		ebiten.IsKeyPressed(ebiten.KeyShiftRight),
		ebiten.IsKeyPressed(ebiten.KeyEnter),
		ebiten.IsKeyPressed(ebiten.KeyUp),
		ebiten.IsKeyPressed(ebiten.KeyDown),
		ebiten.IsKeyPressed(ebiten.KeyLeft),
		ebiten.IsKeyPressed(ebiten.KeyRight),
	}
}

// errQuit signals a clean shutdown requested from within Update.
var errQuit = fmt.Errorf("gones: quit requested")

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	g.bus.SetController1State(player1Keys())

	frame, _ := g.bus.EmulateFrame()
	for i, px := range frame {
		g.pixels[i*4+0] = byte(px >> 16)
		g.pixels[i*4+1] = byte(px >> 8)
		g.pixels[i*4+2] = byte(px)
		g.pixels[i*4+3] = 0xFF
	}
	g.image.WritePixels(g.pixels)
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(g.scale), float64(g.scale))
	screen.DrawImage(g.image, opts)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth * g.scale, screenHeight * g.scale
}

func main() {
	romPath := flag.String("rom", "", "path to an iNES ROM file")
	scale := flag.Int("scale", 3, "window scale factor")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		version.PrintBuildInfo()
		return
	}

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: gones -rom <file.nes>")
		os.Exit(2)
	}

	f, err := os.Open(*romPath)
	if err != nil {
		glog.Fatalf("gones: opening %s: %v", *romPath, err)
	}
	defer f.Close()

	b, err := bus.LoadFromReader(f)
	if err != nil {
		glog.Fatalf("gones: loading %s: %v", *romPath, err)
	}

	ebiten.SetWindowSize(screenWidth*(*scale), screenHeight*(*scale))
	ebiten.SetWindowTitle("gones")
	if err := ebiten.RunGame(newGame(b, *scale)); err != nil && err != errQuit {
		glog.Fatalf("gones: %v", err)
	}
}
