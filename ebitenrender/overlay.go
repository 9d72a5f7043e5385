package ebitenrender

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/phanxgames/umbrella"
)

// overlayInterval is the number of seconds between overlay refreshes.
const overlayInterval = 0.5

// Overlay displays FPS, TPS and the engine's frame stats in the top-left
// corner. The text is refreshed every ~0.5 seconds.
type Overlay struct {
	img     *ebiten.Image
	elapsed float64
	text    string
}

// NewOverlay creates an Overlay.
func NewOverlay() *Overlay {
	// 160x80 fits five lines of debug font.
	return &Overlay{img: ebiten.NewImage(160, 80), elapsed: overlayInterval}
}

// Update refreshes the overlay text once per interval.
func (o *Overlay) Update(dt float64, s umbrella.FrameStats) {
	o.elapsed += dt
	if o.elapsed < overlayInterval {
		return
	}
	o.elapsed = 0
	o.text = overlayText(ebiten.ActualFPS(), ebiten.ActualTPS(), s)

	o.img.Clear()
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, o.text)
}

// Draw composites the overlay onto dst.
func (o *Overlay) Draw(dst *ebiten.Image) {
	dst.DrawImage(o.img, nil)
}

func overlayText(fps, tps float64, s umbrella.FrameStats) string {
	return fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nscripts: %d %v\nmove: %v\ndraws: %d",
		fps, tps, s.Scripts, s.ScriptTime, s.MoveTime, s.DrawCalls)
}
