package ebitenrender

import (
	"errors"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/umbrella"
)

// maxFrameDelta caps the simulated time of one tick so a stalled window does
// not tunnel objects through walls on resume.
const maxFrameDelta = 0.25

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title         string
	Width, Height int
	// RenderWidth and RenderHeight size the logical screen. Zero means
	// umbrella.DefaultReferenceSize.
	RenderWidth, RenderHeight int
	TPS                       int
	// ShowStats draws the stats overlay.
	ShowStats bool
	// ScreenshotDir receives F12 screenshots. Empty disables them.
	ScreenshotDir string
	// ExitWhenDone quits once an attached TestRunner finishes.
	ExitWhenDone bool
	// AfterUpdate runs after every successful engine update.
	AfterUpdate func()
	Logger      *slog.Logger
}

// RunConfigFrom derives a RunConfig from the engine config.
func RunConfigFrom(cfg umbrella.Config) RunConfig {
	return RunConfig{
		Title:         cfg.Title,
		Width:         cfg.WindowWidth,
		Height:        cfg.WindowHeight,
		RenderWidth:   cfg.RenderWidth,
		RenderHeight:  cfg.RenderHeight,
		TPS:           cfg.TPS,
		ShowStats:     cfg.Debug,
		ScreenshotDir: "screenshots",
	}
}

// errDone ends the game loop without an error.
var errDone = errors.New("ebitenrender: done")

// Run opens a window and drives e until the window closes or an update
// fails.
func Run(e *umbrella.Engine, cfg RunConfig) error {
	if cfg.RenderWidth <= 0 {
		cfg.RenderWidth = umbrella.DefaultReferenceSize
	}
	if cfg.RenderHeight <= 0 {
		cfg.RenderHeight = umbrella.DefaultReferenceSize
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 768, 768
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}

	g := newGame(e, cfg)
	err := ebiten.RunGame(g)
	if errors.Is(err, errDone) {
		return nil
	}
	return err
}

// game adapts an Engine to ebiten.Game.
type game struct {
	engine   *umbrella.Engine
	cfg      RunConfig
	renderer *Renderer
	keyboard *Keyboard
	overlay  *Overlay
	last     time.Time
	dt       float64
	shoot    bool
}

func newGame(e *umbrella.Engine, cfg RunConfig) *game {
	g := &game{
		engine:   e,
		cfg:      cfg,
		renderer: NewRenderer(),
		keyboard: NewKeyboard(),
	}
	if cfg.ShowStats {
		g.overlay = NewOverlay()
	}
	return g
}

// Update implements ebiten.Game.
func (g *game) Update() error {
	now := time.Now()
	if !g.last.IsZero() {
		g.dt = min(now.Sub(g.last).Seconds(), maxFrameDelta)
	}
	g.last = now

	runner := g.engine.TestRunner()
	if runner == nil {
		g.engine.SetControls(g.keyboard.Poll())
	}
	if err := g.engine.Update(g.dt); err != nil {
		return err
	}
	if g.cfg.AfterUpdate != nil {
		g.cfg.AfterUpdate()
	}
	if g.overlay != nil {
		g.overlay.Update(g.dt, g.engine.Stats())
	}
	if g.cfg.ScreenshotDir != "" && inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		g.shoot = true
	}
	if g.cfg.ExitWhenDone && runner != nil && runner.Done() {
		return errDone
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *game) Draw(screen *ebiten.Image) {
	g.renderer.Begin(screen)
	g.engine.Draw(g.renderer)
	if g.shoot {
		g.shoot = false
		path, err := Screenshot(screen, g.cfg.ScreenshotDir, g.cfg.Title)
		if err != nil {
			g.cfg.Logger.Error("screenshot failed", "err", err)
		} else {
			g.cfg.Logger.Info("screenshot saved", "path", path)
		}
	}
	if g.overlay != nil {
		g.overlay.Draw(screen)
	}
}

// Layout implements ebiten.Game.
func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.RenderWidth, g.cfg.RenderHeight
}
