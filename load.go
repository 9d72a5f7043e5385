package umbrella

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// LoadEngine parses the map named by cfg and builds a ready engine. Asset
// paths resolve under cfg.Root.
func LoadEngine(cfg Config, factory Factory, log *slog.Logger) (*Engine, error) {
	start := time.Now()
	doc, err := LoadMapFile(filepath.Join(cfg.Root, cfg.Map))
	if err != nil {
		return nil, err
	}
	e, err := NewEngineFromDocument(cfg, doc, os.DirFS(cfg.Root), factory, log)
	if err != nil {
		return nil, err
	}
	log.Info("loaded", "map", cfg.Map, "duration", time.Since(start),
		"tiles", e.Tiles.Len(), "textures", e.Graphics.TextureCount(), "objects", len(e.Map.Objects()))
	return e, nil
}

// NewEngineFromDocument builds an engine over an already parsed map. Images,
// palettes and scripts are read from fsys.
func NewEngineFromDocument(cfg Config, doc *MapDocument, fsys fs.FS, factory Factory, log *slog.Logger) (*Engine, error) {
	g := NewGraphics(factory, fsys, WithImagesRoot(cfg.ImagesRoot), WithLogger(log))
	scripts := NewScripts(fsys, WithScriptsRoot(cfg.Scripts()), WithScriptLogger(log))
	scripts.SetGravity(cfg.Gravity)
	tiles := NewTiles(g, scripts, WithMapRoot(cfg.MapRoot), WithTilesLogger(log))

	m, err := LoadMap(doc, tiles, scripts, WithCollisionMargin(cfg.CollisionMargin), WithMapLogger(log))
	if err != nil {
		scripts.Close()
		return nil, err
	}
	e := NewEngine(g, tiles, scripts, m,
		WithEngineLogger(log),
		WithReferenceSize(cfg.RenderWidth, cfg.RenderHeight))
	e.SetDebugMode(cfg.Debug)
	return e, nil
}

// Close releases the engine's script environment.
func (e *Engine) Close() {
	if e.Scripts != nil {
		e.Scripts.Close()
	}
}
