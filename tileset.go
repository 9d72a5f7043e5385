package umbrella

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/phanxgames/umbrella/collision"
)

// Frame is one step of a tile animation.
type Frame struct {
	Tile     int // catalog index
	Duration int // milliseconds
}

// Tile is a catalog entry: a texture, its collision box, an optional
// animation and an optional script.
type Tile struct {
	Texture       TextureHandle
	Width, Height int
	Hitbox        collision.Box
	Animation     []Frame
	Script        *Script
}

// FrameAt returns the animation frame index shown after elapsed seconds.
// Every frame lasts as long as the first one. ok is false for tiles without
// an animation.
func (t *Tile) FrameAt(elapsed float64) (idx int, ok bool) {
	if len(t.Animation) == 0 {
		return 0, false
	}
	step := float64(t.Animation[0].Duration) / 1000
	if step <= 0 || elapsed <= 0 {
		return 0, true
	}
	n := math.Floor(elapsed / step)
	return int(math.Mod(n, float64(len(t.Animation)))), true
}

// Tiles is the global tile catalog. Every tileset loaded into a session is
// flattened into one contiguous table.
type Tiles struct {
	graphics *Graphics
	scripts  *Scripts
	mapRoot  string
	log      *slog.Logger

	tiles   []*Tile
	offsets map[string]int
}

// TilesOption configures a tile catalog.
type TilesOption func(*Tiles)

// WithMapRoot sets the directory palette properties are resolved under.
func WithMapRoot(root string) TilesOption {
	return func(c *Tiles) { c.mapRoot = root }
}

// WithTilesLogger sets the catalog's logger.
func WithTilesLogger(l *slog.Logger) TilesOption {
	return func(c *Tiles) { c.log = l }
}

// NewTiles creates an empty catalog loading textures through g and
// compiling tile scripts in s. s may be nil when no tileset uses scripts.
func NewTiles(g *Graphics, s *Scripts, opts ...TilesOption) *Tiles {
	c := &Tiles{
		graphics: g,
		scripts:  s,
		mapRoot:  "assets/tiled",
		log:      slog.Default(),
		offsets:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of catalog entries.
func (c *Tiles) Len() int { return len(c.tiles) }

// Tile returns catalog entry i.
func (c *Tiles) Tile(i int) *Tile { return c.tiles[i] }

// Valid reports whether i is a catalog index.
func (c *Tiles) Valid(i int) bool { return i >= 0 && i < len(c.tiles) }

// Resolve returns the tile drawn for catalog entry i after elapsed seconds,
// following its animation if it has one.
func (c *Tiles) Resolve(i int, elapsed float64) int {
	t := c.tiles[i]
	if f, ok := t.FrameAt(elapsed); ok {
		return t.Animation[f].Tile
	}
	return i
}

// Load adds a tileset to the catalog and returns its gid to catalog index
// mapping. A tileset whose name was loaded before is not read again: its
// mapping is rebuilt from the stored offset and tile positions.
func (c *Tiles) Load(ts *TilesetDoc) (map[uint32]int, error) {
	if offset, ok := c.offsets[ts.Name]; ok {
		return positional(ts, offset), nil
	}

	palette := ts.Properties.Get("palette")
	if palette == "" {
		return nil, fmt.Errorf("tileset %s: %w", ts.Name, ErrNoPalette)
	}

	offset := len(c.tiles)
	mapping := positional(ts, offset)
	tiles := make([]*Tile, 0, len(ts.Tiles))
	for _, td := range ts.Tiles {
		t, err := c.loadTile(ts, td, palette)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, t)
	}

	// Frames may point at tiles later in the set, so they are patched once
	// the whole set is known.
	for i, td := range ts.Tiles {
		if len(td.Animation) == 0 {
			continue
		}
		frames := make([]Frame, 0, len(td.Animation))
		for _, f := range td.Animation {
			idx, ok := mapping[f.TileID+ts.FirstGID]
			if !ok {
				return nil, fmt.Errorf("tileset %s tile %d: %w: %d", ts.Name, td.ID, ErrBadAnimation, f.TileID)
			}
			frames = append(frames, Frame{Tile: idx, Duration: f.Duration})
		}
		tiles[i].Animation = frames
	}

	c.offsets[ts.Name] = offset
	c.tiles = append(c.tiles, tiles...)
	c.log.Debug("tileset loaded", "name", ts.Name, "tiles", len(tiles), "offset", offset)
	return mapping, nil
}

func (c *Tiles) loadTile(ts *TilesetDoc, td TileDoc, palette string) (*Tile, error) {
	if td.Image == "" {
		return nil, fmt.Errorf("tileset %s tile %d: %w", ts.Name, td.ID, ErrMissingImage)
	}
	if p := td.Properties.Get("palette"); p != "" {
		palette = p
	}
	palettePath, err := joinAsset(c.mapRoot, palette)
	if err != nil {
		return nil, fmt.Errorf("tileset %s tile %d: %w", ts.Name, td.ID, err)
	}
	row := td.Properties.Index("palette_id", 0)

	th, err := c.graphics.LoadTexture(td.Image, palettePath, row)
	if err != nil {
		return nil, fmt.Errorf("tileset %s tile %d: %w", ts.Name, td.ID, err)
	}
	tex := c.graphics.Texture(th)
	t := &Tile{
		Texture: th,
		Width:   tex.Width,
		Height:  tex.Height,
		Hitbox:  collision.Box{Width: float64(tex.Width), Height: float64(tex.Height)},
	}

	if name := td.Properties.Get("script"); name != "" {
		if c.scripts == nil {
			return nil, fmt.Errorf("tileset %s tile %d: script %s: no script environment", ts.Name, td.ID, name)
		}
		if t.Script, err = c.scripts.Compile(name); err != nil {
			return nil, fmt.Errorf("tileset %s tile %d: %w", ts.Name, td.ID, err)
		}
	}
	return t, nil
}

// positional maps each tile's gid to offset plus its position in the set.
func positional(ts *TilesetDoc, offset int) map[uint32]int {
	m := make(map[uint32]int, len(ts.Tiles))
	for i, td := range ts.Tiles {
		m[td.ID+ts.FirstGID] = offset + i
	}
	return m
}
