package umbrella

import (
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/phanxgames/umbrella/collision"
)

// DefaultCollisionMargin is the broad phase margin of a map's world.
const DefaultCollisionMargin = 0.02

// Collision groups: map shapes only see objects and objects only see the map.
var (
	MapGroups    = collision.Groups{Membership: collision.Group(1), Whitelist: collision.Group(2)}
	ObjectGroups = collision.Groups{Membership: collision.Group(2), Whitelist: collision.Group(1)}
)

// orientations decodes the three flag bits of a cell, indexed by
// (flipH << 2) | (flipV << 1) | flipD.
var orientations = [8]struct {
	rot  Rotation
	flip bool
}{
	{0, false}, // 000
	{3, true},  // 001
	{2, true},  // 010
	{3, false}, // 011
	{0, true},  // 100
	{1, false}, // 101
	{2, false}, // 110
	{1, true},  // 111
}

// DecodeOrientation maps the three flag bits of a cell (H, V, D from high to
// low) to a rotation and a horizontal flip.
func DecodeOrientation(bits uint32) (Rotation, bool) {
	o := orientations[bits&7]
	return o.rot, o.flip
}

// MapTile is a placed tile.
type MapTile struct {
	Tile     int
	Rotation Rotation
	Flipped  bool
}

// Cell is a placed tile with its grid coordinates.
type Cell struct {
	X, Y int
	MapTile
}

// Wall indices into Map.Walls.
const (
	WallLeft = iota
	WallRight
	WallTop
	WallBottom
)

// Map is a loaded tile map: the placement grid, the object arena and the
// collision world that holds both.
type Map struct {
	Width, Height         int
	TileWidth, TileHeight int
	Background            Color

	world     *collision.World
	walls     [4]collision.Handle
	cells     []Cell
	index     map[image.Point]int
	colliders map[image.Point]collision.Handle
	objects   []*Object
}

// MapOption configures map loading.
type MapOption func(*mapLoader)

type mapLoader struct {
	margin float64
	log    *slog.Logger
}

// WithCollisionMargin sets the collision world's broad phase margin.
func WithCollisionMargin(m float64) MapOption {
	return func(l *mapLoader) { l.margin = m }
}

// WithMapLogger sets the logger used while loading.
func WithMapLogger(log *slog.Logger) MapOption {
	return func(l *mapLoader) { l.log = log }
}

// LoadMap builds a Map from doc. Every tileset is added to tiles. Objects
// whose tile has a script are initialized through scripts, which may be nil
// when no tile has one.
func LoadMap(doc *MapDocument, tiles *Tiles, scripts *Scripts, opts ...MapOption) (*Map, error) {
	ld := mapLoader{margin: DefaultCollisionMargin, log: slog.Default()}
	for _, opt := range opts {
		opt(&ld)
	}

	lookup := make(map[uint32]int)
	for _, ts := range doc.Tilesets {
		m, err := tiles.Load(ts)
		if err != nil {
			return nil, err
		}
		for gid, idx := range m {
			lookup[gid] = idx
		}
	}

	m := &Map{
		Width:      doc.Width,
		Height:     doc.Height,
		TileWidth:  doc.TileWidth,
		TileHeight: doc.TileHeight,
		Background: ColorBlack,
		world:      collision.NewWorld(ld.margin),
		index:      make(map[image.Point]int),
		colliders:  make(map[image.Point]collision.Handle),
	}
	if doc.BackgroundColor != nil {
		m.Background = LinearColor(doc.BackgroundColor)
	}
	m.addWalls()

	placed := make(map[image.Point]MapTile)
	for _, layer := range doc.Layers {
		for i, raw := range layer.Data {
			if raw == 0 || doc.Width <= 0 {
				continue
			}
			p := image.Pt(i%doc.Width, i/doc.Width)
			if p.Y >= doc.Height {
				break
			}
			idx, ok := lookup[raw&TileIDMask]
			if !ok {
				ld.log.Debug("unknown tile skipped", "layer", layer.Name, "x", p.X, "y", p.Y, "gid", raw&TileIDMask)
				continue
			}
			rot, flip := DecodeOrientation(raw >> 29)
			if h, ok := m.colliders[p]; ok {
				if err := m.world.Remove(h); err != nil {
					return nil, err
				}
			}
			pos := mgl64.Vec2{float64(p.X * doc.TileWidth), float64(p.Y * doc.TileHeight)}
			m.colliders[p] = m.world.Add(pos, tiles.Tile(idx).Hitbox, MapGroups, -1)
			placed[p] = MapTile{Tile: idx, Rotation: rot, Flipped: flip}
		}
	}
	m.setCells(placed)

	for _, od := range doc.Objects {
		if _, err := m.addObject(od, lookup, tiles, scripts); err != nil {
			return nil, err
		}
	}
	m.world.Update()
	return m, nil
}

// addWalls inserts the four boundary half-planes at the map's pixel extents.
func (m *Map) addWalls() {
	w := float64(m.Width * m.TileWidth)
	h := float64(m.Height * m.TileHeight)
	add := func(pos, normal mgl64.Vec2) collision.Handle {
		return m.world.Add(pos, collision.HalfPlane{Normal: normal}, MapGroups, -1)
	}
	m.walls[WallLeft] = add(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0})
	m.walls[WallRight] = add(mgl64.Vec2{w, 0}, mgl64.Vec2{-1, 0})
	m.walls[WallTop] = add(mgl64.Vec2{0, 0}, mgl64.Vec2{0, 1})
	m.walls[WallBottom] = add(mgl64.Vec2{0, h}, mgl64.Vec2{0, -1})
}

func (m *Map) setCells(placed map[image.Point]MapTile) {
	m.cells = make([]Cell, 0, len(placed))
	for p, mt := range placed {
		m.cells = append(m.cells, Cell{X: p.X, Y: p.Y, MapTile: mt})
	}
	slices.SortFunc(m.cells, func(a, b Cell) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	for i, c := range m.cells {
		m.index[image.Pt(c.X, c.Y)] = i
	}
}

// addObject places an object entry. The authoring tool anchors a rotated
// sprite at its rotated bottom-left corner; the top-left origin is derived
// back from the tile size.
func (m *Map) addObject(od ObjectDoc, lookup map[uint32]int, tiles *Tiles, scripts *Scripts) (*Object, error) {
	idx, ok := lookup[od.GID&TileIDMask]
	if !ok {
		return nil, fmt.Errorf("%w: gid %d", ErrUnknownTile, od.GID&TileIDMask)
	}
	tile := tiles.Tile(idx)
	w, h := float64(tile.Width), float64(tile.Height)

	rot := NormalizeRotation(int(math.Round(od.Rotation / 90)))
	x, y := od.X, od.Y
	switch rot {
	case 1:
		y += h
	case 2:
		x -= w
		y += h
	case 3:
		x -= w
	}
	y -= h

	o := &Object{
		ID:       len(m.objects),
		Tile:     idx,
		X:        x,
		Y:        y,
		Width:    w,
		Height:   h,
		Rotation: rot,
		Flipped:  od.GID&TileFlipH != 0,
	}
	o.Handle = m.world.Add(o.Position(), tile.Hitbox, ObjectGroups, o.ID)
	m.objects = append(m.objects, o)

	if tile.Script != nil {
		if scripts == nil {
			return nil, fmt.Errorf("object %d: script %s: no script environment", o.ID, tile.Script.Path)
		}
		if err := scripts.Init(o, tile.Script); err != nil {
			return nil, fmt.Errorf("init object %d: %w", o.ID, err)
		}
		if err := m.world.SetPosition(o.Handle, o.Position()); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// World returns the map's collision world.
func (m *Map) World() *collision.World { return m.world }

// Walls returns the handles of the boundary walls, indexed by WallLeft,
// WallRight, WallTop and WallBottom.
func (m *Map) Walls() [4]collision.Handle { return m.walls }

// Tile returns the placement at grid cell (x, y).
func (m *Map) Tile(x, y int) (MapTile, bool) {
	i, ok := m.index[image.Pt(x, y)]
	if !ok {
		return MapTile{}, false
	}
	return m.cells[i].MapTile, true
}

// Cells returns every placed tile in row-major order.
func (m *Map) Cells() []Cell { return m.cells }

// Collider returns the collision handle of the tile at (x, y).
func (m *Map) Collider(x, y int) (collision.Handle, bool) {
	h, ok := m.colliders[image.Pt(x, y)]
	return h, ok
}

// Object returns the object with arena index id.
func (m *Map) Object(id int) (*Object, bool) {
	if id < 0 || id >= len(m.objects) {
		return nil, false
	}
	return m.objects[id], true
}

// Objects returns the object arena in handle order.
func (m *Map) Objects() []*Object { return m.objects }

// PixelSize returns the map's extent in pixels.
func (m *Map) PixelSize() (int, int) {
	return m.Width * m.TileWidth, m.Height * m.TileHeight
}
