package umbrella

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lafriks/go-tiled"
)

// GID flag bits (same convention as Tiled TMX format).
const (
	TileFlipH    uint32 = 1 << 31 // horizontal flip
	TileFlipV    uint32 = 1 << 30 // vertical flip
	TileFlipD    uint32 = 1 << 29 // diagonal flip
	TileFlagMask uint32 = TileFlipH | TileFlipV | TileFlipD
	// TileIDMask keeps the 28-bit id. Bit 28 is reserved by the format.
	TileIDMask uint32 = 0x0fffffff
)

// MapDocument is a parsed tile map, independent of the file format it came
// from. Layer data holds raw cell values with their orientation bits.
type MapDocument struct {
	Width, Height         int
	TileWidth, TileHeight int

	Tilesets []*TilesetDoc
	Layers   []*LayerDoc
	Objects  []ObjectDoc

	// BackgroundColor is nil when the map does not set one.
	BackgroundColor color.Color
}

// TilesetDoc is a named tileset with a first-gid offset and per-tile data.
type TilesetDoc struct {
	Name       string
	FirstGID   uint32
	Properties Properties
	Tiles      []TileDoc
}

// TileDoc is one tile of a tileset.
type TileDoc struct {
	ID         uint32
	Image      string
	Properties Properties
	Animation  []FrameDoc
}

// FrameDoc is an animation frame. TileID is tileset-local.
type FrameDoc struct {
	TileID   uint32
	Duration int // milliseconds
}

// LayerDoc is a row-major grid of raw cell values. Zero means empty.
type LayerDoc struct {
	Name string
	Data []uint32
}

// ObjectDoc is an object-layer entry as authored: X and Y are the bottom-left
// corner of the unrotated sprite, Rotation is in degrees clockwise and GID
// carries the orientation bits.
type ObjectDoc struct {
	X, Y     float64
	Rotation float64
	GID      uint32
}

// Properties is a string view of a property bag. Typed properties keep their
// textual form.
type Properties map[string]string

// Get returns the property value, or "" if absent.
func (p Properties) Get(name string) string {
	return p[name]
}

// Index parses an integer-like property. Integers, floats (truncated),
// colors (#AARRGGBB as a packed integer) and numeric strings are accepted;
// anything else yields def.
func (p Properties) Index(name string, def int) int {
	v, ok := p[name]
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return int(i)
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	if strings.HasPrefix(v, "#") {
		if c, err := strconv.ParseUint(v[1:], 16, 32); err == nil {
			return int(c)
		}
	}
	return def
}

// Tile properties read by the loaders.
var tileProperties = []string{"palette", "palette_id", "script"}

// LoadMapFile parses a TMX map and its external tilesets into a MapDocument.
func LoadMapFile(path string) (*MapDocument, error) {
	m, err := tiled.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse map %s: %w", path, err)
	}
	doc := &MapDocument{
		Width:      m.Width,
		Height:     m.Height,
		TileWidth:  m.TileWidth,
		TileHeight: m.TileHeight,
	}
	if m.BackgroundColor != nil {
		doc.BackgroundColor = m.BackgroundColor
	}

	for _, ts := range m.Tilesets {
		td := &TilesetDoc{
			Name:       ts.Name,
			FirstGID:   uint32(ts.FirstGID),
			Properties: Properties{},
		}
		if ts.Properties != nil {
			readProperties(td.Properties, ts.Properties.GetString)
		}
		for _, t := range ts.Tiles {
			tile := TileDoc{ID: uint32(t.ID), Properties: Properties{}}
			if t.Image != nil {
				tile.Image = t.Image.Source
			}
			if t.Properties != nil {
				readProperties(tile.Properties, t.Properties.GetString)
			}
			for _, f := range t.Animation {
				tile.Animation = append(tile.Animation, FrameDoc{
					TileID:   uint32(f.TileID),
					Duration: int(f.Duration),
				})
			}
			td.Tiles = append(td.Tiles, tile)
		}
		doc.Tilesets = append(doc.Tilesets, td)
	}

	for _, l := range m.Layers {
		ld := &LayerDoc{Name: l.Name, Data: make([]uint32, len(l.Tiles))}
		for i, t := range l.Tiles {
			if t == nil || t.Nil || t.Tileset == nil {
				continue
			}
			gid := uint32(t.Tileset.FirstGID) + uint32(t.ID)
			if t.HorizontalFlip {
				gid |= TileFlipH
			}
			if t.VerticalFlip {
				gid |= TileFlipV
			}
			if t.DiagonalFlip {
				gid |= TileFlipD
			}
			ld.Data[i] = gid
		}
		doc.Layers = append(doc.Layers, ld)
	}

	for _, g := range m.ObjectGroups {
		for _, o := range g.Objects {
			if o.GID == 0 {
				continue
			}
			doc.Objects = append(doc.Objects, ObjectDoc{
				X:        float64(o.X),
				Y:        float64(o.Y),
				Rotation: float64(o.Rotation),
				GID:      uint32(o.GID),
			})
		}
	}
	return doc, nil
}

func readProperties(dst Properties, get func(string) string) {
	for _, name := range tileProperties {
		if v := get(name); v != "" {
			dst[name] = v
		}
	}
}
