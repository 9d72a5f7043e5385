package umbrella

import (
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
)

// MissingColor records an opaque sprite color with no exact match in the
// palette row, and every pixel that used it.
type MissingColor struct {
	Color  color.NRGBA
	Pixels []image.Point
}

// Texture is a palette-indexed sprite plus its four rotation quads.
// Immutable after load.
type Texture struct {
	Path    string
	Width   int
	Height  int
	Palette PaletteHandle
	Row     int

	// Pix holds one palette index per pixel, row-major.
	Pix []byte
	// Missing lists unmatched colors in first-seen order.
	Missing []MissingColor
	// Quads holds the footprint for each Rotation.
	Quads [4]Quad

	index   Resource
	palette Resource
	quads   [4]Resource
}

// IndexTexture returns the uploaded index texture.
func (t *Texture) IndexTexture() Resource { return t.index }

// PaletteTexture returns the lookup texture of the row the sprite was
// quantized against.
func (t *Texture) PaletteTexture() Resource { return t.palette }

// Quad returns the uploaded quad for rotation r.
func (t *Texture) Quad(r Rotation) Resource { return t.quads[r&3] }

// NewTexture quantizes img against row of palette p and uploads the index
// texture and the four rotation quads.
func NewTexture(f Factory, path string, img *image.NRGBA, p *Palette, ph PaletteHandle, row int) (*Texture, error) {
	pr, err := p.Row(row)
	if err != nil {
		return nil, err
	}
	pix, missing := Quantize(img, pr)
	b := img.Bounds()
	t := &Texture{
		Path:    path,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Palette: ph,
		Row:     row,
		Pix:     pix,
		Missing: missing,
		Quads:   RotationQuads(float32(b.Dx()), float32(b.Dy())),
		palette: pr.Texture(),
	}
	t.index, err = f.NewIndexTexture(t.Width, t.Height, pix)
	if err != nil {
		return nil, fmt.Errorf("upload index texture: %w", err)
	}
	for i, q := range t.Quads {
		if t.quads[i], err = f.NewQuad(q); err != nil {
			return nil, fmt.Errorf("upload quad %d: %w", i, err)
		}
	}
	return t, nil
}

// Quantize maps every pixel of img to an index of row. Fully opaque pixels
// take their exact-match index; unmatched opaque pixels and any pixel with
// alpha below 255 take the row's transparent sentinel.
func Quantize(img *image.NRGBA, row *PaletteRow) ([]byte, []MissingColor) {
	b := img.Bounds()
	pix := make([]byte, 0, b.Dx()*b.Dy())
	sentinel := row.Transparent()

	var missing []MissingColor
	seen := make(map[color.NRGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			if c.A != 0xff {
				pix = append(pix, sentinel)
				continue
			}
			if i, ok := row.Index(c); ok {
				pix = append(pix, i)
				continue
			}
			pt := image.Pt(x-b.Min.X, y-b.Min.Y)
			if n, ok := seen[c]; ok {
				missing[n].Pixels = append(missing[n].Pixels, pt)
			} else {
				seen[c] = len(missing)
				missing = append(missing, MissingColor{Color: c, Pixels: []image.Point{pt}})
			}
			pix = append(pix, sentinel)
		}
	}
	return pix, missing
}

// RotationQuads builds the four footprints of a w×h sprite. Odd rotations
// swap the footprint to h×w; the UVs always address the unrotated texture.
func RotationQuads(w, h float32) [4]Quad {
	v := func(x, y, u, t float32) Vertex {
		return Vertex{Pos: mgl32.Vec2{x, y}, UV: mgl32.Vec2{u, t}}
	}
	return [4]Quad{
		{v(w, 0, 1, 0), v(0, 0, 0, 0), v(0, h, 0, 1), v(w, h, 1, 1)},
		{v(h, 0, 0, 0), v(0, 0, 0, 1), v(0, w, 1, 1), v(h, w, 1, 0)},
		{v(w, 0, 0, 1), v(0, 0, 1, 1), v(0, h, 1, 0), v(w, h, 0, 0)},
		{v(h, 0, 1, 1), v(0, 0, 1, 0), v(0, w, 0, 0), v(h, w, 0, 1)},
	}
}
