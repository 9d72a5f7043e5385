package umbrella

import (
	"fmt"
	"image"
	"image/color"
)

// PaletteSize is the fixed width of every palette lookup texture, including
// the trailing transparent sentinel.
const PaletteSize = 64

// PaletteRow is one independent indexed color table.
type PaletteRow struct {
	colors  []color.NRGBA
	lookup  map[color.NRGBA]uint8
	texture Resource
}

// Index returns the palette index of an exact color match.
func (r *PaletteRow) Index(c color.NRGBA) (uint8, bool) {
	i, ok := r.lookup[c]
	return i, ok
}

// Transparent returns the row's sentinel index, one past the last defined
// color. The lookup texture holds a fully transparent entry there.
func (r *PaletteRow) Transparent() uint8 {
	return uint8(len(r.colors))
}

// Colors returns the defined colors of the row in index order.
func (r *PaletteRow) Colors() []color.NRGBA {
	return r.colors
}

// Texture returns the uploaded lookup texture.
func (r *PaletteRow) Texture() Resource {
	return r.texture
}

// Palette is a palette image loaded as independent rows. Immutable after load.
type Palette struct {
	Path string
	Rows []*PaletteRow
}

// Row returns row i, or ErrPaletteRow.
func (p *Palette) Row(i int) (*PaletteRow, error) {
	if i < 0 || i >= len(p.Rows) {
		return nil, fmt.Errorf("%w: %s has %d rows, want row %d", ErrPaletteRow, p.Path, len(p.Rows), i)
	}
	return p.Rows[i], nil
}

// NewPalette builds a palette from a decoded image, one row per image row,
// uploading each row's lookup texture through f. When a color appears twice
// in a row, the right-most column wins the reverse lookup.
func NewPalette(f Factory, path string, img *image.NRGBA) (*Palette, error) {
	b := img.Bounds()
	if b.Dx() > PaletteSize-1 {
		return nil, fmt.Errorf("%w: %d columns", ErrPaletteTooWide, b.Dx())
	}
	p := &Palette{Path: path, Rows: make([]*PaletteRow, 0, b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := &PaletteRow{
			colors: make([]color.NRGBA, 0, b.Dx()),
			lookup: make(map[color.NRGBA]uint8, b.Dx()),
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			row.lookup[c] = uint8(x - b.Min.X)
			row.colors = append(row.colors, c)
		}
		tex, err := f.NewPaletteTexture(row.colors)
		if err != nil {
			return nil, fmt.Errorf("upload palette row %d: %w", y-b.Min.Y, err)
		}
		row.texture = tex
		p.Rows = append(p.Rows, row)
	}
	return p, nil
}

// PaletteTexels expands a palette row into the PaletteSize RGBA bytes of its
// lookup texture. Entries past the defined colors, the sentinel included, are
// zero.
func PaletteTexels(colors []color.NRGBA) []byte {
	pix := make([]byte, PaletteSize*4)
	for i, c := range colors {
		if i >= PaletteSize {
			break
		}
		pix[i*4+0] = c.R
		pix[i*4+1] = c.G
		pix[i*4+2] = c.B
		pix[i*4+3] = c.A
	}
	return pix
}
