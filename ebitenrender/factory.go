// Package ebitenrender draws umbrella frames with [Ebitengine].
//
// [Factory] uploads palette rows, index textures and quads; [Renderer]
// draws them with a Kage palette-lookup shader; [Run] opens the window and
// drives an [umbrella.Engine] once per tick.
//
// [Ebitengine]: https://ebitengine.org
package ebitenrender

import (
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/umbrella"
)

// PaletteTexture is a palette row uploaded as a shader uniform: PaletteSize
// premultiplied RGBA entries.
type PaletteTexture struct {
	Uniform []float32
}

// IndexTexture is an index texture. The palette index is stored in the red
// channel of an opaque image so premultiplication never alters it.
type IndexTexture struct {
	Image         *ebiten.Image
	Width, Height int
}

// Quad is an uploaded vertex quad.
type Quad struct {
	umbrella.Quad
	// Width and Height are the footprint extents of the quad.
	Width, Height float32
}

// Factory implements umbrella.Factory for Ebitengine.
type Factory struct {
	palettes int
	textures int
	quads    int
}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Counts returns how many palette rows, index textures and quads were
// uploaded.
func (f *Factory) Counts() (palettes, textures, quads int) {
	return f.palettes, f.textures, f.quads
}

// NewPaletteTexture implements umbrella.Factory.
func (f *Factory) NewPaletteTexture(colors []color.NRGBA) (umbrella.Resource, error) {
	if len(colors) >= umbrella.PaletteSize {
		return nil, fmt.Errorf("%w: %d colors", umbrella.ErrPaletteTooWide, len(colors))
	}
	f.palettes++
	return &PaletteTexture{Uniform: paletteUniform(umbrella.PaletteTexels(colors))}, nil
}

// NewIndexTexture implements umbrella.Factory.
func (f *Factory) NewIndexTexture(width, height int, pix []byte) (umbrella.Resource, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("index texture: bad size %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("index texture: %d bytes for %dx%d", len(pix), width, height)
	}
	img := ebiten.NewImageWithOptions(image.Rect(0, 0, width, height), &ebiten.NewImageOptions{
		Unmanaged: true,
	})
	img.WritePixels(indexPixels(pix))
	f.textures++
	return &IndexTexture{Image: img, Width: width, Height: height}, nil
}

// NewQuad implements umbrella.Factory.
func (f *Factory) NewQuad(q umbrella.Quad) (umbrella.Resource, error) {
	out := &Quad{Quad: q}
	for _, v := range q {
		out.Width = max(out.Width, v.Pos[0])
		out.Height = max(out.Height, v.Pos[1])
	}
	f.quads++
	return out, nil
}

// paletteUniform converts straight-alpha texels to premultiplied floats.
func paletteUniform(texels []byte) []float32 {
	u := make([]float32, len(texels))
	for i := 0; i+3 < len(texels); i += 4 {
		a := float32(texels[i+3]) / 255
		u[i+0] = float32(texels[i+0]) / 255 * a
		u[i+1] = float32(texels[i+1]) / 255 * a
		u[i+2] = float32(texels[i+2]) / 255 * a
		u[i+3] = a
	}
	return u
}

// indexPixels expands one index per pixel into opaque RGBA with the index in
// the red channel.
func indexPixels(pix []byte) []byte {
	out := make([]byte, len(pix)*4)
	for i, p := range pix {
		out[i*4+0] = p
		out[i*4+3] = 0xff
	}
	return out
}
