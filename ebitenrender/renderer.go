package ebitenrender

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/phanxgames/umbrella"
)

// Renderer implements umbrella.Renderer onto an ebiten image. Call Begin with
// the frame's target before handing it to Engine.Draw.
type Renderer struct {
	target   *ebiten.Image
	verts    [4]ebiten.Vertex
	inds     []uint16
	op       ebiten.DrawTrianglesShaderOptions
	uniforms map[string]any

	// DrawCount is the number of draws since the last Begin.
	DrawCount int
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{
		inds:     umbrella.QuadIndices[:],
		uniforms: make(map[string]any, 1),
	}
}

// Begin sets the target of the following Clear and Draw calls.
func (r *Renderer) Begin(target *ebiten.Image) {
	r.target = target
	r.DrawCount = 0
}

// Clear fills the target with c. Clear colors arrive in linear space and are
// encoded back to sRGB because ebiten targets are not sRGB framebuffers.
func (r *Renderer) Clear(c umbrella.Color) {
	if r.target == nil {
		return
	}
	r.target.Fill(encodeClear(c))
}

// Draw submits one sprite.
func (r *Renderer) Draw(dc *umbrella.DrawCall) {
	if r.target == nil {
		return
	}
	q, ok := dc.Quad.(*Quad)
	if !ok {
		return
	}
	idx, ok := dc.Index.(*IndexTexture)
	if !ok {
		return
	}
	pal, ok := dc.Palette.(*PaletteTexture)
	if !ok {
		return
	}
	b := r.target.Bounds()
	quadVertices(&r.verts, q, idx, dc, float32(b.Dx()), float32(b.Dy()))

	r.uniforms["Palette"] = pal.Uniform
	r.op.Uniforms = r.uniforms
	r.op.Images[0] = idx.Image
	r.target.DrawTrianglesShader(r.verts[:], r.inds, ensurePaletteShader(), &r.op)
	r.DrawCount++
}

// quadVertices places q at the draw position, scaled from the draw's
// reference dimensions to a target of tw×th pixels. Mirrored draws flip the
// footprint horizontally in place.
func quadVertices(dst *[4]ebiten.Vertex, q *Quad, idx *IndexTexture, dc *umbrella.DrawCall, tw, th float32) {
	sx, sy := float32(1), float32(1)
	if dc.Width > 0 && dc.Height > 0 {
		sx, sy = tw/dc.Width, th/dc.Height
	}
	for i, v := range q.Quad {
		px := v.Pos[0]
		if dc.Flip < 0 {
			px = q.Width - px
		}
		dst[i] = ebiten.Vertex{
			DstX:   (float32(dc.X) + px) * sx,
			DstY:   (float32(dc.Y) + v.Pos[1]) * sy,
			SrcX:   v.UV[0] * float32(idx.Width),
			SrcY:   v.UV[1] * float32(idx.Height),
			ColorR: 1,
			ColorG: 1,
			ColorB: 1,
			ColorA: 1,
		}
	}
}

// encodeClear converts a linear clear color to 8-bit sRGB.
func encodeClear(c umbrella.Color) color.Color {
	cf := colorful.LinearRgb(c.R, c.G, c.B).Clamped()
	r, g, b := cf.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(min(max(c.A, 0), 1)*255 + 0.5)}
}
