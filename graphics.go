package umbrella

import (
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"path"

	_ "image/png"

	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// Resource is an opaque GPU-resident object created by a Factory. The engine
// never inspects it; it is handed back to the Renderer inside draw calls.
type Resource interface{}

// Vertex is one corner of a sprite quad: a position in sprite space (pixels)
// and a normalized texture coordinate.
type Vertex struct {
	Pos mgl32.Vec2
	UV  mgl32.Vec2
}

// Quad is a four-corner sprite footprint, drawn as two triangles with the
// index order 0,1,2 / 2,3,0.
type Quad [4]Vertex

// QuadIndices is the fixed triangle list shared by every quad.
var QuadIndices = [6]uint16{0, 1, 2, 2, 3, 0}

// Factory uploads palette rows, index textures and vertex quads to the GPU.
type Factory interface {
	// NewPaletteTexture uploads one palette row as a 1-D lookup texture of
	// PaletteSize entries. Entries past len(colors) are fully transparent.
	NewPaletteTexture(colors []color.NRGBA) (Resource, error)
	// NewIndexTexture uploads a single-channel texture of palette indices,
	// one byte per pixel in row-major order.
	NewIndexTexture(width, height int, pix []byte) (Resource, error)
	// NewQuad uploads a vertex quad.
	NewQuad(q Quad) (Resource, error)
}

// PaletteHandle identifies a loaded palette inside a Graphics registry.
type PaletteHandle int

// TextureHandle identifies a loaded texture inside a Graphics registry.
type TextureHandle int

// Graphics deduplicates palette and texture loads by filename and owns the
// GPU factory. Handles are stable for the registry's lifetime; nothing is
// ever unloaded.
type Graphics struct {
	factory    Factory
	fsys       fs.FS
	imagesRoot string
	log        *slog.Logger

	palettes     []*Palette
	paletteIndex map[string]PaletteHandle
	textures     []*Texture
	textureIndex map[string]TextureHandle
}

// GraphicsOption configures a Graphics registry.
type GraphicsOption func(*Graphics)

// WithImagesRoot sets the directory sprite paths are resolved under.
func WithImagesRoot(root string) GraphicsOption {
	return func(g *Graphics) { g.imagesRoot = root }
}

// WithLogger sets the logger used for content-gap warnings.
func WithLogger(l *slog.Logger) GraphicsOption {
	return func(g *Graphics) { g.log = l }
}

// NewGraphics creates a registry reading images from fsys and uploading them
// through factory.
func NewGraphics(factory Factory, fsys fs.FS, opts ...GraphicsOption) *Graphics {
	g := &Graphics{
		factory:      factory,
		fsys:         fsys,
		imagesRoot:   "assets/images",
		log:          slog.Default(),
		paletteIndex: make(map[string]PaletteHandle),
		textureIndex: make(map[string]TextureHandle),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Factory returns the GPU factory owned by the registry.
func (g *Graphics) Factory() Factory {
	return g.factory
}

// LoadPalette returns the handle of the palette image at path, loading it on
// first use. path is relative to the registry's file system.
func (g *Graphics) LoadPalette(path string) (PaletteHandle, error) {
	if h, ok := g.paletteIndex[path]; ok {
		return h, nil
	}
	img, err := g.decode(path)
	if err != nil {
		return 0, fmt.Errorf("load palette %s: %w", path, err)
	}
	p, err := NewPalette(g.factory, path, img)
	if err != nil {
		return 0, fmt.Errorf("load palette %s: %w", path, err)
	}
	h := PaletteHandle(len(g.palettes))
	g.palettes = append(g.palettes, p)
	g.paletteIndex[path] = h
	return h, nil
}

// LoadTexture returns the handle of the sprite at sprite (relative to the
// images root), quantized against row of the palette at palettePath. A
// sprite already loaded returns its existing handle without resolving the
// palette arguments given now; otherwise the palette is resolved first.
func (g *Graphics) LoadTexture(sprite, palettePath string, row int) (TextureHandle, error) {
	if h, ok := g.textureIndex[sprite]; ok {
		return h, nil
	}
	ph, err := g.LoadPalette(palettePath)
	if err != nil {
		return 0, err
	}
	full, err := joinAsset(g.imagesRoot, sprite)
	if err != nil {
		return 0, fmt.Errorf("load texture %s: %w", sprite, err)
	}
	img, err := g.decode(full)
	if err != nil {
		return 0, fmt.Errorf("load texture %s: %w", full, err)
	}
	tex, err := NewTexture(g.factory, full, img, g.palettes[ph], ph, row)
	if err != nil {
		return 0, fmt.Errorf("load texture %s: %w", full, err)
	}
	for _, m := range tex.Missing {
		g.log.Warn("missing palette color",
			"texture", full, "palette", palettePath, "row", row,
			"color", fmt.Sprintf("#%02x%02x%02x", m.Color.R, m.Color.G, m.Color.B),
			"pixels", len(m.Pixels))
	}
	debugCheckTexture(g.log, tex)
	h := TextureHandle(len(g.textures))
	g.textures = append(g.textures, tex)
	g.textureIndex[sprite] = h
	return h, nil
}

// Palette returns the palette for h.
func (g *Graphics) Palette(h PaletteHandle) *Palette {
	return g.palettes[h]
}

// Texture returns the texture for h.
func (g *Graphics) Texture(h TextureHandle) *Texture {
	return g.textures[h]
}

// PaletteCount returns the number of distinct palettes loaded.
func (g *Graphics) PaletteCount() int { return len(g.palettes) }

// TextureCount returns the number of distinct textures loaded.
func (g *Graphics) TextureCount() int { return len(g.textures) }

// decode opens and decodes an image, converting it to straight-alpha 8-bit
// channels.
func (g *Graphics) decode(name string) (*image.NRGBA, error) {
	f, err := g.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts img to an NRGBA image whose bounds start at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// joinAsset joins an asset root with a path taken from map data. The result
// must stay a valid fs.FS path.
func joinAsset(root, name string) (string, error) {
	p := path.Join(root, name)
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("%w: %s", ErrBadAssetPath, p)
	}
	return p, nil
}
