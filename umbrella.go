package umbrella

import (
	"errors"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color represents an RGBA color with components in [0, 1]. Render clear
// colors are stored in linear space.
type Color struct {
	R, G, B, A float64
}

// ColorBlack is the default clear color for maps without a background color.
var ColorBlack = Color{0, 0, 0, 1}

// LinearColor converts an 8-bit sRGB-encoded color into a linear clear color.
// Alpha is always opaque.
func LinearColor(c color.Color) Color {
	cf, _ := colorful.MakeColor(c)
	r, g, b := cf.LinearRgb()
	return Color{R: r, G: g, B: b, A: 1}
}

// Rotation is a 90° rotation step in the range 0..3 (clockwise).
type Rotation uint8

// NormalizeRotation maps any integer rotation count onto 0..3.
func NormalizeRotation(n int) Rotation {
	return Rotation(((n % 4) + 4) % 4)
}

// Swapped reports whether the rotation swaps the width and height of a
// sprite's footprint.
func (r Rotation) Swapped() bool {
	return r&1 == 1
}

// Flip returns the shader flip multiplier: -1 for mirrored, +1 otherwise.
func Flip(flipped bool) float32 {
	if flipped {
		return -1
	}
	return 1
}

// Errors returned by the loaders and the frame loop.
var (
	ErrNoPalette      = errors.New("umbrella: tileset has no palette property")
	ErrPaletteTooWide = errors.New("umbrella: palette row exceeds 63 colors")
	ErrPaletteRow     = errors.New("umbrella: palette row out of range")
	ErrMissingImage   = errors.New("umbrella: tileset tile has no image")
	ErrBadAnimation   = errors.New("umbrella: animation frame references unknown tile")
	ErrNoInit         = errors.New("umbrella: global init function is not defined")
	ErrNoUpdate       = errors.New("umbrella: global update function is not defined")
	ErrUnknownTile    = errors.New("umbrella: object references unknown tile")
	ErrObjectVanished = errors.New("umbrella: script replaced the object global")
	ErrBadAssetPath   = errors.New("umbrella: asset path escapes its root")
)
