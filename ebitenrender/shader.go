package ebitenrender

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// paletteShaderSrc looks the red channel of the index texture up in the
// Palette uniform. Out-of-range indices draw nothing.
const paletteShaderSrc = `//kage:unit pixels
package main

var Palette [64]vec4

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	idx := floor(imageSrc0At(src).r*255 + 0.5)
	c := vec4(0)
	for i := 0; i < 64; i++ {
		if float(i) == idx {
			c = Palette[i]
		}
	}
	return c
}
`

// --- Lazy shader compilation (no sync.Once, the renderer is single-threaded) ---

var paletteShader *ebiten.Shader

func ensurePaletteShader() *ebiten.Shader {
	if paletteShader == nil {
		s, err := ebiten.NewShader([]byte(paletteShaderSrc))
		if err != nil {
			panic(fmt.Sprintf("ebitenrender: failed to compile palette shader: %v", err))
		}
		paletteShader = s
	}
	return paletteShader
}
