package ebitenrender

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/umbrella"
)

// KeyBinding maps a key to a control name.
type KeyBinding struct {
	Key     ebiten.Key
	Control string
}

// DefaultKeys binds Z and X to a and b and the arrows to the directions.
var DefaultKeys = []KeyBinding{
	{ebiten.KeyZ, "a"},
	{ebiten.KeyX, "b"},
	{ebiten.KeyArrowLeft, "left"},
	{ebiten.KeyArrowRight, "right"},
	{ebiten.KeyArrowUp, "up"},
	{ebiten.KeyArrowDown, "down"},
}

// Keyboard tracks controls from key-down and key-up edges.
type Keyboard struct {
	Bindings []KeyBinding

	controls umbrella.Controls
	focused  bool
}

// NewKeyboard creates a Keyboard with DefaultKeys.
func NewKeyboard() *Keyboard {
	return &Keyboard{Bindings: DefaultKeys, focused: true}
}

// Poll applies this tick's key edges and returns the controls. Losing window
// focus releases every control.
func (k *Keyboard) Poll() umbrella.Controls {
	focused := ebiten.IsFocused()
	if !focused && k.focused {
		k.controls = umbrella.Controls{}
	}
	k.focused = focused
	if !focused {
		return k.controls
	}
	for _, b := range k.Bindings {
		switch {
		case inpututil.IsKeyJustPressed(b.Key):
			k.controls.Set(b.Control, true)
		case inpututil.IsKeyJustReleased(b.Key):
			k.controls.Set(b.Control, false)
		}
	}
	return k.controls
}
