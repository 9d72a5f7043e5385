package umbrella

import (
	"image/color"
	"testing"
)

func TestNormalizeRotation(t *testing.T) {
	for _, tt := range []struct {
		n    int
		want Rotation
	}{
		{0, 0}, {1, 1}, {3, 3}, {4, 0}, {5, 1}, {-1, 3}, {-4, 0}, {-5, 3},
	} {
		if got := NormalizeRotation(tt.n); got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRotationSwapped(t *testing.T) {
	want := [4]bool{false, true, false, true}
	for r := range Rotation(4) {
		if r.Swapped() != want[r] {
			t.Errorf("Rotation(%d).Swapped() = %v", r, r.Swapped())
		}
	}
}

func TestFlip(t *testing.T) {
	if Flip(true) != -1 || Flip(false) != 1 {
		t.Errorf("Flip = %v, %v", Flip(true), Flip(false))
	}
}

func TestLinearColor(t *testing.T) {
	if c := LinearColor(color.NRGBA{0, 0, 0, 255}); c != ColorBlack {
		t.Errorf("black = %v", c)
	}
	// Alpha never carries through.
	if c := LinearColor(color.NRGBA{255, 255, 255, 255}); c.A != 1 || c.R < 0.999 {
		t.Errorf("white = %v", c)
	}
}
