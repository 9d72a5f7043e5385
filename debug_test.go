package umbrella

import (
	"bytes"
	"image/color"
	"log/slog"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

// ---- Debug mode tests ------------------------------------------------------

func TestDebugCheckTexture(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	few := &Texture{Path: "few.png", Missing: make([]MissingColor, debugMaxMissingColors)}
	debugCheckTexture(log, few)
	if buf.Len() != 0 {
		t.Errorf("warned at the threshold: %s", buf.String())
	}

	many := &Texture{Path: "many.png", Missing: make([]MissingColor, debugMaxMissingColors+1)}
	debugCheckTexture(log, many)
	if !strings.Contains(buf.String(), "many.png") || !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("no warning for many unmatched colors: %s", buf.String())
	}
}

func TestDebugModeLogsFrameStats(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	env := newTestEnv(t)
	m := env.loadMap(t, heroDoc(0))
	e := NewEngine(env.g, env.tiles, env.scripts, m, WithEngineLogger(log))

	if err := e.Update(0.1); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("stats logged without debug mode: %s", buf.String())
	}

	e.SetDebugMode(true)
	if err := e.Update(0.1); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"msg=frame", "scripts=1", "draw_calls=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats log %q missing %q", out, want)
		}
	}
}

func TestFrameStatsLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	FrameStats{ScriptTime: 2 * time.Millisecond, Contacts: 4}.log(log)
	if out := buf.String(); !strings.Contains(out, "script=2ms") || !strings.Contains(out, "contacts=4") {
		t.Errorf("log = %q", out)
	}
}

func TestDebugWarnsOnWrongPalette(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	fsys := testFS(t)
	img := fill(10, 1, yellow)
	for x := range 10 {
		img.SetNRGBA(x, 0, color.NRGBA{uint8(x * 20), 7, 7, 255})
	}
	fsys["assets/images/noisy.png"] = &fstest.MapFile{Data: encodePNG(t, img)}

	g := NewGraphics(&fakeFactory{}, fsys, WithLogger(log))
	if _, err := g.LoadTexture("noisy.png", "assets/tiled/palette.png", 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "check its palette") {
		t.Errorf("no wrong-palette warning: %s", buf.String())
	}
}
