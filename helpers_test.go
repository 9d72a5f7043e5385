package umbrella

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
)

// --- Test fixtures ----------------------------------------------------------

var (
	red     = color.NRGBA{255, 0, 0, 255}
	green   = color.NRGBA{0, 255, 0, 255}
	blue    = color.NRGBA{0, 0, 255, 255}
	yellow  = color.NRGBA{255, 255, 0, 255}
	cyan    = color.NRGBA{0, 255, 255, 255}
	magenta = color.NRGBA{255, 0, 255, 255}
)

// fakeFactory records uploads instead of talking to a GPU.
type fakeFactory struct {
	palettes [][]color.NRGBA
	textures []fakeIndex
	quads    []Quad
}

type fakeIndex struct {
	w, h int
	pix  []byte
}

func (f *fakeFactory) NewPaletteTexture(colors []color.NRGBA) (Resource, error) {
	f.palettes = append(f.palettes, colors)
	return len(f.palettes) - 1, nil
}

func (f *fakeFactory) NewIndexTexture(w, h int, pix []byte) (Resource, error) {
	f.textures = append(f.textures, fakeIndex{w, h, pix})
	return len(f.textures) - 1, nil
}

func (f *fakeFactory) NewQuad(q Quad) (Resource, error) {
	f.quads = append(f.quads, q)
	return len(f.quads) - 1, nil
}

// fill returns a w×h image of a single color.
func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// rows returns an image with one row per color list.
func rows(colors ...[]color.NRGBA) *image.NRGBA {
	w := 0
	for _, r := range colors {
		w = max(w, len(r))
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, len(colors)))
	for y, r := range colors {
		for x, c := range r {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFS holds a two-row palette, three 16px sprites, a 16×8 sprite and a
// walker script.
func testFS(t testing.TB) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"assets/tiled/palette.png": {Data: encodePNG(t, rows(
			[]color.NRGBA{red, green, blue},
			[]color.NRGBA{yellow, cyan, magenta},
		))},
		"assets/images/block.png": {Data: encodePNG(t, fill(16, 16, red))},
		"assets/images/grass.png": {Data: encodePNG(t, fill(16, 16, green))},
		"assets/images/water.png": {Data: encodePNG(t, fill(16, 16, blue))},
		"assets/images/hero.png":  {Data: encodePNG(t, fill(16, 8, cyan))},
		"assets/tiled/walker.lua": {Data: []byte(`
function init()
	object.speed = 100
	object.inits = (object.inits or 0) + 1
end

function update()
	object.updates = (object.updates or 0) + 1
	if controls.right then
		object:move(object.speed * delta, 0)
	end
	if controls.left then
		object:move(-object.speed * delta, 0)
	end
end
`)},
	}
}

// terrainSet is a tileset of block, grass and an animated water tile that
// cycles through water and grass.
func terrainSet() *TilesetDoc {
	return &TilesetDoc{
		Name:       "terrain",
		FirstGID:   1,
		Properties: Properties{"palette": "palette.png"},
		Tiles: []TileDoc{
			{ID: 0, Image: "block.png"},
			{ID: 1, Image: "grass.png"},
			{ID: 2, Image: "water.png", Animation: []FrameDoc{
				{TileID: 2, Duration: 250},
				{TileID: 1, Duration: 250},
			}},
		},
	}
}

// heroSet is a tileset of one scripted 16×8 tile using the second palette
// row.
func heroSet() *TilesetDoc {
	return &TilesetDoc{
		Name:       "hero",
		FirstGID:   10,
		Properties: Properties{"palette": "palette.png"},
		Tiles: []TileDoc{
			{ID: 0, Image: "hero.png", Properties: Properties{"palette_id": "1", "script": "walker.lua"}},
		},
	}
}

type testEnv struct {
	factory *fakeFactory
	fsys    fstest.MapFS
	g       *Graphics
	scripts *Scripts
	tiles   *Tiles
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	env := &testEnv{factory: &fakeFactory{}, fsys: testFS(t)}
	log := discardLogger()
	env.g = NewGraphics(env.factory, env.fsys, WithLogger(log))
	env.scripts = NewScripts(env.fsys, WithScriptLogger(log))
	t.Cleanup(env.scripts.Close)
	env.tiles = NewTiles(env.g, env.scripts, WithTilesLogger(log))
	return env
}

// loadMap loads doc into a fresh environment.
func (env *testEnv) loadMap(t testing.TB, doc *MapDocument) *Map {
	t.Helper()
	m, err := LoadMap(doc, env.tiles, env.scripts, WithMapLogger(discardLogger()))
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	return m
}

// newTestEngine builds an engine over doc.
func (env *testEnv) newTestEngine(t testing.TB, doc *MapDocument) *Engine {
	t.Helper()
	m := env.loadMap(t, doc)
	return NewEngine(env.g, env.tiles, env.scripts, m, WithEngineLogger(discardLogger()))
}

// recordingRenderer collects the submitted frame.
type recordingRenderer struct {
	clear Color
	draws []DrawCall
}

func (r *recordingRenderer) Clear(c Color)     { r.clear = c }
func (r *recordingRenderer) Draw(dc *DrawCall) { r.draws = append(r.draws, *dc) }

// recordingStore collects collision events.
type recordingStore struct {
	events []CollisionEvent
}

func (s *recordingStore) EmitCollision(ev CollisionEvent) { s.events = append(s.events, ev) }
