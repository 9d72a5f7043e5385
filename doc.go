// Package umbrella is the runtime core of a 2D tile-map game engine for
// [Ebitengine].
//
// It loads a [Tiled] map, renders palette-indexed sprites, runs per-object
// Lua scripts and resolves movement against a collision world.
//
// # Quick start
//
// The command in cmd/umbrella wires everything to a window. For full
// control, build an [Engine] yourself and feed it a [Renderer]:
//
//	cfg, _ := umbrella.LoadConfig("umbrella.yaml")
//	engine, err := umbrella.LoadEngine(cfg, factory, slog.Default())
//	if err != nil {
//		return err
//	}
//	defer engine.Close()
//
//	// once per frame
//	engine.SetControls(controls)
//	if err := engine.Frame(dt, renderer); err != nil {
//		return err
//	}
//
// The ebitenrender package provides the [Factory] and [Renderer] for
// Ebitengine.
//
// # Palettes and textures
//
// A palette image holds one independent color table per row. Sprites are
// quantized against one row into an index texture: every fully opaque pixel
// takes the index of its exact color, everything else takes the row's
// transparent sentinel. [Graphics] caches palettes and textures by path and
// hands out stable handles.
//
// # Tiles and maps
//
// [Tiles] flattens every tileset into one catalog. Tilesets need a palette
// property; tiles may set palette, palette_id and script. [LoadMap] places
// grid tiles with their rotation and flip, surrounds the map with four walls
// and creates an [Object] for each object-layer entry.
//
// # Scripts
//
// Each tile script is compiled once. Every frame, for each object with a
// scripted tile, the object is published as the object global, the tile
// script runs, then the global update function, then the object is read
// back. The globals controls, delta and gravity are always present, as are
// the ease table and the tween constructor:
//
//	function update()
//		if controls.right then
//			object:move(200 * delta, 0)
//		end
//		object:move(0, gravity * delta)
//	end
//
// Scripts see x and y in the object's facing frame; move deltas are rotated
// the same way, so move(1, 0) always goes forward.
//
// # Movement
//
// Objects only collide with the map. A move is swept once per frame and
// shortened to the earliest time of impact among the contacts it starts; it
// never slides along a blocked axis.
//
// [Ebitengine]: https://ebitengine.org
// [Tiled]: https://www.mapeditor.org
package umbrella
