// Package ecs bridges umbrella engines into a [Donburi] world.
//
// [NewDonburiStore] publishes movement collisions as typed events; subscribe
// to [CollisionEventType] in your ECS systems to receive them. [Mirror]
// keeps one entity per map object with an [ObjectComponent] updated after
// each frame.
//
// Usage:
//
//	world := donburi.NewWorld()
//	engine.SetEventStore(ecs.NewDonburiStore(world))
//	mirror := ecs.NewMirror(world)
//	// after engine.Update:
//	mirror.Sync(engine.Map.Objects())
//	events.ProcessAllEvents(world)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
