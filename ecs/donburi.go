package ecs

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/umbrella"
)

// CollisionEventType is the Donburi event type for blocked object moves.
var CollisionEventType = events.NewEventType[umbrella.CollisionEvent]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EventStore backed by a Donburi world.
// Collisions are published to CollisionEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) umbrella.EventStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitCollision(event umbrella.CollisionEvent) {
	CollisionEventType.Publish(s.world, event)
}

// ObjectState is the per-frame snapshot of a map object.
type ObjectState struct {
	ID       int
	Tile     int
	X, Y     float64
	Rotation umbrella.Rotation
	Flipped  bool
}

// ObjectComponent holds an ObjectState on each mirrored entity.
var ObjectComponent = donburi.NewComponentType[ObjectState]()

// Mirror maps object IDs to entities of a Donburi world.
type Mirror struct {
	world    donburi.World
	entities map[int]donburi.Entity
}

// NewMirror creates a Mirror for world.
func NewMirror(world donburi.World) *Mirror {
	return &Mirror{world: world, entities: make(map[int]donburi.Entity)}
}

// Sync creates an entity for every object not seen before and copies each
// object's state into its ObjectComponent.
func (m *Mirror) Sync(objects []*umbrella.Object) {
	for _, o := range objects {
		e, ok := m.entities[o.ID]
		if !ok || !m.world.Valid(e) {
			e = m.world.Create(ObjectComponent)
			m.entities[o.ID] = e
		}
		ObjectComponent.SetValue(m.world.Entry(e), ObjectState{
			ID:       o.ID,
			Tile:     o.Tile,
			X:        o.X,
			Y:        o.Y,
			Rotation: o.Rotation,
			Flipped:  o.Flipped,
		})
	}
}

// Entity returns the entity mirroring object id.
func (m *Mirror) Entity(id int) (donburi.Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Len returns the number of mirrored objects.
func (m *Mirror) Len() int { return len(m.entities) }
