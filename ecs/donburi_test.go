package ecs

import (
	"testing"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"

	"github.com/phanxgames/umbrella"
)

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)
	if store == nil {
		t.Fatal("NewDonburiStore returned nil")
	}
}

func TestDonburiStore_EmitCollision(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var received []umbrella.CollisionEvent
	CollisionEventType.Subscribe(world, func(w donburi.World, e umbrella.CollisionEvent) {
		received = append(received, e)
	})

	store.EmitCollision(umbrella.CollisionEvent{Object: 3, Other: 12, OtherObject: -1, Time: 0.4})
	store.EmitCollision(umbrella.CollisionEvent{Object: 1, Other: 7, OtherObject: 0})

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("events delivered before processing: %d", len(received))
	}
	CollisionEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if e := received[0]; e.Object != 3 || e.Other != 12 || e.OtherObject != -1 || e.Time != 0.4 {
		t.Errorf("event 0: %+v", e)
	}
	if e := received[1]; e.Object != 1 || e.OtherObject != 0 {
		t.Errorf("event 1: %+v", e)
	}
}

func TestDonburiStore_ImplementsEventStore(t *testing.T) {
	world := donburi.NewWorld()
	var store umbrella.EventStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	CollisionEventType.Subscribe(world, func(w donburi.World, e umbrella.CollisionEvent) {
		count1++
	})
	CollisionEventType.Subscribe(world, func(w donburi.World, e umbrella.CollisionEvent) {
		count2++
	})

	store.EmitCollision(umbrella.CollisionEvent{})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestMirror_Sync(t *testing.T) {
	world := donburi.NewWorld()
	m := NewMirror(world)

	objs := []*umbrella.Object{
		{ID: 0, Tile: 3, X: 10, Y: 20},
		{ID: 1, Tile: 5, X: 30, Y: 40, Rotation: 2, Flipped: true},
	}
	m.Sync(objs)
	if m.Len() != 2 || world.Len() != 2 {
		t.Fatalf("mirrored %d objects into %d entities, want 2", m.Len(), world.Len())
	}

	objs[1].X = 99
	m.Sync(objs)
	if world.Len() != 2 {
		t.Errorf("second sync created entities: %d", world.Len())
	}

	e, ok := m.Entity(1)
	if !ok {
		t.Fatal("object 1 not mirrored")
	}
	st := ObjectComponent.Get(world.Entry(e))
	if st.ID != 1 || st.Tile != 5 || st.X != 99 || st.Y != 40 || st.Rotation != 2 || !st.Flipped {
		t.Errorf("state = %+v", *st)
	}
	if _, ok := m.Entity(7); ok {
		t.Error("Entity(7) should not exist")
	}
}
