package resource

import (
	"errors"
	"testing"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.events = append(o.events, e)
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	// Insert
	h := table.Insert(1, "test")
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	// Get
	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// GetTyped with correct type
	_, ok = table.GetTyped(h, 1)
	if !ok {
		t.Fatal("GetTyped with correct type failed")
	}

	// GetTyped with wrong type
	_, ok = table.GetTyped(h, 2)
	if ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	// Remove
	val, ok = table.Remove(h)
	if !ok {
		t.Fatal("Remove failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	// Len should be 0
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_RetainRelease(t *testing.T) {
	table := NewTable()

	dropped := 0
	h := table.Insert(1, dropRecorder{&dropped})

	if err := table.Retain(h); err != nil {
		t.Fatalf("Retain failed: %v", err)
	}
	if n, _ := table.RefCount(h); n != 2 {
		t.Fatalf("Expected refcount 2, got %d", n)
	}

	freed, err := table.Release(h)
	if err != nil || freed {
		t.Fatalf("First Release: freed=%v err=%v", freed, err)
	}
	freed, err = table.Release(h)
	if err != nil || !freed {
		t.Fatalf("Second Release: freed=%v err=%v", freed, err)
	}
	if dropped != 1 {
		t.Fatalf("Expected Drop to run once, got %d", dropped)
	}

	if _, err := table.Release(h); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("Expected ErrStaleHandle on over-release, got %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := table.Insert(1, "test")
	_ = table.Retain(h)
	_, _ = table.Release(h)
	_, _ = table.Release(h)

	want := []EventType{EventCreated, EventRetained, EventReleased, EventDropped}
	if len(obs.events) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(obs.events))
	}
	for i, e := range obs.events {
		if e.Type != want[i] {
			t.Errorf("event %d: expected type %d, got %d", i, want[i], e.Type)
		}
		if e.Handle != h {
			t.Errorf("event %d: wrong handle", i)
		}
	}
	if obs.events[1].RefCount != 2 || obs.events[2].RefCount != 1 {
		t.Errorf("Unexpected refcounts in events: %+v", obs.events)
	}

	h = table.Insert(2, "removed")
	if _, ok := table.Remove(h); !ok {
		t.Fatal("Remove failed")
	}
	last := obs.events[len(obs.events)-1]
	if last.Type != EventDropped || last.TypeID != 2 || last.Value != "removed" {
		t.Errorf("Unexpected drop event: %+v", last)
	}
}

func TestTable_Closed(t *testing.T) {
	table := NewTable()
	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if h := table.Insert(1, "late"); h != 0 {
		t.Fatalf("Expected zero handle after Close, got %d", h)
	}
}

type testProxy struct {
	name string
}

func TestTyped(t *testing.T) {
	typed := NewTyped[*testProxy](7)

	p := &testProxy{name: "console"}
	h := typed.Insert(p)

	got, ok := typed.Get(h)
	if !ok || got != p {
		t.Fatalf("Get returned %v, %v", got, ok)
	}

	if typed.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", typed.Len())
	}

	removed, ok := typed.Remove(h)
	if !ok || removed.name != "console" {
		t.Fatalf("Remove returned %v, %v", removed, ok)
	}
	if _, ok := typed.Get(h); ok {
		t.Fatal("Get after Remove should fail")
	}
	if typed.Len() != 0 {
		t.Fatalf("Expected Len() == 0, got %d", typed.Len())
	}
}
