package backend

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	b := &mockBackend{kind: "local", name: "test", enabled: true}

	if err := registry.Register(b); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := registry.Register(b); !errors.Is(err, ErrBackendExists) {
		t.Errorf("Register() duplicate error = %v, want ErrBackendExists", err)
	}
	if err := registry.Register(nil); err == nil {
		t.Error("Register(nil) should fail")
	}
	if err := registry.Register(&mockBackend{}); err == nil {
		t.Error("Register() without a name should fail")
	}
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockBackend{kind: "local", name: "test", enabled: true})

	got, ok := registry.Get("test")
	if !ok || got.Name() != "test" {
		t.Fatalf("Get(test) = %v, %v", got, ok)
	}
	if _, ok := registry.Get("nonexistent"); ok {
		t.Error("Get() should return false for nonexistent backend")
	}
}

func TestRegistry_ListSortedAndEnabled(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&mockBackend{kind: "local", name: "rigor", enabled: true})
	_ = registry.Register(&mockBackend{kind: "local", name: "files", enabled: true})
	_ = registry.Register(&mockBackend{kind: "local", name: "archive", enabled: false})

	if got, want := registry.Names(), []string{"archive", "files", "rigor"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	enabled := registry.ListEnabled()
	if len(enabled) != 2 || enabled[0].Name() != "files" || enabled[1].Name() != "rigor" {
		t.Errorf("ListEnabled() = %v", enabled)
	}
	if len(registry.List()) != 3 {
		t.Error("ListEnabled() modified the registry")
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()
	b := &mockBackend{kind: "local", name: "test", enabled: true}
	_ = registry.Register(b)

	if err := registry.Unregister("test"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}
	if _, ok := registry.Get("test"); ok {
		t.Error("Get() should return false after Unregister()")
	}
	if b.stopped != 1 {
		t.Errorf("backend stopped %d times, want 1", b.stopped)
	}
	if err := registry.Unregister("test"); !errors.Is(err, ErrBackendNotFound) {
		t.Errorf("second Unregister() error = %v, want ErrBackendNotFound", err)
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	registry := NewRegistry()
	on := &mockBackend{kind: "local", name: "on", enabled: true, stopErr: errStop}
	off := &mockBackend{kind: "local", name: "off", enabled: false}
	_ = registry.Register(on)
	_ = registry.Register(off)

	if err := registry.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	if on.started != 1 || off.started != 0 {
		t.Errorf("started on=%d off=%d, want 1 and 0", on.started, off.started)
	}

	err := registry.StopAll()
	if !errors.Is(err, errStop) {
		t.Errorf("StopAll() error = %v, want errStop", err)
	}
	if on.stopped != 1 || off.stopped != 1 {
		t.Errorf("stopped on=%d off=%d, want 1 and 1", on.stopped, off.stopped)
	}
}
