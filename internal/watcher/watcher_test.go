package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCompare(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	file := fileState{exists: true, modTime: t0, size: 10}

	tests := []struct {
		name      string
		prev, cur fileState
		want      EventType
		changed   bool
	}{
		{"unchanged", file, file, 0, false},
		{"still missing", fileState{}, fileState{}, 0, false},
		{"created", fileState{}, file, EventCreate, true},
		{"deleted", file, fileState{}, EventDelete, true},
		{"touched", file, fileState{exists: true, modTime: t0.Add(time.Second), size: 10}, EventModify, true},
		{"resized", file, fileState{exists: true, modTime: t0, size: 11}, EventModify, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := compare(tt.prev, tt.cur)
			if changed != tt.changed || (changed && got != tt.want) {
				t.Errorf("compare() = %v, %v, want %v, %v", got, changed, tt.want, tt.changed)
			}
		})
	}
}

func TestPollWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.yaml")
	if err := os.WriteFile(path, []byte("outputs: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewPollWatcher(10*time.Millisecond, nil)
	events := make(chan EventType, 8)
	w.OnChange(func(p string, e EventType) {
		if p == path {
			events <- e
		}
	})

	if err := w.Watch(context.Background(), path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch(context.Background(), path); err == nil {
		t.Error("second Watch() error = nil")
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	expect(t, events, EventModify)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	expect(t, events, EventDelete)

	if err := os.WriteFile(path, []byte("outputs: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	expect(t, events, EventCreate)

	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func expect(t *testing.T, events <-chan EventType, want EventType) {
	t.Helper()
	select {
	case got := <-events:
		if got != want {
			t.Errorf("event = %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no %v event", want)
	}
}
