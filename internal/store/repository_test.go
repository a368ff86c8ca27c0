package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vspreview/vspreview/internal/db"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

func TestGetSession_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	s, err := repo.GetSession(context.Background(), "/scripts/missing.yaml")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if s != nil {
		t.Errorf("GetSession() = %+v, want nil", s)
	}
}

func TestSaveSession_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &Session{ScriptPath: "/scripts/a.yaml", Document: []byte("version: 1\n"), CurrentOutput: 2}
	if err := repo.SaveSession(ctx, first); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if first.ID == "" {
		t.Fatal("SaveSession() did not assign an ID")
	}

	second := &Session{ScriptPath: "/scripts/a.yaml", Document: []byte("version: 1\ncurrent_output_index: 0\n")}
	if err := repo.SaveSession(ctx, second); err != nil {
		t.Fatalf("second SaveSession() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second save ID = %q, want existing %q", second.ID, first.ID)
	}

	got, err := repo.GetSession(ctx, "/scripts/a.yaml")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetSession() = nil")
	}
	if string(got.Document) != string(second.Document) {
		t.Errorf("Document = %q, want %q", got.Document, second.Document)
	}
	if got.CurrentOutput != 0 {
		t.Errorf("CurrentOutput = %d, want 0", got.CurrentOutput)
	}
	if !got.CreatedAt.Equal(first.CreatedAt.Truncate(time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, first.CreatedAt)
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, p := range []string{"/scripts/b.yaml", "/scripts/a.yaml"} {
		if err := repo.SaveSession(ctx, &Session{ScriptPath: p, Document: []byte("{}")}); err != nil {
			t.Fatalf("SaveSession(%s) error = %v", p, err)
		}
	}

	sessions, err := repo.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("ListSessions() len = %d, want 2", len(sessions))
	}

	if err := repo.DeleteSession(ctx, "/scripts/a.yaml"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	sessions, _ = repo.ListSessions(ctx)
	if len(sessions) != 1 || sessions[0].ScriptPath != "/scripts/b.yaml" {
		t.Errorf("ListSessions() after delete = %+v", sessions)
	}
}

func TestConfig(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	v, err := repo.GetConfig(ctx, ConfigAuthToken)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if v != "" {
		t.Errorf("GetConfig() = %q, want empty", v)
	}

	for _, want := range []string{"one", "two"} {
		if err := repo.SetConfig(ctx, ConfigAuthToken, want); err != nil {
			t.Fatalf("SetConfig() error = %v", err)
		}
		got, _ := repo.GetConfig(ctx, ConfigAuthToken)
		if got != want {
			t.Errorf("GetConfig() = %q, want %q", got, want)
		}
	}
}
