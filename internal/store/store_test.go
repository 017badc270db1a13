package store

import (
	"context"
	"path/filepath"
	"testing"
)

func exerciseCredentialStore(t *testing.T, s CredentialStore) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.GetCredential(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	if err := s.SetCredential(ctx, "first"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if err := s.SetCredential(ctx, "second"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	token, ok, err := s.GetCredential(ctx)
	if err != nil || !ok || token != "second" {
		t.Fatalf("GetCredential = %q, %v, %v; want last write", token, ok, err)
	}

	if err := s.ClearCredential(ctx); err != nil {
		t.Fatalf("ClearCredential: %v", err)
	}
	if _, ok, _ := s.GetCredential(ctx); ok {
		t.Fatal("credential still present after clear")
	}
	if err := s.ClearCredential(ctx); err != nil {
		t.Fatalf("clearing an empty store: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseCredentialStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "client.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer s.Close()

	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	exerciseCredentialStore(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := s.SetCredential(ctx, "persisted"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	token, ok, err := reopened.GetCredential(ctx)
	if err != nil || !ok || token != "persisted" {
		t.Errorf("after reopen: %q, %v, %v", token, ok, err)
	}
}
