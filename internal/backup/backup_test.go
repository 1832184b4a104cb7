package backup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukerupert/choreboard/internal/database"
	"github.com/dukerupert/choreboard/internal/store"
)

func TestSealOpen(t *testing.T) {
	plain := []byte("SQLite format 3\x00 pretend database pages")

	sealed, err := Seal(plain, "correct horse")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if !IsSealed(sealed) {
		t.Fatal("sealed output missing header")
	}
	if bytes.Contains(sealed, plain) {
		t.Error("sealed output contains plaintext")
	}

	again, err := Seal(plain, "correct horse")
	if err != nil {
		t.Fatalf("seal again: %v", err)
	}
	if bytes.Equal(sealed, again) {
		t.Error("two seals of the same input should differ")
	}

	got, err := Open(sealed, "correct horse")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("open = %q, want %q", got, plain)
	}

	if _, err := Open(sealed, "battery staple"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("wrong passphrase err = %v, want ErrBadPassphrase", err)
	}

	tampered := bytes.Clone(sealed)
	tampered[len(tampered)-1] ^= 0xff
	if _, err := Open(tampered, "correct horse"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("tampered err = %v, want ErrBadPassphrase", err)
	}

	if _, err := Seal(plain, ""); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if _, err := Open(plain, "x"); err == nil {
		t.Error("expected error opening unsealed data")
	}
}

func seedDB(t *testing.T, path string) {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if _, err := store.NewUserStore(db).Create(context.Background(), "alice", "alice@example.com", "hash"); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func userCount(t *testing.T, path string) int {
	t.Helper()
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		t.Fatalf("count users: %v", err)
	}
	return n
}

func TestSnapshotRestore(t *testing.T) {
	for _, passphrase := range []string{"", "s3cret"} {
		name := "plain"
		if passphrase != "" {
			name = "sealed"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()
			live := filepath.Join(dir, "live.db")
			snap := filepath.Join(dir, "snap.bak")
			seedDB(t, live)

			db, err := database.Open(live)
			if err != nil {
				t.Fatalf("open live: %v", err)
			}
			size, err := Snapshot(ctx, db, snap, passphrase)
			db.Close()
			if err != nil {
				t.Fatalf("snapshot: %v", err)
			}
			if size <= 0 {
				t.Errorf("snapshot size = %d", size)
			}

			data, err := os.ReadFile(snap)
			if err != nil {
				t.Fatalf("read snapshot: %v", err)
			}
			if got, want := IsSealed(data), passphrase != ""; got != want {
				t.Errorf("IsSealed = %v, want %v", got, want)
			}
			if _, err := os.Stat(snap + ".plain"); !errors.Is(err, os.ErrNotExist) {
				t.Error("plaintext staging copy left behind")
			}

			restored := filepath.Join(dir, "restored.db")
			if err := Restore(ctx, snap, restored, passphrase); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if n := userCount(t, restored); n != 1 {
				t.Errorf("restored users = %d, want 1", n)
			}
		})
	}
}

func TestSnapshotRefusesExistingFile(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	dst := filepath.Join(t.TempDir(), "snap.bak")
	if err := os.WriteFile(dst, []byte("keep me"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Snapshot(context.Background(), db, dst, ""); err == nil {
		t.Fatal("expected error for existing destination")
	}
	if data, _ := os.ReadFile(dst); string(data) != "keep me" {
		t.Errorf("destination overwritten: %q", data)
	}
}

func TestRestoreRejects(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	live := filepath.Join(dir, "live.db")
	seedDB(t, live)

	db, err := database.Open(live)
	if err != nil {
		t.Fatalf("open live: %v", err)
	}
	sealed := filepath.Join(dir, "sealed.bak")
	if _, err := Snapshot(ctx, db, sealed, "pw"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	db.Close()

	garbage := filepath.Join(dir, "garbage.bak")
	if err := os.WriteFile(garbage, []byte("not a database"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		src        string
		passphrase string
	}{
		{"sealed without passphrase", sealed, ""},
		{"wrong passphrase", sealed, "nope"},
		{"not sqlite", garbage, ""},
		{"missing file", filepath.Join(dir, "missing.bak"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Restore(ctx, tt.src, live, tt.passphrase); err == nil {
				t.Fatal("expected error")
			}
			// The live database is untouched.
			if n := userCount(t, live); n != 1 {
				t.Errorf("live users = %d, want 1", n)
			}
		})
	}
}
