// Package backup takes point-in-time snapshots of the choreboard database and
// restores them, optionally sealed with a passphrase.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dukerupert/choreboard/internal/database"
)

var sqliteHeader = []byte("SQLite format 3\x00")

// Snapshot writes a consistent copy of db to dst and returns its size in
// bytes. dst must not already exist. A non-empty passphrase seals the copy.
func Snapshot(ctx context.Context, db *sql.DB, dst, passphrase string) (int64, error) {
	if _, err := os.Stat(dst); err == nil {
		return 0, fmt.Errorf("snapshot %s: file already exists", dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("stat %s: %w", dst, err)
	}

	target := dst
	if passphrase != "" {
		target = dst + ".plain"
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("remove stale %s: %w", target, err)
		}
		defer os.Remove(target)
	}

	// VACUUM INTO produces a compacted copy without blocking writers for the
	// whole duration and works for WAL and in-memory databases alike.
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		return 0, fmt.Errorf("vacuum into: %w", err)
	}

	if passphrase != "" {
		plain, err := os.ReadFile(target)
		if err != nil {
			return 0, fmt.Errorf("read snapshot: %w", err)
		}
		sealed, err := Seal(plain, passphrase)
		if err != nil {
			return 0, err
		}
		if err := os.WriteFile(dst, sealed, 0o600); err != nil {
			return 0, fmt.Errorf("write snapshot: %w", err)
		}
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat snapshot: %w", err)
	}
	return info.Size(), nil
}

// Restore replaces the database at dst with the snapshot at src. The snapshot
// is opened (and decrypted when sealed), checked for integrity and migrated
// to the current schema before it is moved into place, so a failed restore
// leaves dst untouched. The server must not be running against dst.
func Restore(ctx context.Context, src, dst, passphrase string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	switch {
	case IsSealed(data):
		if passphrase == "" {
			return errors.New("snapshot is sealed: passphrase required")
		}
		if data, err = Open(data, passphrase); err != nil {
			return err
		}
	case !bytes.HasPrefix(data, sqliteHeader):
		return errors.New("snapshot is not a SQLite database")
	}

	staging, err := os.CreateTemp(filepath.Dir(dst), ".choreboard-restore-*.db")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	stagingPath := staging.Name()
	defer func() {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			os.Remove(stagingPath + suffix)
		}
	}()

	if _, err := staging.Write(data); err != nil {
		staging.Close()
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := staging.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}

	if err := verify(ctx, stagingPath); err != nil {
		return err
	}

	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", dst+suffix, err)
		}
	}
	if err := os.Rename(stagingPath, dst); err != nil {
		return fmt.Errorf("move restored database into place: %w", err)
	}
	return nil
}

func verify(ctx context.Context, path string) error {
	db, err := database.Open(path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	// Fold the WAL back into the main file before it is renamed.
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}
