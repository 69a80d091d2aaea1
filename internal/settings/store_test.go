package settings

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the settings table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE settings (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestSQLiteStore_GetSet(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, "hass/autodiscovery"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "hass/autodiscovery", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "hass/autodiscovery", "false"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	got, err := store.Get(ctx, "hass/autodiscovery")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "false" {
		t.Errorf("Get() = %q, want %q", got, "false")
	}
}

func TestSQLiteStore_UpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	store.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	if err := store.Set(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var updated string
	if err := db.QueryRow(`SELECT updated_at FROM settings WHERE key = 'k'`).Scan(&updated); err != nil {
		t.Fatalf("SELECT error = %v", err)
	}
	if updated != "2026-03-01T12:00:00Z" {
		t.Errorf("updated_at = %q, want 2026-03-01T12:00:00Z", updated)
	}
}

func TestSQLiteStore_Delete(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error = %v, want nil", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ReadWriteBool(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		def     bool
		want    bool
		wantErr error
	}{
		{"missing uses default true", "", true, true, nil},
		{"missing uses default false", "", false, false, nil},
		{"stored true", "true", false, true, nil},
		{"stored false", "false", true, false, nil},
		{"stored 1", "1", false, true, nil},
		{"garbage returns default", "maybe", true, true, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSQLiteStore(setupTestDB(t))
			ctx := context.Background()

			if tt.stored != "" {
				if err := store.Set(ctx, "flag", tt.stored); err != nil {
					t.Fatalf("Set() error = %v", err)
				}
			}

			got, err := store.ReadBool(ctx, "flag", tt.def)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReadBool() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteStore_WriteBoolRoundTrip(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	for _, v := range []bool{true, false, true} {
		if err := store.WriteBool(ctx, "hass/autodiscovery", v); err != nil {
			t.Fatalf("WriteBool(%v) error = %v", v, err)
		}
		got, err := store.ReadBool(ctx, "hass/autodiscovery", !v)
		if err != nil {
			t.Fatalf("ReadBool() error = %v", err)
		}
		if got != v {
			t.Errorf("ReadBool() = %v, want %v", got, v)
		}
	}
}

func TestSQLiteStore_EmptyKey(t *testing.T) {
	store := NewSQLiteStore(setupTestDB(t))
	ctx := context.Background()

	if _, err := store.Get(ctx, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Get(\"\") error = %v, want ErrInvalidKey", err)
	}
	if err := store.Set(ctx, "", "v"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
	}
	if err := store.WriteBool(ctx, "", true); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("WriteBool(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestSQLiteStore_ClosedDB(t *testing.T) {
	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	db.Close()

	got, err := store.ReadBool(context.Background(), "flag", true)
	if err == nil {
		t.Error("ReadBool() on closed db expected error")
	}
	if !got {
		t.Error("ReadBool() on error should return the default")
	}
}
