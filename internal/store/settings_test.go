package store

import (
	"context"
	"testing"

	"github.com/erazemk/scantrack/internal/db"
	"github.com/erazemk/scantrack/internal/model"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// First call should generate a secret.
	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetSettingCreatesDefault(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	value, err := GetSetting(ctx, database, model.SettingAdminPassword, "default-hash")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "default-hash" {
		t.Errorf("expected default value, got %q", value)
	}

	// The default is persisted; a different default no longer applies.
	value, _ = GetSetting(ctx, database, model.SettingAdminPassword, "other")
	if value != "default-hash" {
		t.Errorf("expected persisted default, got %q", value)
	}
}

func TestUpdateSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := UpdateSetting(ctx, database, "theme", "dark"); err != nil {
		t.Fatalf("UpdateSetting insert: %v", err)
	}
	if err := UpdateSetting(ctx, database, "theme", "light"); err != nil {
		t.Fatalf("UpdateSetting update: %v", err)
	}

	value, _ := GetSetting(ctx, database, "theme", "unused")
	if value != "light" {
		t.Errorf("expected 'light', got %q", value)
	}
}

func TestLookupSetting(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, ok, err := LookupSetting(ctx, database, "missing")
	if err != nil || ok {
		t.Fatalf("LookupSetting(missing) = %v, %v", ok, err)
	}

	UpdateSetting(ctx, database, "missing", "now-present")
	value, ok, _ := LookupSetting(ctx, database, "missing")
	if !ok || value != "now-present" {
		t.Errorf("LookupSetting = %q, %v", value, ok)
	}
}
