package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/scantrack/internal/auth"
	"github.com/erazemk/scantrack/internal/model"
	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/store"
)

// Authorize checks password against the shared admin password.
func (t *Tracker) Authorize(ctx context.Context, password string) error {
	hash, err := adminPasswordHash(ctx, t.db)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(hash, password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}
	return nil
}

// ChangeAdminPassword replaces the admin password. The current password
// must be supplied.
func (t *Tracker) ChangeAdminPassword(ctx context.Context, current, next string) error {
	if err := t.Authorize(ctx, current); err != nil {
		return err
	}
	if err := setAdminPassword(ctx, t.db, next); err != nil {
		return err
	}

	slog.Info("admin password changed")
	t.changed(ctx, notify.TableSettings, notify.OpUpdate, model.SettingAdminPassword)
	return nil
}

// ResetAdminPassword sets the admin password without checking the current
// one. It is meant for offline recovery.
func ResetAdminPassword(ctx context.Context, db *sql.DB, password string) error {
	return setAdminPassword(ctx, db, password)
}

func setAdminPassword(ctx context.Context, db *sql.DB, password string) error {
	if err := model.ValidateAdminPassword(password); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return store.UpdateSetting(ctx, db, model.SettingAdminPassword, hash)
}

// adminPasswordHash returns the stored admin password hash, storing the
// hash of the default password on first use.
func adminPasswordHash(ctx context.Context, db *sql.DB) (string, error) {
	hash, ok, err := store.LookupSetting(ctx, db, model.SettingAdminPassword)
	if err != nil {
		return "", err
	}
	if ok {
		return hash, nil
	}

	def, err := auth.HashPassword(model.DefaultAdminPassword)
	if err != nil {
		return "", err
	}
	return store.GetSetting(ctx, db, model.SettingAdminPassword, def)
}

// AddLocation creates a start location.
func (t *Tracker) AddLocation(ctx context.Context, name string) (*model.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidLocation
	}

	loc, err := store.CreateLocation(ctx, t.db, name)
	if errors.Is(err, store.ErrConflict) {
		return nil, fmt.Errorf("location %q: %w", name, ErrLocationExists)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("location added", "location", name)
	t.changed(ctx, notify.TableLocations, notify.OpInsert, loc.ID)
	return loc, nil
}

// DeleteLocation removes a start location. Boxes keep the location name
// they were created with.
func (t *Tracker) DeleteLocation(ctx context.Context, id string) error {
	if err := store.DeleteLocation(ctx, t.db, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrLocationNotFound
		}
		return err
	}

	slog.Info("location deleted", "id", id)
	t.changed(ctx, notify.TableLocations, notify.OpDelete, id)
	return nil
}
