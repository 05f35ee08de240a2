package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"adala.org/internal/settings"
)

// SettingsStore implements settings.Store on the single-row system_settings table.
type SettingsStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ settings.Store = (*SettingsStore)(nil)

const settingsColumns = `ai_threshold, auto_publish, strict_mode, coalesce(updated_by, ''), updated_at`

func scanSettings(row rowScanner) (settings.Settings, error) {
	var s settings.Settings
	if err := row.Scan(&s.AIThreshold, &s.AutoPublish, &s.StrictMode, &s.UpdatedBy, &s.UpdatedAt); err != nil {
		return settings.Settings{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// Get returns the stored row, or the defaults when the row was never written.
func (s *SettingsStore) Get(ctx context.Context) (settings.Settings, error) {
	if s.db == nil {
		return settings.Settings{}, errNoDB
	}
	cur, err := scanSettings(s.db.QueryRowContext(ctx, `select `+settingsColumns+` from system_settings where id = 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Defaults(), nil
	}
	return cur, err
}

// Update locks the row, applies p and writes the result in one transaction.
func (s *SettingsStore) Update(ctx context.Context, p settings.Patch, by string) (settings.Settings, error) {
	if s.db == nil {
		return settings.Settings{}, errNoDB
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return settings.Settings{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanSettings(tx.QueryRowContext(ctx, `select `+settingsColumns+` from system_settings where id = 1 for update`))
	if errors.Is(err, sql.ErrNoRows) {
		cur, err = settings.Defaults(), nil
	}
	if err != nil {
		return settings.Settings{}, err
	}
	if p.Empty() {
		return cur, nil
	}
	next := p.Apply(cur)
	if err := settings.Validate(next); err != nil {
		return settings.Settings{}, err
	}
	next.UpdatedBy = strings.TrimSpace(by)
	next.UpdatedAt = s.now().UTC()

	if _, err := tx.ExecContext(ctx, `
		insert into system_settings (id, ai_threshold, auto_publish, strict_mode, updated_by, updated_at)
		values (1, $1, $2, $3, $4, $5)
		on conflict (id) do update set ai_threshold = excluded.ai_threshold,
			auto_publish = excluded.auto_publish, strict_mode = excluded.strict_mode,
			updated_by = excluded.updated_by, updated_at = excluded.updated_at
	`, next.AIThreshold, next.AutoPublish, next.StrictMode, nullIfEmpty(next.UpdatedBy), next.UpdatedAt); err != nil {
		return settings.Settings{}, err
	}
	if err := tx.Commit(); err != nil {
		return settings.Settings{}, err
	}
	return next, nil
}
