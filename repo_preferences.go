package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

// TimeoutPreference is the stored per-user idle timeout, in minutes.
type TimeoutPreference struct {
	bun.BaseModel      `bun:"table:session_preferences,alias:pref"`
	UserID             string     `bun:"user_id,pk" json:"user_id,omitempty"`
	IdleTimeoutMinutes int        `bun:"idle_timeout_minutes,notnull" json:"idle_timeout_minutes,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PreferencesRepository reads and writes per-user timeout preferences. It
// implements PreferenceStore; a missing row reads as zero so the Store
// applies its default.
type PreferencesRepository struct {
	db *bun.DB
}

var _ PreferenceStore = (*PreferencesRepository)(nil)

// NewPreferencesRepository returns the Bun-backed preference store.
func NewPreferencesRepository(db *bun.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// IdleTimeout implements PreferenceStore.
func (r *PreferencesRepository) IdleTimeout(ctx context.Context, userID string) (int, error) {
	pref := &TimeoutPreference{}

	err := r.db.NewSelect().
		Model(pref).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return pref.IdleTimeoutMinutes, nil
}

// SetIdleTimeout upserts the preference for a user.
func (r *PreferencesRepository) SetIdleTimeout(ctx context.Context, userID string, minutes int) error {
	now := time.Now()
	pref := &TimeoutPreference{
		UserID:             userID,
		IdleTimeoutMinutes: minutes,
		UpdatedAt:          &now,
	}

	_, err := r.db.NewInsert().
		Model(pref).
		On("CONFLICT (user_id) DO UPDATE").
		Set("idle_timeout_minutes = EXCLUDED.idle_timeout_minutes").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// CreatePreferencesTable provisions the preference table for embedded/sqlite
// setups that do not run external migrations.
func CreatePreferencesTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*TimeoutPreference)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}
