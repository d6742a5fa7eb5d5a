package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/gothwad/classesx/core/settings"
)

type settingsRow struct {
	AppName          string `db:"app_name"`
	LogoEmoji        string `db:"logo_emoji"`
	PrimaryColor     string `db:"primary_color"`
	BackgroundColor  string `db:"background_color"`
	UnderMaintenance bool   `db:"under_maintenance"`
}

type settingsRepository struct {
	db *sqlx.DB
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) settings.Repository {
	return &settingsRepository{db: db}
}

func (repo *settingsRepository) GetSettings(ctx context.Context) (settings.Settings, error) {
	var row settingsRow
	err := repo.db.GetContext(ctx, &row, `SELECT app_name, logo_emoji, primary_color, background_color,
		under_maintenance FROM settings WHERE id = 1`)
	if err != nil {
		if isNoRows(err) {
			return settings.Settings{}, settings.ErrNotFound
		}
		return settings.Settings{}, errors.Wrap(mapErr(err), "selecting settings")
	}
	return settings.Settings(row), nil
}

func (repo *settingsRepository) SaveSettings(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO settings
		(id, app_name, logo_emoji, primary_color, background_color, under_maintenance)
		VALUES (1, :app_name, :logo_emoji, :primary_color, :background_color, :under_maintenance)
		ON CONFLICT (id) DO UPDATE SET app_name = EXCLUDED.app_name, logo_emoji = EXCLUDED.logo_emoji,
		primary_color = EXCLUDED.primary_color, background_color = EXCLUDED.background_color,
		under_maintenance = EXCLUDED.under_maintenance`, settingsRow(s))
	if err != nil {
		return settings.Settings{}, errors.Wrap(mapErr(err), "saving settings")
	}
	return s, nil
}
