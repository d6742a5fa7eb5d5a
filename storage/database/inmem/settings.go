package inmemdb

import (
	"context"

	"github.com/gothwad/classesx/core/settings"
)

type settingsRepository struct {
	db *settingsTable
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db.settings}
}

func (repo *settingsRepository) GetSettings(context.Context) (settings.Settings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.s == nil {
		return settings.Settings{}, settings.ErrNotFound
	}
	return *repo.db.s, nil
}

func (repo *settingsRepository) SaveSettings(_ context.Context, s settings.Settings) (settings.Settings, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.s = &s
	return s, nil
}
