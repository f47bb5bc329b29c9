package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// PreferencesRepository persiste las preferencias de UI de cada usuario:
// filtros, ordenamiento y tema. Son entrada externa para el núcleo.
type PreferencesRepository struct {
	db *sql.DB
}

func NewPreferencesRepository(db *sql.DB) *PreferencesRepository {
	return &PreferencesRepository{
		db: db,
	}
}

// GetPreferences devuelve las preferencias del usuario o las iniciales
// si todavía no guardó ninguna
func (r *PreferencesRepository) GetPreferences(userID string) (models.Preferences, error) {
	query := `SELECT filters, sort_config, theme FROM preferences WHERE user_id = ?`

	var filtersJSON, sortJSON, theme string
	err := r.db.QueryRow(query, userID).Scan(&filtersJSON, &sortJSON, &theme)
	if err == sql.ErrNoRows {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.Preferences{}, err
	}

	prefs := models.DefaultPreferences()
	if err := json.Unmarshal([]byte(filtersJSON), &prefs.Filters); err != nil {
		return models.Preferences{}, err
	}
	if err := json.Unmarshal([]byte(sortJSON), &prefs.SortConfig); err != nil {
		return models.Preferences{}, err
	}
	prefs.Theme = theme

	return prefs, nil
}

// SavePreferences guarda las preferencias completas del usuario
func (r *PreferencesRepository) SavePreferences(userID string, prefs models.Preferences) error {
	filtersJSON, err := json.Marshal(prefs.Filters)
	if err != nil {
		return err
	}
	sortJSON, err := json.Marshal(prefs.SortConfig)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO preferences (user_id, filters, sort_config, theme, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			filters = excluded.filters,
			sort_config = excluded.sort_config,
			theme = excluded.theme,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.Exec(query, userID, string(filtersJSON), string(sortJSON), prefs.Theme)
	return err
}
