package repository

import (
	"database/sql"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// HoldingsRepository persiste las tenencias en almacenamiento durable.
// El store escribe a través de él al final de cada mutación y recarga
// todo al arrancar el proceso.
type HoldingsRepository struct {
	db *sql.DB
}

// NewHoldingsRepository crea un nuevo repositorio de tenencias
func NewHoldingsRepository(db *sql.DB) *HoldingsRepository {
	return &HoldingsRepository{
		db: db,
	}
}

// SaveHolding inserta o actualiza la tenencia de un usuario para una moneda
func (r *HoldingsRepository) SaveHolding(userID string, holding *models.Holding) error {
	query := `
		INSERT INTO holdings (user_id, coin_id, amount, avg_buy_price, date_added)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, coin_id) DO UPDATE SET
			amount = excluded.amount,
			avg_buy_price = excluded.avg_buy_price
	`

	_, err := r.db.Exec(query, userID, holding.CoinID, holding.Amount, holding.AverageBuyPrice, holding.DateAdded)
	return err
}

// DeleteHolding elimina la tenencia de un usuario para una moneda
func (r *HoldingsRepository) DeleteHolding(userID, coinID string) error {
	query := `DELETE FROM holdings WHERE user_id = ? AND coin_id = ?`

	_, err := r.db.Exec(query, userID, coinID)
	return err
}

// LoadAllHoldings recarga todas las tenencias persistidas, agrupadas por
// usuario y moneda
func (r *HoldingsRepository) LoadAllHoldings() (map[string]map[string]*models.Holding, error) {
	query := `SELECT user_id, coin_id, amount, avg_buy_price, date_added FROM holdings`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holdings := make(map[string]map[string]*models.Holding)
	for rows.Next() {
		var userID string
		var holding models.Holding
		err := rows.Scan(&userID, &holding.CoinID, &holding.Amount, &holding.AverageBuyPrice, &holding.DateAdded)
		if err != nil {
			return nil, err
		}

		if holdings[userID] == nil {
			holdings[userID] = make(map[string]*models.Holding)
		}
		holdings[userID][holding.CoinID] = &holding
	}

	return holdings, rows.Err()
}
