package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

func InitDB() error {
	// Crear el directorio database si no existe
	if err := os.MkdirAll("database", 0755); err != nil {
		return err
	}

	var err error
	DB, err = sql.Open("sqlite3", filepath.Join("database", "panel.db"))
	if err != nil {
		return err
	}

	return CreateTables(DB)
}

// CreateTables crea el esquema sobre la conexión recibida. Separado de
// InitDB para poder usarlo con bases temporales en los tests.
func CreateTables(db *sql.DB) error {
	// Crear tabla de usuarios si no existe
	createUsersTableSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := db.Exec(createUsersTableSQL); err != nil {
		return err
	}

	// Crear tabla de tenencias: como máximo una por usuario y moneda
	createHoldingsTableSQL := `
	CREATE TABLE IF NOT EXISTS holdings (
		user_id TEXT NOT NULL,
		coin_id TEXT NOT NULL,
		amount REAL NOT NULL,
		avg_buy_price REAL DEFAULT 0,
		date_added DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY(user_id, coin_id),
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createHoldingsTableSQL); err != nil {
		return err
	}

	// Crear tabla de preferencias de UI por usuario
	createPreferencesTableSQL := `
	CREATE TABLE IF NOT EXISTS preferences (
		user_id TEXT PRIMARY KEY,
		filters TEXT NOT NULL,
		sort_config TEXT NOT NULL,
		theme TEXT DEFAULT 'light',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`

	if _, err := db.Exec(createPreferencesTableSQL); err != nil {
		return err
	}

	return nil
}
