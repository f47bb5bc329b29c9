package models

import "time"

// Holding representa la posición de un usuario en una criptomoneda.
// Hay como máximo un holding por (usuario, moneda); una actualización
// que deja el amount en 0 lo elimina.
type Holding struct {
	CoinID          string    `json:"coin_id" binding:"required"`
	Amount          float64   `json:"amount" binding:"required,gt=0"`
	AverageBuyPrice float64   `json:"avg_buy_price,omitempty"`
	DateAdded       time.Time `json:"date_added"`
}

// PortfolioHolding es un holding valuado contra los precios actuales
type PortfolioHolding struct {
	Holding
	CoinName            string  `json:"coin_name"`
	CoinSymbol          string  `json:"coin_symbol"`
	CoinImage           string  `json:"coin_image"`
	CurrentPrice        float64 `json:"current_price"`
	CurrentValue        float64 `json:"current_value"`
	Change24h           float64 `json:"change_24h"`
	ChangePercentage24h float64 `json:"change_percentage_24h"`
}

// PortfolioValuation es el resumen del portafolio contra precios en vivo.
// Los holdings cuya moneda no está cargada quedan fuera de todos los totales.
type PortfolioValuation struct {
	Holdings                 []PortfolioHolding `json:"holdings"`
	TotalValue               float64            `json:"total_value"`
	TotalChange24h           float64            `json:"total_change_24h"`
	TotalChangePercentage24h float64            `json:"total_change_percentage_24h"`
	HasHoldings              bool               `json:"has_holdings"`
	BestPerformer            *PortfolioHolding  `json:"best_performer,omitempty"`
	WorstPerformer           *PortfolioHolding  `json:"worst_performer,omitempty"`
}
