package models

// CoinData representa una criptomoneda con sus datos de mercado actuales
type CoinData struct {
	ID                       string  `json:"id"`
	Name                     string  `json:"name"`
	Symbol                   string  `json:"symbol"`
	Image                    string  `json:"image"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
}

// SearchResult representa un resultado de búsqueda de CoinGecko
type SearchResult struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Thumb         string `json:"thumb"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// SimplePrice es la entrada del mapa que devuelve /simple/price para una moneda
type SimplePrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// CoinDetail contiene los campos del detalle de una moneda que consumimos.
// Solo se usa para confirmar la identidad, no se persiste en el store.
type CoinDetail struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Image  struct {
		Thumb string `json:"thumb"`
		Small string `json:"small"`
		Large string `json:"large"`
	} `json:"image"`
}

// ChartPoint es un punto de una serie histórica de precios.
// MarketCap y Volume son punteros porque la API puede devolver
// arrays de distinta longitud y los índices fuera de rango quedan ausentes.
type ChartPoint struct {
	Timestamp int64    `json:"timestamp"`
	Price     float64  `json:"price"`
	MarketCap *float64 `json:"market_cap,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
}

// ChartSeries es la serie histórica de una moneda para un periodo.
// Los puntos están ordenados por timestamp ascendente y la serie se
// reemplaza completa en cada refetch, nunca se parchea.
type ChartSeries struct {
	CoinID      string       `json:"coin_id"`
	Timeframe   string       `json:"timeframe"`
	Points      []ChartPoint `json:"data"`
	LastUpdated int64        `json:"last_updated"`
}

// Periodos de gráfico soportados
const (
	Timeframe24h = "24h"
	Timeframe7d  = "7d"
	Timeframe30d = "30d"
	Timeframe90d = "90d"
	Timeframe1y  = "1y"
)
