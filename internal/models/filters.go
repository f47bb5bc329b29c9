package models

// Filtros de capitalización de mercado
const (
	MarketCapFilterAll   = "all"
	MarketCapFilterTop10 = "top10"
	MarketCapFilterTop50 = "top50"
)

// Filtros por signo de la variación en 24h
const (
	PriceChangeFilterAll      = "all"
	PriceChangeFilterPositive = "positive"
	PriceChangeFilterNegative = "negative"
)

// Direcciones de ordenamiento
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Claves de ordenamiento soportadas
const (
	SortKeyName          = "name"
	SortKeySymbol        = "symbol"
	SortKeyCurrentPrice  = "current_price"
	SortKeyChange24h     = "price_change_percentage_24h"
	SortKeyMarketCap     = "market_cap"
	SortKeyMarketCapRank = "market_cap_rank"
)

// FilterState son los filtros activos de la tabla de monedas.
// Es entrada externa de la capa de UI, el núcleo solo la lee.
type FilterState struct {
	MarketCapFilter   string `json:"market_cap_filter"`
	PriceChangeFilter string `json:"price_change_filter"`
}

// SortConfig es la configuración de ordenamiento de la tabla
type SortConfig struct {
	Key       string `json:"key"`
	Direction string `json:"direction"`
}

// DefaultFilters devuelve los filtros iniciales de la tabla
func DefaultFilters() FilterState {
	return FilterState{
		MarketCapFilter:   MarketCapFilterAll,
		PriceChangeFilter: PriceChangeFilterAll,
	}
}

// DefaultSortConfig devuelve el ordenamiento inicial: ranking ascendente
func DefaultSortConfig() SortConfig {
	return SortConfig{Key: SortKeyMarketCapRank, Direction: SortAsc}
}

// Preferences son las preferencias de UI que se persisten por usuario
type Preferences struct {
	Filters    FilterState `json:"filters"`
	SortConfig SortConfig  `json:"sort_config"`
	Theme      string      `json:"theme"`
}

// DefaultPreferences devuelve las preferencias iniciales
func DefaultPreferences() Preferences {
	return Preferences{
		Filters:    DefaultFilters(),
		SortConfig: DefaultSortConfig(),
		Theme:      "light",
	}
}
