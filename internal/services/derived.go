package services

import (
	"sort"
	"strings"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// FilteredSortedCoins aplica en orden: búsqueda por substring en nombre o
// símbolo, filtro por ranking de capitalización, filtro por signo de la
// variación 24h y ordenamiento estable por la clave configurada.
func FilteredSortedCoins(coins []models.CoinData, searchQuery string, filters models.FilterState, sortConfig models.SortConfig) []models.CoinData {
	filtered := make([]models.CoinData, 0, len(coins))

	query := strings.ToLower(strings.TrimSpace(searchQuery))
	for _, coin := range coins {
		if query != "" {
			name := strings.ToLower(coin.Name)
			symbol := strings.ToLower(coin.Symbol)
			if !strings.Contains(name, query) && !strings.Contains(symbol, query) {
				continue
			}
		}

		switch filters.MarketCapFilter {
		case models.MarketCapFilterTop10:
			if coin.MarketCapRank > 10 {
				continue
			}
		case models.MarketCapFilterTop50:
			if coin.MarketCapRank > 50 {
				continue
			}
		}

		switch filters.PriceChangeFilter {
		case models.PriceChangeFilterPositive:
			if coin.PriceChangePercentage24h < 0 {
				continue
			}
		case models.PriceChangeFilterNegative:
			if coin.PriceChangePercentage24h >= 0 {
				continue
			}
		}

		filtered = append(filtered, coin)
	}

	sortCoins(filtered, sortConfig)
	return filtered
}

// sortCoins ordena el slice de forma estable según la configuración.
// Para market_cap y current_price "ascendente" muestra los valores más
// altos primero: la vista por defecto pone lo más grande arriba. El
// ranking y el resto de claves numéricas ordenan de forma literal.
func sortCoins(coins []models.CoinData, sortConfig models.SortConfig) {
	descending := sortConfig.Direction == models.SortDesc

	sort.SliceStable(coins, func(i, j int) bool {
		comparison := compareCoins(coins[i], coins[j], sortConfig.Key)

		switch sortConfig.Key {
		case models.SortKeyMarketCap, models.SortKeyCurrentPrice:
			// Inversión intencional: asc = mayor primero
			if descending {
				return comparison < 0
			}
			return comparison > 0
		default:
			if descending {
				return comparison > 0
			}
			return comparison < 0
		}
	})
}

// compareCoins compara dos monedas por la clave: strings con comparación
// lexicográfica en minúsculas, numéricos por diferencia aritmética
func compareCoins(a, b models.CoinData, key string) int {
	switch key {
	case models.SortKeyName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case models.SortKeySymbol:
		return strings.Compare(strings.ToLower(a.Symbol), strings.ToLower(b.Symbol))
	case models.SortKeyCurrentPrice:
		return compareFloats(a.CurrentPrice, b.CurrentPrice)
	case models.SortKeyChange24h:
		return compareFloats(a.PriceChangePercentage24h, b.PriceChangePercentage24h)
	case models.SortKeyMarketCap:
		return compareFloats(a.MarketCap, b.MarketCap)
	case models.SortKeyMarketCapRank:
		return a.MarketCapRank - b.MarketCapRank
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// PortfolioValuation valúa las tenencias contra los precios en vivo.
// El precio de hace 24h se reconstruye como currentPrice/(1+pct/100),
// asumiendo que la cantidad fue constante durante la ventana; esa
// aproximación viene del diseño original y se conserva tal cual.
// Las tenencias cuya moneda no está cargada quedan fuera de los totales.
func PortfolioValuation(holdings []models.Holding, coins map[string]models.CoinData) models.PortfolioValuation {
	valuation := models.PortfolioValuation{
		Holdings:    []models.PortfolioHolding{},
		HasHoldings: len(holdings) > 0,
	}

	var totalValue, totalValue24hAgo float64

	for _, holding := range holdings {
		coin, exists := coins[holding.CoinID]
		if !exists {
			continue
		}

		currentValue := holding.Amount * coin.CurrentPrice
		price24hAgo := coin.CurrentPrice / (1 + coin.PriceChangePercentage24h/100)
		value24hAgo := holding.Amount * price24hAgo
		change24h := currentValue - value24hAgo

		changePercentage := 0.0
		if value24hAgo > 0 {
			changePercentage = (change24h / value24hAgo) * 100
		}

		totalValue += currentValue
		totalValue24hAgo += value24hAgo

		valuation.Holdings = append(valuation.Holdings, models.PortfolioHolding{
			Holding:             holding,
			CoinName:            coin.Name,
			CoinSymbol:          coin.Symbol,
			CoinImage:           coin.Image,
			CurrentPrice:        coin.CurrentPrice,
			CurrentValue:        currentValue,
			Change24h:           change24h,
			ChangePercentage24h: changePercentage,
		})
	}

	valuation.TotalValue = totalValue
	valuation.TotalChange24h = totalValue - totalValue24hAgo
	if totalValue24hAgo > 0 {
		valuation.TotalChangePercentage24h = (valuation.TotalChange24h / totalValue24hAgo) * 100
	}

	// Mejor y peor rendimiento en 24h; los empates los gana el primero
	// en el orden de iteración original
	for i := range valuation.Holdings {
		holding := &valuation.Holdings[i]
		if valuation.BestPerformer == nil || holding.ChangePercentage24h > valuation.BestPerformer.ChangePercentage24h {
			valuation.BestPerformer = holding
		}
		if valuation.WorstPerformer == nil || holding.ChangePercentage24h < valuation.WorstPerformer.ChangePercentage24h {
			valuation.WorstPerformer = holding
		}
	}

	return valuation
}

// IsStale indica si los datos superaron la antigüedad máxima permitida
func IsStale(lastUpdated time.Time, maxAge time.Duration) bool {
	return time.Since(lastUpdated) > maxAge
}
