package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

const defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient expone las operaciones tipadas contra la API de CoinGecko.
// Todas las llamadas pasan por la cola con rate limit y los errores se
// traducen a models.DataFetchError en esta frontera.
type CoinGeckoClient struct {
	baseURL string
	queue   *RequestQueue
}

// NewCoinGeckoClient crea el cliente sobre la cola compartida de la aplicación
func NewCoinGeckoClient(queue *RequestQueue) *CoinGeckoClient {
	baseURL := os.Getenv("COINGECKO_API_URL")
	if baseURL == "" {
		baseURL = defaultCoinGeckoURL
	}
	return &CoinGeckoClient{baseURL: baseURL, queue: queue}
}

// ListCoins obtiene el listado de monedas por capitalización de mercado
func (c *CoinGeckoClient) ListCoins(limit int) ([]models.CoinData, error) {
	if limit <= 0 {
		limit = 50
	}
	endpoint := fmt.Sprintf(
		"/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false&price_change_percentage=24h",
		limit,
	)

	body, err := c.queue.Do(c.baseURL + endpoint)
	if err != nil {
		return nil, models.AsDataFetchError(err)
	}

	var raw []rawCoin
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, models.NewValidationError("Respuesta inválida del listado de monedas")
	}

	coins := make([]models.CoinData, 0, len(raw))
	for _, r := range raw {
		coins = append(coins, r.normalize())
	}
	return coins, nil
}

// FetchPrices obtiene los precios actuales de un lote de monedas.
// Los fallos de esta operación son silenciosos: un refresco fallido
// nunca debe borrar los datos ya mostrados.
func (c *CoinGeckoClient) FetchPrices(coinIDs []string) (map[string]models.SimplePrice, error) {
	if len(coinIDs) == 0 {
		return nil, models.NewValidationError("No se proporcionaron monedas para refrescar")
	}

	endpoint := fmt.Sprintf(
		"/simple/price?ids=%s&vs_currencies=usd&include_24hr_change=true&include_market_cap=true",
		strings.Join(coinIDs, ","),
	)

	body, err := c.queue.Do(c.baseURL + endpoint)
	if err != nil {
		return nil, models.AsDataFetchError(err).Silent()
	}

	var prices map[string]models.SimplePrice
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, models.NewValidationError("Respuesta inválida de precios").Silent()
	}
	return prices, nil
}

// SearchCoins busca monedas por nombre o símbolo
func (c *CoinGeckoClient) SearchCoins(query string) ([]models.SearchResult, error) {
	endpoint := "/search?query=" + url.QueryEscape(query)

	body, err := c.queue.Do(c.baseURL + endpoint)
	if err != nil {
		return nil, models.AsDataFetchError(err)
	}

	var raw struct {
		Coins []models.SearchResult `json:"coins"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, models.NewValidationError("Respuesta inválida de búsqueda")
	}
	return raw.Coins, nil
}

// FetchCoinDetail obtiene el detalle de una moneda
func (c *CoinGeckoClient) FetchCoinDetail(coinID string) (*models.CoinDetail, error) {
	endpoint := fmt.Sprintf(
		"/coins/%s?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false&sparkline=false",
		url.PathEscape(coinID),
	)

	body, err := c.queue.Do(c.baseURL + endpoint)
	if err != nil {
		return nil, models.AsDataFetchError(err)
	}

	var detail models.CoinDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, models.NewValidationError("Respuesta inválida del detalle de moneda")
	}
	return &detail, nil
}

// FetchHistory obtiene la serie histórica de una moneda para un periodo
func (c *CoinGeckoClient) FetchHistory(coinID, timeframe string) (*models.ChartSeries, error) {
	days := TimeframeDays(timeframe)
	endpoint := fmt.Sprintf(
		"/coins/%s/market_chart?vs_currency=usd&days=%d&interval=%s",
		url.PathEscape(coinID), days, intervalForDays(days),
	)

	body, err := c.queue.Do(c.baseURL + endpoint)
	if err != nil {
		return nil, models.AsDataFetchError(err)
	}

	var raw rawMarketChart
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, models.NewValidationError("Respuesta inválida de datos históricos")
	}

	return &models.ChartSeries{
		CoinID:      coinID,
		Timeframe:   timeframe,
		Points:      raw.points(),
		LastUpdated: time.Now().UnixMilli(),
	}, nil
}

// TimeframeDays traduce el periodo de gráfico a una cantidad de días
func TimeframeDays(timeframe string) int {
	switch timeframe {
	case models.Timeframe24h:
		return 1
	case models.Timeframe7d:
		return 7
	case models.Timeframe30d:
		return 30
	case models.Timeframe90d:
		return 90
	case models.Timeframe1y:
		return 365
	default:
		return 7
	}
}

// intervalForDays elige el muestreo: horario hasta 1 día, diario después
func intervalForDays(days int) string {
	if days <= 1 {
		return "hourly"
	}
	return "daily"
}

// rawCoin es la forma cruda de /coins/markets. Los numéricos son punteros
// para distinguir campos ausentes y defaultear a 0 al normalizar.
type rawCoin struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	Symbol                   string   `json:"symbol"`
	Image                    string   `json:"image"`
	CurrentPrice             *float64 `json:"current_price"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            *int     `json:"market_cap_rank"`
}

// normalize pasa la forma cruda al modelo interno: símbolo en mayúsculas,
// numéricos ausentes en 0, nombre e imagen tal cual
func (r rawCoin) normalize() models.CoinData {
	coin := models.CoinData{
		ID:     r.ID,
		Name:   r.Name,
		Symbol: strings.ToUpper(r.Symbol),
		Image:  r.Image,
	}
	if r.CurrentPrice != nil {
		coin.CurrentPrice = *r.CurrentPrice
	}
	if r.PriceChangePercentage24h != nil {
		coin.PriceChangePercentage24h = *r.PriceChangePercentage24h
	}
	if r.MarketCap != nil {
		coin.MarketCap = *r.MarketCap
	}
	if r.MarketCapRank != nil {
		coin.MarketCapRank = *r.MarketCapRank
	}
	return coin
}

// rawMarketChart son los tres arrays paralelos de /market_chart
type rawMarketChart struct {
	Prices       [][]float64 `json:"prices"`
	MarketCaps   [][]float64 `json:"market_caps"`
	TotalVolumes [][]float64 `json:"total_volumes"`
}

// points aplana los arrays paralelos uniéndolos por índice. Si las
// longitudes no coinciden, market cap y volumen quedan ausentes para
// los índices fuera de rango en lugar de fallar.
func (r rawMarketChart) points() []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(r.Prices))
	for i, pair := range r.Prices {
		if len(pair) < 2 {
			continue
		}
		point := models.ChartPoint{
			Timestamp: int64(pair[0]),
			Price:     pair[1],
		}
		if i < len(r.MarketCaps) && len(r.MarketCaps[i]) >= 2 {
			value := r.MarketCaps[i][1]
			point.MarketCap = &value
		}
		if i < len(r.TotalVolumes) && len(r.TotalVolumes[i]) >= 2 {
			value := r.TotalVolumes[i][1]
			point.Volume = &value
		}
		points = append(points, point)
	}
	return points
}
