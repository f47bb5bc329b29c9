package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// HoldingsPersister define lo que el store necesita del repositorio de
// tenencias: escritura durable al final de cada mutación y recarga al inicio
type HoldingsPersister interface {
	SaveHolding(userID string, holding *models.Holding) error
	DeleteHolding(userID, coinID string) error
	LoadAllHoldings() (map[string]map[string]*models.Holding, error)
}

// EntityStore es la única fuente de verdad del estado de la aplicación:
// monedas normalizadas, series de gráficos, resultados de búsqueda y
// tenencias por usuario. Solo se muta a través de sus transiciones, y cada
// transición es atómica respecto a los lectores.
type EntityStore struct {
	mu sync.RWMutex

	coins   map[string]*models.CoinData
	coinIDs []string // orden de inserción del último listado completo

	loading     bool
	refreshing  bool
	searching   bool
	lastUpdated time.Time
	lastError   *models.DataFetchError

	searchResults []models.SearchResult

	chartData    map[string]*models.ChartSeries // clave: coinID-timeframe
	chartLoading map[string]bool

	holdings  map[string]map[string]*models.Holding // userID -> coinID
	persister HoldingsPersister
}

// NewEntityStore crea el store y recarga las tenencias persistidas
func NewEntityStore(persister HoldingsPersister) *EntityStore {
	s := &EntityStore{
		coins:        make(map[string]*models.CoinData),
		chartData:    make(map[string]*models.ChartSeries),
		chartLoading: make(map[string]bool),
		holdings:     make(map[string]map[string]*models.Holding),
		persister:    persister,
	}

	if persister != nil {
		persisted, err := persister.LoadAllHoldings()
		if err != nil {
			log.Printf("Error al recargar las tenencias persistidas: %v", err)
		} else if persisted != nil {
			s.holdings = persisted
		}
	}

	return s
}

// --- Transiciones de carga de monedas ---

// CoinsLoadStarted marca el inicio de una carga completa del listado
func (s *EntityStore) CoinsLoadStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.lastError = nil
}

// CoinsLoadSucceeded reemplaza la colección completa de monedas.
// Es un reemplazo total, no un merge: el listado completo es la única
// fuente de campos como ranking e imagen.
func (s *EntityStore) CoinsLoadSucceeded(coins []models.CoinData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coins = make(map[string]*models.CoinData, len(coins))
	s.coinIDs = make([]string, 0, len(coins))
	for i := range coins {
		coin := coins[i]
		if _, exists := s.coins[coin.ID]; exists {
			continue // el id es único dentro de la colección
		}
		s.coins[coin.ID] = &coin
		s.coinIDs = append(s.coinIDs, coin.ID)
	}

	s.loading = false
	s.lastUpdated = time.Now()
	s.lastError = nil
}

// CoinsLoadFailed registra el error y conserva los datos existentes
func (s *EntityStore) CoinsLoadFailed(err *models.DataFetchError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.lastError = err
}

// --- Transiciones de refresco de precios ---

// PricesRefreshStarted marca el inicio de un refresco de precios
func (s *EntityStore) PricesRefreshStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = true
}

// PricesRefreshSucceeded actualiza en sitio precio, variación 24h y market
// cap de las monedas ya presentes. Es un merge parcial: las monedas del
// mapa que no están en el store se ignoran, nunca se crean entradas nuevas,
// y los campos que solo trae el listado completo (ranking, imagen) se
// conservan intactos.
func (s *EntityStore) PricesRefreshSucceeded(prices map[string]models.SimplePrice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for coinID, price := range prices {
		coin, exists := s.coins[coinID]
		if !exists {
			continue
		}
		coin.CurrentPrice = price.USD
		coin.PriceChangePercentage24h = price.USD24hChange
		if price.USDMarketCap != 0 {
			coin.MarketCap = price.USDMarketCap
		}
	}

	s.refreshing = false
	s.lastUpdated = time.Now()
}

// PricesRefreshFailed registra el fallo sin tocar los datos mostrados.
// Los errores silenciosos no pisan el último error visible.
func (s *EntityStore) PricesRefreshFailed(err *models.DataFetchError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshing = false
	if err != nil && !err.IsSilent() {
		s.lastError = err
	}
	log.Printf("Fallo al refrescar precios: %v", err)
}

// --- Transiciones de búsqueda ---

func (s *EntityStore) SearchStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searching = true
}

func (s *EntityStore) SearchSucceeded(results []models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searching = false
	s.searchResults = results
}

func (s *EntityStore) SearchFailed(err *models.DataFetchError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searching = false
	s.lastError = err
}

// ClearSearchResults vacía los resultados de búsqueda
func (s *EntityStore) ClearSearchResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchResults = nil
}

// --- Transiciones de series de gráficos ---

func chartKey(coinID, timeframe string) string {
	return coinID + "-" + timeframe
}

func (s *EntityStore) ChartLoadStarted(coinID, timeframe string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chartLoading[chartKey(coinID, timeframe)] = true
}

// ChartLoadSucceeded reemplaza la serie completa, nunca la parchea
func (s *EntityStore) ChartLoadSucceeded(series *models.ChartSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chartKey(series.CoinID, series.Timeframe)
	s.chartLoading[key] = false
	s.chartData[key] = series
}

func (s *EntityStore) ChartLoadFailed(coinID, timeframe string, err *models.DataFetchError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chartLoading[chartKey(coinID, timeframe)] = false
	s.lastError = err
}

// ClearChartData elimina las series cacheadas de una moneda. Con timeframe
// vacío elimina todas las series de la moneda.
func (s *EntityStore) ClearChartData(coinID, timeframe string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timeframe != "" {
		key := chartKey(coinID, timeframe)
		delete(s.chartData, key)
		delete(s.chartLoading, key)
		return
	}

	prefix := coinID + "-"
	for key := range s.chartData {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(s.chartData, key)
			delete(s.chartLoading, key)
		}
	}
}

// --- Transiciones de tenencias ---

// AddHolding crea la tenencia o acumula sobre la existente, promediando el
// precio de compra. La escritura durable ocurre al final de la mutación;
// si falla se registra pero nunca se propaga como error fatal.
func (s *EntityStore) AddHolding(userID, coinID string, amount, averageBuyPrice float64) error {
	if coinID == "" {
		return models.NewValidationError("La moneda de la tenencia es obligatoria")
	}
	if amount <= 0 {
		return models.NewValidationError("La cantidad debe ser mayor que cero")
	}
	if averageBuyPrice < 0 {
		return models.NewValidationError("El precio de compra no puede ser negativo")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userHoldings, exists := s.holdings[userID]
	if !exists {
		userHoldings = make(map[string]*models.Holding)
		s.holdings[userID] = userHoldings
	}

	holding, exists := userHoldings[coinID]
	if exists {
		previousAmount := holding.Amount
		holding.Amount += amount
		if averageBuyPrice > 0 && holding.AverageBuyPrice > 0 {
			// Promedio ponderado entre lo existente y lo agregado
			total := previousAmount*holding.AverageBuyPrice + amount*averageBuyPrice
			holding.AverageBuyPrice = total / holding.Amount
		} else if averageBuyPrice > 0 {
			holding.AverageBuyPrice = averageBuyPrice
		}
	} else {
		holding = &models.Holding{
			CoinID:          coinID,
			Amount:          amount,
			AverageBuyPrice: averageBuyPrice,
			DateAdded:       time.Now(),
		}
		userHoldings[coinID] = holding
	}

	s.persistHolding(userID, holding)
	return nil
}

// UpdateHolding fija la cantidad de una tenencia existente. Una cantidad
// de 0 la elimina por completo.
func (s *EntityStore) UpdateHolding(userID, coinID string, amount, averageBuyPrice float64) error {
	if amount < 0 {
		return models.NewValidationError("La cantidad no puede ser negativa")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userHoldings := s.holdings[userID]
	holding, exists := userHoldings[coinID]
	if !exists {
		return models.NewValidationError("No existe una tenencia para esa moneda")
	}

	if amount == 0 {
		delete(userHoldings, coinID)
		s.deletePersistedHolding(userID, coinID)
		return nil
	}

	holding.Amount = amount
	if averageBuyPrice > 0 {
		holding.AverageBuyPrice = averageBuyPrice
	}
	s.persistHolding(userID, holding)
	return nil
}

// RemoveHolding elimina la tenencia de una moneda
func (s *EntityStore) RemoveHolding(userID, coinID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userHoldings := s.holdings[userID]
	if _, exists := userHoldings[coinID]; !exists {
		return models.NewValidationError("No existe una tenencia para esa moneda")
	}

	delete(userHoldings, coinID)
	s.deletePersistedHolding(userID, coinID)
	return nil
}

func (s *EntityStore) persistHolding(userID string, holding *models.Holding) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveHolding(userID, holding); err != nil {
		log.Printf("Error al persistir la tenencia %s del usuario %s: %v", holding.CoinID, userID, err)
	}
}

func (s *EntityStore) deletePersistedHolding(userID, coinID string) {
	if s.persister == nil {
		return
	}
	if err := s.persister.DeleteHolding(userID, coinID); err != nil {
		log.Printf("Error al eliminar la tenencia persistida %s del usuario %s: %v", coinID, userID, err)
	}
}

// --- Lectores ---

// AllCoins devuelve las monedas en el orden de inserción del último listado
func (s *EntityStore) AllCoins() []models.CoinData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coins := make([]models.CoinData, 0, len(s.coinIDs))
	for _, id := range s.coinIDs {
		if coin, exists := s.coins[id]; exists {
			coins = append(coins, *coin)
		}
	}
	return coins
}

// CoinIDs devuelve los ids cargados en orden de inserción
func (s *EntityStore) CoinIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.coinIDs))
	copy(ids, s.coinIDs)
	return ids
}

// Coin devuelve una moneda por id
func (s *EntityStore) Coin(coinID string) (models.CoinData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coin, exists := s.coins[coinID]
	if !exists {
		return models.CoinData{}, false
	}
	return *coin, true
}

// CoinsByID devuelve el mapa de monedas indexado por id
func (s *EntityStore) CoinsByID() map[string]models.CoinData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coins := make(map[string]models.CoinData, len(s.coins))
	for id, coin := range s.coins {
		coins[id] = *coin
	}
	return coins
}

// HoldingsFor devuelve las tenencias de un usuario ordenadas por fecha de
// alta, con el id de moneda como desempate para que el orden sea estable
func (s *EntityStore) HoldingsFor(userID string) []models.Holding {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userHoldings := s.holdings[userID]
	holdings := make([]models.Holding, 0, len(userHoldings))
	for _, holding := range userHoldings {
		holdings = append(holdings, *holding)
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].DateAdded.Equal(holdings[j].DateAdded) {
			return holdings[i].CoinID < holdings[j].CoinID
		}
		return holdings[i].DateAdded.Before(holdings[j].DateAdded)
	})
	return holdings
}

// SearchResults devuelve los últimos resultados de búsqueda
func (s *EntityStore) SearchResults() []models.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]models.SearchResult, len(s.searchResults))
	copy(results, s.searchResults)
	return results
}

// ChartSeries devuelve la serie cacheada de una moneda y periodo
func (s *EntityStore) ChartSeries(coinID, timeframe string) (*models.ChartSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	series, exists := s.chartData[chartKey(coinID, timeframe)]
	return series, exists
}

// ChartLoading indica si hay una carga en curso para esa serie
func (s *EntityStore) ChartLoading(coinID, timeframe string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chartLoading[chartKey(coinID, timeframe)]
}

// Flags devuelve los indicadores de carga en curso
func (s *EntityStore) Flags() (loading, refreshing, searching bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading, s.refreshing, s.searching
}

// LastUpdated devuelve el momento del último fetch exitoso
func (s *EntityStore) LastUpdated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// LastError devuelve el último error visible registrado
func (s *EntityStore) LastError() *models.DataFetchError {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// ClearError limpia el último error visible
func (s *EntityStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = nil
}
