package services

import (
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

const (
	// Cadencia del refresco automático y antigüedad máxima de los precios
	RefreshInterval = 30 * time.Second
	MaxDataAge      = 30 * time.Second

	// Periodo de silencio del debounce de búsqueda
	SearchDebounceDelay = 300 * time.Millisecond

	// Antigüedad máxima de una serie de gráfico antes de refetchear
	chartMaxAge = 5 * time.Minute

	maxManualRetries = 3
)

// App es el núcleo de la aplicación: agrupa la cola, el cliente, el store,
// el planificador y el coordinador de reintentos. Se construye una sola
// instancia de larga vida en el arranque y los handlers la consumen.
type App struct {
	Store     *EntityStore
	Client    *CoinGeckoClient
	Queue     *RequestQueue
	Scheduler *RefreshScheduler
	Retry     *ErrorRetryCoordinator

	search *SearchDebouncer
}

// NewApp construye el núcleo completo sobre la cola y el store recibidos
func NewApp(store *EntityStore, queue *RequestQueue) *App {
	app := &App{
		Store:  store,
		Queue:  queue,
		Client: NewCoinGeckoClient(queue),
		Retry:  NewErrorRetryCoordinator(maxManualRetries, time.Second),
	}
	app.Scheduler = NewRefreshScheduler(RefreshInterval, MaxDataAge, app)
	app.search = NewSearchDebouncer(SearchDebounceDelay, func(query string) {
		_ = app.searchNow(query)
	})
	return app
}

// Shutdown detiene el planificador y la cola de peticiones
func (a *App) Shutdown() {
	a.Scheduler.Stop()
	a.search.Cancel()
	a.Queue.Stop()
}

// LoadCoins realiza la carga completa del listado de monedas. Es una
// operación de primer plano: su fallo se muestra y bloquea la vista
// dependiente hasta resolverse o reintentarse.
func (a *App) LoadCoins(limit int) error {
	a.Store.CoinsLoadStarted()

	coins, err := a.Client.ListCoins(limit)
	if err != nil {
		dfe := models.AsDataFetchError(err)
		a.Store.CoinsLoadFailed(dfe)
		a.Retry.RecordFailure("loadCoins", func() error { return a.LoadCoins(limit) }, dfe)
		return dfe
	}

	a.Store.CoinsLoadSucceeded(coins)
	a.Scheduler.OnCoinsLoaded()
	a.Retry.RecordSuccess()
	return nil
}

// RefreshPrices refresca los precios de las monedas cargadas. Los fallos
// son silenciosos: no borran los datos mostrados ni cortan el timer.
func (a *App) RefreshPrices() error {
	coinIDs := a.Store.CoinIDs()
	if len(coinIDs) == 0 {
		return models.NewValidationError("No hay monedas cargadas para refrescar")
	}

	a.Store.PricesRefreshStarted()

	prices, err := a.Client.FetchPrices(coinIDs)
	if err != nil {
		dfe := models.AsDataFetchError(err)
		a.Store.PricesRefreshFailed(dfe)
		return dfe
	}

	a.Store.PricesRefreshSucceeded(prices)
	a.Retry.RecordSuccess()
	return nil
}

// Search programa una búsqueda con debounce: las pulsaciones dentro del
// periodo de silencio se colapsan en una sola llamada a la API
func (a *App) Search(query string) {
	a.search.Trigger(query)
}

// searchNow ejecuta la búsqueda una vez vencido el debounce
func (a *App) searchNow(query string) error {
	a.Store.SearchStarted()

	results, err := a.Client.SearchCoins(query)
	if err != nil {
		dfe := models.AsDataFetchError(err)
		a.Store.SearchFailed(dfe)
		a.Retry.RecordFailure("searchCoins", func() error { return a.searchNow(query) }, dfe)
		return dfe
	}

	a.Store.SearchSucceeded(results)
	a.Retry.RecordSuccess()
	return nil
}

// FetchHistory devuelve la serie histórica de una moneda, usando la serie
// cacheada mientras no supere la antigüedad máxima
func (a *App) FetchHistory(coinID, timeframe string) (*models.ChartSeries, error) {
	if cached, exists := a.Store.ChartSeries(coinID, timeframe); exists {
		if !IsStale(time.UnixMilli(cached.LastUpdated), chartMaxAge) {
			return cached, nil
		}
	}

	a.Store.ChartLoadStarted(coinID, timeframe)

	series, err := a.Client.FetchHistory(coinID, timeframe)
	if err != nil {
		dfe := models.AsDataFetchError(err)
		a.Store.ChartLoadFailed(coinID, timeframe, dfe)
		a.Retry.RecordFailure("fetchHistory", func() error {
			_, retryErr := a.FetchHistory(coinID, timeframe)
			return retryErr
		}, dfe)
		return nil, dfe
	}

	a.Store.ChartLoadSucceeded(series)
	a.Retry.RecordSuccess()
	return series, nil
}

// FetchCoinDetail obtiene el detalle de una moneda
func (a *App) FetchCoinDetail(coinID string) (*models.CoinDetail, error) {
	detail, err := a.Client.FetchCoinDetail(coinID)
	if err != nil {
		dfe := models.AsDataFetchError(err)
		a.Retry.RecordFailure("fetchCoinDetail", func() error {
			_, retryErr := a.FetchCoinDetail(coinID)
			return retryErr
		}, dfe)
		return nil, dfe
	}

	a.Retry.RecordSuccess()
	return detail, nil
}

// RetryLastFailed reintenta manualmente la última operación fallida
func (a *App) RetryLastFailed() error {
	return a.Retry.Retry()
}

// SetVisibility pasa la señal de visibilidad del documento al planificador
func (a *App) SetVisibility(visible bool) {
	a.Scheduler.SetVisible(visible)
}

// --- Implementación de PriceRefresher para el planificador ---

// HasCoins indica si hay monedas cargadas para refrescar
func (a *App) HasCoins() bool {
	return len(a.Store.CoinIDs()) > 0
}

// LastUpdated devuelve el momento del último fetch exitoso
func (a *App) LastUpdated() time.Time {
	return a.Store.LastUpdated()
}

// RateLimitStatus devuelve la disponibilidad actual de la ventana
func (a *App) RateLimitStatus() RateLimitStatus {
	return a.Queue.RateLimitStatus()
}
