package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// respondFetchError traduce un DataFetchError a la respuesta HTTP adecuada
// sin perder el payload estructurado
func respondFetchError(c *gin.Context, err error) {
	dfe := models.AsDataFetchError(err)

	status := http.StatusBadGateway
	switch dfe.Kind {
	case models.ErrorKindValidation:
		status = http.StatusBadRequest
	case models.ErrorKindHTTP:
		if dfe.Code == http.StatusTooManyRequests || dfe.Code == http.StatusNotFound {
			status = dfe.Code
		}
	}

	c.JSON(status, gin.H{"error": dfe})
}

// GetCoins devuelve el listado filtrado y ordenado según los parámetros
// de la query. El filtrado es una vista derivada: no toca el store.
func GetCoins(c *gin.Context) {
	app := GetApp()

	filters := models.FilterState{
		MarketCapFilter:   c.DefaultQuery("market_cap_filter", models.MarketCapFilterAll),
		PriceChangeFilter: c.DefaultQuery("price_change_filter", models.PriceChangeFilterAll),
	}
	sortConfig := models.SortConfig{
		Key:       c.DefaultQuery("sort_key", models.SortKeyMarketCapRank),
		Direction: c.DefaultQuery("sort_direction", models.SortAsc),
	}
	query := c.Query("q")

	coins := services.FilteredSortedCoins(app.Store.AllCoins(), query, filters, sortConfig)
	loading, refreshing, _ := app.Store.Flags()

	c.JSON(http.StatusOK, gin.H{
		"coins":        coins,
		"total":        len(coins),
		"loading":      loading,
		"refreshing":   refreshing,
		"last_updated": app.Store.LastUpdated(),
	})
}

// LoadCoins dispara la carga completa del listado de monedas
func LoadCoins(c *gin.Context) {
	var body struct {
		Limit int `json:"limit"`
	}
	// El cuerpo es opcional: sin límite se cargan 50 monedas
	_ = c.ShouldBindJSON(&body)

	app := GetApp()
	if err := app.LoadCoins(body.Limit); err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listado de monedas actualizado",
		"total":   len(app.Store.CoinIDs()),
	})
}

// RefreshPrices dispara un refresco manual de precios
func RefreshPrices(c *gin.Context) {
	app := GetApp()
	if err := app.RefreshPrices(); err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Precios actualizados"})
}

// SearchCoins programa una búsqueda con debounce y devuelve los
// resultados disponibles hasta el momento
func SearchCoins(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El parámetro query es obligatorio"})
		return
	}

	app := GetApp()
	app.Search(query)

	_, _, searching := app.Store.Flags()
	c.JSON(http.StatusOK, gin.H{
		"results":   app.Store.SearchResults(),
		"searching": searching,
	})
}

// ClearSearch vacía los resultados de búsqueda
func ClearSearch(c *gin.Context) {
	GetApp().Store.ClearSearchResults()
	c.JSON(http.StatusOK, gin.H{"message": "Resultados de búsqueda limpiados"})
}

// GetCoinDetail devuelve el detalle de una moneda
func GetCoinDetail(c *gin.Context) {
	coinID := c.Param("id")

	detail, err := GetApp().FetchCoinDetail(coinID)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"coin": detail})
}

// GetCoinHistory devuelve la serie histórica de una moneda para el periodo
// pedido, sirviendo la serie cacheada mientras siga fresca
func GetCoinHistory(c *gin.Context) {
	coinID := c.Param("id")
	timeframe := c.DefaultQuery("timeframe", models.Timeframe7d)

	app := GetApp()
	series, err := app.FetchHistory(coinID, timeframe)
	if err != nil {
		respondFetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"series":  series,
		"loading": app.Store.ChartLoading(coinID, timeframe),
	})
}

// ClearCoinHistory elimina las series cacheadas de una moneda. Con el
// parámetro timeframe solo elimina ese periodo.
func ClearCoinHistory(c *gin.Context) {
	coinID := c.Param("id")
	timeframe := c.Query("timeframe")

	GetApp().Store.ClearChartData(coinID, timeframe)
	c.JSON(http.StatusOK, gin.H{"message": "Series del gráfico eliminadas"})
}
