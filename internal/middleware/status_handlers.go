package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatus devuelve el estado del rate limit, los indicadores de carga
// y el último error visible
func GetStatus(c *gin.Context) {
	app := GetApp()
	loading, refreshing, searching := app.Store.Flags()

	c.JSON(http.StatusOK, gin.H{
		"rate_limit":       app.Queue.RateLimitStatus(),
		"loading":          loading,
		"refreshing":       refreshing,
		"searching":        searching,
		"last_updated":     app.Store.LastUpdated(),
		"last_error":       app.Store.LastError(),
		"scheduler_active": app.Scheduler.IsActive(),
	})
}

// RetryLastFailed reintenta manualmente la última operación fallida
func RetryLastFailed(c *gin.Context) {
	app := GetApp()

	if !app.Retry.HasPendingFailure() {
		c.JSON(http.StatusNotFound, gin.H{"error": "No hay ninguna operación fallida para reintentar"})
		return
	}

	if err := app.RetryLastFailed(); err != nil {
		respondFetchError(c, err)
		return
	}

	app.Store.ClearError()
	c.JSON(http.StatusOK, gin.H{"message": "Reintento exitoso"})
}

// SetVisibility recibe la señal de visibilidad del documento y la pasa
// al planificador de refresco
func SetVisibility(c *gin.Context) {
	var body struct {
		Visible *bool `json:"visible" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app := GetApp()
	app.SetVisibility(*body.Visible)

	c.JSON(http.StatusOK, gin.H{
		"message": "Señal de visibilidad procesada",
		"active":  app.Scheduler.IsActive(),
	})
}
