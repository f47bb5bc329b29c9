package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/services"
	"github.com/gin-gonic/gin"
)

// GetPortfolio devuelve el portafolio del usuario valuado contra los
// precios en vivo, con el mejor y peor rendimiento en 24h
func GetPortfolio(c *gin.Context) {
	userID := c.GetString("userId")

	app := GetApp()
	valuation := services.PortfolioValuation(
		app.Store.HoldingsFor(userID),
		app.Store.CoinsByID(),
	)

	c.JSON(http.StatusOK, gin.H{"portfolio": valuation})
}

// AddHolding crea una tenencia o acumula sobre la existente
func AddHolding(c *gin.Context) {
	var body struct {
		CoinID          string  `json:"coin_id" binding:"required"`
		Amount          float64 `json:"amount" binding:"required"`
		AverageBuyPrice float64 `json:"avg_buy_price"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	if err := GetApp().Store.AddHolding(userID, body.CoinID, body.Amount, body.AverageBuyPrice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Tenencia agregada exitosamente"})
}

// UpdateHolding fija la cantidad de una tenencia. Una cantidad de 0 la
// elimina por completo.
func UpdateHolding(c *gin.Context) {
	var body struct {
		Amount          *float64 `json:"amount" binding:"required"`
		AverageBuyPrice float64  `json:"avg_buy_price"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	coinID := c.Param("coinId")

	if err := GetApp().Store.UpdateHolding(userID, coinID, *body.Amount, body.AverageBuyPrice); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tenencia actualizada exitosamente"})
}

// RemoveHolding elimina la tenencia de una moneda
func RemoveHolding(c *gin.Context) {
	userID := c.GetString("userId")
	coinID := c.Param("coinId")

	if err := GetApp().Store.RemoveHolding(userID, coinID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tenencia eliminada exitosamente"})
}
