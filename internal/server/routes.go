package routes

import (
	"github.com/AgusMolinaCode/Panel_Api.git/internal/middleware"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(router *gin.Engine) {
	// Inicializar repositorios de los handlers
	middleware.InitAuth()
	middleware.InitPreferences()

	router.POST("/signup", middleware.Signup)
	router.POST("/login", middleware.Login)

	// Datos de mercado: abiertos, el dashboard se puede ver sin sesión
	router.GET("/coins", middleware.GetCoins)
	router.POST("/coins/load", middleware.LoadCoins)
	router.POST("/refresh", middleware.RefreshPrices)
	router.GET("/search", middleware.SearchCoins)
	router.DELETE("/search", middleware.ClearSearch)
	router.GET("/coins/:id", middleware.GetCoinDetail)
	router.GET("/coins/:id/history", middleware.GetCoinHistory)
	router.DELETE("/coins/:id/history", middleware.ClearCoinHistory)

	// Estado de la obtención de datos y señales de la UI
	router.GET("/status", middleware.GetStatus)
	router.POST("/retry", middleware.RetryLastFailed)
	router.POST("/visibility", middleware.SetVisibility)

	// Portafolio y preferencias: requieren sesión
	protected := router.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/portfolio", middleware.GetPortfolio)
		protected.POST("/portfolio/holdings", middleware.AddHolding)
		protected.PUT("/portfolio/holdings/:coinId", middleware.UpdateHolding)
		protected.DELETE("/portfolio/holdings/:coinId", middleware.RemoveHolding)

		protected.GET("/preferences", middleware.GetPreferences)
		protected.PUT("/preferences", middleware.SavePreferences)

		protected.PUT("/users", middleware.UpdateUser)
		protected.DELETE("/users", middleware.DeleteUser)
	}
}
