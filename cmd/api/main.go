package main

import (
	"log"
	"os"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/database"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/middleware"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/repository"
	routes "github.com/AgusMolinaCode/Panel_Api.git/internal/server"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Cargar variables de entorno
	if err := godotenv.Load(); err != nil {
		log.Printf("No se pudo cargar el archivo .env: %v", err)
	}

	// Crear el router de Gin
	router := gin.Default()

	// Configurar CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"http://localhost:3000"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	config.ExposeHeaders = []string{"Content-Length"}
	router.Use(cors.New(config))

	// Inicializar base de datos
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error al inicializar la base de datos: %v", err)
	}
	defer database.DB.Close()

	// Construir el núcleo: una sola cola, un solo store, un solo
	// planificador para toda la aplicación
	queue := services.NewRequestQueue(services.DefaultRateLimitConfig())
	holdingsRepo := repository.NewHoldingsRepository(database.DB)
	store := services.NewEntityStore(holdingsRepo)
	app := services.NewApp(store, queue)
	defer app.Shutdown()

	// Hacer disponible el núcleo para los handlers
	middleware.SetApp(app)

	// Arrancar el refresco automático y disparar la carga inicial
	app.Scheduler.Start()
	go func() {
		if err := app.LoadCoins(50); err != nil {
			log.Printf("Error en la carga inicial de monedas: %v", err)
		}
	}()

	// Configurar las rutas
	routes.RegisterRoutes(router)

	// Iniciar el servidor
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error al iniciar el servidor: %v", err)
	}
}
