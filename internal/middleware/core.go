package middleware

import (
	"github.com/AgusMolinaCode/Panel_Api.git/internal/services"
)

// Variable global para almacenar la instancia del núcleo de la aplicación.
// Se construye una sola vez en main y los handlers la consumen.
var appInstance *services.App

// SetApp establece la instancia del núcleo de la aplicación
func SetApp(app *services.App) {
	appInstance = app
}

// GetApp obtiene la instancia del núcleo de la aplicación
func GetApp() *services.App {
	return appInstance
}
