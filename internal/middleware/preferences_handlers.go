package middleware

import (
	"net/http"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/database"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
	"github.com/AgusMolinaCode/Panel_Api.git/internal/repository"
	"github.com/gin-gonic/gin"
)

var preferencesRepo *repository.PreferencesRepository

func InitPreferences() {
	preferencesRepo = repository.NewPreferencesRepository(database.DB)
}

// GetPreferences devuelve las preferencias de UI del usuario
func GetPreferences(c *gin.Context) {
	userID := c.GetString("userId")

	prefs, err := preferencesRepo.GetPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al obtener las preferencias"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// SavePreferences guarda los filtros, el ordenamiento y el tema del usuario
func SavePreferences(c *gin.Context) {
	var prefs models.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	if err := preferencesRepo.SavePreferences(userID, prefs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error al guardar las preferencias"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferencias guardadas exitosamente"})
}
