package models

import (
	"fmt"
	"time"
)

// ErrorKind clasifica los errores en la frontera HTTP, decidido una sola vez
type ErrorKind string

const (
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindHTTP       ErrorKind = "http"
	ErrorKindValidation ErrorKind = "validation"
)

// ErrorVisibility indica si el error debe mostrarse al usuario o solo registrarse
type ErrorVisibility string

const (
	ErrorForeground ErrorVisibility = "foreground"
	ErrorSilent     ErrorVisibility = "silent"
)

// DataFetchError es el error estructurado que devuelven la cola y el cliente.
// Los consumidores inspeccionan Code y Retryable sin parsear strings.
type DataFetchError struct {
	Kind            ErrorKind       `json:"kind"`
	Message         string          `json:"message"`
	OriginalMessage string          `json:"original_message,omitempty"`
	Code            int             `json:"code,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	RetryAfter      time.Duration   `json:"retry_after,omitempty"`
	Retryable       bool            `json:"retryable"`
	Visibility      ErrorVisibility `json:"visibility"`
}

func (e *DataFetchError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Code)
	}
	return e.Message
}

// NewNetworkError crea un error de transporte (sin respuesta del servidor)
func NewNetworkError(err error) *DataFetchError {
	return &DataFetchError{
		Kind:            ErrorKindNetwork,
		Message:         "Error de conexión con el servidor de datos",
		OriginalMessage: err.Error(),
		Timestamp:       time.Now(),
		Retryable:       true,
		Visibility:      ErrorForeground,
	}
}

// NewHTTPError crea un error para una respuesta no 2xx.
// Los códigos 429 y 5xx son reintentables, el resto de 4xx no.
func NewHTTPError(status int, statusText string, retryAfter time.Duration) *DataFetchError {
	return &DataFetchError{
		Kind:            ErrorKindHTTP,
		Message:         messageForStatus(status),
		OriginalMessage: fmt.Sprintf("HTTP %d: %s", status, statusText),
		Code:            status,
		Timestamp:       time.Now(),
		RetryAfter:      retryAfter,
		Retryable:       status == 429 || status >= 500,
		Visibility:      ErrorForeground,
	}
}

// NewValidationError crea un error local que nunca llega a la red
func NewValidationError(message string) *DataFetchError {
	return &DataFetchError{
		Kind:       ErrorKindValidation,
		Message:    message,
		Timestamp:  time.Now(),
		Retryable:  false,
		Visibility: ErrorForeground,
	}
}

// messageForStatus elige el mensaje para el usuario según el código HTTP
func messageForStatus(status int) string {
	switch status {
	case 429:
		return "Límite de peticiones alcanzado. Espera un momento antes de actualizar"
	case 502, 503:
		return "El servicio de datos no está disponible temporalmente"
	case 404:
		return "No se encontraron datos para la criptomoneda"
	default:
		return "Error al obtener los datos de criptomonedas"
	}
}

// AsDataFetchError convierte cualquier error al tipo estructurado.
// Si no lo es, lo envuelve como error de red para no perder el mensaje.
func AsDataFetchError(err error) *DataFetchError {
	if err == nil {
		return nil
	}
	if dfe, ok := err.(*DataFetchError); ok {
		return dfe
	}
	return NewNetworkError(err)
}

// Silent marca el error como silencioso: no debe interrumpir la UI
// ni descartar datos ya mostrados, solo registrarse
func (e *DataFetchError) Silent() *DataFetchError {
	e.Visibility = ErrorSilent
	return e
}

// IsSilent indica si el error debe ocultarse a la UI
func (e *DataFetchError) IsSilent() bool {
	return e.Visibility == ErrorSilent
}
