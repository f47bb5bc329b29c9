package services

import (
	"log"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
)

// failedOperation guarda la última operación reintentable que falló,
// con sus argumentos originales capturados en el closure
type failedOperation struct {
	name string
	run  func() error
	err  *models.DataFetchError
}

// ErrorRetryCoordinator registra como máximo un fallo reintentable a la
// vez (el más reciente pisa al anterior) y expone un reintento manual
// acotado con backoff exponencial.
type ErrorRetryCoordinator struct {
	maxRetries  int
	backoffBase time.Duration

	mu         sync.Mutex
	lastFailed *failedOperation
	retryCount int
}

// NewErrorRetryCoordinator crea el coordinador con un tope de reintentos
func NewErrorRetryCoordinator(maxRetries int, backoffBase time.Duration) *ErrorRetryCoordinator {
	return &ErrorRetryCoordinator{
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
	}
}

// RecordFailure registra una operación fallida si el error es reintentable
func (c *ErrorRetryCoordinator) RecordFailure(name string, run func() error, err *models.DataFetchError) {
	if err == nil || !err.Retryable {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFailed = &failedOperation{name: name, run: run, err: err}
}

// RecordSuccess limpia el fallo registrado y reinicia el contador. Se
// llama con cualquier fetch exitoso, aunque no sea el reintentado: una
// respuesta correcta indica que el cliente volvió a ser alcanzable.
func (c *ErrorRetryCoordinator) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFailed = nil
	c.retryCount = 0
}

// HasPendingFailure indica si hay un fallo pendiente de reintentar
func (c *ErrorRetryCoordinator) HasPendingFailure() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFailed != nil
}

// LastFailure devuelve el error del fallo registrado, si lo hay
func (c *ErrorRetryCoordinator) LastFailure() *models.DataFetchError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastFailed == nil {
		return nil
	}
	return c.lastFailed.err
}

// Retry re-emite la operación fallida con sus argumentos originales tras
// esperar 2^(n-1) segundos. Al agotar el tope el fallo queda terminal
// hasta que otra acción del usuario dispare una petición nueva.
func (c *ErrorRetryCoordinator) Retry() error {
	c.mu.Lock()
	if c.lastFailed == nil {
		c.mu.Unlock()
		return models.NewValidationError("No hay ninguna operación fallida para reintentar")
	}
	if c.retryCount >= c.maxRetries {
		c.mu.Unlock()
		return models.NewValidationError("Se agotaron los reintentos para la última operación")
	}
	c.retryCount++
	attempt := c.retryCount
	operation := c.lastFailed
	c.mu.Unlock()

	wait := c.backoffBase << (attempt - 1) // 1s, 2s, 4s
	log.Printf("Reintento manual %d de %q en %v", attempt, operation.name, wait)
	time.Sleep(wait)

	return operation.run()
}
