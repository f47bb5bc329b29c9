package services

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Panel_Api.git/internal/models"
	"github.com/google/uuid"
)

// RateLimitConfig define los límites de peticiones salientes hacia la API
type RateLimitConfig struct {
	MaxRequests int           // peticiones máximas dentro de la ventana
	Window      time.Duration // ventana deslizante
	MinSpacing  time.Duration // separación mínima entre peticiones
	MaxRetries  int           // reintentos por petición antes de rechazar
	BackoffBase time.Duration // base del backoff exponencial
	HTTPTimeout time.Duration
}

// DefaultRateLimitConfig devuelve los límites del plan gratuito de CoinGecko:
// 10 peticiones por minuto con 6 segundos entre peticiones
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: 10,
		Window:      60 * time.Second,
		MinSpacing:  6 * time.Second,
		MaxRetries:  3,
		BackoffBase: 2 * time.Second,
		HTTPTimeout: 15 * time.Second,
	}
}

// RateLimitStatus es el estado actual de la ventana deslizante
type RateLimitStatus struct {
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

type queueResult struct {
	body []byte
	err  error
}

// pendingRequest es una unidad de trabajo encolada. Cada una se resuelve
// o rechaza exactamente una vez a través de su canal de resultado.
type pendingRequest struct {
	id         string
	url        string
	retryCount int
	enqueuedAt time.Time
	notBefore  time.Time // no despachar antes de este instante (backoff)
	result     chan queueResult
}

// RequestQueue serializa las peticiones salientes a la API de mercado.
// Una sola goroutine drena la cola, de modo que nunca hay más de una
// petición en vuelo y la contabilidad del rate limit es exacta.
type RequestQueue struct {
	cfg    RateLimitConfig
	client *http.Client

	mu          sync.Mutex
	queue       []*pendingRequest
	history     []time.Time // timestamps de despachos dentro de la ventana
	lastRequest time.Time
	stopped     bool

	notify   chan struct{}
	stopChan chan struct{}
}

// NewRequestQueue crea la cola y arranca la goroutine que la procesa
func NewRequestQueue(cfg RateLimitConfig) *RequestQueue {
	q := &RequestQueue{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}
	go q.run()
	return q
}

// Do encola una petición GET y bloquea hasta que se resuelve o rechaza.
// Las peticiones se atienden en orden FIFO, salvo los reintentos que
// vuelven al frente de la cola.
func (q *RequestQueue) Do(url string) ([]byte, error) {
	req := &pendingRequest{
		id:         uuid.NewString(),
		url:        url,
		enqueuedAt: time.Now(),
		result:     make(chan queueResult, 1),
	}

	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil, models.NewValidationError("La cola de peticiones está detenida")
	}
	q.queue = append(q.queue, req)
	q.mu.Unlock()
	q.wake()

	res := <-req.result
	return res.body, res.err
}

// Stop detiene el procesamiento y rechaza todas las peticiones pendientes
func (q *RequestQueue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()
	close(q.stopChan)
}

// RateLimitStatus devuelve cuántas peticiones quedan en la ventana y
// cuándo se libera el siguiente espacio
func (q *RequestQueue) RateLimitStatus() RateLimitStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.pruneHistory(now)

	remaining := q.cfg.MaxRequests - len(q.history)
	if remaining < 0 {
		remaining = 0
	}

	resetTime := now
	if len(q.history) > 0 {
		resetTime = q.history[0].Add(q.cfg.Window)
	}

	return RateLimitStatus{Remaining: remaining, ResetTime: resetTime}
}

// run es el único bucle que drena la cola
func (q *RequestQueue) run() {
	for {
		req := q.peek()
		if req == nil {
			select {
			case <-q.notify:
				continue
			case <-q.stopChan:
				q.rejectAll()
				return
			}
		}

		if delay := q.dispatchDelay(req); delay > 0 {
			select {
			case <-time.After(delay):
			case <-q.stopChan:
				q.rejectAll()
				return
			}
			continue
		}

		q.remove(req)
		q.recordRequest()

		body, err := q.execute(req.url)
		if err == nil {
			req.result <- queueResult{body: body}
			continue
		}

		dfe := models.AsDataFetchError(err)
		if dfe.Retryable && req.retryCount < q.cfg.MaxRetries {
			req.retryCount++
			backoff := q.cfg.BackoffBase << (req.retryCount - 1) // 2s, 4s, 8s
			if dfe.RetryAfter > backoff {
				backoff = dfe.RetryAfter
			}
			req.notBefore = time.Now().Add(backoff)
			q.pushFront(req)
			log.Printf("Reintentando petición %s (intento %d) en %v: %v",
				req.id, req.retryCount, backoff, dfe)
			continue
		}

		req.result <- queueResult{err: dfe}
	}
}

// dispatchDelay calcula cuánto hay que esperar antes de despachar req:
// el máximo entre la separación mínima, la ventana agotada y el backoff
func (q *RequestQueue) dispatchDelay(req *pendingRequest) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	q.pruneHistory(now)

	var delay time.Duration
	if !q.lastRequest.IsZero() {
		if since := now.Sub(q.lastRequest); since < q.cfg.MinSpacing {
			delay = q.cfg.MinSpacing - since
		}
	}

	if len(q.history) >= q.cfg.MaxRequests {
		// Esperar a que la petición más vieja salga de la ventana
		if until := q.history[0].Add(q.cfg.Window).Sub(now); until > delay {
			delay = until
		}
	}

	if !req.notBefore.IsZero() {
		if until := req.notBefore.Sub(now); until > delay {
			delay = until
		}
	}

	return delay
}

// execute realiza la petición HTTP y clasifica el error en la frontera
func (q *RequestQueue) execute(url string) ([]byte, error) {
	httpReq, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewValidationError("URL de petición inválida")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := q.client.Do(httpReq)
	if err != nil {
		return nil, models.NewNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var retryAfter time.Duration
		if resp.StatusCode == http.StatusTooManyRequests {
			if header := resp.Header.Get("Retry-After"); header != "" {
				if seconds, parseErr := strconv.Atoi(header); parseErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			}
		}
		return nil, models.NewHTTPError(resp.StatusCode, http.StatusText(resp.StatusCode), retryAfter)
	}

	return body, nil
}

// recordRequest registra el despacho en la ventana, con éxito o sin él
func (q *RequestQueue) recordRequest() {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	q.history = append(q.history, now)
	q.lastRequest = now
}

// pruneHistory descarta los timestamps que salieron de la ventana.
// Debe llamarse con el mutex tomado.
func (q *RequestQueue) pruneHistory(now time.Time) {
	cutoff := now.Add(-q.cfg.Window)
	i := 0
	for i < len(q.history) && !q.history[i].After(cutoff) {
		i++
	}
	q.history = q.history[i:]
}

func (q *RequestQueue) peek() *pendingRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil
	}
	return q.queue[0]
}

func (q *RequestQueue) remove(req *pendingRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, r := range q.queue {
		if r == req {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			return
		}
	}
}

func (q *RequestQueue) pushFront(req *pendingRequest) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append([]*pendingRequest{req}, q.queue...)
}

func (q *RequestQueue) rejectAll() {
	q.mu.Lock()
	pending := q.queue
	q.queue = nil
	q.mu.Unlock()

	for _, req := range pending {
		req.result <- queueResult{err: models.NewValidationError("La cola de peticiones fue detenida")}
	}
}

func (q *RequestQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
