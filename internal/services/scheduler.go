package services

import (
	"log"
	"sync"
	"time"
)

// PriceRefresher define lo que el planificador necesita del resto de la
// aplicación para decidir y disparar un refresco de precios
type PriceRefresher interface {
	RefreshPrices() error
	HasCoins() bool
	LastUpdated() time.Time
	RateLimitStatus() RateLimitStatus
}

// RefreshScheduler re-obtiene los precios con una cadencia fija mientras
// el documento está visible. Es una máquina de dos estados: Activo
// (visible, timer armado) y Pausado (oculto, timer desarmado). La señal
// de visibilidad y el tick del timer desembocan en la misma lógica de
// transición.
type RefreshScheduler struct {
	interval time.Duration
	maxAge   time.Duration
	deps     PriceRefresher

	mu          sync.Mutex
	visible     bool
	running     bool
	tickerStop  chan struct{}
	lastRefresh time.Time
}

// NewRefreshScheduler crea el planificador con la cadencia y la
// antigüedad máxima de datos indicadas
func NewRefreshScheduler(interval, maxAge time.Duration, deps PriceRefresher) *RefreshScheduler {
	return &RefreshScheduler{
		interval: interval,
		maxAge:   maxAge,
		deps:     deps,
		visible:  true,
	}
}

// Start arranca el planificador en estado Activo
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.visible = true
	s.armLocked()

	log.Printf("Planificador de refresco iniciado con intervalo de %v", s.interval)
}

// Stop detiene el planificador por completo
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	s.disarmLocked()

	log.Println("Planificador de refresco detenido")
}

// SetVisible procesa la señal de visibilidad del documento. Al volver a
// Activo refresca de inmediato si los datos quedaron viejos y rearma el
// timer; al pasar a Pausado desarma el timer y no se dispara ningún
// refresco hasta volver.
func (s *RefreshScheduler) SetVisible(visible bool) {
	s.mu.Lock()
	if !s.running || visible == s.visible {
		s.mu.Unlock()
		return
	}
	s.visible = visible

	if !visible {
		s.disarmLocked()
		s.mu.Unlock()
		log.Println("Documento oculto: refresco automático pausado")
		return
	}

	s.armLocked()
	stale := IsStale(s.deps.LastUpdated(), s.maxAge)
	s.mu.Unlock()

	log.Println("Documento visible: refresco automático reanudado")
	if stale && s.deps.HasCoins() {
		s.triggerRefresh()
	}
}

// OnCoinsLoaded rearma el timer tras una carga completa exitosa. Cubre el
// caso en que el planificador arrancó antes de que existieran monedas
// para refrescar.
func (s *RefreshScheduler) OnCoinsLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || !s.visible {
		return
	}
	s.armLocked()
}

// LastRefresh devuelve cuándo se disparó el último refresco real
func (s *RefreshScheduler) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// IsActive indica si el planificador está en estado Activo
func (s *RefreshScheduler) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.visible
}

// tick evalúa las guardas y dispara el refresco si corresponde
func (s *RefreshScheduler) tick() {
	s.mu.Lock()
	visible := s.visible && s.running
	last := s.lastRefresh
	s.mu.Unlock()

	if !visible || !s.deps.HasCoins() {
		return
	}
	if !IsStale(s.deps.LastUpdated(), s.maxAge) {
		return
	}
	if s.deps.RateLimitStatus().Remaining <= 0 {
		log.Println("Rate limit agotado: se omite el tick de refresco")
		return
	}
	// Evita disparos solapados entre el timer y la señal de visibilidad
	if time.Since(last) < s.interval {
		return
	}

	s.triggerRefresh()
}

func (s *RefreshScheduler) triggerRefresh() {
	s.mu.Lock()
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	if err := s.deps.RefreshPrices(); err != nil {
		// El fallo es silencioso: el timer sigue con la misma cadencia
		log.Printf("Fallo en el refresco automático de precios: %v", err)
	}
}

// armLocked (re)arma el timer de intervalo fijo. Requiere el mutex tomado.
func (s *RefreshScheduler) armLocked() {
	s.disarmLocked()

	stop := make(chan struct{})
	s.tickerStop = stop

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick()
			case <-stop:
				return
			}
		}
	}()
}

// disarmLocked detiene el timer si está armado. Requiere el mutex tomado.
func (s *RefreshScheduler) disarmLocked() {
	if s.tickerStop != nil {
		close(s.tickerStop)
		s.tickerStop = nil
	}
}
