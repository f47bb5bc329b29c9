package services

import (
	"sync"
	"time"
)

// SearchDebouncer colapsa ráfagas de pulsaciones en una sola búsqueda:
// cada consulta nueva dentro del periodo de silencio cancela la llamada
// programada anterior. Solo se cancelan callbacks aún no despachados;
// una petición ya en vuelo siempre se resuelve o rechaza.
type SearchDebouncer struct {
	delay   time.Duration
	perform func(query string)

	mu    sync.Mutex
	timer *time.Timer
}

// NewSearchDebouncer crea el debouncer con el periodo de silencio indicado
func NewSearchDebouncer(delay time.Duration, perform func(query string)) *SearchDebouncer {
	return &SearchDebouncer{delay: delay, perform: perform}
}

// Trigger programa la búsqueda para cuando pase el periodo de silencio,
// cancelando cualquier búsqueda programada que todavía no se disparó
func (d *SearchDebouncer) Trigger(query string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.perform(query)
	})
}

// Cancel descarta la búsqueda programada si la hay
func (d *SearchDebouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
