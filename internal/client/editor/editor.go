// Package editor manages the fetch → edit → submit lifecycle of one
// quotation inside a modal-like scope. A generation counter makes every
// superseded fetch or submit outcome inert: nothing mutates the session
// after it was closed or reopened.
package editor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/andeansoft/cotizador/internal/client/notify"
	"github.com/andeansoft/cotizador/internal/models"
	"go.uber.org/zap"
)

// State is the edit session's lifecycle phase.
type State int

const (
	// StateClosed is both the initial and the terminal state.
	StateClosed State = iota
	// StateLoading means the entity fetch is in flight.
	StateLoading
	// StateEditing means the draft is open for local mutation.
	StateEditing
	// StateSubmitting means the full draft is being PUT to the server.
	StateSubmitting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateLoading:
		return "loading"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	}
	return "unknown"
}

// LineItem is one draft row. Total is derived and kept in sync with
// Unidades and PrecioUnitario.
type LineItem struct {
	Descripcion    string
	Unidades       int
	PrecioUnitario float64
	Total          float64
}

// Draft is the local, possibly-invalid copy of the quotation under edit.
type Draft struct {
	NombreCliente    string
	DireccionCliente string
	TipoDocumento    string
	NroDocumento     string
	Moneda           string
	Items            []LineItem
}

// API is the slice of the HTTP client the editor needs.
type API interface {
	GetCotizacion(ctx context.Context, id int) (*models.Cotizacion, error)
	UpdateCotizacion(ctx context.Context, id int, in models.CotizacionCreate) (*models.Cotizacion, error)
}

// Notifier emits user-facing messages.
type Notifier interface {
	Notify(message string, kind notify.Kind)
}

const requestTimeout = 15 * time.Second

// Session drives one quotation edit at a time. Opening a new entity
// supersedes any pending fetch for the previous one.
type Session struct {
	mu        sync.Mutex
	api       API
	toasts    Notifier
	log       *zap.Logger
	onUpdated func()

	state    State
	gen      int
	entityID int
	draft    Draft
}

// New constructs an edit session. onUpdated runs after every successful
// submit, typically to refresh the owning list; it may be nil.
func New(api API, toasts Notifier, onUpdated func(), log *zap.Logger) *Session {
	return &Session{api: api, toasts: toasts, onUpdated: onUpdated, log: log}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EntityID returns the id of the quotation under edit.
func (s *Session) EntityID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entityID
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	d.Items = make([]LineItem, len(s.draft.Items))
	copy(d.Items, s.draft.Items)
	return d
}

// Open starts an edit session for the given quotation. The fetch runs in
// the background; on success the draft opens for editing, on failure an
// error notification is emitted and the session closes with no dangling
// draft.
func (s *Session) Open(entityID int) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.entityID = entityID
	s.draft = Draft{}
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cot, err := s.api.GetCotizacion(ctx, entityID)

		s.mu.Lock()
		if gen != s.gen || s.state != StateLoading {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.state = StateClosed
			s.draft = Draft{}
			s.mu.Unlock()
			s.log.Debug("quotation fetch failed", zap.Int("id", entityID), zap.Error(err))
			s.toasts.Notify(err.Error(), notify.KindError)
			return
		}

		d := Draft{
			NombreCliente:    cot.NombreCliente,
			DireccionCliente: cot.DireccionCliente,
			TipoDocumento:    cot.TipoDocumento,
			NroDocumento:     cot.NroDocumento,
			Moneda:           cot.Moneda,
		}
		for _, p := range cot.Productos {
			d.Items = append(d.Items, LineItem{
				Descripcion:    p.Descripcion,
				Unidades:       p.Unidades,
				PrecioUnitario: p.PrecioUnitario,
				Total:          float64(p.Unidades) * p.PrecioUnitario,
			})
		}
		s.draft = d
		s.state = StateEditing
		s.mu.Unlock()
	}()
}

// SetField mutates one client field of the draft, addressed by its wire
// name. Only valid while editing.
func (s *Session) SetField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("no draft open")
	}
	switch name {
	case "nombre_cliente":
		s.draft.NombreCliente = value
	case "direccion_cliente":
		s.draft.DireccionCliente = value
	case "tipo_documento":
		s.draft.TipoDocumento = value
	case "nro_documento":
		s.draft.NroDocumento = value
	case "moneda":
		s.draft.Moneda = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// SetItemField mutates one field of one line item. Numeric input is
// coerced leniently: anything unparseable becomes zero. Changing the
// quantity or unit price recomputes that row's total and no other row's.
func (s *Session) SetItemField(index int, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("no draft open")
	}
	if index < 0 || index >= len(s.draft.Items) {
		return fmt.Errorf("line item %d out of range", index)
	}
	item := &s.draft.Items[index]
	switch name {
	case "descripcion":
		item.Descripcion = value
	case "unidades":
		item.Unidades = coerceInt(value)
	case "precio_unitario":
		item.PrecioUnitario = coerceFloat(value)
	default:
		return fmt.Errorf("unknown line-item field %q", name)
	}
	item.Total = float64(item.Unidades) * item.PrecioUnitario
	return nil
}

// AddLineItem appends a zero-valued row. Purely local.
func (s *Session) AddLineItem() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("no draft open")
	}
	s.draft.Items = append(s.draft.Items, LineItem{})
	return nil
}

// RemoveLineItem removes the row at index. Purely local.
func (s *Session) RemoveLineItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("no draft open")
	}
	if index < 0 || index >= len(s.draft.Items) {
		return fmt.Errorf("line item %d out of range", index)
	}
	s.draft.Items = append(s.draft.Items[:index], s.draft.Items[index+1:]...)
	return nil
}

// Submit PUTs the entire draft, with the aggregate total recomputed from
// the line items. Success emits a notification, runs the updated callback,
// and closes the session; failure emits a notification and leaves the
// draft open for retry.
func (s *Session) Submit() error {
	s.mu.Lock()
	if s.state != StateEditing {
		s.mu.Unlock()
		return fmt.Errorf("no draft open")
	}
	s.state = StateSubmitting
	gen := s.gen
	entityID := s.entityID
	payload := s.buildPayload()
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := s.api.UpdateCotizacion(ctx, entityID, payload)

		s.mu.Lock()
		if gen != s.gen || s.state != StateSubmitting {
			s.mu.Unlock()
			return
		}
		if err != nil {
			s.state = StateEditing
			s.mu.Unlock()
			s.log.Debug("quotation update failed", zap.Int("id", entityID), zap.Error(err))
			s.toasts.Notify(err.Error(), notify.KindError)
			return
		}
		s.state = StateClosed
		s.draft = Draft{}
		s.mu.Unlock()

		s.toasts.Notify("Cotización actualizada con éxito.", notify.KindSuccess)
		if s.onUpdated != nil {
			s.onUpdated()
		}
	}()
	return nil
}

// buildPayload assembles the full update body. Caller holds the lock.
func (s *Session) buildPayload() models.CotizacionCreate {
	out := models.CotizacionCreate{
		NombreCliente:    s.draft.NombreCliente,
		DireccionCliente: s.draft.DireccionCliente,
		TipoDocumento:    s.draft.TipoDocumento,
		NroDocumento:     s.draft.NroDocumento,
		Moneda:           s.draft.Moneda,
	}
	for _, it := range s.draft.Items {
		out.MontoTotal += it.Total
		out.Productos = append(out.Productos, models.Producto{
			Descripcion:    it.Descripcion,
			Unidades:       it.Unidades,
			PrecioUnitario: it.PrecioUnitario,
			Total:          it.Total,
		})
	}
	return out
}

// Close discards the draft unconditionally. Safe at any point, including
// mid-fetch: the superseded response is ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateClosed
	s.entityID = 0
	s.draft = Draft{}
}

// coerceInt parses a quantity, silently defaulting invalid input to zero.
func coerceInt(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return n
}

// coerceFloat parses a price, silently defaulting invalid input to zero.
func coerceFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}
