// Package store provides the in-memory data layer for the stub API server.
// It fabricates the persistence the real backend owns, just enough for the
// client and its tests to run without external services.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andeansoft/cotizador/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	// or belongs to another user.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// User is an account as the server sees it: the public profile plus the
// password hash.
type User struct {
	models.Profile
	PasswordHash string
}

// Memory holds all stub data behind one mutex.
type Memory struct {
	mu         sync.Mutex
	users      map[int]*User
	cots       map[int]*models.Cotizacion
	nextUser   int
	nextCot    int
	nextComp   int
	correlativ int
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		users: make(map[int]*User),
		cots:  make(map[int]*models.Cotizacion),
	}
}

// CreateUser registers a new active account.
func (m *Memory) CreateUser(email, passwordHash string, isAdmin bool) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}
	m.nextUser++
	u := &User{
		Profile: models.Profile{
			ID:       m.nextUser,
			Email:    email,
			IsActive: true,
			IsAdmin:  isAdmin,
		},
		PasswordHash: passwordHash,
	}
	m.users[u.ID] = u
	out := *u
	return &out, nil
}

// UserByEmail looks an account up by login email.
func (m *Memory) UserByEmail(email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// UserByID looks an account up by id.
func (m *Memory) UserByID(id int) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

// Users returns every account ordered by id.
func (m *Memory) Users() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateUserStatus activates or deactivates an account. Deactivation
// records the reason; reactivation clears it.
func (m *Memory) UpdateUserStatus(id int, active bool, reason string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.IsActive = active
	if active {
		u.DeactivationReason = ""
	} else {
		u.DeactivationReason = reason
	}
	out := *u
	return &out, nil
}

// DeleteUser removes an account and all its quotations.
func (m *Memory) DeleteUser(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	for cid, c := range m.cots {
		if c.OwnerID == id {
			delete(m.cots, cid)
		}
	}
	return nil
}

// UpdateProfile merges the non-nil fields of upd into the account.
func (m *Memory) UpdateProfile(id int, upd models.ProfileUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.BusinessName != nil {
		u.BusinessName = *upd.BusinessName
	}
	if upd.BusinessAddress != nil {
		u.BusinessAddress = *upd.BusinessAddress
	}
	if upd.BusinessRUC != nil {
		u.BusinessRUC = *upd.BusinessRUC
	}
	if upd.BusinessPhone != nil {
		u.BusinessPhone = *upd.BusinessPhone
	}
	if upd.PrimaryColor != nil {
		u.PrimaryColor = *upd.PrimaryColor
	}
	if upd.PDFNote1 != nil {
		u.PDFNote1 = *upd.PDFNote1
	}
	if upd.PDFNote1Color != nil {
		u.PDFNote1Color = *upd.PDFNote1Color
	}
	if upd.PDFNote2 != nil {
		u.PDFNote2 = *upd.PDFNote2
	}
	if upd.BankAccounts != nil {
		u.BankAccounts = *upd.BankAccounts
	}
	out := *u
	return &out, nil
}

// CreateCotizacion stores a new quotation with a server-assigned number.
func (m *Memory) CreateCotizacion(ownerID int, in models.CotizacionCreate) *models.Cotizacion {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCot++
	c := &models.Cotizacion{
		ID:               m.nextCot,
		OwnerID:          ownerID,
		NumeroCotizacion: fmt.Sprintf("COT-%04d", m.nextCot),
		NombreCliente:    in.NombreCliente,
		DireccionCliente: in.DireccionCliente,
		TipoDocumento:    in.TipoDocumento,
		NroDocumento:     in.NroDocumento,
		Moneda:           in.Moneda,
		MontoTotal:       in.MontoTotal,
		FechaCreacion:    time.Now().UTC(),
		Productos:        copyProductos(in.Productos),
	}
	m.cots[c.ID] = c
	out := *c
	return &out
}

// CotizacionesByOwner returns the owner's quotations ordered by id.
func (m *Memory) CotizacionesByOwner(ownerID int) []models.Cotizacion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Cotizacion
	for _, c := range m.cots {
		if c.OwnerID == ownerID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Cotizacion returns one quotation if it belongs to ownerID.
func (m *Memory) Cotizacion(id, ownerID int) (*models.Cotizacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cots[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	out := *c
	return &out, nil
}

// UpdateCotizacion replaces the mutable fields of a quotation.
func (m *Memory) UpdateCotizacion(id, ownerID int, in models.CotizacionCreate) (*models.Cotizacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cots[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	c.NombreCliente = in.NombreCliente
	c.DireccionCliente = in.DireccionCliente
	c.TipoDocumento = in.TipoDocumento
	c.NroDocumento = in.NroDocumento
	c.Moneda = in.Moneda
	c.MontoTotal = in.MontoTotal
	c.Productos = copyProductos(in.Productos)
	out := *c
	return &out, nil
}

// DeleteCotizacion removes a quotation if it belongs to ownerID.
func (m *Memory) DeleteCotizacion(id, ownerID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cots[id]
	if !ok || c.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(m.cots, id)
	return nil
}

// Facturar attaches a fabricated electronic receipt to a quotation. A
// quotation can only be invoiced once.
func (m *Memory) Facturar(id, ownerID int) (*models.Cotizacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cots[id]
	if !ok || c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	if c.Comprobante != nil {
		return nil, errors.New("cotización ya facturada")
	}
	m.nextComp++
	m.correlativ++
	c.Comprobante = &models.Comprobante{
		ID:           m.nextComp,
		Serie:        "F001",
		Correlativo:  fmt.Sprintf("%08d", m.correlativ),
		FechaEmision: time.Now().UTC(),
		SunatResponse: map[string]any{
			"success": true,
			"cdrResponse": map[string]any{
				"id":          fmt.Sprintf("F001-%08d", m.correlativ),
				"description": "La Factura ha sido aceptada",
			},
		},
	}
	out := *c
	return &out, nil
}

// ComprobanteOwner resolves a receipt id back to its quotation. Used by
// the document download endpoints.
func (m *Memory) ComprobanteOwner(comprobanteID, ownerID int) (*models.Cotizacion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cots {
		if c.Comprobante != nil && c.Comprobante.ID == comprobanteID && c.OwnerID == ownerID {
			out := *c
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func copyProductos(in []models.Producto) []models.Producto {
	out := make([]models.Producto, len(in))
	copy(out, in)
	return out
}
