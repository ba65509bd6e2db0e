package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/andeansoft/cotizador/internal/models"
	"github.com/andeansoft/cotizador/internal/server/store"
)

// CotizacionStore defines the quotation operations required by the
// quotation handlers.
type CotizacionStore interface {
	userDirectory
	CreateCotizacion(ownerID int, in models.CotizacionCreate) *models.Cotizacion
	CotizacionesByOwner(ownerID int) []models.Cotizacion
	Cotizacion(id, ownerID int) (*models.Cotizacion, error)
	UpdateCotizacion(id, ownerID int, in models.CotizacionCreate) (*models.Cotizacion, error)
	DeleteCotizacion(id, ownerID int) error
	Facturar(id, ownerID int) (*models.Cotizacion, error)
	ComprobanteOwner(comprobanteID, ownerID int) (*models.Cotizacion, error)
}

// CotizacionHandler serves quotation CRUD, invoicing, and document
// downloads.
type CotizacionHandler struct {
	Store CotizacionStore
}

// idParam parses a numeric path parameter, answering a validation error on
// garbage input.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeValidation(w, validationError{
			Loc:  []any{"path", name},
			Msg:  "Input should be a valid integer",
			Type: "int_parsing",
		})
		return 0, false
	}
	return id, true
}

// validateCotizacion mirrors the backend's field constraints.
func validateCotizacion(w http.ResponseWriter, in models.CotizacionCreate) bool {
	var errs []validationError
	if in.NombreCliente == "" {
		errs = append(errs, fieldError("nombre_cliente", "String should have at least 1 character"))
	}
	if in.NroDocumento == "" {
		errs = append(errs, fieldError("nro_documento", "String should have at least 1 character"))
	}
	if len(in.Productos) == 0 {
		errs = append(errs, fieldError("productos", "List should have at least 1 item"))
	}
	if len(errs) > 0 {
		writeValidation(w, errs...)
		return false
	}
	return true
}

// List handles GET /cotizaciones/.
func (h *CotizacionHandler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	cots := h.Store.CotizacionesByOwner(u.ID)
	if cots == nil {
		cots = []models.Cotizacion{}
	}
	writeJSON(w, http.StatusOK, cots)
}

// Create handles POST /cotizaciones/.
func (h *CotizacionHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	var in models.CotizacionCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !validateCotizacion(w, in) {
		return
	}
	writeJSON(w, http.StatusOK, h.Store.CreateCotizacion(u.ID, in))
}

// Get handles GET /cotizaciones/{cotizacion_id}.
func (h *CotizacionHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "cotizacion_id")
	if !ok {
		return
	}
	cot, err := h.Store.Cotizacion(id, u.ID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Cotización no encontrada")
		return
	}
	writeJSON(w, http.StatusOK, cot)
}

// Update handles PUT /cotizaciones/{cotizacion_id}: a full replacement of
// the quotation with the submitted draft.
func (h *CotizacionHandler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "cotizacion_id")
	if !ok {
		return
	}
	var in models.CotizacionCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !validateCotizacion(w, in) {
		return
	}
	cot, err := h.Store.UpdateCotizacion(id, u.ID, in)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Cotización no encontrada")
		return
	}
	writeJSON(w, http.StatusOK, cot)
}

// Delete handles DELETE /cotizaciones/{cotizacion_id}.
func (h *CotizacionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "cotizacion_id")
	if !ok {
		return
	}
	if err := h.Store.DeleteCotizacion(id, u.ID); err != nil {
		writeDetail(w, http.StatusNotFound, "Cotización no encontrada")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Facturar handles POST /cotizaciones/{cotizacion_id}/facturar.
func (h *CotizacionHandler) Facturar(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "cotizacion_id")
	if !ok {
		return
	}
	cot, err := h.Store.Facturar(id, u.ID)
	if err != nil {
		if err == store.ErrNotFound {
			writeDetail(w, http.StatusNotFound, "Cotización no encontrada")
			return
		}
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cot)
}

// PDF handles GET /cotizaciones/{cotizacion_id}/pdf with a placeholder
// document; the real rendering lives behind the external API.
func (h *CotizacionHandler) PDF(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "cotizacion_id")
	if !ok {
		return
	}
	cot, err := h.Store.Cotizacion(id, u.ID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Cotización no encontrada")
		return
	}
	filename := fmt.Sprintf("Cotizacion_%s_%s.pdf", cot.NumeroCotizacion, sanitizeFilename(cot.NombreCliente))
	servePDF(w, filename, cot.NumeroCotizacion)
}

// descargaRequest is the JSON payload for the /facturacion endpoints.
type descargaRequest struct {
	ComprobanteID int `json:"comprobante_id"`
}

// Descargar handles POST /facturacion/{doc_type}: binary downloads of a
// receipt's PDF, XML, or CDR by receipt id.
func (h *CotizacionHandler) Descargar(w http.ResponseWriter, r *http.Request) {
	u, ok := currentUser(w, r, h.Store)
	if !ok {
		return
	}
	docType := chi.URLParam(r, "doc_type")
	switch docType {
	case "pdf", "xml", "cdr":
	default:
		writeDetail(w, http.StatusNotFound, "Tipo de documento no soportado")
		return
	}

	var req descargaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	cot, err := h.Store.ComprobanteOwner(req.ComprobanteID, u.ID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Comprobante no encontrado")
		return
	}

	comp := cot.Comprobante
	ext := docType
	if docType == "cdr" {
		ext = "zip"
	}
	filename := fmt.Sprintf("Comprobante_%s-%s.%s", comp.Serie, comp.Correlativo, ext)
	switch docType {
	case "pdf":
		servePDF(w, filename, comp.Serie+"-"+comp.Correlativo)
	case "xml":
		w.Header().Set("Content-Type", "application/xml")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		fmt.Fprintf(w, "<Invoice><ID>%s-%s</ID></Invoice>\n", comp.Serie, comp.Correlativo)
	case "cdr":
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write([]byte("PK\x03\x04"))
	}
}

// servePDF writes a minimal placeholder PDF body.
func servePDF(w http.ResponseWriter, filename, title string) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	fmt.Fprintf(w, "%%PDF-1.4\n%% stub document: %s\n%%%%EOF\n", title)
}

// sanitizeFilename strips path-unsafe characters and replaces spaces, the
// same rule the real backend applies before Content-Disposition.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, " ", "_")
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, name)
}
