// Package models defines the wire-level data structures exchanged with the
// invoicing API: user profiles, quotations and their line items, tax
// receipts, and the authentication token envelope.
package models

import "time"

// BankAccount is one bank account shown on generated quotation PDFs.
type BankAccount struct {
	// Banco is the bank's display name.
	Banco string `json:"banco"`
	// TipoCuenta is the account type ("Corriente", "Ahorros").
	TipoCuenta string `json:"tipo_cuenta,omitempty"`
	// Moneda is the account currency ("SOLES", "DOLARES").
	Moneda string `json:"moneda,omitempty"`
	// Cuenta is the plain account number.
	Cuenta string `json:"cuenta"`
	// CCI is the interbank account code.
	CCI string `json:"cci"`
}

// Profile represents the authenticated user's account as returned by
// GET /users/me/ and the admin detail endpoints.
type Profile struct {
	// ID is the unique identifier for the user.
	ID int `json:"id"`
	// Email is the login email address.
	Email string `json:"email"`
	// IsActive reports whether the account may log in.
	IsActive bool `json:"is_active"`
	// IsAdmin reports whether the account has admin privileges.
	IsAdmin bool `json:"is_admin"`
	// DeactivationReason holds the justification recorded when the
	// account was deactivated, empty for active accounts.
	DeactivationReason string `json:"deactivation_reason,omitempty"`

	BusinessName    string `json:"business_name,omitempty"`
	BusinessAddress string `json:"business_address,omitempty"`
	BusinessRUC     string `json:"business_ruc,omitempty"`
	BusinessPhone   string `json:"business_phone,omitempty"`
	LogoFilename    string `json:"logo_filename,omitempty"`
	PrimaryColor    string `json:"primary_color,omitempty"`
	PDFNote1        string `json:"pdf_note_1,omitempty"`
	PDFNote1Color   string `json:"pdf_note_1_color,omitempty"`
	PDFNote2        string `json:"pdf_note_2,omitempty"`

	BankAccounts []BankAccount `json:"bank_accounts,omitempty"`
}

// ProfileUpdate is the partial payload for PUT /profile/. Nil fields are
// left untouched by the server and by Session.UpdateUser.
type ProfileUpdate struct {
	BusinessName    *string        `json:"business_name,omitempty"`
	BusinessAddress *string        `json:"business_address,omitempty"`
	BusinessRUC     *string        `json:"business_ruc,omitempty"`
	BusinessPhone   *string        `json:"business_phone,omitempty"`
	PrimaryColor    *string        `json:"primary_color,omitempty"`
	PDFNote1        *string        `json:"pdf_note_1,omitempty"`
	PDFNote1Color   *string        `json:"pdf_note_1_color,omitempty"`
	PDFNote2        *string        `json:"pdf_note_2,omitempty"`
	BankAccounts    *[]BankAccount `json:"bank_accounts,omitempty"`
}

// Token is the envelope returned by POST /token.
type Token struct {
	// AccessToken is the opaque bearer credential.
	AccessToken string `json:"access_token"`
	// TokenType is always "bearer".
	TokenType string `json:"token_type"`
}

// Producto is one quotation line item.
type Producto struct {
	ID int `json:"id,omitempty"`
	// Descripcion is the free-text description of the good or service.
	Descripcion string `json:"descripcion"`
	// Unidades is the quantity.
	Unidades int `json:"unidades"`
	// PrecioUnitario is the price per unit.
	PrecioUnitario float64 `json:"precio_unitario"`
	// Total is Unidades × PrecioUnitario, recomputed client-side.
	Total float64 `json:"total"`
}

// Cotizacion is a quotation as returned by the API.
type Cotizacion struct {
	ID int `json:"id"`
	// OwnerID is the id of the user the quotation belongs to.
	OwnerID int `json:"owner_id"`
	// NumeroCotizacion is the server-assigned document number.
	NumeroCotizacion string `json:"numero_cotizacion"`

	NombreCliente    string `json:"nombre_cliente"`
	DireccionCliente string `json:"direccion_cliente"`
	TipoDocumento    string `json:"tipo_documento"`
	NroDocumento     string `json:"nro_documento"`
	Moneda           string `json:"moneda"`

	// MontoTotal is the aggregate of all line-item totals.
	MontoTotal    float64   `json:"monto_total"`
	FechaCreacion time.Time `json:"fecha_creacion"`

	Productos []Producto `json:"productos"`

	// Comprobante is present once the quotation has been converted
	// into an electronic receipt.
	Comprobante *Comprobante `json:"comprobante,omitempty"`
}

// CotizacionCreate is the payload for creating or fully replacing a
// quotation. The client always sends the entire document, never a diff.
type CotizacionCreate struct {
	NombreCliente    string `json:"nombre_cliente"`
	DireccionCliente string `json:"direccion_cliente"`
	TipoDocumento    string `json:"tipo_documento"`
	NroDocumento     string `json:"nro_documento"`
	Moneda           string `json:"moneda"`

	MontoTotal float64    `json:"monto_total"`
	Productos  []Producto `json:"productos"`
}

// Comprobante is the electronic receipt issued for a quotation through the
// tax-authority integration. SunatResponse is kept opaque: its shape is
// owned by the external service.
type Comprobante struct {
	ID            int            `json:"id"`
	Serie         string         `json:"serie"`
	Correlativo   string         `json:"correlativo"`
	FechaEmision  time.Time      `json:"fecha_emision"`
	SunatResponse map[string]any `json:"sunat_response,omitempty"`
}

// AdminUserView is the compact user representation on the admin listing.
type AdminUserView struct {
	ID                 int    `json:"id"`
	Email              string `json:"email"`
	IsActive           bool   `json:"is_active"`
	IsAdmin            bool   `json:"is_admin"`
	DeactivationReason string `json:"deactivation_reason,omitempty"`
}

// UserStatusUpdate is the payload for PUT /admin/users/{id}/status.
// Deactivation carries a justification; reactivation clears it.
type UserStatusUpdate struct {
	IsActive           bool   `json:"is_active"`
	DeactivationReason string `json:"deactivation_reason,omitempty"`
}
