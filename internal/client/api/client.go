// Package api implements the HTTP client for the remote invoicing API:
// bearer-token authentication, quotation and admin endpoints, binary
// document downloads, and normalization of the server's error bodies into
// user-facing messages.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andeansoft/cotizador/internal/models"
	"go.uber.org/zap"
)

// TokenSource provides the current bearer token. An empty string means no
// session; the request is then sent unauthenticated and the server decides.
type TokenSource interface {
	Token() string
}

// Client issues authenticated requests against the invoicing API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New constructs a Client for the given base URL. hc may be nil, in which
// case a default client with a request timeout is used.
func New(baseURL string, hc *http.Client, tokens TokenSource, log *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tokens:  tokens,
		log:     log,
	}
}

// send executes the request with the bearer header attached, normalizes any
// failure into *Error, and decodes a JSON body into out when out is non-nil.
func (c *Client) send(req *http.Request, out any) error {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return &Error{Message: FallbackErrorMessage}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return &Error{Status: resp.StatusCode, Message: NormalizeErrorBody(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Debug("invalid response body", zap.Error(err))
		return &Error{Status: resp.StatusCode, Message: FallbackErrorMessage}
	}
	return nil
}

// doJSON issues a request with an optional JSON body.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Login exchanges credentials for a bearer token via the form-encoded
// /token endpoint.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var tok models.Token
	if err := c.send(req, &tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, email, password string) (*models.Profile, error) {
	in := map[string]string{"email": email, "password": password}
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodPost, "/users/", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Me fetches the profile bound to the current token.
func (c *Client) Me(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodGet, "/users/me/", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile sends a partial profile update and returns the resulting
// full profile.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	var p models.Profile
	if err := c.doJSON(ctx, http.MethodPut, "/profile/", upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCotizaciones fetches the caller's quotations.
func (c *Client) ListCotizaciones(ctx context.Context) ([]models.Cotizacion, error) {
	var out []models.Cotizacion
	if err := c.doJSON(ctx, http.MethodGet, "/cotizaciones/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCotizacion fetches one quotation with its line items.
func (c *Client) GetCotizacion(ctx context.Context, id int) (*models.Cotizacion, error) {
	var out models.Cotizacion
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/cotizaciones/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCotizacion creates a quotation.
func (c *Client) CreateCotizacion(ctx context.Context, in models.CotizacionCreate) (*models.Cotizacion, error) {
	var out models.Cotizacion
	if err := c.doJSON(ctx, http.MethodPost, "/cotizaciones/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCotizacion replaces a quotation with the full draft.
func (c *Client) UpdateCotizacion(ctx context.Context, id int, in models.CotizacionCreate) (*models.Cotizacion, error) {
	var out models.Cotizacion
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/cotizaciones/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCotizacion removes a quotation.
func (c *Client) DeleteCotizacion(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/cotizaciones/%d", id), nil, nil)
}

// Facturar converts a quotation into an electronic receipt.
func (c *Client) Facturar(ctx context.Context, id int) (*models.Cotizacion, error) {
	var out models.Cotizacion
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/cotizaciones/%d/facturar", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// fetchBinary executes the request and returns the raw body plus the
// filename advertised in Content-Disposition, if any.
func (c *Client) fetchBinary(req *http.Request) ([]byte, string, error) {
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &Error{Message: FallbackErrorMessage}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return nil, "", &Error{Status: resp.StatusCode, Message: NormalizeErrorBody(body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &Error{Status: resp.StatusCode, Message: FallbackErrorMessage}
	}

	var filename string
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			filename = params["filename"]
		}
	}
	return data, filename, nil
}

// CotizacionPDF downloads the rendered PDF for a quotation.
func (c *Client) CotizacionPDF(ctx context.Context, id int) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/cotizaciones/%d/pdf", c.baseURL, id), nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	return c.fetchBinary(req)
}

// DownloadComprobante fetches a receipt document (pdf, xml, or cdr) by
// receipt id.
func (c *Client) DownloadComprobante(ctx context.Context, docType string, comprobanteID int) ([]byte, string, error) {
	payload, err := json.Marshal(map[string]int{"comprobante_id": comprobanteID})
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/facturacion/"+docType, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.fetchBinary(req)
}

// AdminListUsers fetches every account for the admin listing.
func (c *Client) AdminListUsers(ctx context.Context) ([]models.AdminUserView, error) {
	var out []models.AdminUserView
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminGetUser fetches one account's full profile.
func (c *Client) AdminGetUser(ctx context.Context, id int) (*models.Profile, error) {
	var out models.Profile
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/admin/users/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminUserCotizaciones fetches the quotations belonging to one account.
func (c *Client) AdminUserCotizaciones(ctx context.Context, id int) ([]models.Cotizacion, error) {
	var out []models.Cotizacion
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/admin/users/%d/cotizaciones", id), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AdminUpdateUserStatus activates or deactivates an account.
func (c *Client) AdminUpdateUserStatus(ctx context.Context, id int, upd models.UserStatusUpdate) (*models.AdminUserView, error) {
	var out models.AdminUserView
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/admin/users/%d/status", id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminDeleteUser permanently removes an account.
func (c *Client) AdminDeleteUser(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", id), nil, nil)
}
