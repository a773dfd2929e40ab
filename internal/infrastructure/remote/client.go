package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/pos-sync/internal/application/dto"
	"github.com/jhoicas/pos-sync/internal/application/offline"
	"github.com/jhoicas/pos-sync/internal/domain/entity"
)

// Verificar en tiempo de compilación que Client implementa los puertos del terminal.
var (
	_ offline.Remote = (*Client)(nil)
	_ offline.Prober = (*Client)(nil)
)

const (
	// HeaderIdempotencyKey cabecera con el ID del ítem del outbox.
	HeaderIdempotencyKey = "Idempotency-Key"

	pageSize       = 100
	errBodyLimit   = 4096
	defaultTimeout = 30 * time.Second
)

// StatusError respuesta no exitosa del servidor.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("servidor respondió %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("servidor respondió %d: %s", e.Status, e.Message)
}

// Permanent los 4xx no se resuelven reintentando, salvo token vencido, timeout y rate limit.
func (e *StatusError) Permanent() bool {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

// Client adaptador REST del servidor de conciliación.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// Option configura el cliente.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New construye el cliente. baseURL sin /api (p.ej. http://localhost:8080).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken reemplaza el token Bearer (tras un login).
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Ping GET /health.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

// Login POST /api/auth/login. No guarda el token: lo decide quien llama.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, key string, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	var out dto.ProductResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateInvoice(ctx context.Context, key string, req dto.CreateInvoiceRequest) (*dto.CreateInvoiceResponse, error) {
	var out dto.CreateInvoiceResponse
	if err := c.do(ctx, http.MethodPost, "/api/invoices", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreatePayment(ctx context.Context, key string, req dto.CreatePaymentRequest) (*dto.CreatePaymentResponse, error) {
	var out dto.CreatePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/payments", key, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts descarga el catálogo completo página por página.
func (c *Client) ListProducts(ctx context.Context) ([]dto.ProductResponse, error) {
	var all []dto.ProductResponse
	for offset := 0; ; offset += pageSize {
		var page dto.ProductListResponse
		if err := c.do(ctx, http.MethodGet, pagePath("/api/products", offset), "", nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			return all, nil
		}
	}
}

// ListParties descarga clientes o proveedores según kind.
func (c *Client) ListParties(ctx context.Context, kind string) ([]dto.PartyResponse, error) {
	path := "/api/customers"
	if kind == entity.PartySupplier {
		path = "/api/suppliers"
	}
	var all []dto.PartyResponse
	for offset := 0; ; offset += pageSize {
		var page dto.PartyListResponse
		if err := c.do(ctx, http.MethodGet, pagePath(path, offset), "", nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < pageSize {
			return all, nil
		}
	}
}

// GetStatement GET /api/customers/:id/statement (o suppliers).
func (c *Client) GetStatement(ctx context.Context, kind, id string) (*dto.StatementResponse, error) {
	base := "/api/customers/"
	if kind == entity.PartySupplier {
		base = "/api/suppliers/"
	}
	var out dto.StatementResponse
	if err := c.do(ctx, http.MethodGet, base+url.PathEscape(id)+"/statement", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Receipt descarga el PDF del comprobante de una factura confirmada.
func (c *Client) Receipt(ctx context.Context, invoiceID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/invoices/"+url.PathEscape(invoiceID)+"/receipt", "", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET receipt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func pagePath(path string, offset int) string {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(pageSize))
	q.Set("offset", fmt.Sprint(offset))
	return path + "?" + q.Encode()
}

func (c *Client) newRequest(ctx context.Context, method, path, key string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("codificar body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("armar request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do ejecuta la llamada y decodifica la respuesta 2xx en out (si no es nil).
func (c *Client) do(ctx context.Context, method, path, key string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, key, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decodificar respuesta de %s: %w", path, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
	se := &StatusError{Status: resp.StatusCode}
	var body dto.ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && (body.Code != "" || body.Message != "") {
		se.Code = body.Code
		se.Message = body.Message
	} else {
		se.Message = strings.TrimSpace(string(raw))
	}
	return se
}

// IsUnauthorized indica si el servidor rechazó el token.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == http.StatusUnauthorized
}
