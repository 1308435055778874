// Package pasarela is the HTTP client for the external payment gateway.
package pasarela

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	baseURL     string
	accessToken string
	hc          *http.Client
}

// NewClient builds a gateway client with its own request timeout.
func NewClient(c Config) *Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     c.BaseURL,
		accessToken: c.AccessToken,
		hc:          &http.Client{Timeout: timeout},
	}
}

// CrearPreferencia registers a checkout session and returns its id and
// redirect links.
func (c *Client) CrearPreferencia(ctx context.Context, pref *Preferencia) (*RespuestaPreferencia, error) {
	body, err := json.Marshal(pref)
	if err != nil {
		return nil, fmt.Errorf("crearPreferencia: json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("crearPreferencia: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crearPreferencia: %w: %v", ErrNoDisponible, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("crearPreferencia: %w", err)
	}

	var reply RespuestaPreferencia
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("crearPreferencia: json.Decode: %w", err)
	}
	if reply.ID == "" {
		return nil, fmt.Errorf("crearPreferencia: %w: respuesta sin id", ErrRechazado)
	}
	return &reply, nil
}

// Pago fetches the full payment detail by gateway payment id.
func (c *Client) Pago(ctx context.Context, id string) (*Pago, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("pago: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pago: %w: %v", ErrNoDisponible, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("pago %s: %w", id, err)
	}

	var pago Pago
	if err := json.NewDecoder(resp.Body).Decode(&pago); err != nil {
		return nil, fmt.Errorf("pago: json.Decode: %w", err)
	}
	return &pago, nil
}

// PagoPorOrden searches payments by external reference and returns the
// most recent match.
func (c *Client) PagoPorOrden(ctx context.Context, ordenID string) (*Pago, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/search?sort=date_created&criteria=desc&external_reference=%s",
		c.baseURL, url.QueryEscape(ordenID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("pagoPorOrden: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pagoPorOrden: %w: %v", ErrNoDisponible, err)
	}
	defer resp.Body.Close()

	if err := c.mapStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("pagoPorOrden %s: %w", ordenID, err)
	}

	var reply struct {
		Results []Pago `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("pagoPorOrden: json.Decode: %w", err)
	}
	if len(reply.Results) == 0 {
		return nil, ErrPagoNoEncontrado
	}
	return &reply.Results[0], nil
}

func (c *Client) mapStatus(code int) error {
	switch {
	case code == http.StatusOK || code == http.StatusCreated:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrAutenticacion
	case code == http.StatusNotFound:
		return ErrPagoNoEncontrado
	case code >= 400 && code < 500:
		return ErrRechazado
	default:
		return ErrNoDisponible
	}
}
