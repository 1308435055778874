package pasarela

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrearPreferencia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer token-prueba", r.Header.Get("Authorization"))

		var pref Preferencia
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pref))
		assert.Equal(t, "orden-1", pref.ExternalReference)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(RespuestaPreferencia{
			ID:        "pref-1",
			InitPoint: "https://mp/checkout/pref-1",
		})
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL, AccessToken: "token-prueba"})
	reply, err := cliente.CrearPreferencia(context.Background(), &Preferencia{
		ExternalReference: "orden-1",
		Items:             []Item{{Title: "Concierto", Quantity: 2, UnitPrice: 300}},
	})

	require.NoError(t, err)
	assert.Equal(t, "pref-1", reply.ID)
	assert.Equal(t, "https://mp/checkout/pref-1", reply.InitPoint)
}

func TestCrearPreferenciaCredencialesInvalidas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL, AccessToken: "mala"})
	_, err := cliente.CrearPreferencia(context.Background(), &Preferencia{})

	assert.ErrorIs(t, err, ErrAutenticacion)
}

func TestPago(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/987654", r.URL.Path)
		json.NewEncoder(w).Encode(Pago{
			ID:                987654,
			Status:            "approved",
			StatusDetail:      "accredited",
			ExternalReference: "orden-1",
			TransactionAmount: 600,
		})
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL})
	pago, err := cliente.Pago(context.Background(), "987654")

	require.NoError(t, err)
	assert.Equal(t, int64(987654), pago.ID)
	assert.Equal(t, "approved", pago.Status)
	assert.Equal(t, "orden-1", pago.ExternalReference)
}

func TestPagoNoEncontrado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL})
	_, err := cliente.Pago(context.Background(), "0")

	assert.ErrorIs(t, err, ErrPagoNoEncontrado)
}

func TestPagoServidorCaido(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL})
	_, err := cliente.Pago(context.Background(), "987654")

	assert.ErrorIs(t, err, ErrNoDisponible)
}

func TestPagoPorOrden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/search", r.URL.Path)
		assert.Equal(t, "orden-1", r.URL.Query().Get("external_reference"))
		json.NewEncoder(w).Encode(map[string]any{
			"results": []Pago{
				{ID: 2, Status: "approved", ExternalReference: "orden-1"},
				{ID: 1, Status: "rejected", ExternalReference: "orden-1"},
			},
		})
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL})
	pago, err := cliente.PagoPorOrden(context.Background(), "orden-1")

	require.NoError(t, err)
	assert.Equal(t, int64(2), pago.ID)
}

func TestPagoPorOrdenSinResultados(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": []Pago{}})
	}))
	defer srv.Close()

	cliente := NewClient(Config{BaseURL: srv.URL})
	_, err := cliente.PagoPorOrden(context.Background(), "orden-x")

	assert.ErrorIs(t, err, ErrPagoNoEncontrado)
}
