package pasarela

import "errors"

// Errors the rest of the system can distinguish instead of an opaque
// gateway failure.
var (
	ErrAutenticacion    = errors.New("pasarela: credenciales rechazadas")
	ErrRechazado        = errors.New("pasarela: solicitud rechazada")
	ErrPagoNoEncontrado = errors.New("pasarela: pago no encontrado")
	ErrNoDisponible     = errors.New("pasarela: servicio no disponible")
)

// Item is one line of a checkout preference.
type Item struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type Payer struct {
	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   struct {
		Number string `json:"number,omitempty"`
	} `json:"phone,omitempty"`
}

type BackURLs struct {
	Success string `json:"success"`
	Pending string `json:"pending"`
	Failure string `json:"failure"`
}

// Metadata travels with the preference and is echoed back on the
// payment, so the webhook can reconstruct what was bought without
// re-reading request state.
type Metadata struct {
	EventoID string       `json:"evento_id"`
	StageID  string       `json:"stage_id,omitempty"`
	Gratis   bool         `json:"gratis,omitempty"`
	Cantidad int          `json:"cantidad"`
	Boletos  []BoletoMeta `json:"boletos"`
}

type BoletoMeta struct {
	Nombre   string `json:"nombre"`
	Apellido string `json:"apellido"`
	Telefono string `json:"telefono,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Preferencia is the checkout session sent to the gateway.
type Preferencia struct {
	Items             []Item   `json:"items"`
	Payer             Payer    `json:"payer"`
	BackURLs          BackURLs `json:"back_urls"`
	AutoReturn        string   `json:"auto_return,omitempty"`
	ExternalReference string   `json:"external_reference"`
	NotificationURL   string   `json:"notification_url,omitempty"`
	Metadata          Metadata `json:"metadata"`
}

// RespuestaPreferencia is the created checkout session.
type RespuestaPreferencia struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Pago is the full payment detail fetched after a webhook notification.
type Pago struct {
	ID                int64    `json:"id"`
	Status            string   `json:"status"`
	StatusDetail      string   `json:"status_detail"`
	ExternalReference string   `json:"external_reference"`
	TransactionAmount float64  `json:"transaction_amount"`
	Metadata          Metadata `json:"metadata"`
	DateApproved      string   `json:"date_approved,omitempty"`
}

// Notificacion is the webhook body the gateway posts.
type Notificacion struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}
