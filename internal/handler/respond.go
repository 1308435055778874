package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/pasarela"
)

// ErrorCampo is one aggregated field-validation failure.
type ErrorCampo struct {
	Campo   string `json:"field"`
	Codigo  string `json:"code"`
	Mensaje string `json:"message"`
}

type cuerpoError struct {
	Codigo    string       `json:"code"`
	Mensaje   string       `json:"message"`
	Errores   []ErrorCampo `json:"errors,omitempty"`
	Restantes *int         `json:"remaining,omitempty"`
	Detalle   string       `json:"detail,omitempty"`
}

func escribirJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json;charset=utf8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

type traduccion struct {
	status  int
	codigo  string
	mensaje string
}

var traducciones = map[error]traduccion{
	domain.ErrEventoNoEncontrado:  {http.StatusNotFound, "EVENT_NOT_FOUND", "Evento no encontrado"},
	domain.ErrReservaNoEncontrada: {http.StatusNotFound, "RESERVATION_NOT_FOUND", "Reserva no encontrada"},
	domain.ErrIDInvalido:          {http.StatusBadRequest, "INVALID_ID", "El identificador no es válido"},
	domain.ErrEventoNoActivo:      {http.StatusBadRequest, "EVENT_NOT_ACTIVE", "El evento no está activo"},
	domain.ErrFechaPasada:         {http.StatusBadRequest, "EVENT_DATE_PAST", "La fecha debe ser futura"},
	domain.ErrEstadoInvalido:      {http.StatusBadRequest, "INVALID_STATUS", "Estado de evento inválido"},
	domain.ErrEventoCancelado:     {http.StatusBadRequest, "EVENT_CANCELLED", "El evento está cancelado y no puede cambiar de estado"},
	domain.ErrEtapaInvalida:       {http.StatusBadRequest, "STAGE_INVALID", "La etapa de preventa no existe"},
	domain.ErrEtapaInactiva:       {http.StatusBadRequest, "STAGE_INACTIVE", "La etapa de preventa está inactiva o vencida"},
	domain.ErrEtapaAgotada:        {http.StatusBadRequest, "STAGE_SOLD_OUT", "La etapa de preventa está agotada"},
	domain.ErrGratisDeshabilitado: {http.StatusBadRequest, "FREE_TICKETS_DISABLED", "Los boletos gratis están deshabilitados"},
	domain.ErrGratisAgotado:       {http.StatusBadRequest, "FREE_TICKETS_SOLD_OUT", "Los boletos gratis están agotados"},
	domain.ErrCupoBajoReclamados:  {http.StatusBadRequest, "FREE_QUANTITY_BELOW_CLAIMED", "La cantidad no puede ser menor que los boletos ya reclamados"},
	domain.ErrReservaCancelada:    {http.StatusBadRequest, "RESERVATION_ALREADY_CANCELLED", "La reserva ya está cancelada"},
	domain.ErrCodigoDuplicado:     {http.StatusInternalServerError, "RESERVATION_CODE_CONFLICT", "Conflicto al generar el código de reserva, intente de nuevo"},
	pasarela.ErrAutenticacion:     {http.StatusBadGateway, "GATEWAY_AUTH", "La pasarela de pagos rechazó las credenciales"},
	pasarela.ErrRechazado:         {http.StatusBadGateway, "GATEWAY_REJECTED", "La pasarela de pagos rechazó la solicitud"},
	pasarela.ErrPagoNoEncontrado:  {http.StatusNotFound, "PAYMENT_NOT_FOUND", "Pago no encontrado"},
	pasarela.ErrNoDisponible:      {http.StatusBadGateway, "GATEWAY_UNAVAILABLE", "La pasarela de pagos no está disponible"},
}

// escribirError translates any error into the JSON error contract. In
// development mode the original error text travels in detail.
func (h *respondedor) escribirError(w http.ResponseWriter, err error) {
	cuerpo := cuerpoError{}

	var agotado *domain.AgotadoError
	if errors.As(err, &agotado) && agotado.Restantes >= 0 {
		restantes := agotado.Restantes
		cuerpo.Restantes = &restantes
	}

	for sentinela, t := range traducciones {
		if errors.Is(err, sentinela) {
			cuerpo.Codigo = t.codigo
			cuerpo.Mensaje = t.mensaje
			escribirJSON(w, t.status, cuerpo)
			return
		}
	}

	if errors.Is(err, domain.ErrValidacion) {
		cuerpo.Codigo = "VALIDATION_ERROR"
		cuerpo.Mensaje = err.Error()
		escribirJSON(w, http.StatusBadRequest, cuerpo)
		return
	}

	cuerpo.Codigo = "INTERNAL"
	cuerpo.Mensaje = "Error interno del servidor"
	if h.desarrollo {
		cuerpo.Detalle = err.Error()
	}
	escribirJSON(w, http.StatusInternalServerError, cuerpo)
}

// escribirValidacion aggregates every field error in a single response.
func escribirValidacion(w http.ResponseWriter, errores []ErrorCampo) {
	escribirJSON(w, http.StatusBadRequest, cuerpoError{
		Codigo:  "VALIDATION_ERROR",
		Mensaje: "La solicitud tiene campos inválidos",
		Errores: errores,
	})
}

// respondedor carries the verbosity flag shared by every handler.
type respondedor struct {
	desarrollo bool
}
