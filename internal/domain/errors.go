package domain

import "errors"

var (
	ErrEventoNoEncontrado  = errors.New("evento no encontrado")
	ErrReservaNoEncontrada = errors.New("reserva no encontrada")
	ErrIDInvalido          = errors.New("identificador inválido")
)

var (
	ErrEventoNoActivo      = errors.New("el evento no está activo")
	ErrFechaPasada         = errors.New("la fecha del evento ya pasó")
	ErrEstadoInvalido      = errors.New("estado de evento inválido")
	ErrEventoCancelado     = errors.New("el evento está cancelado")
	ErrEtapaInvalida       = errors.New("etapa de preventa inexistente")
	ErrEtapaInactiva       = errors.New("etapa de preventa inactiva o vencida")
	ErrEtapaAgotada        = errors.New("etapa de preventa agotada")
	ErrGratisDeshabilitado = errors.New("boletos gratis deshabilitados")
	ErrGratisAgotado       = errors.New("boletos gratis agotados")
	ErrCupoBajoReclamados  = errors.New("la cantidad no puede ser menor que los boletos ya reclamados")
)

var (
	// ErrCodigoDuplicado surfaces a reservation-code uniqueness conflict;
	// the caller retries with a freshly generated code.
	ErrCodigoDuplicado  = errors.New("código de reserva duplicado")
	ErrReservaCancelada = errors.New("la reserva ya está cancelada")
)

var ErrValidacion = errors.New("error de validación")

// AgotadoError decorates a sold-out sentinel with the remaining
// availability so the response can include it.
type AgotadoError struct {
	Causa     error
	Restantes int
}

func (e *AgotadoError) Error() string { return e.Causa.Error() }

func (e *AgotadoError) Unwrap() error { return e.Causa }
