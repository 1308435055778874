package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/service"
)

var validar = validator.New(validator.WithRequiredStructEnabled())

type etapaRequest struct {
	Nombre        string    `json:"name" validate:"required"`
	Precio        float64   `json:"price" validate:"gte=0"`
	LimiteBoletos int       `json:"ticketLimit" validate:"gte=1"`
	FechaFin      time.Time `json:"endDate" validate:"required"`
	Activa        bool      `json:"isActive"`
}

type gratisRequest struct {
	Habilitados bool `json:"enabled"`
	Cantidad    int  `json:"quantity" validate:"gte=0"`
}

type crearEventoRequest struct {
	Titulo      string         `json:"title" validate:"required"`
	Descripcion string         `json:"description"`
	Lugar       string         `json:"location" validate:"required"`
	Imagen      string         `json:"image"`
	Fecha       time.Time      `json:"date" validate:"required"`
	PrecioBase  float64        `json:"basePrice" validate:"gte=0"`
	Etapas      []etapaRequest `json:"preSaleStages" validate:"dive"`
	Gratis      *gratisRequest `json:"freeTickets"`
}

type actualizarEventoRequest struct {
	Titulo      *string    `json:"title"`
	Descripcion *string    `json:"description"`
	Lugar       *string    `json:"location"`
	Imagen      *string    `json:"image"`
	Fecha       *time.Time `json:"date"`
	PrecioBase  *float64   `json:"basePrice" validate:"omitempty,gte=0"`
}

type estadoRequest struct {
	Estado string `json:"status" validate:"required"`
	Motivo string `json:"reason"`
}

type actualizarEtapaRequest struct {
	Nombre        *string    `json:"name"`
	Precio        *float64   `json:"price" validate:"omitempty,gte=0"`
	LimiteBoletos *int       `json:"ticketLimit" validate:"omitempty,gte=1"`
	FechaFin      *time.Time `json:"endDate"`
	Activa        *bool      `json:"isActive"`
}

type boletoRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Apellido string `json:"apellido" validate:"required"`
	Telefono string `json:"telefono"`
	Email    string `json:"email" validate:"omitempty,email"`
}

type crearReservaRequest struct {
	EventoID string          `json:"eventId" validate:"required"`
	Boletos  []boletoRequest `json:"tickets" validate:"min=1,max=4,dive"`
	StageID  string          `json:"stageId"`
	Gratis   bool            `json:"isFreeTicket"`
}

type contactoRequest struct {
	Boletos []boletoRequest `json:"tickets" validate:"min=1,max=4,dive"`
}

type preferenciaRequest struct {
	EventoID string          `json:"eventId" validate:"required"`
	Boletos  []boletoRequest `json:"tickets" validate:"min=1,max=4,dive"`
	StageID  string          `json:"stageId"`
}

// decodificar parses the JSON body and runs struct validation, writing the
// aggregated error response itself when something fails.
func decodificar(w http.ResponseWriter, r *http.Request, destino any) bool {
	if err := json.NewDecoder(r.Body).Decode(destino); err != nil {
		escribirJSON(w, http.StatusBadRequest, cuerpoError{
			Codigo:  "VALIDATION_ERROR",
			Mensaje: "El cuerpo de la solicitud no es JSON válido",
		})
		return false
	}
	if err := validar.Struct(destino); err != nil {
		var invalido *validator.InvalidValidationError
		if errors.As(err, &invalido) {
			escribirJSON(w, http.StatusInternalServerError, cuerpoError{
				Codigo:  "INTERNAL",
				Mensaje: "Error interno del servidor",
			})
			return false
		}
		escribirValidacion(w, traducirValidacion(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

func traducirValidacion(errs validator.ValidationErrors) []ErrorCampo {
	errores := make([]ErrorCampo, 0, len(errs))
	for _, fe := range errs {
		errores = append(errores, ErrorCampo{
			Campo:   fe.Field(),
			Codigo:  fe.Tag(),
			Mensaje: mensajeCampo(fe),
		})
	}
	return errores
}

func mensajeCampo(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("el campo %s es obligatorio", fe.Field())
	case "email":
		return fmt.Sprintf("el campo %s no es un correo válido", fe.Field())
	case "gte":
		return fmt.Sprintf("el campo %s debe ser mayor o igual a %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("el campo %s requiere al menos %s elementos", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("el campo %s admite a lo sumo %s elementos", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("el campo %s no es válido", fe.Field())
	}
}

func aBoletos(boletos []boletoRequest) []domain.Boleto {
	salida := make([]domain.Boleto, 0, len(boletos))
	for _, b := range boletos {
		salida = append(salida, domain.Boleto{
			Nombre:   b.Nombre,
			Apellido: b.Apellido,
			Telefono: b.Telefono,
			Email:    b.Email,
		})
	}
	return salida
}

func aEtapaInput(e etapaRequest) service.EtapaInput {
	return service.EtapaInput{
		Nombre:        e.Nombre,
		Precio:        e.Precio,
		LimiteBoletos: e.LimiteBoletos,
		FechaFin:      e.FechaFin,
		Activa:        e.Activa,
	}
}
