package domain

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"

	"gopkg.in/mgo.v2/bson"
)

// Estados de pago de una reserva.
const (
	PagoPendiente   = "pending"
	PagoEnProceso   = "in_process"
	PagoAprobado    = "approved"
	PagoRechazado   = "rejected"
	PagoCancelado   = "cancelled"
	PagoReembolsado = "refunded"
)

const (
	MinBoletos = 1
	MaxBoletos = 4
)

type Boleto struct {
	Nombre   string `bson:"nombre" json:"nombre"`
	Apellido string `bson:"apellido" json:"apellido"`
	Telefono string `bson:"telefono,omitempty" json:"telefono,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
}

type Reserva struct {
	ID             bson.ObjectId `bson:"_id" json:"id"`
	Codigo         string        `bson:"codigo" json:"reservationCode"`
	EventoID       bson.ObjectId `bson:"eventoid" json:"eventId"`
	EventoTitulo   string        `bson:"eventotitulo" json:"eventTitle"`
	Boletos        []Boleto      `bson:"boletos" json:"tickets"`
	EstadoPago     string        `bson:"estadopago" json:"paymentStatus"`
	Pagada         bool          `bson:"pagada" json:"isPaid"`
	OrdenID        string        `bson:"ordenid,omitempty" json:"orderId,omitempty"`
	PagoID         string        `bson:"pagoid,omitempty" json:"paymentId,omitempty"`
	DetalleEstado  string        `bson:"detalleestado,omitempty" json:"statusDetail,omitempty"`
	StageID        string        `bson:"stageid,omitempty" json:"stageId,omitempty"`
	EtapaNombre    string        `bson:"etapanombre,omitempty" json:"stageName,omitempty"`
	PrecioUnitario float64       `bson:"preciounitario" json:"unitPrice"`
	Monto          float64       `bson:"monto" json:"amount"`
	EsGratis       bool          `bson:"esgratis" json:"isFreeTicket"`
	PagadaEn       *time.Time    `bson:"pagadaen,omitempty" json:"paidAt,omitempty"`
	CreadaEn       time.Time     `bson:"creadaen" json:"createdAt"`
	ActualizadaEn  time.Time     `bson:"actualizadaen" json:"updatedAt"`
}

// Cantidad is the number of ticket holders on the reservation.
func (r *Reserva) Cantidad() int {
	return len(r.Boletos)
}

// EmailContacto returns the first ticket-holder email, if any.
func (r *Reserva) EmailContacto() string {
	for i := range r.Boletos {
		if r.Boletos[i].Email != "" {
			return r.Boletos[i].Email
		}
	}
	return ""
}

const (
	codigoPrefijo = "TQ"
	codigoAzar    = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"
)

// NuevoCodigoReserva generates a human-shareable reservation code:
// fixed prefix, base-36 timestamp and a short random suffix, upper-cased.
// Not cryptographically unique; the store enforces uniqueness and the
// caller retries on conflict.
func NuevoCodigoReserva(ahora time.Time) string {
	var b strings.Builder
	b.WriteString(codigoPrefijo)
	b.WriteByte('-')
	b.WriteString(strings.ToUpper(strconv.FormatInt(ahora.UnixMilli(), 36)))
	b.WriteByte('-')

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// fall back to timestamp nanoseconds, still disambiguated by
		// the unique index
		n := ahora.UnixNano()
		for i := range buf {
			buf[i] = byte(n >> (8 * i))
		}
	}
	for _, c := range buf {
		b.WriteByte(codigoAzar[int(c)%len(codigoAzar)])
	}
	return b.String()
}

// EstadoPagoValido reports whether s is a known payment status.
func EstadoPagoValido(s string) bool {
	switch s {
	case PagoPendiente, PagoEnProceso, PagoAprobado, PagoRechazado, PagoCancelado, PagoReembolsado:
		return true
	}
	return false
}
