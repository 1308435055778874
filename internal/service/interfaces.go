package service

import (
	"context"
	"time"

	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/internal/pasarela"
	"github.com/taquillapp/taquilla/internal/store"
)

// EventosStore is what the services need from the event repository.
type EventosStore interface {
	Insertar(e *domain.Evento) error
	PorID(id bson.ObjectId) (*domain.Evento, error)
	Listar() ([]domain.Evento, error)
	Actualizar(id bson.ObjectId, campos bson.M) error
	Eliminar(id bson.ObjectId) error
	Cancelar(id bson.ObjectId, motivo string, ahora time.Time) error
	AgregarEtapa(id bson.ObjectId, etapa domain.EtapaPreventa) error
	ActualizarEtapa(id bson.ObjectId, pos int, etapa domain.EtapaPreventa) error
	IncrementarEtapa(id bson.ObjectId, pos, limite, n int) error
	ConfirmarEtapa(id bson.ObjectId, pos, n int) error
	IncrementarGratis(id bson.ObjectId, cupo, n int) error
	ConfirmarGratis(id bson.ObjectId, n int) error
	GuardarEstadoDerivado(id bson.ObjectId, estado string, ahora time.Time) error
	DesactivarEtapa(id bson.ObjectId, pos int, ahora time.Time) error
}

// ReservasStore is what the services need from the reservation repository.
type ReservasStore interface {
	Insertar(r *domain.Reserva) error
	PorCodigo(codigo string) (*domain.Reserva, error)
	PorOrden(ordenID string) (*domain.Reserva, error)
	Listar() ([]domain.Reserva, error)
	PorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error)
	Aprobar(ordenID, pagoID, detalle string, monto float64, ahora time.Time) (bool, error)
	ActualizarEstado(ordenID, estado, pagoID, detalle string, ahora time.Time) error
	ActualizarContacto(ordenID string, boletos []domain.Boleto) error
	Cancelar(codigo string, ahora time.Time) (*domain.Reserva, error)
	ResumenPorEvento() ([]store.ResumenReservas, error)
	GratisPorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error)
}

// DLQStore records webhook reconciliations that failed after the
// gateway was already acknowledged.
type DLQStore interface {
	Registrar(entrada *store.EntradaDLQ) error
	Pendientes(limite int) ([]store.EntradaDLQ, error)
}

// Gateway is the payment-provider client surface.
type Gateway interface {
	CrearPreferencia(ctx context.Context, pref *pasarela.Preferencia) (*pasarela.RespuestaPreferencia, error)
	Pago(ctx context.Context, id string) (*pasarela.Pago, error)
	PagoPorOrden(ctx context.Context, ordenID string) (*pasarela.Pago, error)
}

// Notificador publishes reservation lifecycle notifications.
type Notificador interface {
	Publicar(ctx context.Context, n *notify.NotificacionReserva) error
}

// notificadorNulo drops notifications when Kafka is not configured.
type notificadorNulo struct{}

func (notificadorNulo) Publicar(context.Context, *notify.NotificacionReserva) error { return nil }

// NotificadorNulo returns a Notificador that discards everything.
func NotificadorNulo() Notificador { return notificadorNulo{} }
