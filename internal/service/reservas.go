package service

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type Reservas struct {
	eventos     EventosStore
	reservas    ReservasStore
	notificador Notificador
	log         logger.Logger
}

func NuevasReservas(eventos EventosStore, reservas ReservasStore, notificador Notificador, log logger.Logger) *Reservas {
	return &Reservas{
		eventos:     eventos,
		reservas:    reservas,
		notificador: notificador,
		log:         log,
	}
}

// Asignacion is the allocator's answer to a purchase intent.
type Asignacion struct {
	PrecioUnitario float64
	Nombre         string
	Pos            int
}

// asignar validates availability for a purchase intent and, unless
// soloValidar is set, claims the inventory with a guarded increment.
// At most one of stageID / gratis may be set.
func asignar(eventos EventosStore, evento *domain.Evento, cantidad int, stageID string, gratis, soloValidar bool) (*Asignacion, error) {
	if gratis && stageID != "" {
		return nil, fmt.Errorf("%w: etapa de preventa y boleto gratis son excluyentes", domain.ErrValidacion)
	}
	ahora := time.Now().UTC()
	if domain.DeriveEstado(evento, ahora) != domain.EventoActivo {
		return nil, domain.ErrEventoNoActivo
	}

	switch {
	case gratis:
		bg := &evento.BoletosGratis
		if !bg.Habilitados {
			return nil, domain.ErrGratisDeshabilitado
		}
		if bg.Agotados(cantidad) {
			return nil, &domain.AgotadoError{Causa: domain.ErrGratisAgotado, Restantes: bg.Restantes()}
		}
		if !soloValidar {
			if err := eventos.IncrementarGratis(evento.ID, bg.Cantidad, cantidad); err != nil {
				if err == domain.ErrGratisAgotado {
					return nil, &domain.AgotadoError{Causa: err, Restantes: bg.Restantes()}
				}
				return nil, err
			}
		}
		return &Asignacion{PrecioUnitario: 0, Nombre: "Boleto gratis", Pos: -1}, nil

	case stageID != "":
		pos, etapa := evento.Etapa(stageID)
		if etapa == nil {
			return nil, domain.ErrEtapaInvalida
		}
		if !etapa.Vigente(ahora) {
			return nil, domain.ErrEtapaInactiva
		}
		if etapa.Agotada(cantidad) {
			return nil, &domain.AgotadoError{Causa: domain.ErrEtapaAgotada, Restantes: etapa.Restantes()}
		}
		if !soloValidar {
			err := eventos.IncrementarEtapa(evento.ID, pos, etapa.LimiteBoletos, cantidad)
			if err != nil {
				if err == domain.ErrEtapaAgotada {
					return nil, &domain.AgotadoError{Causa: err, Restantes: etapa.Restantes()}
				}
				return nil, err
			}
		}
		return &Asignacion{PrecioUnitario: etapa.Precio, Nombre: etapa.Nombre, Pos: pos}, nil

	default:
		return &Asignacion{PrecioUnitario: evento.PrecioBase, Nombre: "Precio general", Pos: -1}, nil
	}
}

// refrescarEstado persists the recomputed event status after a counter
// moved, so exhaustion shows up without waiting for the sweeper.
func (s *Reservas) refrescarEstado(id bson.ObjectId) {
	evento, err := s.eventos.PorID(id)
	if err != nil {
		s.log.Error("no se pudo releer el evento", "evento_id", id.Hex(), "error", err)
		return
	}
	ahora := time.Now().UTC()
	derivado := domain.DeriveEstado(evento, ahora)
	if derivado == evento.Estado {
		return
	}
	if err := s.eventos.GuardarEstadoDerivado(id, derivado, ahora); err != nil {
		s.log.Error("no se pudo guardar el estado derivado", "evento_id", id.Hex(), "error", err)
	}
}

type CrearReservaInput struct {
	EventoID bson.ObjectId
	Boletos  []domain.Boleto
	StageID  string
	Gratis   bool
}

// Crear allocates inventory and inserts the reservation. The counter
// increment happens first and is not rolled back if the insert fails:
// a duplicate code surfaces as domain.ErrCodigoDuplicado and the caller
// retries the whole request.
func (s *Reservas) Crear(ctx context.Context, in CrearReservaInput) (*domain.Reserva, error) {
	evento, err := s.eventos.PorID(in.EventoID)
	if err != nil {
		return nil, err
	}

	cantidad := len(in.Boletos)
	asignacion, err := asignar(s.eventos, evento, cantidad, in.StageID, in.Gratis, false)
	if err != nil {
		return nil, err
	}

	ahora := time.Now().UTC()
	reserva := &domain.Reserva{
		ID:             bson.NewObjectId(),
		Codigo:         domain.NuevoCodigoReserva(ahora),
		EventoID:       evento.ID,
		EventoTitulo:   evento.Titulo,
		Boletos:        in.Boletos,
		PrecioUnitario: asignacion.PrecioUnitario,
		Monto:          asignacion.PrecioUnitario * float64(cantidad),
		EsGratis:       in.Gratis,
		CreadaEn:       ahora,
		ActualizadaEn:  ahora,
	}
	if in.Gratis {
		reserva.EstadoPago = domain.PagoAprobado
		reserva.Pagada = true
		reserva.PagadaEn = &ahora
	} else {
		reserva.EstadoPago = domain.PagoPendiente
		if in.StageID != "" {
			reserva.StageID = in.StageID
			reserva.EtapaNombre = asignacion.Nombre
		}
	}

	if err := s.reservas.Insertar(reserva); err != nil {
		return nil, err
	}
	s.refrescarEstado(evento.ID)

	s.log.Info("reserva creada",
		"codigo", reserva.Codigo,
		"evento_id", evento.ID.Hex(),
		"cantidad", cantidad,
		"gratis", in.Gratis,
	)

	if in.Gratis {
		s.publicar(ctx, reserva, notify.EstadoConfirmada)
	}
	return reserva, nil
}

// Validar runs the allocator in read-only mode, for checkout preference
// creation that must not touch the counters yet.
func (s *Reservas) Validar(eventoID bson.ObjectId, cantidad int, stageID string, gratis bool) (*domain.Evento, *Asignacion, error) {
	evento, err := s.eventos.PorID(eventoID)
	if err != nil {
		return nil, nil, err
	}
	asignacion, err := asignar(s.eventos, evento, cantidad, stageID, gratis, true)
	if err != nil {
		return nil, nil, err
	}
	return evento, asignacion, nil
}

func (s *Reservas) PorCodigo(codigo string) (*domain.Reserva, error) {
	return s.reservas.PorCodigo(codigo)
}

func (s *Reservas) PorOrden(ordenID string) (*domain.Reserva, error) {
	return s.reservas.PorOrden(ordenID)
}

func (s *Reservas) Listar() ([]domain.Reserva, error) {
	return s.reservas.Listar()
}

func (s *Reservas) PorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error) {
	return s.reservas.PorEvento(eventoID)
}

// ActualizarContacto replaces the ticket-holder list of the reservation
// tied to an order id.
func (s *Reservas) ActualizarContacto(ordenID string, boletos []domain.Boleto) (*domain.Reserva, error) {
	if err := s.reservas.ActualizarContacto(ordenID, boletos); err != nil {
		return nil, err
	}
	return s.reservas.PorOrden(ordenID)
}

// Cancelar soft-cancels a reservation by code. Inventory is not
// returned to the pool.
func (s *Reservas) Cancelar(ctx context.Context, codigo string) (*domain.Reserva, error) {
	if _, err := s.reservas.PorCodigo(codigo); err != nil {
		return nil, err
	}
	reserva, err := s.reservas.Cancelar(codigo, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info("reserva cancelada", "codigo", codigo)
	s.publicar(ctx, reserva, notify.EstadoCancelada)
	return reserva, nil
}

func (s *Reservas) publicar(ctx context.Context, reserva *domain.Reserva, estado string) {
	n := &notify.NotificacionReserva{
		Codigo:   reserva.Codigo,
		Evento:   reserva.EventoTitulo,
		Estado:   estado,
		Email:    reserva.EmailContacto(),
		Cantidad: reserva.Cantidad(),
	}
	if err := s.notificador.Publicar(ctx, n); err != nil {
		s.log.Error("no se pudo publicar la notificación", "codigo", reserva.Codigo, "error", err)
	}
}
