package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type Eventos struct {
	eventos EventosStore
	log     logger.Logger
}

func NuevosEventos(eventos EventosStore, log logger.Logger) *Eventos {
	return &Eventos{eventos: eventos, log: log}
}

// CrearEventoInput llega ya validado en forma por el handler; aquí se
// aplican las reglas de negocio (fechas futuras, límites de etapa).
type CrearEventoInput struct {
	Titulo        string
	Descripcion   string
	Lugar         string
	Imagen        string
	Fecha         time.Time
	PrecioBase    float64
	Etapas        []EtapaInput
	BoletosGratis domain.BoletosGratis
}

type EtapaInput struct {
	Nombre        string
	Precio        float64
	LimiteBoletos int
	FechaFin      time.Time
	Activa        bool
}

func (s *Eventos) Crear(in CrearEventoInput) (*domain.Evento, error) {
	ahora := time.Now().UTC()
	if !in.Fecha.After(ahora) {
		return nil, domain.ErrFechaPasada
	}

	evento := &domain.Evento{
		ID:            bson.NewObjectId(),
		Titulo:        in.Titulo,
		Descripcion:   in.Descripcion,
		Lugar:         in.Lugar,
		Imagen:        in.Imagen,
		Fecha:         in.Fecha,
		PrecioBase:    in.PrecioBase,
		BoletosGratis: in.BoletosGratis,
		Estado:        domain.EventoActivo,
		CreadoEn:      ahora,
		ActualizadoEn: ahora,
	}
	for _, e := range in.Etapas {
		etapa, err := nuevaEtapa(e, ahora)
		if err != nil {
			return nil, err
		}
		evento.Etapas = append(evento.Etapas, *etapa)
	}

	if err := s.eventos.Insertar(evento); err != nil {
		return nil, err
	}
	s.log.Info("evento creado", "evento_id", evento.ID.Hex(), "titulo", evento.Titulo)
	return evento, nil
}

func nuevaEtapa(in EtapaInput, ahora time.Time) (*domain.EtapaPreventa, error) {
	if !in.FechaFin.After(ahora) {
		return nil, fmt.Errorf("%w: la etapa %q vence en el pasado", domain.ErrValidacion, in.Nombre)
	}
	return &domain.EtapaPreventa{
		StageID:       uuid.NewString(),
		Nombre:        in.Nombre,
		Precio:        in.Precio,
		LimiteBoletos: in.LimiteBoletos,
		FechaFin:      in.FechaFin,
		Activa:        in.Activa,
	}, nil
}

// PorID fetches an event with its status recomputed for the current
// instant. The stored value is refreshed when the derivation moved.
func (s *Eventos) PorID(id bson.ObjectId) (*domain.Evento, error) {
	evento, err := s.eventos.PorID(id)
	if err != nil {
		return nil, err
	}
	s.refrescarEstado(evento)
	return evento, nil
}

func (s *Eventos) Listar() ([]domain.Evento, error) {
	eventos, err := s.eventos.Listar()
	if err != nil {
		return nil, err
	}
	for i := range eventos {
		s.refrescarEstado(&eventos[i])
	}
	return eventos, nil
}

func (s *Eventos) refrescarEstado(evento *domain.Evento) {
	ahora := time.Now().UTC()
	derivado := domain.DeriveEstado(evento, ahora)
	if derivado == evento.Estado {
		return
	}
	if err := s.eventos.GuardarEstadoDerivado(evento.ID, derivado, ahora); err != nil {
		s.log.Error("no se pudo refrescar el estado", "evento_id", evento.ID.Hex(), "error", err)
		return
	}
	evento.Estado = derivado
}

type ActualizarEventoInput struct {
	Titulo      *string
	Descripcion *string
	Lugar       *string
	Imagen      *string
	Fecha       *time.Time
	PrecioBase  *float64
}

func (s *Eventos) Actualizar(id bson.ObjectId, in ActualizarEventoInput) (*domain.Evento, error) {
	campos := bson.M{}
	if in.Titulo != nil {
		campos["titulo"] = *in.Titulo
	}
	if in.Descripcion != nil {
		campos["descripcion"] = *in.Descripcion
	}
	if in.Lugar != nil {
		campos["lugar"] = *in.Lugar
	}
	if in.Imagen != nil {
		campos["imagen"] = *in.Imagen
	}
	if in.Fecha != nil {
		if !in.Fecha.After(time.Now().UTC()) {
			return nil, domain.ErrFechaPasada
		}
		campos["fecha"] = *in.Fecha
	}
	if in.PrecioBase != nil {
		if *in.PrecioBase < 0 {
			return nil, fmt.Errorf("%w: el precio base no puede ser negativo", domain.ErrValidacion)
		}
		campos["preciobase"] = *in.PrecioBase
	}
	if len(campos) > 0 {
		if err := s.eventos.Actualizar(id, campos); err != nil {
			return nil, err
		}
	}
	return s.PorID(id)
}

func (s *Eventos) Eliminar(id bson.ObjectId) error {
	if err := s.eventos.Eliminar(id); err != nil {
		return err
	}
	s.log.Info("evento eliminado", "evento_id", id.Hex())
	return nil
}

// CambiarEstado handles the explicit status patch. Cancellation needs a
// reason and is irreversible: once cancelled there is no path back to
// active through this endpoint.
func (s *Eventos) CambiarEstado(id bson.ObjectId, estado, motivo string) (*domain.Evento, error) {
	if !domain.EstadoValido(estado) {
		return nil, domain.ErrEstadoInvalido
	}
	evento, err := s.eventos.PorID(id)
	if err != nil {
		return nil, err
	}
	if evento.Estado == domain.EventoCancelado {
		return nil, domain.ErrEventoCancelado
	}

	ahora := time.Now().UTC()
	if estado == domain.EventoCancelado {
		if motivo == "" {
			return nil, fmt.Errorf("%w: la cancelación requiere un motivo", domain.ErrValidacion)
		}
		if err := s.eventos.Cancelar(id, motivo, ahora); err != nil {
			return nil, err
		}
		s.log.Info("evento cancelado", "evento_id", id.Hex(), "motivo", motivo)
		return s.eventos.PorID(id)
	}

	if err := s.eventos.GuardarEstadoDerivado(id, estado, ahora); err != nil {
		return nil, err
	}
	return s.PorID(id)
}

func (s *Eventos) AgregarEtapa(id bson.ObjectId, in EtapaInput) (*domain.Evento, error) {
	if _, err := s.eventos.PorID(id); err != nil {
		return nil, err
	}
	etapa, err := nuevaEtapa(in, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.eventos.AgregarEtapa(id, *etapa); err != nil {
		return nil, err
	}
	return s.PorID(id)
}

type ActualizarEtapaInput struct {
	Nombre        *string
	Precio        *float64
	LimiteBoletos *int
	FechaFin      *time.Time
	Activa        *bool
}

func (s *Eventos) ActualizarEtapa(id bson.ObjectId, stageID string, in ActualizarEtapaInput) (*domain.Evento, error) {
	evento, err := s.eventos.PorID(id)
	if err != nil {
		return nil, err
	}
	pos, etapa := evento.Etapa(stageID)
	if etapa == nil {
		return nil, domain.ErrEtapaInvalida
	}

	actualizada := *etapa
	if in.Nombre != nil {
		actualizada.Nombre = *in.Nombre
	}
	if in.Precio != nil {
		if *in.Precio < 0 {
			return nil, fmt.Errorf("%w: el precio no puede ser negativo", domain.ErrValidacion)
		}
		actualizada.Precio = *in.Precio
	}
	if in.LimiteBoletos != nil {
		if *in.LimiteBoletos < etapa.BoletosVendidos {
			return nil, fmt.Errorf("%w: el límite no puede ser menor que lo vendido", domain.ErrValidacion)
		}
		actualizada.LimiteBoletos = *in.LimiteBoletos
	}
	if in.FechaFin != nil {
		actualizada.FechaFin = *in.FechaFin
	}
	if in.Activa != nil {
		actualizada.Activa = *in.Activa
	}

	if err := s.eventos.ActualizarEtapa(id, pos, actualizada); err != nil {
		return nil, err
	}
	return s.PorID(id)
}

// ActualizarGratis edits the free-ticket config. The pool can never be
// reduced below what is already claimed.
func (s *Eventos) ActualizarGratis(id bson.ObjectId, habilitados bool, cantidad int) (*domain.Evento, error) {
	evento, err := s.eventos.PorID(id)
	if err != nil {
		return nil, err
	}
	if cantidad < 0 {
		return nil, fmt.Errorf("%w: la cantidad no puede ser negativa", domain.ErrValidacion)
	}
	if cantidad > 0 && cantidad < evento.BoletosGratis.Reclamados {
		return nil, domain.ErrCupoBajoReclamados
	}

	err = s.eventos.Actualizar(id, bson.M{
		"boletosgratis.habilitados": habilitados,
		"boletosgratis.cantidad":    cantidad,
	})
	if err != nil {
		return nil, err
	}
	return s.PorID(id)
}
