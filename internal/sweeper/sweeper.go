// Package sweeper recomputes time- and inventory-derived event status
// on a daily schedule.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/pkg/logger"
)

// EventosStore is the slice of the event repository the sweep needs.
type EventosStore interface {
	PorEstado(estados ...string) ([]domain.Evento, error)
	GuardarEstadoDerivado(id bson.ObjectId, estado string, ahora time.Time) error
	DesactivarEtapa(id bson.ObjectId, pos int, ahora time.Time) error
}

// Sweeper runs the status sweep: once at start and then daily.
type Sweeper struct {
	eventos  EventosStore
	programa string
	log      logger.Logger
}

func New(eventos EventosStore, log logger.Logger) *Sweeper {
	return &Sweeper{eventos: eventos, programa: "@daily", log: log}
}

// Start blocks until ctx is done. The sweep runs immediately and then
// on the cron schedule.
func (s *Sweeper) Start(ctx context.Context) {
	s.Barrer()

	c := cron.New()
	if _, err := c.AddFunc(s.programa, s.Barrer); err != nil {
		s.log.Error("no se pudo programar la barrida", "error", err)
		return
	}
	c.Start()
	s.log.Info("barredor iniciado", "programa", s.programa)

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("barredor detenido")
}

// Barrer is one best-effort pass over the events that can still change
// state: expired stages are deactivated and the derived status is
// refreshed. Cancelled and completed events are terminal and skipped.
// Per-event failures are logged and the pass continues.
func (s *Sweeper) Barrer() {
	eventos, err := s.eventos.PorEstado(domain.EventoActivo, domain.EventoAgotado, domain.EventoGratisAgotado)
	if err != nil {
		s.log.Error("barrida: no se pudieron listar los eventos", "error", err)
		return
	}

	ahora := time.Now().UTC()
	for i := range eventos {
		s.barrerEvento(&eventos[i], ahora)
	}
	s.log.Info("barrida completada", "eventos", len(eventos))
}

func (s *Sweeper) barrerEvento(evento *domain.Evento, ahora time.Time) {
	for pos := range evento.Etapas {
		etapa := &evento.Etapas[pos]
		if etapa.Activa && !etapa.FechaFin.After(ahora) {
			if err := s.eventos.DesactivarEtapa(evento.ID, pos, ahora); err != nil {
				s.log.Error("barrida: no se pudo desactivar la etapa",
					"evento_id", evento.ID.Hex(),
					"stage_id", etapa.StageID,
					"error", err,
				)
				continue
			}
			etapa.Activa = false
			s.log.Info("etapa vencida desactivada",
				"evento_id", evento.ID.Hex(),
				"stage_id", etapa.StageID,
			)
		}
	}

	derivado := domain.DeriveEstado(evento, ahora)
	if derivado == evento.Estado {
		return
	}
	if err := s.eventos.GuardarEstadoDerivado(evento.ID, derivado, ahora); err != nil {
		s.log.Error("barrida: no se pudo guardar el estado",
			"evento_id", evento.ID.Hex(),
			"error", err,
		)
		return
	}
	s.log.Info("estado de evento actualizado",
		"evento_id", evento.ID.Hex(),
		"anterior", evento.Estado,
		"nuevo", derivado,
	)
}
