package store

import (
	"fmt"
	"time"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
)

type Eventos struct {
	s *Store
}

func (r *Eventos) c(ses *mgo.Session) *mgo.Collection {
	return ses.DB(r.s.db).C(colEventos)
}

func (r *Eventos) Insertar(e *domain.Evento) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	if err := r.c(ses).Insert(e); err != nil {
		return fmt.Errorf("insertar evento: %w", err)
	}
	return nil
}

func (r *Eventos) PorID(id bson.ObjectId) (*domain.Evento, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	evento := domain.Evento{}
	err := r.c(ses).FindId(id).One(&evento)
	if err == mgo.ErrNotFound {
		return nil, domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return nil, fmt.Errorf("buscar evento: %w", err)
	}
	return &evento, nil
}

func (r *Eventos) Listar() ([]domain.Evento, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	eventos := []domain.Evento{}
	if err := r.c(ses).Find(nil).Sort("fecha").All(&eventos); err != nil {
		return nil, fmt.Errorf("listar eventos: %w", err)
	}
	return eventos, nil
}

// PorEstado lists events in any of the given statuses.
func (r *Eventos) PorEstado(estados ...string) ([]domain.Evento, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	eventos := []domain.Evento{}
	err := r.c(ses).Find(bson.M{"estado": bson.M{"$in": estados}}).All(&eventos)
	if err != nil {
		return nil, fmt.Errorf("listar eventos por estado: %w", err)
	}
	return eventos, nil
}

// Actualizar applies a $set of already-validated fields.
func (r *Eventos) Actualizar(id bson.ObjectId, campos bson.M) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	campos["actualizadoen"] = time.Now().UTC()
	err := r.c(ses).UpdateId(id, bson.M{"$set": campos})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("actualizar evento: %w", err)
	}
	return nil
}

func (r *Eventos) Eliminar(id bson.ObjectId) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).RemoveId(id)
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("eliminar evento: %w", err)
	}
	return nil
}

// Cancelar marks the event cancelled with reason and timestamp. Only an
// event that is not already cancelled matches; cancellation is sticky.
func (r *Eventos) Cancelar(id bson.ObjectId, motivo string, ahora time.Time) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).Update(
		bson.M{"_id": id, "estado": bson.M{"$ne": domain.EventoCancelado}},
		bson.M{"$set": bson.M{
			"estado":            domain.EventoCancelado,
			"motivocancelacion": motivo,
			"canceladoen":       ahora,
			"actualizadoen":     ahora,
		}},
	)
	if err == mgo.ErrNotFound {
		return domain.ErrEventoCancelado
	}
	if err != nil {
		return fmt.Errorf("cancelar evento: %w", err)
	}
	return nil
}

// AgregarEtapa appends a pre-sale stage.
func (r *Eventos) AgregarEtapa(id bson.ObjectId, etapa domain.EtapaPreventa) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).UpdateId(id, bson.M{
		"$push": bson.M{"etapas": etapa},
		"$set":  bson.M{"actualizadoen": time.Now().UTC()},
	})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("agregar etapa: %w", err)
	}
	return nil
}

// ActualizarEtapa replaces the stage at the given slice position.
func (r *Eventos) ActualizarEtapa(id bson.ObjectId, pos int, etapa domain.EtapaPreventa) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).UpdateId(id, bson.M{"$set": bson.M{
		fmt.Sprintf("etapas.%d", pos): etapa,
		"actualizadoen":               time.Now().UTC(),
	}})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("actualizar etapa: %w", err)
	}
	return nil
}

// IncrementarEtapa adds n to the stage sold counter only while the
// result stays within the limit read by the caller. A zero-match update
// is the sold-out signal; there is no separate read-then-write window.
func (r *Eventos) IncrementarEtapa(id bson.ObjectId, pos, limite, n int) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	campo := fmt.Sprintf("etapas.%d.boletosvendidos", pos)
	err := r.c(ses).Update(
		bson.M{
			"_id":    id,
			campo:    bson.M{"$lte": limite - n},
			"estado": domain.EventoActivo,
		},
		bson.M{
			"$inc": bson.M{campo: n},
			"$set": bson.M{"actualizadoen": time.Now().UTC()},
		},
	)
	if err == mgo.ErrNotFound {
		return domain.ErrEtapaAgotada
	}
	if err != nil {
		return fmt.Errorf("incrementar etapa: %w", err)
	}
	return nil
}

// ConfirmarEtapa adds n to the stage sold counter without the limit
// guard. Used when the gateway already captured the payment: capture
// wins over re-checking stock.
func (r *Eventos) ConfirmarEtapa(id bson.ObjectId, pos, n int) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	campo := fmt.Sprintf("etapas.%d.boletosvendidos", pos)
	err := r.c(ses).UpdateId(id, bson.M{
		"$inc": bson.M{campo: n},
		"$set": bson.M{"actualizadoen": time.Now().UTC()},
	})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("confirmar etapa: %w", err)
	}
	return nil
}

// IncrementarGratis claims n free tickets. cupo is the pool size read by
// the caller; zero means unlimited and skips the capacity guard.
func (r *Eventos) IncrementarGratis(id bson.ObjectId, cupo, n int) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	selector := bson.M{
		"_id":                       id,
		"boletosgratis.habilitados": true,
		"estado":                    domain.EventoActivo,
	}
	if cupo > 0 {
		selector["boletosgratis.reclamados"] = bson.M{"$lte": cupo - n}
	}
	err := r.c(ses).Update(selector, bson.M{
		"$inc": bson.M{"boletosgratis.reclamados": n},
		"$set": bson.M{"actualizadoen": time.Now().UTC()},
	})
	if err == mgo.ErrNotFound {
		return domain.ErrGratisAgotado
	}
	if err != nil {
		return fmt.Errorf("incrementar gratis: %w", err)
	}
	return nil
}

// ConfirmarGratis claims n free tickets without the capacity guard.
func (r *Eventos) ConfirmarGratis(id bson.ObjectId, n int) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).UpdateId(id, bson.M{
		"$inc": bson.M{"boletosgratis.reclamados": n},
		"$set": bson.M{"actualizadoen": time.Now().UTC()},
	})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("confirmar gratis: %w", err)
	}
	return nil
}

// GuardarEstadoDerivado persists a recomputed status without touching
// the cancellation fields.
func (r *Eventos) GuardarEstadoDerivado(id bson.ObjectId, estado string, ahora time.Time) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).UpdateId(id, bson.M{"$set": bson.M{
		"estado":        estado,
		"actualizadoen": ahora,
	}})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("guardar estado: %w", err)
	}
	return nil
}

// DesactivarEtapa clears the isActive flag of the stage at pos.
func (r *Eventos) DesactivarEtapa(id bson.ObjectId, pos int, ahora time.Time) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).UpdateId(id, bson.M{"$set": bson.M{
		fmt.Sprintf("etapas.%d.activa", pos): false,
		"actualizadoen":                      ahora,
	}})
	if err == mgo.ErrNotFound {
		return domain.ErrEventoNoEncontrado
	}
	if err != nil {
		return fmt.Errorf("desactivar etapa: %w", err)
	}
	return nil
}
