package store

import (
	"fmt"
	"time"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
)

type Reservas struct {
	s *Store
}

func (r *Reservas) c(ses *mgo.Session) *mgo.Collection {
	return ses.DB(r.s.db).C(colReservas)
}

// Insertar stores a new reservation. A duplicate reservation code (or
// order id) surfaces as domain.ErrCodigoDuplicado so the caller can
// retry with a fresh code.
func (r *Reservas) Insertar(reserva *domain.Reserva) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	if err := r.c(ses).Insert(reserva); err != nil {
		if mgo.IsDup(err) {
			return domain.ErrCodigoDuplicado
		}
		return fmt.Errorf("insertar reserva: %w", err)
	}
	return nil
}

func (r *Reservas) PorCodigo(codigo string) (*domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reserva := domain.Reserva{}
	err := r.c(ses).Find(bson.M{"codigo": codigo}).One(&reserva)
	if err == mgo.ErrNotFound {
		return nil, domain.ErrReservaNoEncontrada
	}
	if err != nil {
		return nil, fmt.Errorf("buscar reserva: %w", err)
	}
	return &reserva, nil
}

func (r *Reservas) PorOrden(ordenID string) (*domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reserva := domain.Reserva{}
	err := r.c(ses).Find(bson.M{"ordenid": ordenID}).One(&reserva)
	if err == mgo.ErrNotFound {
		return nil, domain.ErrReservaNoEncontrada
	}
	if err != nil {
		return nil, fmt.Errorf("buscar reserva por orden: %w", err)
	}
	return &reserva, nil
}

func (r *Reservas) Listar() ([]domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reservas := []domain.Reserva{}
	if err := r.c(ses).Find(nil).Sort("-creadaen").All(&reservas); err != nil {
		return nil, fmt.Errorf("listar reservas: %w", err)
	}
	return reservas, nil
}

func (r *Reservas) PorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reservas := []domain.Reserva{}
	err := r.c(ses).Find(bson.M{"eventoid": eventoID}).Sort("-creadaen").All(&reservas)
	if err != nil {
		return nil, fmt.Errorf("listar reservas del evento: %w", err)
	}
	return reservas, nil
}

// Aprobar transitions the reservation for ordenID into approved exactly
// once: only an unpaid document matches, so a webhook redelivery leaves
// paidAt untouched. The returned flag is false when nothing matched.
func (r *Reservas) Aprobar(ordenID, pagoID, detalle string, monto float64, ahora time.Time) (bool, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).Update(
		bson.M{"ordenid": ordenID, "pagada": false},
		bson.M{"$set": bson.M{
			"estadopago":    domain.PagoAprobado,
			"pagada":        true,
			"pagoid":        pagoID,
			"detalleestado": detalle,
			"monto":         monto,
			"pagadaen":      ahora,
			"actualizadaen": ahora,
		}},
	)
	if err == mgo.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("aprobar reserva: %w", err)
	}
	return true, nil
}

// ActualizarEstado records a non-approved payment status. An already
// approved reservation never matches: approved is terminal, so a late
// pending or in_process delivery cannot clear pagada and re-open the
// Aprobar guard. That case is a silent no-op.
func (r *Reservas) ActualizarEstado(ordenID, estado, pagoID, detalle string, ahora time.Time) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).Update(
		bson.M{"ordenid": ordenID, "estadopago": bson.M{"$ne": domain.PagoAprobado}},
		bson.M{"$set": bson.M{
			"estadopago":    estado,
			"pagada":        false,
			"pagoid":        pagoID,
			"detalleestado": detalle,
			"actualizadaen": ahora,
		}},
	)
	if err == mgo.ErrNotFound {
		n, errCuenta := r.c(ses).Find(bson.M{"ordenid": ordenID}).Count()
		if errCuenta != nil {
			return fmt.Errorf("actualizar estado de reserva: %w", errCuenta)
		}
		if n > 0 {
			return nil
		}
		return domain.ErrReservaNoEncontrada
	}
	if err != nil {
		return fmt.Errorf("actualizar estado de reserva: %w", err)
	}
	return nil
}

// ActualizarContacto replaces the ticket-holder list.
func (r *Reservas) ActualizarContacto(ordenID string, boletos []domain.Boleto) error {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	err := r.c(ses).Update(
		bson.M{"ordenid": ordenID},
		bson.M{"$set": bson.M{
			"boletos":       boletos,
			"actualizadaen": time.Now().UTC(),
		}},
	)
	if err == mgo.ErrNotFound {
		return domain.ErrReservaNoEncontrada
	}
	if err != nil {
		return fmt.Errorf("actualizar contacto: %w", err)
	}
	return nil
}

// Cancelar soft-cancels by reservation code. An already cancelled
// reservation does not match.
func (r *Reservas) Cancelar(codigo string, ahora time.Time) (*domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reserva := domain.Reserva{}
	change := mgo.Change{
		Update: bson.M{"$set": bson.M{
			"estadopago":    domain.PagoCancelado,
			"pagada":        false,
			"actualizadaen": ahora,
		}},
		ReturnNew: true,
	}
	_, err := r.c(ses).Find(bson.M{
		"codigo":     codigo,
		"estadopago": bson.M{"$ne": domain.PagoCancelado},
	}).Apply(change, &reserva)
	if err == mgo.ErrNotFound {
		return nil, domain.ErrReservaCancelada
	}
	if err != nil {
		return nil, fmt.Errorf("cancelar reserva: %w", err)
	}
	return &reserva, nil
}
