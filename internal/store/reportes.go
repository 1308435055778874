package store

import (
	"fmt"

	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
)

// ResumenReservas are the per-event reservation aggregates.
type ResumenReservas struct {
	EventoID       bson.ObjectId `bson:"_id" json:"eventId"`
	Reservas       int           `bson:"reservas" json:"reservations"`
	Boletos        int           `bson:"boletos" json:"tickets"`
	BoletosGratis  int           `bson:"boletosgratis" json:"freeTickets"`
	BoletosPagados int           `bson:"boletospagados" json:"paidTickets"`
	Ingresos       float64       `bson:"ingresos" json:"revenue"`
}

// ResumenPorEvento aggregates approved reservations grouped by event.
func (r *Reservas) ResumenPorEvento() ([]ResumenReservas, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()

	pipeline := []bson.M{
		{"$match": bson.M{"estadopago": domain.PagoAprobado}},
		{"$group": bson.M{
			"_id":      "$eventoid",
			"reservas": bson.M{"$sum": 1},
			"boletos":  bson.M{"$sum": bson.M{"$size": "$boletos"}},
			"boletosgratis": bson.M{"$sum": bson.M{"$cond": []interface{}{
				"$esgratis", bson.M{"$size": "$boletos"}, 0,
			}}},
			"boletospagados": bson.M{"$sum": bson.M{"$cond": []interface{}{
				"$esgratis", 0, bson.M{"$size": "$boletos"},
			}}},
			"ingresos": bson.M{"$sum": "$monto"},
		}},
	}

	resumen := []ResumenReservas{}
	if err := r.c(ses).Pipe(pipeline).All(&resumen); err != nil {
		return nil, fmt.Errorf("resumen por evento: %w", err)
	}
	return resumen, nil
}

// GratisPorEvento lists approved free-ticket reservations of one event.
func (r *Reservas) GratisPorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error) {
	ses := r.s.sesion.Copy()
	defer ses.Close()
	reservas := []domain.Reserva{}
	err := r.c(ses).Find(bson.M{
		"eventoid":   eventoID,
		"esgratis":   true,
		"estadopago": domain.PagoAprobado,
	}).Sort("creadaen").All(&reservas)
	if err != nil {
		return nil, fmt.Errorf("reservas gratis del evento: %w", err)
	}
	return reservas, nil
}
