package store

import (
	"fmt"
	"time"

	"gopkg.in/mgo.v2/bson"
)

// EntradaDLQ is a failed webhook reconciliation. The webhook endpoint
// acknowledges the gateway no matter what, so failures land here
// instead of being lost in the log stream.
type EntradaDLQ struct {
	ID         bson.ObjectId `bson:"_id" json:"id"`
	PagoID     string        `bson:"pagoid" json:"paymentId"`
	OrdenID    string        `bson:"ordenid,omitempty" json:"orderId,omitempty"`
	Etapa      string        `bson:"etapa" json:"stage"`
	Error      string        `bson:"error" json:"error"`
	Payload    string        `bson:"payload,omitempty" json:"payload,omitempty"`
	RecibidoEn time.Time     `bson:"recibidoen" json:"receivedAt"`
}

type DLQ struct {
	s *Store
}

func (d *DLQ) Registrar(entrada *EntradaDLQ) error {
	ses := d.s.sesion.Copy()
	defer ses.Close()
	if entrada.ID == "" {
		entrada.ID = bson.NewObjectId()
	}
	if entrada.RecibidoEn.IsZero() {
		entrada.RecibidoEn = time.Now().UTC()
	}
	if err := ses.DB(d.s.db).C(colDLQ).Insert(entrada); err != nil {
		return fmt.Errorf("registrar en dlq: %w", err)
	}
	return nil
}

// Pendientes lists the most recent dead-letter entries, newest first.
func (d *DLQ) Pendientes(limite int) ([]EntradaDLQ, error) {
	ses := d.s.sesion.Copy()
	defer ses.Close()
	entradas := []EntradaDLQ{}
	err := ses.DB(d.s.db).C(colDLQ).Find(nil).Sort("-recibidoen").Limit(limite).All(&entradas)
	if err != nil {
		return nil, fmt.Errorf("listar dlq: %w", err)
	}
	return entradas, nil
}
