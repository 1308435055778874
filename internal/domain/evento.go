package domain

import (
	"time"

	"gopkg.in/mgo.v2/bson"
)

// Estados de un evento. Las transiciones avanzan solo hacia adelante:
// una vez cancelado o completado no hay regreso a activo.
const (
	EventoActivo        = "active"
	EventoCancelado     = "cancelled"
	EventoCompletado    = "completed"
	EventoAgotado       = "sold-out"
	EventoGratisAgotado = "free-sold-out"
)

type EtapaPreventa struct {
	StageID         string    `bson:"stageid" json:"stageId"`
	Nombre          string    `bson:"nombre" json:"name"`
	Precio          float64   `bson:"precio" json:"price"`
	LimiteBoletos   int       `bson:"limiteboletos" json:"ticketLimit"`
	BoletosVendidos int       `bson:"boletosvendidos" json:"ticketsSold"`
	FechaFin        time.Time `bson:"fechafin" json:"endDate"`
	Activa          bool      `bson:"activa" json:"isActive"`
}

// Vigente reports whether the stage can still sell tickets at instant t.
func (e *EtapaPreventa) Vigente(t time.Time) bool {
	return e.Activa && e.FechaFin.After(t)
}

// Agotada reports whether n more tickets would exceed the stage limit.
func (e *EtapaPreventa) Agotada(n int) bool {
	return e.BoletosVendidos+n > e.LimiteBoletos
}

// Restantes is the remaining stage capacity.
func (e *EtapaPreventa) Restantes() int {
	r := e.LimiteBoletos - e.BoletosVendidos
	if r < 0 {
		return 0
	}
	return r
}

type BoletosGratis struct {
	Habilitados bool `bson:"habilitados" json:"enabled"`
	// Cantidad 0 significa ilimitados.
	Cantidad   int `bson:"cantidad" json:"quantity"`
	Reclamados int `bson:"reclamados" json:"ticketsClaimed"`
}

// Agotados reports whether n more claims would exceed the pool.
func (b *BoletosGratis) Agotados(n int) bool {
	if b.Cantidad == 0 {
		return false
	}
	return b.Reclamados+n > b.Cantidad
}

// Restantes is the remaining free pool; -1 means unlimited.
func (b *BoletosGratis) Restantes() int {
	if b.Cantidad == 0 {
		return -1
	}
	r := b.Cantidad - b.Reclamados
	if r < 0 {
		return 0
	}
	return r
}

type Evento struct {
	ID                bson.ObjectId   `bson:"_id" json:"id"`
	Titulo            string          `bson:"titulo" json:"title"`
	Descripcion       string          `bson:"descripcion" json:"description"`
	Lugar             string          `bson:"lugar" json:"location"`
	Imagen            string          `bson:"imagen" json:"image"`
	Fecha             time.Time       `bson:"fecha" json:"date"`
	PrecioBase        float64         `bson:"preciobase" json:"basePrice"`
	Etapas            []EtapaPreventa `bson:"etapas" json:"preSaleStages"`
	BoletosGratis     BoletosGratis   `bson:"boletosgratis" json:"freeTickets"`
	Estado            string          `bson:"estado" json:"status"`
	MotivoCancelacion string          `bson:"motivocancelacion,omitempty" json:"cancelReason,omitempty"`
	CanceladoEn       *time.Time      `bson:"canceladoen,omitempty" json:"cancelledAt,omitempty"`
	CreadoEn          time.Time       `bson:"creadoen" json:"createdAt"`
	ActualizadoEn     time.Time       `bson:"actualizadoen" json:"updatedAt"`
}

// Etapa resolves a stage by its stable identifier. Returns the slice
// index and the stage, or -1 and nil when absent.
func (e *Evento) Etapa(stageID string) (int, *EtapaPreventa) {
	for i := range e.Etapas {
		if e.Etapas[i].StageID == stageID {
			return i, &e.Etapas[i]
		}
	}
	return -1, nil
}

// DeriveEstado computes the event status from date, cancellation and
// inventory counters. It is the single transition function: every
// mutation site and the sweeper go through it, never write the status
// ad hoc. Cancellation is sticky.
func DeriveEstado(e *Evento, ahora time.Time) string {
	if e.Estado == EventoCancelado {
		return EventoCancelado
	}
	if !e.Fecha.IsZero() && e.Fecha.Before(ahora) {
		return EventoCompletado
	}
	if e.BoletosGratis.Habilitados && e.BoletosGratis.Cantidad > 0 &&
		e.BoletosGratis.Reclamados >= e.BoletosGratis.Cantidad {
		return EventoGratisAgotado
	}
	if len(e.Etapas) > 0 {
		todas := true
		for i := range e.Etapas {
			if e.Etapas[i].BoletosVendidos < e.Etapas[i].LimiteBoletos {
				todas = false
				break
			}
		}
		if todas {
			return EventoAgotado
		}
	}
	return EventoActivo
}

// EstadoValido reports whether s is a member of the event status enum.
func EstadoValido(s string) bool {
	switch s {
	case EventoActivo, EventoCancelado, EventoCompletado, EventoAgotado, EventoGratisAgotado:
		return true
	}
	return false
}
