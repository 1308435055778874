package sweeper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type eventosStoreMock struct {
	mock.Mock
}

func (m *eventosStoreMock) PorEstado(estados ...string) ([]domain.Evento, error) {
	args := m.Called(estados)
	eventos, _ := args.Get(0).([]domain.Evento)
	return eventos, args.Error(1)
}

func (m *eventosStoreMock) GuardarEstadoDerivado(id bson.ObjectId, estado string, ahora time.Time) error {
	return m.Called(id, estado, ahora).Error(0)
}

func (m *eventosStoreMock) DesactivarEtapa(id bson.ObjectId, pos int, ahora time.Time) error {
	return m.Called(id, pos, ahora).Error(0)
}

func TestBarrerDesactivaEtapasVencidas(t *testing.T) {
	id := bson.NewObjectId()
	evento := domain.Evento{
		ID:     id,
		Fecha:  time.Now().UTC().Add(72 * time.Hour),
		Estado: domain.EventoActivo,
		Etapas: []domain.EtapaPreventa{
			{StageID: "uno", LimiteBoletos: 10, FechaFin: time.Now().UTC().Add(-time.Hour), Activa: true},
			{StageID: "dos", LimiteBoletos: 10, FechaFin: time.Now().UTC().Add(time.Hour), Activa: true},
		},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorEstado", mock.Anything).Return([]domain.Evento{evento}, nil)
	eventos.On("DesactivarEtapa", id, 0, mock.Anything).Return(nil)

	New(eventos, logger.NewNop()).Barrer()

	eventos.AssertExpectations(t)
	eventos.AssertNotCalled(t, "DesactivarEtapa", id, 1, mock.Anything)
	// Con la segunda etapa aún con cupo el estado no cambia.
	eventos.AssertNotCalled(t, "GuardarEstadoDerivado", mock.Anything, mock.Anything, mock.Anything)
}

func TestBarrerCompletaEventosPasados(t *testing.T) {
	id := bson.NewObjectId()
	evento := domain.Evento{
		ID:     id,
		Fecha:  time.Now().UTC().Add(-time.Hour),
		Estado: domain.EventoActivo,
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorEstado", mock.Anything).Return([]domain.Evento{evento}, nil)
	eventos.On("GuardarEstadoDerivado", id, domain.EventoCompletado, mock.Anything).Return(nil)

	New(eventos, logger.NewNop()).Barrer()

	eventos.AssertExpectations(t)
}

func TestBarrerConsultaSoloEstadosNoTerminales(t *testing.T) {
	eventos := new(eventosStoreMock)
	eventos.On("PorEstado", []string{domain.EventoActivo, domain.EventoAgotado, domain.EventoGratisAgotado}).
		Return([]domain.Evento{}, nil)

	New(eventos, logger.NewNop()).Barrer()

	// Cancelados y completados quedan fuera de la consulta.
	eventos.AssertExpectations(t)
	eventos.AssertNotCalled(t, "GuardarEstadoDerivado", mock.Anything, mock.Anything, mock.Anything)
}

func TestBarrerCompletaEventosAgotadosPasados(t *testing.T) {
	id := bson.NewObjectId()
	evento := domain.Evento{
		ID:     id,
		Fecha:  time.Now().UTC().Add(-time.Hour),
		Estado: domain.EventoAgotado,
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorEstado", mock.Anything).Return([]domain.Evento{evento}, nil)
	eventos.On("GuardarEstadoDerivado", id, domain.EventoCompletado, mock.Anything).Return(nil)

	New(eventos, logger.NewNop()).Barrer()

	eventos.AssertExpectations(t)
}

func TestBarrerSigueTrasErrorPorEvento(t *testing.T) {
	roto := bson.NewObjectId()
	sano := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorEstado", mock.Anything).Return([]domain.Evento{
		{ID: roto, Fecha: time.Now().UTC().Add(-time.Hour), Estado: domain.EventoActivo},
		{ID: sano, Fecha: time.Now().UTC().Add(-time.Hour), Estado: domain.EventoActivo},
	}, nil)
	eventos.On("GuardarEstadoDerivado", roto, domain.EventoCompletado, mock.Anything).Return(errors.New("mongo caído"))
	eventos.On("GuardarEstadoDerivado", sano, domain.EventoCompletado, mock.Anything).Return(nil)

	New(eventos, logger.NewNop()).Barrer()

	eventos.AssertExpectations(t)
}
