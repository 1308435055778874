package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/pkg/logger"
)

func eventoActivo(id bson.ObjectId) *domain.Evento {
	return &domain.Evento{
		ID:     id,
		Titulo: "Concierto",
		Fecha:  time.Now().UTC().Add(72 * time.Hour),
		Estado: domain.EventoActivo,
	}
}

func TestCrearEventoRechazaFechaPasada(t *testing.T) {
	eventos := new(eventosStoreMock)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.Crear(CrearEventoInput{
		Titulo: "Concierto",
		Fecha:  time.Now().UTC().Add(-time.Hour),
	})

	assert.ErrorIs(t, err, domain.ErrFechaPasada)
	eventos.AssertNotCalled(t, "Insertar", mock.Anything)
}

func TestCrearEventoAsignaStageIDs(t *testing.T) {
	eventos := new(eventosStoreMock)
	eventos.On("Insertar", mock.Anything).Return(nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	futuro := time.Now().UTC().Add(72 * time.Hour)
	evento, err := svc.Crear(CrearEventoInput{
		Titulo:     "Concierto",
		Fecha:      futuro,
		PrecioBase: 500,
		Etapas: []EtapaInput{
			{Nombre: "Preventa 1", Precio: 300, LimiteBoletos: 100, FechaFin: futuro.Add(-24 * time.Hour), Activa: true},
			{Nombre: "Preventa 2", Precio: 400, LimiteBoletos: 100, FechaFin: futuro.Add(-12 * time.Hour), Activa: true},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, domain.EventoActivo, evento.Estado)
	require.Len(t, evento.Etapas, 2)
	assert.NotEmpty(t, evento.Etapas[0].StageID)
	assert.NotEmpty(t, evento.Etapas[1].StageID)
	assert.NotEqual(t, evento.Etapas[0].StageID, evento.Etapas[1].StageID)
	eventos.AssertExpectations(t)
}

func TestCrearEventoRechazaEtapaVencida(t *testing.T) {
	eventos := new(eventosStoreMock)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.Crear(CrearEventoInput{
		Titulo: "Concierto",
		Fecha:  time.Now().UTC().Add(72 * time.Hour),
		Etapas: []EtapaInput{
			{Nombre: "Preventa", LimiteBoletos: 10, FechaFin: time.Now().UTC().Add(-time.Hour)},
		},
	})

	assert.ErrorIs(t, err, domain.ErrValidacion)
}

func TestCambiarEstadoInvalido(t *testing.T) {
	eventos := new(eventosStoreMock)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.CambiarEstado(bson.NewObjectId(), "paused", "")

	assert.ErrorIs(t, err, domain.ErrEstadoInvalido)
}

func TestCambiarEstadoCanceladoEsTerminal(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Estado = domain.EventoCancelado

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.CambiarEstado(id, domain.EventoActivo, "")

	assert.ErrorIs(t, err, domain.ErrEventoCancelado)
	eventos.AssertNotCalled(t, "GuardarEstadoDerivado", mock.Anything, mock.Anything, mock.Anything)
}

func TestCambiarEstadoCancelarRequiereMotivo(t *testing.T) {
	id := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(eventoActivo(id), nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.CambiarEstado(id, domain.EventoCancelado, "")

	assert.ErrorIs(t, err, domain.ErrValidacion)
	eventos.AssertNotCalled(t, "Cancelar", mock.Anything, mock.Anything, mock.Anything)
}

func TestCambiarEstadoCancela(t *testing.T) {
	id := bson.NewObjectId()
	cancelado := eventoActivo(id)
	cancelado.Estado = domain.EventoCancelado

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(eventoActivo(id), nil).Once()
	eventos.On("Cancelar", id, "lluvia", mock.Anything).Return(nil)
	eventos.On("PorID", id).Return(cancelado, nil).Once()
	svc := NuevosEventos(eventos, logger.NewNop())

	evento, err := svc.CambiarEstado(id, domain.EventoCancelado, "lluvia")

	require.NoError(t, err)
	assert.Equal(t, domain.EventoCancelado, evento.Estado)
	eventos.AssertExpectations(t)
}

func TestActualizarEtapaDesconocida(t *testing.T) {
	id := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(eventoActivo(id), nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.ActualizarEtapa(id, "no-existe", ActualizarEtapaInput{})

	assert.ErrorIs(t, err, domain.ErrEtapaInvalida)
}

func TestActualizarEtapaLimiteMenorQueVendidos(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Etapas = []domain.EtapaPreventa{
		{StageID: "uno", Nombre: "Preventa", LimiteBoletos: 100, BoletosVendidos: 40},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	limite := 30
	_, err := svc.ActualizarEtapa(id, "uno", ActualizarEtapaInput{LimiteBoletos: &limite})

	assert.ErrorIs(t, err, domain.ErrValidacion)
	eventos.AssertNotCalled(t, "ActualizarEtapa", mock.Anything, mock.Anything, mock.Anything)
}

func TestActualizarGratisNoReduceBajoReclamados(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.BoletosGratis = domain.BoletosGratis{Habilitados: true, Cantidad: 50, Reclamados: 20}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	svc := NuevosEventos(eventos, logger.NewNop())

	_, err := svc.ActualizarGratis(id, true, 10)

	assert.ErrorIs(t, err, domain.ErrCupoBajoReclamados)
	eventos.AssertNotCalled(t, "Actualizar", mock.Anything, mock.Anything)
}
