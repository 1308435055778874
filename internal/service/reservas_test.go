package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/pkg/logger"
)

func boletos(n int) []domain.Boleto {
	salida := make([]domain.Boleto, 0, n)
	for i := 0; i < n; i++ {
		salida = append(salida, domain.Boleto{
			Nombre:   "Ana",
			Apellido: "Pérez",
			Email:    "ana@example.com",
		})
	}
	return salida
}

func TestCrearReservaGratis(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.BoletosGratis = domain.BoletosGratis{Habilitados: true, Cantidad: 100, Reclamados: 10}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	eventos.On("IncrementarGratis", id, 100, 2).Return(nil)

	reservas := new(reservasStoreMock)
	reservas.On("Insertar", mock.Anything).Return(nil)

	notificador := new(notificadorMock)
	notificador.On("Publicar", mock.Anything, mock.MatchedBy(func(n *notify.NotificacionReserva) bool {
		return n.Estado == notify.EstadoConfirmada && n.Cantidad == 2
	})).Return(nil)

	svc := NuevasReservas(eventos, reservas, notificador, logger.NewNop())
	reserva, err := svc.Crear(context.Background(), CrearReservaInput{
		EventoID: id,
		Boletos:  boletos(2),
		Gratis:   true,
	})

	require.NoError(t, err)
	assert.True(t, reserva.Pagada)
	assert.Equal(t, domain.PagoAprobado, reserva.EstadoPago)
	assert.NotNil(t, reserva.PagadaEn)
	assert.True(t, reserva.EsGratis)
	assert.Zero(t, reserva.Monto)
	assert.NotEmpty(t, reserva.Codigo)
	eventos.AssertExpectations(t)
	reservas.AssertExpectations(t)
	notificador.AssertExpectations(t)
}

func TestCrearReservaConEtapa(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Etapas = []domain.EtapaPreventa{
		{StageID: "uno", Nombre: "Preventa 1", Precio: 300, LimiteBoletos: 100, BoletosVendidos: 10, FechaFin: time.Now().Add(time.Hour), Activa: true},
		{StageID: "dos", Nombre: "Preventa 2", Precio: 400, LimiteBoletos: 100, BoletosVendidos: 0, FechaFin: time.Now().Add(time.Hour), Activa: true},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	eventos.On("IncrementarEtapa", id, 1, 100, 3).Return(nil)

	reservas := new(reservasStoreMock)
	reservas.On("Insertar", mock.Anything).Return(nil)

	svc := NuevasReservas(eventos, reservas, NotificadorNulo(), logger.NewNop())
	reserva, err := svc.Crear(context.Background(), CrearReservaInput{
		EventoID: id,
		Boletos:  boletos(3),
		StageID:  "dos",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PagoPendiente, reserva.EstadoPago)
	assert.False(t, reserva.Pagada)
	assert.Equal(t, "dos", reserva.StageID)
	assert.Equal(t, "Preventa 2", reserva.EtapaNombre)
	assert.Equal(t, 400.0, reserva.PrecioUnitario)
	assert.Equal(t, 1200.0, reserva.Monto)
	eventos.AssertExpectations(t)
}

func TestCrearReservaPrecioGeneral(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.PrecioBase = 250

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	reservas := new(reservasStoreMock)
	reservas.On("Insertar", mock.Anything).Return(nil)

	svc := NuevasReservas(eventos, reservas, NotificadorNulo(), logger.NewNop())
	reserva, err := svc.Crear(context.Background(), CrearReservaInput{
		EventoID: id,
		Boletos:  boletos(2),
	})

	require.NoError(t, err)
	assert.Equal(t, 250.0, reserva.PrecioUnitario)
	assert.Equal(t, 500.0, reserva.Monto)
	assert.Empty(t, reserva.StageID)
	eventos.AssertNotCalled(t, "IncrementarEtapa", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCrearReservaEventoNoActivo(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Fecha = time.Now().UTC().Add(-time.Hour)

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1)})

	assert.ErrorIs(t, err, domain.ErrEventoNoActivo)
}

func TestCrearReservaGratisDeshabilitados(t *testing.T) {
	id := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(eventoActivo(id), nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1), Gratis: true})

	assert.ErrorIs(t, err, domain.ErrGratisDeshabilitado)
}

func TestCrearReservaGratisAgotados(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.BoletosGratis = domain.BoletosGratis{Habilitados: true, Cantidad: 10, Reclamados: 9}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(2), Gratis: true})

	assert.ErrorIs(t, err, domain.ErrGratisAgotado)
	var agotado *domain.AgotadoError
	require.ErrorAs(t, err, &agotado)
	assert.Equal(t, 1, agotado.Restantes)
}

func TestCrearReservaEtapaAgotadaEnGuardia(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Etapas = []domain.EtapaPreventa{
		{StageID: "uno", Nombre: "Preventa", Precio: 300, LimiteBoletos: 100, BoletosVendidos: 98, FechaFin: time.Now().Add(time.Hour), Activa: true},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)
	// Otro comprador ganó la carrera: el incremento condicional no
	// encuentra documento y reporta agotado.
	eventos.On("IncrementarEtapa", id, 0, 100, 2).Return(domain.ErrEtapaAgotada)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(2), StageID: "uno"})

	assert.ErrorIs(t, err, domain.ErrEtapaAgotada)
	var agotado *domain.AgotadoError
	require.ErrorAs(t, err, &agotado)
	assert.Equal(t, 2, agotado.Restantes)
}

func TestCrearReservaEtapaInactiva(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.Etapas = []domain.EtapaPreventa{
		{StageID: "uno", Nombre: "Preventa", LimiteBoletos: 100, FechaFin: time.Now().Add(-time.Hour), Activa: true},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1), StageID: "uno"})

	assert.ErrorIs(t, err, domain.ErrEtapaInactiva)
}

func TestCrearReservaEtapaDesconocida(t *testing.T) {
	id := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(eventoActivo(id), nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1), StageID: "zzz"})

	assert.ErrorIs(t, err, domain.ErrEtapaInvalida)
}

func TestCrearReservaEtapaYGratisExcluyentes(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.BoletosGratis = domain.BoletosGratis{Habilitados: true, Cantidad: 100}
	evento.Etapas = []domain.EtapaPreventa{
		{StageID: "uno", Nombre: "Preventa", Precio: 300, LimiteBoletos: 100, FechaFin: time.Now().Add(time.Hour), Activa: true},
	}

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{
		EventoID: id,
		Boletos:  boletos(1),
		StageID:  "uno",
		Gratis:   true,
	})

	assert.ErrorIs(t, err, domain.ErrValidacion)
	eventos.AssertNotCalled(t, "IncrementarGratis", mock.Anything, mock.Anything, mock.Anything)
	eventos.AssertNotCalled(t, "IncrementarEtapa", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCrearReservaCodigoDuplicado(t *testing.T) {
	id := bson.NewObjectId()
	evento := eventoActivo(id)
	evento.PrecioBase = 100

	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(evento, nil)

	reservas := new(reservasStoreMock)
	reservas.On("Insertar", mock.Anything).Return(domain.ErrCodigoDuplicado)

	svc := NuevasReservas(eventos, reservas, NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1)})

	assert.ErrorIs(t, err, domain.ErrCodigoDuplicado)
}

func TestCancelarReserva(t *testing.T) {
	cancelada := &domain.Reserva{
		Codigo:       "TQ-ABC-1234",
		EventoTitulo: "Concierto",
		EstadoPago:   domain.PagoCancelado,
		Boletos:      boletos(2),
	}

	reservas := new(reservasStoreMock)
	reservas.On("PorCodigo", "TQ-ABC-1234").Return(cancelada, nil)
	reservas.On("Cancelar", "TQ-ABC-1234", mock.Anything).Return(cancelada, nil)

	notificador := new(notificadorMock)
	notificador.On("Publicar", mock.Anything, mock.MatchedBy(func(n *notify.NotificacionReserva) bool {
		return n.Estado == notify.EstadoCancelada
	})).Return(nil)

	svc := NuevasReservas(new(eventosStoreMock), reservas, notificador, logger.NewNop())
	reserva, err := svc.Cancelar(context.Background(), "TQ-ABC-1234")

	require.NoError(t, err)
	assert.Equal(t, domain.PagoCancelado, reserva.EstadoPago)
	notificador.AssertExpectations(t)
}

func TestCancelarReservaInexistente(t *testing.T) {
	reservas := new(reservasStoreMock)
	reservas.On("PorCodigo", "TQ-NO-EXISTE").Return(nil, domain.ErrReservaNoEncontrada)

	svc := NuevasReservas(new(eventosStoreMock), reservas, NotificadorNulo(), logger.NewNop())
	_, err := svc.Cancelar(context.Background(), "TQ-NO-EXISTE")

	assert.ErrorIs(t, err, domain.ErrReservaNoEncontrada)
	reservas.AssertNotCalled(t, "Cancelar", mock.Anything, mock.Anything)
}

func TestCancelarReservaYaCancelada(t *testing.T) {
	reservas := new(reservasStoreMock)
	reservas.On("PorCodigo", "TQ-ABC-1234").Return(&domain.Reserva{Codigo: "TQ-ABC-1234"}, nil)
	reservas.On("Cancelar", "TQ-ABC-1234", mock.Anything).Return(nil, domain.ErrReservaCancelada)

	svc := NuevasReservas(new(eventosStoreMock), reservas, NotificadorNulo(), logger.NewNop())
	_, err := svc.Cancelar(context.Background(), "TQ-ABC-1234")

	assert.ErrorIs(t, err, domain.ErrReservaCancelada)
}

func TestCrearReservaFallaAlLeerEvento(t *testing.T) {
	id := bson.NewObjectId()
	eventos := new(eventosStoreMock)
	eventos.On("PorID", id).Return(nil, errors.New("mongo caído"))

	svc := NuevasReservas(eventos, new(reservasStoreMock), NotificadorNulo(), logger.NewNop())
	_, err := svc.Crear(context.Background(), CrearReservaInput{EventoID: id, Boletos: boletos(1)})

	assert.Error(t, err)
}
