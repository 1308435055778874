package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/internal/pasarela"
	"github.com/taquillapp/taquilla/internal/store"
)

type eventosStoreMock struct {
	mock.Mock
}

func (m *eventosStoreMock) Insertar(e *domain.Evento) error {
	return m.Called(e).Error(0)
}

func (m *eventosStoreMock) PorID(id bson.ObjectId) (*domain.Evento, error) {
	args := m.Called(id)
	evento, _ := args.Get(0).(*domain.Evento)
	return evento, args.Error(1)
}

func (m *eventosStoreMock) Listar() ([]domain.Evento, error) {
	args := m.Called()
	eventos, _ := args.Get(0).([]domain.Evento)
	return eventos, args.Error(1)
}

func (m *eventosStoreMock) Actualizar(id bson.ObjectId, campos bson.M) error {
	return m.Called(id, campos).Error(0)
}

func (m *eventosStoreMock) Eliminar(id bson.ObjectId) error {
	return m.Called(id).Error(0)
}

func (m *eventosStoreMock) Cancelar(id bson.ObjectId, motivo string, ahora time.Time) error {
	return m.Called(id, motivo, ahora).Error(0)
}

func (m *eventosStoreMock) AgregarEtapa(id bson.ObjectId, etapa domain.EtapaPreventa) error {
	return m.Called(id, etapa).Error(0)
}

func (m *eventosStoreMock) ActualizarEtapa(id bson.ObjectId, pos int, etapa domain.EtapaPreventa) error {
	return m.Called(id, pos, etapa).Error(0)
}

func (m *eventosStoreMock) IncrementarEtapa(id bson.ObjectId, pos, limite, n int) error {
	return m.Called(id, pos, limite, n).Error(0)
}

func (m *eventosStoreMock) ConfirmarEtapa(id bson.ObjectId, pos, n int) error {
	return m.Called(id, pos, n).Error(0)
}

func (m *eventosStoreMock) IncrementarGratis(id bson.ObjectId, cupo, n int) error {
	return m.Called(id, cupo, n).Error(0)
}

func (m *eventosStoreMock) ConfirmarGratis(id bson.ObjectId, n int) error {
	return m.Called(id, n).Error(0)
}

func (m *eventosStoreMock) GuardarEstadoDerivado(id bson.ObjectId, estado string, ahora time.Time) error {
	return m.Called(id, estado, ahora).Error(0)
}

func (m *eventosStoreMock) DesactivarEtapa(id bson.ObjectId, pos int, ahora time.Time) error {
	return m.Called(id, pos, ahora).Error(0)
}

type reservasStoreMock struct {
	mock.Mock
}

func (m *reservasStoreMock) Insertar(r *domain.Reserva) error {
	return m.Called(r).Error(0)
}

func (m *reservasStoreMock) PorCodigo(codigo string) (*domain.Reserva, error) {
	args := m.Called(codigo)
	reserva, _ := args.Get(0).(*domain.Reserva)
	return reserva, args.Error(1)
}

func (m *reservasStoreMock) PorOrden(ordenID string) (*domain.Reserva, error) {
	args := m.Called(ordenID)
	reserva, _ := args.Get(0).(*domain.Reserva)
	return reserva, args.Error(1)
}

func (m *reservasStoreMock) Listar() ([]domain.Reserva, error) {
	args := m.Called()
	reservas, _ := args.Get(0).([]domain.Reserva)
	return reservas, args.Error(1)
}

func (m *reservasStoreMock) PorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error) {
	args := m.Called(eventoID)
	reservas, _ := args.Get(0).([]domain.Reserva)
	return reservas, args.Error(1)
}

func (m *reservasStoreMock) Aprobar(ordenID, pagoID, detalle string, monto float64, ahora time.Time) (bool, error) {
	args := m.Called(ordenID, pagoID, detalle, monto, ahora)
	return args.Bool(0), args.Error(1)
}

func (m *reservasStoreMock) ActualizarEstado(ordenID, estado, pagoID, detalle string, ahora time.Time) error {
	return m.Called(ordenID, estado, pagoID, detalle, ahora).Error(0)
}

func (m *reservasStoreMock) ActualizarContacto(ordenID string, boletos []domain.Boleto) error {
	return m.Called(ordenID, boletos).Error(0)
}

func (m *reservasStoreMock) Cancelar(codigo string, ahora time.Time) (*domain.Reserva, error) {
	args := m.Called(codigo, ahora)
	reserva, _ := args.Get(0).(*domain.Reserva)
	return reserva, args.Error(1)
}

func (m *reservasStoreMock) ResumenPorEvento() ([]store.ResumenReservas, error) {
	args := m.Called()
	resumen, _ := args.Get(0).([]store.ResumenReservas)
	return resumen, args.Error(1)
}

func (m *reservasStoreMock) GratisPorEvento(eventoID bson.ObjectId) ([]domain.Reserva, error) {
	args := m.Called(eventoID)
	reservas, _ := args.Get(0).([]domain.Reserva)
	return reservas, args.Error(1)
}

type dlqStoreMock struct {
	mock.Mock
}

func (m *dlqStoreMock) Registrar(entrada *store.EntradaDLQ) error {
	return m.Called(entrada).Error(0)
}

func (m *dlqStoreMock) Pendientes(limite int) ([]store.EntradaDLQ, error) {
	args := m.Called(limite)
	entradas, _ := args.Get(0).([]store.EntradaDLQ)
	return entradas, args.Error(1)
}

type gatewayMock struct {
	mock.Mock
}

func (m *gatewayMock) CrearPreferencia(ctx context.Context, pref *pasarela.Preferencia) (*pasarela.RespuestaPreferencia, error) {
	args := m.Called(ctx, pref)
	reply, _ := args.Get(0).(*pasarela.RespuestaPreferencia)
	return reply, args.Error(1)
}

func (m *gatewayMock) Pago(ctx context.Context, id string) (*pasarela.Pago, error) {
	args := m.Called(ctx, id)
	pago, _ := args.Get(0).(*pasarela.Pago)
	return pago, args.Error(1)
}

func (m *gatewayMock) PagoPorOrden(ctx context.Context, ordenID string) (*pasarela.Pago, error) {
	args := m.Called(ctx, ordenID)
	pago, _ := args.Get(0).(*pasarela.Pago)
	return pago, args.Error(1)
}

type notificadorMock struct {
	mock.Mock
}

func (m *notificadorMock) Publicar(ctx context.Context, n *notify.NotificacionReserva) error {
	return m.Called(ctx, n).Error(0)
}
