package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/internal/pasarela"
	"github.com/taquillapp/taquilla/internal/store"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type URLs struct {
	Frontend string
	Backend  string
}

type Pagos struct {
	eventos     EventosStore
	reservas    ReservasStore
	dlq         DLQStore
	gateway     Gateway
	notificador Notificador
	urls        URLs
	log         logger.Logger
}

func NuevosPagos(eventos EventosStore, reservas ReservasStore, dlq DLQStore, gateway Gateway, notificador Notificador, urls URLs, log logger.Logger) *Pagos {
	return &Pagos{
		eventos:     eventos,
		reservas:    reservas,
		dlq:         dlq,
		gateway:     gateway,
		notificador: notificador,
		urls:        urls,
		log:         log,
	}
}

type CrearPreferenciaInput struct {
	EventoID bson.ObjectId
	Boletos  []domain.Boleto
	StageID  string
	Gratis   bool
}

type PreferenciaCreada struct {
	OrdenID       string `json:"orderId"`
	PreferenciaID string `json:"preferenceId"`
	InitPoint     string `json:"initPoint"`
}

// CrearPreferencia validates availability without consuming it, builds
// the checkout session and hands the correlation id back to the caller.
// Inventory is claimed when the approved payment comes back through the
// webhook.
func (s *Pagos) CrearPreferencia(ctx context.Context, in CrearPreferenciaInput) (*PreferenciaCreada, error) {
	evento, err := s.eventos.PorID(in.EventoID)
	if err != nil {
		return nil, err
	}
	cantidad := len(in.Boletos)

	asignacion, err := asignar(s.eventos, evento, cantidad, in.StageID, in.Gratis, true)
	if err != nil {
		return nil, err
	}

	ordenID := uuid.NewString()
	titulo := evento.Titulo
	if asignacion.Nombre != "" && in.StageID != "" {
		titulo = fmt.Sprintf("%s — %s", evento.Titulo, asignacion.Nombre)
	}

	pref := &pasarela.Preferencia{
		Items: []pasarela.Item{{
			Title:     titulo,
			Quantity:  cantidad,
			UnitPrice: asignacion.PrecioUnitario,
		}},
		BackURLs: pasarela.BackURLs{
			Success: s.urls.Frontend + "/pago/exitoso",
			Pending: s.urls.Frontend + "/pago/pendiente",
			Failure: s.urls.Frontend + "/pago/fallido",
		},
		AutoReturn:        "approved",
		ExternalReference: ordenID,
		NotificationURL:   s.urls.Backend + "/pagos/webhook",
		Metadata: pasarela.Metadata{
			EventoID: evento.ID.Hex(),
			StageID:  in.StageID,
			Gratis:   in.Gratis,
			Cantidad: cantidad,
			Boletos:  boletosMeta(in.Boletos),
		},
	}
	if len(in.Boletos) > 0 {
		pref.Payer.Name = in.Boletos[0].Nombre
		pref.Payer.Surname = in.Boletos[0].Apellido
		pref.Payer.Email = in.Boletos[0].Email
		pref.Payer.Phone.Number = in.Boletos[0].Telefono
	}

	reply, err := s.gateway.CrearPreferencia(ctx, pref)
	if err != nil {
		return nil, err
	}

	s.log.Info("preferencia creada",
		"orden_id", ordenID,
		"preferencia_id", reply.ID,
		"evento_id", evento.ID.Hex(),
	)
	return &PreferenciaCreada{
		OrdenID:       ordenID,
		PreferenciaID: reply.ID,
		InitPoint:     reply.InitPoint,
	}, nil
}

// ProcesarNotificacion drives the payment state machine for one inbound
// webhook delivery. The handler has already acknowledged the gateway;
// any failure here is logged and dead-lettered, never returned to the
// gateway.
func (s *Pagos) ProcesarNotificacion(ctx context.Context, notif *pasarela.Notificacion) error {
	if notif.Type != "payment" {
		s.log.Debug("notificación ignorada", "type", notif.Type)
		return nil
	}

	pago, err := s.gateway.Pago(ctx, notif.Data.ID)
	if err != nil {
		s.deadLetter(notif.Data.ID, "", "consulta de pago", err, notif)
		return fmt.Errorf("consultar pago %s: %w", notif.Data.ID, err)
	}

	ordenID := pago.ExternalReference
	if ordenID == "" {
		err := fmt.Errorf("pago %d sin referencia externa", pago.ID)
		s.deadLetter(notif.Data.ID, "", "referencia externa", err, pago)
		return err
	}

	switch pago.Status {
	case domain.PagoAprobado:
		return s.procesarAprobado(ctx, pago)
	case domain.PagoRechazado, domain.PagoCancelado, domain.PagoPendiente, domain.PagoEnProceso:
		return s.procesarNoAprobado(ctx, pago)
	default:
		s.log.Warn("estado de pago no reconocido",
			"estado", pago.Status,
			"pago_id", pago.ID,
			"orden_id", ordenID,
		)
		return nil
	}
}

// procesarAprobado transitions the reservation into approved exactly
// once and confirms the inventory from the payment metadata only on
// that first transition, so a webhook redelivery neither advances
// paidAt nor re-increments counters.
func (s *Pagos) procesarAprobado(ctx context.Context, pago *pasarela.Pago) error {
	ordenID := pago.ExternalReference
	pagoID := strconv.FormatInt(pago.ID, 10)
	ahora := time.Now().UTC()

	transiciono, err := s.reservas.Aprobar(ordenID, pagoID, pago.StatusDetail, pago.TransactionAmount, ahora)
	if err != nil {
		s.deadLetter(pagoID, ordenID, "aprobar reserva", err, pago)
		return err
	}

	var reserva *domain.Reserva
	if transiciono {
		reserva, err = s.reservas.PorOrden(ordenID)
		if err != nil {
			s.deadLetter(pagoID, ordenID, "releer reserva", err, pago)
			return err
		}
	} else {
		_, err := s.reservas.PorOrden(ordenID)
		if err == nil {
			// redelivery of an already approved payment: terminal
			// state re-applied, nothing else to do
			s.log.Info("notificación repetida", "orden_id", ordenID, "pago_id", pagoID)
			return nil
		}
		if err != domain.ErrReservaNoEncontrada {
			s.deadLetter(pagoID, ordenID, "buscar reserva", err, pago)
			return err
		}
		reserva, err = s.crearDesdePago(pago, pagoID, domain.PagoAprobado, ahora)
		if err != nil {
			s.deadLetter(pagoID, ordenID, "crear reserva", err, pago)
			return err
		}
	}

	if err := s.confirmarInventario(pago); err != nil {
		s.deadLetter(pagoID, ordenID, "confirmar inventario", err, pago)
		return err
	}

	s.log.Info("pago aprobado",
		"orden_id", ordenID,
		"pago_id", pagoID,
		"codigo", reserva.Codigo,
		"monto", pago.TransactionAmount,
	)
	s.publicar(ctx, reserva, notify.EstadoConfirmada)
	return nil
}

func (s *Pagos) procesarNoAprobado(ctx context.Context, pago *pasarela.Pago) error {
	ordenID := pago.ExternalReference
	pagoID := strconv.FormatInt(pago.ID, 10)
	ahora := time.Now().UTC()

	err := s.reservas.ActualizarEstado(ordenID, pago.Status, pagoID, pago.StatusDetail, ahora)
	if err == domain.ErrReservaNoEncontrada {
		// first delivery for this order: create the reservation in the
		// observed state so later deliveries find it
		if _, err := s.crearDesdePago(pago, pagoID, pago.Status, ahora); err != nil {
			s.deadLetter(pagoID, ordenID, "crear reserva", err, pago)
			return err
		}
		err = nil
	}
	if err != nil {
		s.deadLetter(pagoID, ordenID, "actualizar estado", err, pago)
		return err
	}

	s.log.Info("estado de pago registrado",
		"orden_id", ordenID,
		"pago_id", pagoID,
		"estado", pago.Status,
		"detalle", pago.StatusDetail,
	)

	if pago.Status == domain.PagoRechazado {
		if reserva, err := s.reservas.PorOrden(ordenID); err == nil {
			s.publicar(ctx, reserva, notify.EstadoRechazada)
		}
	}
	return nil
}

// crearDesdePago materializes a reservation from the payment metadata
// on the first webhook delivery for its order id.
func (s *Pagos) crearDesdePago(pago *pasarela.Pago, pagoID, estado string, ahora time.Time) (*domain.Reserva, error) {
	meta := pago.Metadata
	if !bson.IsObjectIdHex(meta.EventoID) {
		return nil, fmt.Errorf("metadata sin evento válido: %q", meta.EventoID)
	}
	evento, err := s.eventos.PorID(bson.ObjectIdHex(meta.EventoID))
	if err != nil {
		return nil, err
	}

	boletos := make([]domain.Boleto, 0, len(meta.Boletos))
	for _, b := range meta.Boletos {
		boletos = append(boletos, domain.Boleto{
			Nombre:   b.Nombre,
			Apellido: b.Apellido,
			Telefono: b.Telefono,
			Email:    b.Email,
		})
	}

	cantidad := meta.Cantidad
	if cantidad == 0 {
		cantidad = len(boletos)
	}
	var precio float64
	if cantidad > 0 {
		precio = pago.TransactionAmount / float64(cantidad)
	}

	reserva := &domain.Reserva{
		ID:             bson.NewObjectId(),
		Codigo:         domain.NuevoCodigoReserva(ahora),
		EventoID:       evento.ID,
		EventoTitulo:   evento.Titulo,
		Boletos:        boletos,
		EstadoPago:     estado,
		OrdenID:        pago.ExternalReference,
		PagoID:         pagoID,
		DetalleEstado:  pago.StatusDetail,
		Monto:          pago.TransactionAmount,
		PrecioUnitario: precio,
		EsGratis:       meta.Gratis,
		CreadaEn:       ahora,
		ActualizadaEn:  ahora,
	}
	if meta.StageID != "" {
		reserva.StageID = meta.StageID
		if _, etapa := evento.Etapa(meta.StageID); etapa != nil {
			reserva.EtapaNombre = etapa.Nombre
		}
	}
	if estado == domain.PagoAprobado {
		reserva.Pagada = true
		reserva.PagadaEn = &ahora
	}

	if err := s.reservas.Insertar(reserva); err != nil {
		return nil, err
	}
	return reserva, nil
}

// confirmarInventario claims the stage or free-pool counters named in
// the payment metadata. The payment is already captured, so there is no
// availability re-check here: capture wins over stock.
func (s *Pagos) confirmarInventario(pago *pasarela.Pago) error {
	meta := pago.Metadata
	if meta.StageID == "" && !meta.Gratis {
		return nil
	}
	if !bson.IsObjectIdHex(meta.EventoID) {
		return fmt.Errorf("metadata sin evento válido: %q", meta.EventoID)
	}
	id := bson.ObjectIdHex(meta.EventoID)
	evento, err := s.eventos.PorID(id)
	if err != nil {
		return err
	}

	cantidad := meta.Cantidad
	if cantidad <= 0 {
		cantidad = len(meta.Boletos)
	}

	if meta.Gratis {
		if err := s.eventos.ConfirmarGratis(id, cantidad); err != nil {
			return err
		}
	} else {
		pos, etapa := evento.Etapa(meta.StageID)
		if etapa == nil {
			return fmt.Errorf("%w: %s", domain.ErrEtapaInvalida, meta.StageID)
		}
		if err := s.eventos.ConfirmarEtapa(id, pos, cantidad); err != nil {
			return err
		}
	}

	// refresh derived status with the new counters
	evento, err = s.eventos.PorID(id)
	if err != nil {
		return err
	}
	ahora := time.Now().UTC()
	if derivado := domain.DeriveEstado(evento, ahora); derivado != evento.Estado {
		return s.eventos.GuardarEstadoDerivado(id, derivado, ahora)
	}
	return nil
}

// PagoPorID proxies a payment-detail fetch to the gateway.
func (s *Pagos) PagoPorID(ctx context.Context, id string) (*pasarela.Pago, error) {
	return s.gateway.Pago(ctx, id)
}

// PagoPorOrden busca en la pasarela el pago asociado a una orden.
func (s *Pagos) PagoPorOrden(ctx context.Context, ordenID string) (*pasarela.Pago, error) {
	return s.gateway.PagoPorOrden(ctx, ordenID)
}

// MensajesMuertos lists the most recent failed webhook reconciliations.
func (s *Pagos) MensajesMuertos(limite int) ([]store.EntradaDLQ, error) {
	if limite <= 0 || limite > 500 {
		limite = 100
	}
	return s.dlq.Pendientes(limite)
}

func boletosMeta(boletos []domain.Boleto) []pasarela.BoletoMeta {
	meta := make([]pasarela.BoletoMeta, 0, len(boletos))
	for _, b := range boletos {
		meta = append(meta, pasarela.BoletoMeta{
			Nombre:   b.Nombre,
			Apellido: b.Apellido,
			Telefono: b.Telefono,
			Email:    b.Email,
		})
	}
	return meta
}

func (s *Pagos) deadLetter(pagoID, ordenID, etapa string, causa error, payload any) {
	cuerpo, _ := json.Marshal(payload)
	entrada := &store.EntradaDLQ{
		PagoID:  pagoID,
		OrdenID: ordenID,
		Etapa:   etapa,
		Error:   causa.Error(),
		Payload: string(cuerpo),
	}
	if err := s.dlq.Registrar(entrada); err != nil {
		s.log.Error("no se pudo registrar en la dlq",
			"pago_id", pagoID,
			"etapa", etapa,
			"error", err,
		)
	}
}

func (s *Pagos) publicar(ctx context.Context, reserva *domain.Reserva, estado string) {
	n := &notify.NotificacionReserva{
		Codigo:   reserva.Codigo,
		Evento:   reserva.EventoTitulo,
		Estado:   estado,
		Email:    reserva.EmailContacto(),
		Cantidad: reserva.Cantidad(),
	}
	if err := s.notificador.Publicar(ctx, n); err != nil {
		s.log.Error("no se pudo publicar la notificación", "codigo", reserva.Codigo, "error", err)
	}
}
