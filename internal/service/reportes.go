package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type Reportes struct {
	eventos  EventosStore
	reservas ReservasStore
	log      logger.Logger
}

func NuevosReportes(eventos EventosStore, reservas ReservasStore, log logger.Logger) *Reportes {
	return &Reportes{eventos: eventos, reservas: reservas, log: log}
}

// ResumenEvento is one row of the events overview.
type ResumenEvento struct {
	EventoID       string  `json:"eventId"`
	Titulo         string  `json:"title"`
	Estado         string  `json:"status"`
	Fecha          string  `json:"date"`
	Reservas       int     `json:"reservations"`
	Boletos        int     `json:"tickets"`
	BoletosGratis  int     `json:"freeTickets"`
	BoletosPagados int     `json:"paidTickets"`
	Ingresos       float64 `json:"revenue"`
	Ocupacion      float64 `json:"occupancy"`
}

// ResumenGeneral is the overview response.
type ResumenGeneral struct {
	Eventos       []ResumenEvento `json:"events"`
	TotalEventos  int             `json:"totalEvents"`
	TotalBoletos  int             `json:"totalTickets"`
	TotalIngresos float64         `json:"totalRevenue"`
}

// Resumen combines the event list with the reservation aggregates.
func (s *Reportes) Resumen() (*ResumenGeneral, error) {
	eventos, err := s.eventos.Listar()
	if err != nil {
		return nil, err
	}
	porEvento, err := s.reservas.ResumenPorEvento()
	if err != nil {
		return nil, err
	}

	agregados := map[bson.ObjectId]int{}
	for i := range porEvento {
		agregados[porEvento[i].EventoID] = i
	}

	resumen := &ResumenGeneral{Eventos: make([]ResumenEvento, 0, len(eventos))}
	for i := range eventos {
		e := &eventos[i]
		fila := ResumenEvento{
			EventoID: e.ID.Hex(),
			Titulo:   e.Titulo,
			Estado:   e.Estado,
			Fecha:    e.Fecha.Format(time.RFC3339),
		}
		if idx, ok := agregados[e.ID]; ok {
			agg := porEvento[idx]
			fila.Reservas = agg.Reservas
			fila.Boletos = agg.Boletos
			fila.BoletosGratis = agg.BoletosGratis
			fila.BoletosPagados = agg.BoletosPagados
			fila.Ingresos = agg.Ingresos
		}
		if capacidad := capacidadEvento(e); capacidad > 0 {
			fila.Ocupacion = float64(fila.Boletos) / float64(capacidad)
		}
		resumen.Eventos = append(resumen.Eventos, fila)
		resumen.TotalBoletos += fila.Boletos
		resumen.TotalIngresos += fila.Ingresos
	}
	resumen.TotalEventos = len(eventos)
	return resumen, nil
}

// capacidadEvento is the known sellable capacity: stage limits plus a
// bounded free pool. Unlimited free pools contribute nothing.
func capacidadEvento(e *domain.Evento) int {
	capacidad := 0
	for i := range e.Etapas {
		capacidad += e.Etapas[i].LimiteBoletos
	}
	if e.BoletosGratis.Habilitados && e.BoletosGratis.Cantidad > 0 {
		capacidad += e.BoletosGratis.Cantidad
	}
	return capacidad
}

// ReporteGratis is the free-ticket report of one event.
type ReporteGratis struct {
	Evento     *domain.Evento   `json:"event"`
	Reclamados int              `json:"ticketsClaimed"`
	Restantes  int              `json:"remaining"`
	Reservas   []domain.Reserva `json:"reservations"`
}

func (s *Reportes) Gratis(eventoID bson.ObjectId) (*ReporteGratis, error) {
	evento, err := s.eventos.PorID(eventoID)
	if err != nil {
		return nil, err
	}
	reservas, err := s.reservas.GratisPorEvento(eventoID)
	if err != nil {
		return nil, err
	}
	return &ReporteGratis{
		Evento:     evento,
		Reclamados: evento.BoletosGratis.Reclamados,
		Restantes:  evento.BoletosGratis.Restantes(),
		Reservas:   reservas,
	}, nil
}

// GratisExcel renders the free-ticket report as a spreadsheet: event
// header rows followed by one row per ticket holder.
func (s *Reportes) GratisExcel(eventoID bson.ObjectId) (*bytes.Buffer, error) {
	reporte, err := s.Gratis(eventoID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	hoja := "Boletos gratis"
	f.SetSheetName("Sheet1", hoja)

	encabezado := [][]interface{}{
		{"Evento", reporte.Evento.Titulo},
		{"Fecha", reporte.Evento.Fecha.Format("2006-01-02 15:04")},
		{"Lugar", reporte.Evento.Lugar},
		{"Reclamados", reporte.Reclamados},
		{"Restantes", restantesTexto(reporte.Restantes)},
		{},
		{"Código", "Nombre", "Apellido", "Teléfono", "Email"},
	}
	for i, fila := range encabezado {
		celda, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(hoja, celda, &fila); err != nil {
			return nil, fmt.Errorf("excel: %w", err)
		}
	}

	filaActual := len(encabezado) + 1
	for _, reserva := range reporte.Reservas {
		for _, boleto := range reserva.Boletos {
			celda, _ := excelize.CoordinatesToCellName(1, filaActual)
			fila := []interface{}{reserva.Codigo, boleto.Nombre, boleto.Apellido, boleto.Telefono, boleto.Email}
			if err := f.SetSheetRow(hoja, celda, &fila); err != nil {
				return nil, fmt.Errorf("excel: %w", err)
			}
			filaActual++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("excel: %w", err)
	}
	return &buf, nil
}

func restantesTexto(restantes int) string {
	if restantes < 0 {
		return "ilimitados"
	}
	return fmt.Sprintf("%d", restantes)
}

// ReservasEvento returns all reservations of an event with a small
// summary on top.
type ReporteReservas struct {
	Evento   *domain.Evento   `json:"event"`
	Total    int              `json:"total"`
	Reservas []domain.Reserva `json:"reservations"`
}

func (s *Reportes) ReservasEvento(eventoID bson.ObjectId) (*ReporteReservas, error) {
	evento, err := s.eventos.PorID(eventoID)
	if err != nil {
		return nil, err
	}
	reservas, err := s.reservas.PorEvento(eventoID)
	if err != nil {
		return nil, err
	}
	return &ReporteReservas{Evento: evento, Total: len(reservas), Reservas: reservas}, nil
}

// EstadisticaEtapa is the per-stage slice of the complete stats.
type EstadisticaEtapa struct {
	StageID   string  `json:"stageId"`
	Nombre    string  `json:"name"`
	Precio    float64 `json:"price"`
	Vendidos  int     `json:"ticketsSold"`
	Limite    int     `json:"ticketLimit"`
	Restantes int     `json:"remaining"`
	Activa    bool    `json:"isActive"`
}

type Estadisticas struct {
	EventoID         string             `json:"eventId"`
	Titulo           string             `json:"title"`
	Estado           string             `json:"status"`
	Etapas           []EstadisticaEtapa `json:"stages"`
	GratisReclamados int                `json:"freeTicketsClaimed"`
	GratisRestantes  int                `json:"freeTicketsRemaining"`
	Reservas         int                `json:"reservations"`
	Boletos          int                `json:"tickets"`
	Ingresos         float64            `json:"revenue"`
}

func (s *Reportes) Completas(eventoID bson.ObjectId) (*Estadisticas, error) {
	evento, err := s.eventos.PorID(eventoID)
	if err != nil {
		return nil, err
	}
	reservas, err := s.reservas.PorEvento(eventoID)
	if err != nil {
		return nil, err
	}

	stats := &Estadisticas{
		EventoID:         evento.ID.Hex(),
		Titulo:           evento.Titulo,
		Estado:           evento.Estado,
		GratisReclamados: evento.BoletosGratis.Reclamados,
		GratisRestantes:  evento.BoletosGratis.Restantes(),
	}
	for i := range evento.Etapas {
		etapa := &evento.Etapas[i]
		stats.Etapas = append(stats.Etapas, EstadisticaEtapa{
			StageID:   etapa.StageID,
			Nombre:    etapa.Nombre,
			Precio:    etapa.Precio,
			Vendidos:  etapa.BoletosVendidos,
			Limite:    etapa.LimiteBoletos,
			Restantes: etapa.Restantes(),
			Activa:    etapa.Activa,
		})
	}
	for i := range reservas {
		r := &reservas[i]
		if r.EstadoPago == domain.PagoCancelado {
			continue
		}
		stats.Reservas++
		stats.Boletos += r.Cantidad()
		if r.Pagada && !r.EsGratis {
			stats.Ingresos += r.Monto
		}
	}
	return stats, nil
}
