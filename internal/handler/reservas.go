package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/service"
)

type Reservas struct {
	respondedor
	svc *service.Reservas
}

func NuevasReservas(svc *service.Reservas, desarrollo bool) *Reservas {
	return &Reservas{respondedor{desarrollo}, svc}
}

func (h *Reservas) Crear(w http.ResponseWriter, r *http.Request) {
	var req crearReservaRequest
	if !decodificar(w, r, &req) {
		return
	}
	if !bson.IsObjectIdHex(req.EventoID) {
		h.escribirError(w, domain.ErrIDInvalido)
		return
	}
	reserva, err := h.svc.Crear(r.Context(), service.CrearReservaInput{
		EventoID: bson.ObjectIdHex(req.EventoID),
		Boletos:  aBoletos(req.Boletos),
		StageID:  req.StageID,
		Gratis:   req.Gratis,
	})
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusCreated, reserva)
}

func (h *Reservas) Listar(w http.ResponseWriter, r *http.Request) {
	reservas, err := h.svc.Listar()
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reservas)
}

func (h *Reservas) PorCodigo(w http.ResponseWriter, r *http.Request) {
	reserva, err := h.svc.PorCodigo(mux.Vars(r)["code"])
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reserva)
}

func (h *Reservas) PorOrden(w http.ResponseWriter, r *http.Request) {
	reserva, err := h.svc.PorOrden(mux.Vars(r)["orderId"])
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reserva)
}

func (h *Reservas) PorEvento(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	reservas, err := h.svc.PorEvento(id)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reservas)
}

func (h *Reservas) ActualizarContacto(w http.ResponseWriter, r *http.Request) {
	var req contactoRequest
	if !decodificar(w, r, &req) {
		return
	}
	reserva, err := h.svc.ActualizarContacto(mux.Vars(r)["orderId"], aBoletos(req.Boletos))
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reserva)
}

func (h *Reservas) Cancelar(w http.ResponseWriter, r *http.Request) {
	reserva, err := h.svc.Cancelar(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reserva)
}
