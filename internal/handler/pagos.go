package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/pasarela"
	"github.com/taquillapp/taquilla/internal/service"
	"github.com/taquillapp/taquilla/pkg/logger"
)

type Pagos struct {
	respondedor
	svc *service.Pagos
	log logger.Logger
}

func NuevosPagos(svc *service.Pagos, log logger.Logger, desarrollo bool) *Pagos {
	return &Pagos{respondedor{desarrollo}, svc, log}
}

func (h *Pagos) CrearPreferencia(w http.ResponseWriter, r *http.Request) {
	var req preferenciaRequest
	if !decodificar(w, r, &req) {
		return
	}
	if !bson.IsObjectIdHex(req.EventoID) {
		h.escribirError(w, domain.ErrIDInvalido)
		return
	}
	preferencia, err := h.svc.CrearPreferencia(r.Context(), service.CrearPreferenciaInput{
		EventoID: bson.ObjectIdHex(req.EventoID),
		Boletos:  aBoletos(req.Boletos),
		StageID:  req.StageID,
	})
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusCreated, preferencia)
}

// Webhook siempre responde 200: la pasarela reintenta ante cualquier otro
// código y las fallas internas quedan en la cola de mensajes muertos.
func (h *Pagos) Webhook(w http.ResponseWriter, r *http.Request) {
	var notif pasarela.Notificacion
	if err := json.NewDecoder(r.Body).Decode(&notif); err != nil {
		h.log.Warn("notificación de pago ilegible", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := h.svc.ProcesarNotificacion(r.Context(), &notif); err != nil {
		h.log.Error("no se pudo procesar la notificación de pago",
			"pago_id", notif.Data.ID,
			"error", err,
		)
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Pagos) PagoPorID(w http.ResponseWriter, r *http.Request) {
	pago, err := h.svc.PagoPorID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, pago)
}

// MensajesMuertos expone la cola de mensajes muertos del webhook para
// inspección operativa.
func (h *Pagos) MensajesMuertos(w http.ResponseWriter, r *http.Request) {
	limite, _ := strconv.Atoi(r.URL.Query().Get("limite"))
	entradas, err := h.svc.MensajesMuertos(limite)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, entradas)
}

func (h *Pagos) PagoPorOrden(w http.ResponseWriter, r *http.Request) {
	pago, err := h.svc.PagoPorOrden(r.Context(), mux.Vars(r)["orderId"])
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, pago)
}
