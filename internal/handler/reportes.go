package handler

import (
	"fmt"
	"net/http"

	"github.com/taquillapp/taquilla/internal/service"
)

type Reportes struct {
	respondedor
	svc *service.Reportes
}

func NuevosReportes(svc *service.Reportes, desarrollo bool) *Reportes {
	return &Reportes{respondedor{desarrollo}, svc}
}

func (h *Reportes) Resumen(w http.ResponseWriter, r *http.Request) {
	resumen, err := h.svc.Resumen()
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, resumen)
}

// Gratis devuelve el reporte de boletos gratis en JSON o, con
// ?formato=xlsx, como hoja de cálculo descargable.
func (h *Reportes) Gratis(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	if r.URL.Query().Get("formato") == "xlsx" {
		libro, err := h.svc.GratisExcel(id)
		if err != nil {
			h.escribirError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=boletos-gratis-%s.xlsx", id.Hex()))
		w.WriteHeader(http.StatusOK)
		_, _ = libro.WriteTo(w)
		return
	}
	reporte, err := h.svc.Gratis(id)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reporte)
}

func (h *Reportes) Reservas(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	reporte, err := h.svc.ReservasEvento(id)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, reporte)
}

func (h *Reportes) Estadisticas(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	estadisticas, err := h.svc.Completas(id)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, estadisticas)
}
