package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/mgo.v2/bson"

	"github.com/taquillapp/taquilla/internal/domain"
	"github.com/taquillapp/taquilla/internal/service"
)

type Eventos struct {
	respondedor
	svc *service.Eventos
}

func NuevosEventos(svc *service.Eventos, desarrollo bool) *Eventos {
	return &Eventos{respondedor{desarrollo}, svc}
}

// idDeRuta extracts and validates the Mongo object id of a path variable.
func idDeRuta(r *http.Request, nombre string) (bson.ObjectId, error) {
	crudo := mux.Vars(r)[nombre]
	if !bson.IsObjectIdHex(crudo) {
		return "", domain.ErrIDInvalido
	}
	return bson.ObjectIdHex(crudo), nil
}

func (h *Eventos) Crear(w http.ResponseWriter, r *http.Request) {
	var req crearEventoRequest
	if !decodificar(w, r, &req) {
		return
	}
	in := service.CrearEventoInput{
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Lugar:       req.Lugar,
		Imagen:      req.Imagen,
		Fecha:       req.Fecha,
		PrecioBase:  req.PrecioBase,
	}
	for _, e := range req.Etapas {
		in.Etapas = append(in.Etapas, aEtapaInput(e))
	}
	if req.Gratis != nil {
		in.BoletosGratis = domain.BoletosGratis{
			Habilitados: req.Gratis.Habilitados,
			Cantidad:    req.Gratis.Cantidad,
		}
	}
	evento, err := h.svc.Crear(in)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusCreated, evento)
}

func (h *Eventos) Listar(w http.ResponseWriter, r *http.Request) {
	eventos, err := h.svc.Listar()
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, eventos)
}

func (h *Eventos) PorID(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	evento, err := h.svc.PorID(id)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}

func (h *Eventos) Actualizar(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	var req actualizarEventoRequest
	if !decodificar(w, r, &req) {
		return
	}
	evento, err := h.svc.Actualizar(id, service.ActualizarEventoInput{
		Titulo:      req.Titulo,
		Descripcion: req.Descripcion,
		Lugar:       req.Lugar,
		Imagen:      req.Imagen,
		Fecha:       req.Fecha,
		PrecioBase:  req.PrecioBase,
	})
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}

func (h *Eventos) Eliminar(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	if err := h.svc.Eliminar(id); err != nil {
		h.escribirError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Eventos) CambiarEstado(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	var req estadoRequest
	if !decodificar(w, r, &req) {
		return
	}
	evento, err := h.svc.CambiarEstado(id, req.Estado, req.Motivo)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}

func (h *Eventos) AgregarEtapa(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	var req etapaRequest
	if !decodificar(w, r, &req) {
		return
	}
	evento, err := h.svc.AgregarEtapa(id, aEtapaInput(req))
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}

func (h *Eventos) ActualizarEtapa(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	var req actualizarEtapaRequest
	if !decodificar(w, r, &req) {
		return
	}
	evento, err := h.svc.ActualizarEtapa(id, mux.Vars(r)["stageId"], service.ActualizarEtapaInput{
		Nombre:        req.Nombre,
		Precio:        req.Precio,
		LimiteBoletos: req.LimiteBoletos,
		FechaFin:      req.FechaFin,
		Activa:        req.Activa,
	})
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}

func (h *Eventos) ActualizarGratis(w http.ResponseWriter, r *http.Request) {
	id, err := idDeRuta(r, "id")
	if err != nil {
		h.escribirError(w, err)
		return
	}
	var req gratisRequest
	if !decodificar(w, r, &req) {
		return
	}
	evento, err := h.svc.ActualizarGratis(id, req.Habilitados, req.Cantidad)
	if err != nil {
		h.escribirError(w, err)
		return
	}
	escribirJSON(w, http.StatusOK, evento)
}
