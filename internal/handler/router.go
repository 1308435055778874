package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taquillapp/taquilla/pkg/logger"
)

// Handlers agrupa todos los manejadores que monta el router.
type Handlers struct {
	Eventos  *Eventos
	Reservas *Reservas
	Pagos    *Pagos
	Reportes *Reportes
	Health   *Health
}

// NuevoRouter monta todas las rutas del API con logging y recuperación
// de pánicos.
func NuevoRouter(h Handlers, log logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(recuperar(log))
	r.Use(logger.HTTPLogger(log))

	eventos := r.PathPrefix("/eventos").Subrouter()
	eventos.HandleFunc("", h.Eventos.Crear).Methods(http.MethodPost)
	eventos.HandleFunc("", h.Eventos.Listar).Methods(http.MethodGet)
	eventos.HandleFunc("/{id}", h.Eventos.PorID).Methods(http.MethodGet)
	eventos.HandleFunc("/{id}", h.Eventos.Actualizar).Methods(http.MethodPut)
	eventos.HandleFunc("/{id}", h.Eventos.Eliminar).Methods(http.MethodDelete)
	eventos.HandleFunc("/{id}/status", h.Eventos.CambiarEstado).Methods(http.MethodPatch)
	eventos.HandleFunc("/{id}/etapas", h.Eventos.AgregarEtapa).Methods(http.MethodPost)
	eventos.HandleFunc("/{id}/etapas/{stageId}", h.Eventos.ActualizarEtapa).Methods(http.MethodPatch)
	eventos.HandleFunc("/{id}/boletos-gratis", h.Eventos.ActualizarGratis).Methods(http.MethodPatch)
	eventos.HandleFunc("/{id}/reservas", h.Reservas.PorEvento).Methods(http.MethodGet)

	reservas := r.PathPrefix("/reservas").Subrouter()
	reservas.HandleFunc("", h.Reservas.Crear).Methods(http.MethodPost)
	reservas.HandleFunc("", h.Reservas.Listar).Methods(http.MethodGet)
	reservas.HandleFunc("/orden/{orderId}", h.Reservas.PorOrden).Methods(http.MethodGet)
	reservas.HandleFunc("/orden/{orderId}/contacto", h.Reservas.ActualizarContacto).Methods(http.MethodPatch)
	reservas.HandleFunc("/{code}", h.Reservas.PorCodigo).Methods(http.MethodGet)
	reservas.HandleFunc("/{code}", h.Reservas.Cancelar).Methods(http.MethodDelete)

	pagos := r.PathPrefix("/pagos").Subrouter()
	pagos.HandleFunc("/preferencia", h.Pagos.CrearPreferencia).Methods(http.MethodPost)
	pagos.HandleFunc("/webhook", h.Pagos.Webhook).Methods(http.MethodPost)
	pagos.HandleFunc("/pago/{id}", h.Pagos.PagoPorID).Methods(http.MethodGet)
	pagos.HandleFunc("/orden/{orderId}", h.Pagos.PagoPorOrden).Methods(http.MethodGet)
	pagos.HandleFunc("/dlq", h.Pagos.MensajesMuertos).Methods(http.MethodGet)

	reportes := r.PathPrefix("/reportes").Subrouter()
	reportes.HandleFunc("/resumen", h.Reportes.Resumen).Methods(http.MethodGet)
	reportes.HandleFunc("/eventos/{id}/boletos-gratis", h.Reportes.Gratis).Methods(http.MethodGet)
	reportes.HandleFunc("/eventos/{id}/reservas", h.Reportes.Reservas).Methods(http.MethodGet)
	reportes.HandleFunc("/eventos/{id}/estadisticas", h.Reportes.Estadisticas).Methods(http.MethodGet)

	r.HandleFunc("/health", h.Health.Estado).Methods(http.MethodGet)

	return r
}

// recuperar convierte un pánico del manejador en un 500 sin tumbar el
// proceso.
func recuperar(log logger.Logger) mux.MiddlewareFunc {
	return func(siguiente http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if causa := recover(); causa != nil {
					log.Error("pánico en el manejador",
						"ruta", r.URL.Path,
						"causa", causa,
					)
					escribirJSON(w, http.StatusInternalServerError, cuerpoError{
						Codigo:  "INTERNAL",
						Mensaje: "Error interno del servidor",
					})
				}
			}()
			siguiente.ServeHTTP(w, r)
		})
	}
}
