package handler

import (
	"net/http"
	"time"
)

// Pinger reports connectivity with the document store.
type Pinger interface {
	Ping() error
}

type Health struct {
	pinger Pinger
	inicio time.Time
	env    string
}

func NuevoHealth(pinger Pinger, env string) *Health {
	return &Health{pinger: pinger, inicio: time.Now(), env: env}
}

type estadoSalud struct {
	Estado  string  `json:"status"`
	Mongo   string  `json:"mongo"`
	Uptime  float64 `json:"uptimeSeconds"`
	Entorno string  `json:"env"`
}

func (h *Health) Estado(w http.ResponseWriter, r *http.Request) {
	salud := estadoSalud{
		Estado:  "ok",
		Mongo:   "ok",
		Uptime:  time.Since(h.inicio).Seconds(),
		Entorno: h.env,
	}
	status := http.StatusOK
	if err := h.pinger.Ping(); err != nil {
		salud.Estado = "degraded"
		salud.Mongo = err.Error()
		status = http.StatusServiceUnavailable
	}
	escribirJSON(w, status, salud)
}
