package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taquillapp/taquilla/pkg/logger"
)

func TestEnviarEstadoDesconocido(t *testing.T) {
	mailer, err := NuevoMailer("us-west-2", "taquilla@example.com", logger.NewNop())
	require.NoError(t, err)

	err = mailer.Enviar(&NotificacionReserva{Estado: "otro", Codigo: "TQ-X-1"})

	assert.Error(t, err)
}

func TestEnviarSinEmailSeDescarta(t *testing.T) {
	mailer, err := NuevoMailer("us-west-2", "taquilla@example.com", logger.NewNop())
	require.NoError(t, err)

	// Sin dirección de contacto no hay nada que enviar ni reintentar.
	err = mailer.Enviar(&NotificacionReserva{Estado: EstadoConfirmada, Codigo: "TQ-X-1"})

	assert.NoError(t, err)
}

func TestPlantillasCubrenTodosLosEstados(t *testing.T) {
	for _, estado := range []string{EstadoConfirmada, EstadoCancelada, EstadoRechazada} {
		p, ok := plantillas[estado]
		require.True(t, ok, estado)
		assert.NotEmpty(t, p.asunto)
		assert.NotEmpty(t, p.cuerpo)
	}
}
