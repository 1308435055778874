package notify

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"github.com/taquillapp/taquilla/pkg/logger"
)

const charSet = "UTF-8"

type plantilla struct {
	asunto string
	cuerpo string
}

var plantillas = map[string]plantilla{
	EstadoConfirmada: {
		asunto: "Confirmación de reserva",
		cuerpo: "Su reserva %s de %d boletos para el evento %s está confirmada",
	},
	EstadoCancelada: {
		asunto: "Cancelación de reserva",
		cuerpo: "Su reserva %s de %d boletos para el evento %s fue cancelada",
	},
	EstadoRechazada: {
		asunto: "Pago rechazado",
		cuerpo: "El pago de su reserva %s de %d boletos para el evento %s fue rechazado",
	},
}

type Mailer struct {
	svc    *ses.SES
	sender string
	log    logger.Logger
}

// NuevoMailer builds an SES mailer in the given region.
func NuevoMailer(region, sender string, log logger.Logger) (*Mailer, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("sesión AWS: %w", err)
	}
	return &Mailer{svc: ses.New(sess), sender: sender, log: log}, nil
}

// Enviar mails the notification to its contact address. SES rejections
// with an AWS error code are logged and swallowed so the consumer can
// commit; transport errors propagate so the message is retried.
func (m *Mailer) Enviar(n *NotificacionReserva) error {
	p, ok := plantillas[n.Estado]
	if !ok {
		return fmt.Errorf("estado de notificación desconocido: %s", n.Estado)
	}
	if n.Email == "" {
		m.log.Warn("notificación sin email de contacto", "codigo", n.Codigo)
		return nil
	}

	cuerpo := fmt.Sprintf(p.cuerpo, n.Codigo, n.Cantidad, n.Evento)
	input := &ses.SendEmailInput{
		Destination: &ses.Destination{
			ToAddresses: []*string{aws.String(n.Email)},
		},
		Message: &ses.Message{
			Body: &ses.Body{
				Text: &ses.Content{
					Charset: aws.String(charSet),
					Data:    aws.String(cuerpo),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String(charSet),
				Data:    aws.String(p.asunto),
			},
		},
		Source: aws.String(m.sender),
	}

	if _, err := m.svc.SendEmail(input); err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			m.log.Error("SES rechazó el envío",
				"code", aerr.Code(),
				"error", aerr.Error(),
				"codigo", n.Codigo,
			)
			return nil
		}
		return fmt.Errorf("enviar email: %w", err)
	}
	return nil
}
