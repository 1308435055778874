// El notificador consume las notificaciones de reservas publicadas en
// Kafka y envía el correo correspondiente por SES. El offset se confirma
// solo cuando el envío terminó, para no perder notificaciones.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/taquillapp/taquilla/internal/config"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	if !cfg.Kafka.Enabled {
		log.Fatal("KAFKA_BROKERS es obligatorio para el notificador")
	}

	mailer, err := notify.NuevoMailer(cfg.SES.Region, cfg.SES.Sender, log)
	if err != nil {
		log.Fatal("no se pudo crear el cliente SES", "error", err)
	}

	mensajes := make(chan notify.MensajeRecibido)
	errores := make(chan error)
	err = notify.RecibirMensajes(cfg.Kafka.Brokers, cfg.Kafka.GroupID,
		[]string{cfg.Kafka.Topic}, cfg.Kafka.Partitions, cfg.Kafka.Replicas,
		mensajes, errores)
	if err != nil {
		log.Fatal("no se pudo iniciar el consumidor", "brokers", cfg.Kafka.Brokers, "error", err)
	}
	log.Info("notificador escuchando", "topico", cfg.Kafka.Topic, "grupo", cfg.Kafka.GroupID)

	for {
		select {
		case recibido := <-mensajes:
			procesar(recibido, mailer, log)
		case err := <-errores:
			log.Error("error consumiendo mensajes", "error", err)
		}
	}
}

func procesar(recibido notify.MensajeRecibido, mailer *notify.Mailer, log logger.Logger) {
	var n notify.NotificacionReserva
	if err := json.Unmarshal(recibido.Mensaje.Value, &n); err != nil {
		log.Error("mensaje ilegible, se descarta", "error", err)
		confirmar(recibido, log)
		return
	}
	if err := mailer.Enviar(&n); err != nil {
		log.Error("no se pudo enviar el correo, se reintentará",
			"codigo", n.Codigo,
			"error", err,
		)
		return
	}
	log.Info("correo enviado", "codigo", n.Codigo, "estado", n.Estado, "email", n.Email)
	confirmar(recibido, log)
}

func confirmar(recibido notify.MensajeRecibido, log logger.Logger) {
	if err := recibido.Reader.CommitMessages(context.Background(), *recibido.Mensaje); err != nil {
		log.Error("no se pudo confirmar el offset", "error", err)
	}
}
