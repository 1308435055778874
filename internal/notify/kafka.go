// Package notify moves reservation lifecycle events to the notifier
// through Kafka and sends the resulting emails through SES.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	kafka "github.com/segmentio/kafka-go"
)

// NotificacionReserva is the message published per reservation change.
type NotificacionReserva struct {
	Codigo   string `json:"codigo"`
	Evento   string `json:"evento"`
	Estado   string `json:"estado"`
	Email    string `json:"email"`
	Cantidad int    `json:"cantidad"`
}

// Estados que viajan en la notificación.
const (
	EstadoConfirmada = "confirmada"
	EstadoCancelada  = "cancelada"
	EstadoRechazada  = "rechazada"
)

type Productor struct {
	writer *kafka.Writer
	topico string
}

// NuevoProductor builds a writer for the reservation topic, creating
// the topic first when the broker allows it.
func NuevoProductor(brokers []string, topico string, particiones, replicas int) (*Productor, error) {
	if err := crearTopico(brokers[0], topico, particiones, replicas); err != nil {
		return nil, err
	}
	return &Productor{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topico,
			Balancer: &kafka.LeastBytes{},
		},
		topico: topico,
	}, nil
}

// Publicar sends one reservation notification keyed by its code.
func (p *Productor) Publicar(ctx context.Context, n *NotificacionReserva) error {
	valor, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("publicar notificación: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(n.Codigo),
		Value: valor,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar notificación: %w", err)
	}
	return nil
}

func (p *Productor) Cerrar() error {
	return p.writer.Close()
}

func crearTopico(broker, topico string, particiones, replicas int) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("crear tópico: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("crear tópico: %w", err)
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("crear tópico: %w", err)
	}
	defer controllerConn.Close()

	return controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topico,
		NumPartitions:     particiones,
		ReplicationFactor: replicas,
	})
}

// MensajeRecibido pairs a fetched message with its reader so the caller
// commits only after processing succeeds.
type MensajeRecibido struct {
	Mensaje *kafka.Message
	Reader  *kafka.Reader
}

// RecibirMensajes ensures the topics exist and streams messages into the
// mensajes channel from a goroutine; fetch errors go to errores.
func RecibirMensajes(brokers []string, grupo string, topicos []string, particiones, replicas int, mensajes chan<- MensajeRecibido, errores chan<- error) error {
	for _, topico := range topicos {
		if err := crearTopico(brokers[0], topico, particiones, replicas); err != nil {
			return err
		}
	}
	go func() {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			GroupTopics: topicos,
			GroupID:     grupo,
		})
		for {
			msg, err := reader.FetchMessage(context.Background())
			if err != nil {
				errores <- err
			} else {
				mensajes <- MensajeRecibido{Mensaje: &msg, Reader: reader}
			}
		}
	}()
	return nil
}
