package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taquillapp/taquilla/internal/config"
	"github.com/taquillapp/taquilla/internal/handler"
	"github.com/taquillapp/taquilla/internal/notify"
	"github.com/taquillapp/taquilla/internal/pasarela"
	"github.com/taquillapp/taquilla/internal/service"
	"github.com/taquillapp/taquilla/internal/store"
	"github.com/taquillapp/taquilla/internal/sweeper"
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

	st, err := store.New(cfg.Mongo.URL, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("no se pudo conectar a mongo", "url", cfg.Mongo.URL, "error", err)
	}
	defer st.Close()
	log.Info("conectado a mongo", "database", cfg.Mongo.Database)

	gateway := pasarela.NewClient(pasarela.Config{
		BaseURL:     cfg.Pasarela.BaseURL,
		AccessToken: cfg.Pasarela.AccessToken,
		Timeout:     cfg.Pasarela.Timeout,
	})

	notificador := service.NotificadorNulo()
	if cfg.Kafka.Enabled {
		productor, err := notify.NuevoProductor(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.Replicas)
		if err != nil {
			log.Fatal("no se pudo conectar a kafka", "brokers", cfg.Kafka.Brokers, "error", err)
		}
		defer productor.Cerrar()
		notificador = productor
		log.Info("notificaciones habilitadas", "topico", cfg.Kafka.Topic)
	}

	eventos := st.Eventos()
	reservas := st.Reservas()

	svcEventos := service.NuevosEventos(eventos, log)
	svcReservas := service.NuevasReservas(eventos, reservas, notificador, log)
	svcPagos := service.NuevosPagos(eventos, reservas, st.DLQ(), gateway, notificador, service.URLs{
		Frontend: cfg.Pasarela.FrontendURL,
		Backend:  cfg.Pasarela.BackendURL,
	}, log)
	svcReportes := service.NuevosReportes(eventos, reservas, log)

	ctx, cancelar := context.WithCancel(context.Background())
	defer cancelar()
	go sweeper.New(eventos, log).Start(ctx)

	router := handler.NuevoRouter(handler.Handlers{
		Eventos:  handler.NuevosEventos(svcEventos, cfg.Development()),
		Reservas: handler.NuevasReservas(svcReservas, cfg.Development()),
		Pagos:    handler.NuevosPagos(svcPagos, log, cfg.Development()),
		Reportes: handler.NuevosReportes(svcReportes, cfg.Development()),
		Health:   handler.NuevoHealth(st, cfg.Env),
	}, log)

	servidor := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errores := make(chan error, 1)
	go func() {
		log.Info("servidor escuchando", "puerto", cfg.Server.Port, "entorno", cfg.Env)
		errores <- servidor.ListenAndServe()
	}()

	senales := make(chan os.Signal, 1)
	signal.Notify(senales, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errores:
		log.Error("el servidor terminó con error", "error", err)
	case senal := <-senales:
		log.Info("apagando el servidor", "senal", senal.String())
		apagado, cancelarApagado := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelarApagado()
		if err := servidor.Shutdown(apagado); err != nil {
			log.Error("apagado forzado", "error", err)
		}
	}
	cancelar()
}
