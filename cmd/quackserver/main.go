package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"quack/config"
	"quack/network"
	"quack/room"
)

func main() {
	app := &cli.App{
		Name:  "quackserver",
		Usage: "serve duck herding rooms over websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (ADDR)"},
			&cli.IntFlag{Name: "max-clients", Usage: "players per room (MAX_CLIENTS)"},
			&cli.StringFlag{Name: "codec", Usage: "default wire codec, json or msgpack (CODEC)"},
			&cli.StringFlag{Name: "allowed-origin", Usage: "only accept websocket upgrades from this origin"},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional env file"},
			&cli.BoolFlag{Name: "debug", Usage: "log broadcast sizes"},
		},
		Action: serve,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	config.InitConfig(c.String("env-file"))
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("max-clients") {
		cfg.MaxClients = c.Int("max-clients")
	}
	if c.IsSet("codec") {
		cfg.Codec = c.String("codec")
	}
	if c.IsSet("allowed-origin") {
		cfg.AllowedOrigin = c.String("allowed-origin")
	}
	return cfg, cfg.Validate()
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)

	tuning := cfg.Tuning
	manager := room.NewManager(room.NewMemoryRegistry(), room.Options{
		MaxClients:  cfg.MaxClients,
		TickHz:      cfg.SimTickHz,
		BroadcastHz: cfg.BroadcastHz,
		Tuning:      &tuning,
		Logger:      logger,
		Debug:       c.Bool("debug"),
	})
	srv := network.NewServer(manager, network.ServerConfig{
		Logger:        logger,
		AllowedOrigin: cfg.AllowedOrigin,
		InputRate:     cfg.InputRate,
		InputBurst:    cfg.InputBurst,
		DefaultCodec:  cfg.Codec,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", cfg.Addr)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		manager.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	logger.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	manager.Close()
	return err
}
