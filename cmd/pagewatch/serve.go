package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/aleister1102/pagewatch/internal/auth"
	"github.com/aleister1102/pagewatch/internal/bus"
	"github.com/aleister1102/pagewatch/internal/commands"
	"github.com/aleister1102/pagewatch/internal/monitor"
	"github.com/aleister1102/pagewatch/internal/server"
	"github.com/coder/websocket"
	"github.com/oklog/run"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the link monitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(a)
		},
	}
}

func serve(a *app) error {
	dispatcher := bus.NewDispatcher(a.logger)
	commands.New(a.store, a.monitor, a.registry, a.logger).Register(dispatcher)

	hub := bus.NewHub(a.registry, dispatcher, server.OriginHosts(a.cfg.ServerConfig.AllowedOrigins), a.logger)
	authn := auth.NewAuthenticator(a.cfg.AuthConfig, a.logger)

	srv, err := server.New(a.cfg.ServerConfig, hub, a.store, authn, a.logger)
	if err != nil {
		return err
	}
	srv.WithDiagnostics(a.diagnostics)

	var g run.Group
	{
		g.Add(func() error {
			a.logger.Info().Str("addr", srv.Addr).Msg("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error().Err(err).Msg("Error shutting down server")
			}
			// Hijacked connections outlive Shutdown.
			for _, s := range a.registry.Sessions() {
				_ = s.Close(websocket.StatusGoingAway, "server shutting down")
			}
		})
	}
	{
		ctx, cancel := context.WithCancel(context.Background())
		scheduler := monitor.NewScheduler(a.cfg.MonitorConfig, a.monitor, a.logger)
		g.Add(func() error {
			return scheduler.Run(ctx)
		}, func(error) {
			cancel()
		})
	}
	g.Add(run.SignalHandler(context.Background(), os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) || errors.Is(err, context.Canceled) {
		a.logger.Info().Str("reason", err.Error()).Msg("Shut down")
		return nil
	}
	return err
}
