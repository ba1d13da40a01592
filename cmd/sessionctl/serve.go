package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/server"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout    = 5 * time.Second
	watchPollInterval  = time.Second
	serveReadHeaderMax = 10 * time.Second
)

func runWatch(cmdCtx *commandContext, args []string) error {
	if err := noArgs("watch", args); err != nil {
		return err
	}
	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	sess, err := a.gateway.Resume(cmdCtx.Ctx)
	if err != nil {
		return err
	}
	if sess == nil {
		return errors.ErrSessionNotFound
	}
	if !a.scheduler.Running() {
		return fmt.Errorf("token refresh is disabled (REFRESH_TOKEN_ENABLED=false)")
	}

	displayAppname(cmdCtx.Config.GetAppName())
	log.Info().Str("username", sess.User.Username).Dur("interval", cmdCtx.Config.GetRefreshInterval()).Msg("Watching session")

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopped watching, session kept")
			return nil
		case <-ticker.C:
			// A failed refresh forces a logout, which stops the scheduler.
			if !a.scheduler.Running() {
				return fmt.Errorf("session ended: %w", errors.ErrRefreshFailed)
			}
		}
	}
}

func runServe(cmdCtx *commandContext, args []string) error {
	if err := noArgs("serve", args); err != nil {
		return err
	}
	a, err := cmdCtx.getApp()
	if err != nil {
		return err
	}

	if _, err := a.gateway.Resume(cmdCtx.Ctx); err != nil {
		return err
	}

	handler, err := server.New(cmdCtx.Config, server.Deps{
		Gateway:   a.gateway,
		Sessions:  a.store,
		Router:    a.router,
		Gate:      a.gate,
		Resources: a.client,
	})
	if err != nil {
		return err
	}

	displayAppname(cmdCtx.Config.GetAppName())
	srv := &http.Server{
		Addr:              cmdCtx.Config.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: serveReadHeaderMax,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal(cmdCtx.Ctx):
	}
	return shutdown(srv)
}

func listenAndServe(srv *http.Server) error {
	log.Info().Str("addr", srv.Addr).Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(stop)
		select {
		case <-stop:
		case <-ctx.Done():
		}
	}()
	return done
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("Server stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
