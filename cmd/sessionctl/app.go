package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jrsteele09/go-session-client/api"
	"github.com/jrsteele09/go-session-client/auth"
	"github.com/jrsteele09/go-session-client/internal/config"
	"github.com/jrsteele09/go-session-client/navigation"
	"github.com/jrsteele09/go-session-client/sessions"
	"github.com/jrsteele09/go-session-client/storage"
	"github.com/jrsteele09/go-session-client/storage/filerepo"
	"github.com/jrsteele09/go-session-client/storage/redisrepo"
	"github.com/jrsteele09/go-session-client/storage/repofake"
	"github.com/jrsteele09/go-session-client/token/refresh"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const redisPingTimeout = 3 * time.Second

// app is the wired session client.
type app struct {
	store     *sessions.Store
	client    *api.Client
	scheduler *refresh.Scheduler
	router    *navigation.Router
	gate      *navigation.Gate
	gateway   *auth.Gateway

	closers []func() error
}

func (c *commandContext) getApp() (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := newApp(c.Ctx, c.Config, c.Out, c.Err)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() {
	if c.app == nil {
		return
	}
	c.app.scheduler.Stop()
	for _, closeFn := range c.app.closers {
		if err := closeFn(); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
}

func newApp(ctx context.Context, cfg config.Config, out, errOut io.Writer) (*app, error) {
	a := &app{}

	repo, closeRepo, err := openRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closeRepo != nil {
		a.closers = append(a.closers, closeRepo)
	}

	a.store, err = sessions.NewStore(repo, sessions.Keys{
		Access:  cfg.GetAccessTokenKey(),
		Refresh: cfg.GetRefreshTokenKey(),
		User:    cfg.GetUserKey(),
	})
	if err != nil {
		return nil, err
	}

	a.client, err = api.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	a.scheduler, err = refresh.NewScheduler(a.client, a.store,
		refresh.WithInterval(cfg.GetRefreshInterval()),
		refresh.WithRequestTimeout(cfg.GetRequestTimeout()),
	)
	if err != nil {
		return nil, err
	}

	a.router, err = navigation.NewRouter(navigation.RoutesFromConfig(cfg),
		navigation.WithDefaultNavigator(navigation.NavigatorFunc(func(_ context.Context, route string) {
			fmt.Fprintf(out, "-> %s\n", route)
		})),
		navigation.WithDefaultAlerter(navigation.WriterAlerter{W: errOut}),
	)
	if err != nil {
		return nil, err
	}

	a.gate, err = navigation.NewGate(a.store, a.router)
	if err != nil {
		return nil, err
	}

	a.gateway, err = auth.NewGateway(a.client, a.store, a.scheduler, a.router,
		auth.WithRefreshEnabled(cfg.GetRefreshEnabled()),
		auth.WithLogoutTimeout(cfg.GetRequestTimeout()),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// openRepo opens the configured storage backend. The returned close function
// may be nil.
func openRepo(ctx context.Context, cfg config.StorageConfig) (storage.Repo, func() error, error) {
	switch cfg.GetStorageBackend() {
	case config.StorageBackendMemory:
		return repofake.NewFakeRepo(), nil, nil
	case config.StorageBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("[openRepo] redis %s: %w", cfg.GetRedisAddr(), err)
		}
		return redisrepo.NewWithPrefix(client, cfg.GetRedisPrefix()), client.Close, nil
	case config.StorageBackendFile:
		repo, err := filerepo.New(cfg.GetStorageFile())
		if err != nil {
			return nil, nil, fmt.Errorf("[openRepo] %w", err)
		}
		return repo, nil, nil
	default:
		return nil, nil, fmt.Errorf("[openRepo] unsupported storage backend %q", cfg.GetStorageBackend())
	}
}
