// Command server runs the challenge API: the in-memory domain store behind
// the challenge, friend, chat and notification facades, exposed over HTTP
// with a server-sent event stream of changes.
//
// @title       Challenge API
// @version     1.0
// @description Challenges, friends, chats and notifications over a shared domain store.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-challenge-backend/internal/bus"
	"github.com/tbourn/go-challenge-backend/internal/cache"
	"github.com/tbourn/go-challenge-backend/internal/config"
	httpapi "github.com/tbourn/go-challenge-backend/internal/http"
	"github.com/tbourn/go-challenge-backend/internal/http/handlers"
	"github.com/tbourn/go-challenge-backend/internal/observability"
	"github.com/tbourn/go-challenge-backend/internal/relay"
	"github.com/tbourn/go-challenge-backend/internal/repo"
	"github.com/tbourn/go-challenge-backend/internal/search"
	"github.com/tbourn/go-challenge-backend/internal/services"
	"github.com/tbourn/go-challenge-backend/internal/session"
	"github.com/tbourn/go-challenge-backend/internal/store"
	"github.com/tbourn/go-challenge-backend/internal/sysutil"
)

var version = "dev"

func main() {
	cfg := config.MustLoad()
	log := sysutil.NewLogger(cfg.OTEL.ServiceName, cfg.LogLevel, cfg.LogPretty, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	st := store.New()
	if cfg.SeedMockData {
		st.Seed()
	}
	b := bus.New(log)

	// The SQLite database holds idempotency records regardless of where the
	// session KV lives.
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	idem := repo.NewIdempotency(db, cfg.IdempotencyTTL)

	var rdb *redis.Client
	if cfg.Events.RedisURL != "" {
		if rdb, err = cache.ConnectRedis(ctx, cfg.Events.RedisURL); err != nil {
			return err
		}
		defer rdb.Close()
	}

	var kv session.KV
	switch cfg.KVBackend {
	case config.KVRedis:
		kv = cache.NewRedisKV(rdb, "challenges:", 0)
	case config.KVMemory:
		kv = session.NewMemoryKV()
	default:
		kv = repo.NewKV(db)
	}

	sess := session.New(kv, st, b, log)
	defer sess.Close()
	if u, ok := sess.Resolve(ctx); ok {
		log.Info().Str("user_id", u.ID).Msg("session restored")
	} else if cfg.SessionUserID != "" {
		if _, err := sess.Login(ctx, cfg.SessionUserID); err != nil {
			log.Warn().Err(err).Str("user_id", cfg.SessionUserID).Msg("boot session user unavailable")
		}
	}

	favs := session.NewFavoritesCache(kv, b, log)
	defer favs.Close()

	d := services.Deps{
		Store:    st,
		Bus:      b,
		Identity: sess,
		Latency:  services.Latency{Min: cfg.Latency.Min, Max: cfg.Latency.Max},
		Logger:   log,
		Validate: services.NewValidator(),
	}
	challenges := services.NewChallengeService(d)
	challenges.EnforceCreatorDecisions = cfg.EnforceCreatorDecisions
	challenges.Cache = favs
	challenges.Index = search.NewLive()
	challenges.IndexAll()

	if cfg.Events.Relay {
		rl, closeRelay, err := newRelay(cfg, rdb, log)
		if err != nil {
			return err
		}
		defer closeRelay()
		unsubscribe := b.Subscribe(rl.Observe)
		rctx, cancel := context.WithCancel(context.Background())
		go rl.Run(rctx)
		defer func() {
			unsubscribe()
			cancel()
			rl.Wait()
		}()
	}

	go purgeIdempotency(ctx, idem, cfg.IdempotencyTTL, log)

	h := handlers.New(handlers.Services{
		Challenges:    challenges,
		Friends:       services.NewFriendService(d),
		Chats:         services.NewChatService(d),
		Notifications: services.NewNotificationService(d),
		Users:         services.NewUserService(d),
		Session:       sess,
		Events:        b,
	})

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	// Compressing the event stream would buffer it.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs([]string{`.*/events$`})))
	httpapi.RegisterRoutes(r, httpapi.Dependencies{
		Handlers:    h,
		Session:     sess,
		Idempotency: idem,
		Logger:      log,
	}, cfg)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	// WriteTimeout would cut event streams; handlers are bounded by the
	// simulated latency instead.

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

// newRelay connects the configured brokers. The returned func closes them.
func newRelay(cfg config.Config, rdb *redis.Client, log zerolog.Logger) (*relay.Relay, func(), error) {
	opts := relay.Options{Redis: rdb, Channel: cfg.Events.Channel}
	var nc *nats.Conn
	if cfg.Events.NATSURL != "" {
		var err error
		if nc, err = relay.ConnectNATS(cfg.Events.NATSURL, cfg.OTEL.ServiceName, log); err != nil {
			return nil, nil, err
		}
		opts.NATS = nc
	}
	closeFn := func() {
		if nc != nil {
			_ = nc.Drain()
		}
	}
	return relay.New(opts, log), closeFn, nil
}

func purgeIdempotency(ctx context.Context, idem *repo.Idempotency, every time.Duration, log zerolog.Logger) {
	if every < time.Minute {
		every = time.Minute
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := idem.Purge(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				log.Debug().Int64("purged", n).Msg("expired idempotency records removed")
			}
		}
	}
}
