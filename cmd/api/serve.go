package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harentsoaR/reliefnet-api/internal/config"
	"github.com/harentsoaR/reliefnet-api/internal/handlers"
	"github.com/harentsoaR/reliefnet-api/internal/logging"
	"github.com/harentsoaR/reliefnet-api/internal/middleware"
	"github.com/harentsoaR/reliefnet-api/internal/objectstore"
	"github.com/harentsoaR/reliefnet-api/internal/realtime"
	"github.com/harentsoaR/reliefnet-api/internal/services"
	"github.com/harentsoaR/reliefnet-api/internal/store"
	"github.com/harentsoaR/reliefnet-api/internal/store/memstore"
	"github.com/harentsoaR/reliefnet-api/internal/store/mongostore"
	"github.com/harentsoaR/reliefnet-api/internal/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// --- Realtime ---
	hub := realtime.NewHub(log, cfg.CORS.AllowOrigins)
	var (
		publisher realtime.Publisher = hub
		relay     *realtime.RedisRelay
		limiter   middleware.Limiter
	)
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping %s: %w", cfg.Redis.Address, err)
		}
		relay = realtime.NewRedisRelay(rdb, cfg.Redis.Channel, hub, log)
		publisher = relay
		if cfg.Redis.CreateRateLimit > 0 {
			limiter = middleware.NewRedisLimiter(rdb, "reliefnet:ratelimit", cfg.Redis.CreateRateLimit, 24*time.Hour)
		}
		log.Info("redis enabled", zap.String("address", cfg.Redis.Address), zap.Int("createRateLimit", cfg.Redis.CreateRateLimit))
	}

	// --- Handlers ---
	h := handlers.NewHandler(st, tokens, services.NewNotificationService(publisher, log), log)
	h.BcryptCost = cfg.Auth.BcryptCost
	if cfg.Storage.Endpoint != "" {
		images, err := objectstore.NewMinIO(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		h.Images = images
		log.Info("image uploads enabled", zap.String("endpoint", cfg.Storage.Endpoint), zap.String("bucket", cfg.Storage.Bucket))
	}

	router := handlers.NewRouter(h, handlers.RouterOptions{
		Log:           log,
		Development:   cfg.Development(),
		AllowOrigins:  cfg.CORS.AllowOrigins,
		CreateLimiter: limiter,
		WebSocket:     hub.ServeWS,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}
	g.Go(func() error {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// openStore returns the configured store and a func releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*store.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		log.Warn("using the in-memory store, data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	client, err := mongostore.Connect(ctx, cfg.Store.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.Store.Database))
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
	return mongostore.New(ctx, client.Database(cfg.Store.Database), log), closeFn, nil
}
