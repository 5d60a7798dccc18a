package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/pribylovaa/bookshelf/internal/cache"
	"github.com/pribylovaa/bookshelf/internal/config"
	bshttp "github.com/pribylovaa/bookshelf/internal/http"
	"github.com/pribylovaa/bookshelf/internal/http/middleware"
	"github.com/pribylovaa/bookshelf/internal/keepalive"
	"github.com/pribylovaa/bookshelf/internal/oauth"
	"github.com/pribylovaa/bookshelf/internal/service"
	"github.com/pribylovaa/bookshelf/internal/storage/minio"
	"github.com/pribylovaa/bookshelf/internal/storage/mongo"
	"github.com/pribylovaa/bookshelf/internal/tokens"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting bookshelf", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к MongoDB c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := mongo.New(dbCtx, cfg)
	dbCancel()
	if err != nil {
		log.Error("mongo_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if cerr := str.Close(context.Background()); cerr != nil {
			log.Warn("mongo_close_failed", slog.String("err", cerr.Error()))
		}
	}()
	log.Info("mongo_connected")

	issuer, err := tokens.NewIssuer(cfg.Auth)
	if err != nil {
		log.Error("token_issuer_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	srvc := service.New(str, issuer, cfg)

	var limiter cache.Limiter
	if cfg.Redis.Enabled() {
		rdb, err := cache.NewRedisClient(rootCtx, cfg.Redis.URL)
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer closeRedis(rdb, log)
		log.Info("redis_connected")

		limiter = cache.NewRedisLimiter(rdb, cfg.Redis.Prefix)

		if cfg.Google.Enabled() {
			srvc.SetGoogle(oauth.NewGoogle(cfg.Google), cache.NewStateStore(rdb, cfg.Redis.Prefix))
			log.Info("google_oauth_enabled")
		}
	} else {
		mem := cache.NewMemoryLimiter()
		startLimiterJanitor(rootCtx, mem, log, time.Minute)
		limiter = mem
	}

	if cfg.S3.Enabled() {
		s3Ctx, s3Cancel := context.WithTimeout(rootCtx, 10*time.Second)
		avatars, err := minio.New(s3Ctx, cfg.S3, cfg.Avatar)
		s3Cancel()
		if err != nil {
			log.Error("s3_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		srvc.SetAvatars(avatars)
		log.Info("avatars_storage_enabled", slog.String("bucket", cfg.S3.Bucket))
	}

	log.Info("service_initialized")

	ipResolver, err := middleware.NewClientIPResolver(cfg.HTTP.TrustProxy, cfg.HTTP.TrustedProxies)
	if err != nil {
		log.Error("client_ip_resolver_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	// Метрики: собственный реестр с runtime-коллекторами.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	apiHandler := bshttp.NewRouter(srvc, bshttp.Options{
		Logger:      log,
		Timeout:     cfg.Timeouts.Service,
		BasePath:    cfg.HTTP.BasePath,
		Debug:       cfg.Debug(),
		Auth:        cfg.Auth,
		CORS:        cfg.CORS,
		RateLimit:   cfg.RateLimit,
		Limiter:     limiter,
		ClientIP:    ipResolver.ClientIP,
		Metrics:     middleware.NewMetrics(reg),
		RedirectURL: cfg.Google.SuccessRedirectURL,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&ready) != 1 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := str.Ping(ctx); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	keepalive.New(cfg.KeepAlive, log).Start(rootCtx)

	atomic.StoreInt32(&ready, 1)
	log.Info("bookshelf_ready")

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Shutdown)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func closeRedis(rdb *redis.Client, log *slog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Warn("redis_close_failed", slog.String("err", err.Error()))
	}
}

// startLimiterJanitor периодически удаляет истёкшие окна in-memory лимитера.
func startLimiterJanitor(ctx context.Context, l *cache.MemoryLimiter, log *slog.Logger, period time.Duration) {
	go func() {
		t := time.NewTicker(period)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := l.Sweep(); n > 0 {
					log.Debug("limiter_swept", slog.Int("removed", n))
				}
			}
		}
	}()
}
