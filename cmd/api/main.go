// Executável principal da API: carrega a configuração, inicializa dependências e sobe o servidor HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/marcelojr/votacao-candidatos/internal/app/httpapi"
	"github.com/marcelojr/votacao-candidatos/internal/app/voting"
	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/antifraude"
	"github.com/marcelojr/votacao-candidatos/internal/platform/clock"
	"github.com/marcelojr/votacao-candidatos/internal/platform/config"
	"github.com/marcelojr/votacao-candidatos/internal/platform/health"
	"github.com/marcelojr/votacao-candidatos/internal/platform/ids"
	"github.com/marcelojr/votacao-candidatos/internal/platform/lock"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
	"github.com/marcelojr/votacao-candidatos/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/votacao-candidatos/internal/platform/storage/postgres"
	redisstorage "github.com/marcelojr/votacao-candidatos/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(cfg.LogLevel)

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(),
		postgresstorage.WithMaxOpenConns(cfg.PostgresMaxConns),
		postgresstorage.WithStartupTimeout(cfg.StartupTimeout),
	)
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		if err := migrations.Run(db); err != nil {
			logger.Fatal("falha na migracao automatica", "err", err)
		}
	}

	// Redis é opcional: sem ele não há projeção, rate limit nem lock distribuído.
	var (
		redisClient *redis.Client
		contador    domain.Contador
		fila        domain.Fila
	)
	if cfg.RedisEnabled() {
		redisClient, err = redisstorage.NewClient(ctx, redisstorage.Options{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			StartupTimeout: cfg.StartupTimeout,
		})
		if err != nil {
			logger.Fatal("falha ao conectar no redis", "err", err)
		}
		defer redisClient.Close()

		contador = redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
		fila = redisstorage.NewFila(redisClient, cfg.FilaKey)
	}

	var locker domain.KeyLocker
	switch cfg.LockBackend {
	case config.LockBackendRedis:
		locker = lock.NewRedisLocker(redisClient, cfg.LockTTL, cfg.LockKeyPrefix)
	case config.LockBackendLocal:
		locker = lock.NewKeyedMutex()
	}

	var antifraudeSvc domain.Antifraude
	if cfg.RateLimitEnabled && redisClient != nil {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		antifraudeSvc = antifraude.NewRedisRateLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	applicantRepo := postgresstorage.NewApplicantRepository(db)
	voteRepo := postgresstorage.NewVoteRepository(db)

	ledger := voting.NewLedger(voteRepo, applicantRepo, clock.NewSystemClock(), ids.NewGenerator())
	tally := voting.NewTally(ledger)
	gateway := voting.NewGateway(ledger, tally, locker, antifraudeSvc, fila, voting.GatewayOptions{
		MaxRetries:   uint64(max(cfg.VoteMaxRetries, 0)),
		StoreTimeout: cfg.StoreTimeout,
	})
	applicants := voting.NewApplicantService(applicantRepo, tally, contador, cfg.TallyConcurrency)
	servico := voting.NewService(ledger, tally, gateway, applicants)

	checker := health.NewChecker(sqlDB, redisClient)
	api := httpapi.New(servico, logger.Component("httpapi"), httpapi.WithAuthenticator(httpapi.NewAuthenticator(cfg.AuthJWTSecret, cfg.AuthJWTIssuer)))

	router := api.Handler()
	router.Get("/readyz", checker.ReadyHandler())
	router.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("erro no shutdown do servidor", "err", err)
		}
	}()

	logger.Info("api ouvindo", "addr", cfg.HTTPAddress, "lock", cfg.LockBackend, "redis", cfg.RedisEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("erro no servidor", "err", err)
	}
	logger.Info("api finalizada")
}
