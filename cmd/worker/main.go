// Worker que reconcilia a projeção de contagens e consome os recibos de voto da fila Redis.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marcelojr/votacao-candidatos/internal/app/worker"
	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/clock"
	"github.com/marcelojr/votacao-candidatos/internal/platform/config"
	"github.com/marcelojr/votacao-candidatos/internal/platform/health"
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

	// A reconciliação lê o ledger, então o worker precisa do mesmo Postgres da API.
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

	// Redis é obrigatório aqui porque fila e contador vivem sobre a mesma instância.
	if !cfg.RedisEnabled() {
		logger.Fatal("worker exige REDIS_ADDR")
	}
	redisClient, err := redisstorage.NewClient(ctx, redisstorage.Options{
		Addr:           cfg.RedisAddr,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		StartupTimeout: cfg.StartupTimeout,
	})
	if err != nil {
		logger.Fatal("falha ao conectar no redis", "err", err)
	}
	defer redisClient.Close()

	contador := redisstorage.NewContador(redisClient, cfg.ContadorKeyPrefix)
	fila := redisstorage.NewFila(redisClient, cfg.FilaKey)
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics ouvindo", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("erro no servidor de metrics do worker", "err", err)
			}
		}()
	}

	processor := worker.NewVoteProcessor(
		contador,
		postgresstorage.NewApplicantRepository(db),
		postgresstorage.NewVoteRepository(db),
		clock.NewSystemClock(),
	)

	if err := processor.Reconciliar(ctx); err != nil {
		logger.Fatal("falha ao reconciliar projecao", "err", err)
	}

	go processor.ReconciliarACada(ctx, cfg.WorkerReconcileInterval)

	logger.Info("worker iniciado, aguardando recibos", "reconciliacao", cfg.WorkerReconcileInterval)
	err = fila.ConsumirVotos(ctx, func(ctx context.Context, recibo domain.VoteReceipt) error {
		// Um recibo com erro não para o consumo; a próxima reconciliação corrige a contagem.
		if err := processor.Process(ctx, recibo); err != nil {
			logger.Error("erro ao processar recibo", "vote", recibo.VoteID, "err", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker finalizado com erro", "err", err)
	}

	logger.Info("worker finalizado")
}
