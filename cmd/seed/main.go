// Carga administrativa do catálogo: lê candidatos de um JSON e grava em lote no Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/marcelojr/votacao-candidatos/internal/app/voting"
	"github.com/marcelojr/votacao-candidatos/internal/domain"
	"github.com/marcelojr/votacao-candidatos/internal/platform/config"
	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
	"github.com/marcelojr/votacao-candidatos/internal/platform/migrations"
	postgresstorage "github.com/marcelojr/votacao-candidatos/internal/platform/storage/postgres"
)

func main() {
	file := flag.String("file", "applicants.json", "arquivo JSON com a lista de candidatos")
	rollback := flag.Bool("rollback", false, "desfaz a ultima migracao e sai")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuracao invalida", "err", err)
	}
	logger.SetLevel(cfg.LogLevel)

	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN(), postgresstorage.WithStartupTimeout(cfg.StartupTimeout))
	if err != nil {
		logger.Fatal("falha ao conectar no postgres", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("falha ao resgatar sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if *rollback {
		if err := migrations.RollbackLast(db); err != nil {
			logger.Fatal("falha ao desfazer migracao", "err", err)
		}
		logger.Info("ultima migracao desfeita")
		return
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		logger.Fatal("falha ao ler arquivo de candidatos", "file", *file, "err", err)
	}
	var applicants []domain.Applicant
	if err := json.Unmarshal(raw, &applicants); err != nil {
		logger.Fatal("arquivo de candidatos invalido", "file", *file, "err", err)
	}

	if err := migrations.Run(db); err != nil {
		logger.Fatal("falha na migracao", "err", err)
	}

	catalogo := voting.NewApplicantService(postgresstorage.NewApplicantRepository(db), nil, nil, 0)
	created, err := catalogo.CreateApplicants(ctx, applicants)
	if err != nil {
		logger.Fatal("falha ao gravar candidatos", "err", err)
	}

	for _, a := range created {
		logger.Info("candidato cadastrado", "applicant", a.ID, "name", a.Name, "surname", a.Surname, "faculty", a.Faculty)
	}
	logger.Info("carga concluida", "total", len(created))
}
