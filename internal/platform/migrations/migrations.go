// Pacote migrations centraliza as versões gormigrate aplicadas na inicialização.
package migrations

import (
	"fmt"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

const checksVersion = "202411040003_checks"

func versions() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "202411040001_applicants",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Applicant{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("applicants")
			},
		},
		{
			// O índice único em unique_key é o que garante um voto por (eleitor, candidato).
			ID: "202411040002_votes",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Vote{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("votes")
			},
		},
		{
			// CHECKs só no Postgres; o SQLite dos testes não aceita ALTER TABLE ADD CONSTRAINT.
			ID: checksVersion,
			Migrate: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				return execAll(tx,
					`ALTER TABLE votes ADD CONSTRAINT chk_votes_vote_type CHECK (vote_type IN ('YES', 'NO'))`,
					`ALTER TABLE applicants ADD CONSTRAINT chk_applicants_age CHECK (age > 0)`,
					`ALTER TABLE applicants ADD CONSTRAINT chk_applicants_faculty CHECK (faculty IN ('WFiIS', 'WiEIT', 'WIMIP'))`,
				)
			},
			Rollback: func(tx *gorm.DB) error {
				if tx.Dialector.Name() != "postgres" {
					return nil
				}
				return execAll(tx,
					`ALTER TABLE votes DROP CONSTRAINT IF EXISTS chk_votes_vote_type`,
					`ALTER TABLE applicants DROP CONSTRAINT IF EXISTS chk_applicants_age`,
					`ALTER TABLE applicants DROP CONSTRAINT IF EXISTS chk_applicants_faculty`,
				)
			},
		},
	}
}

func execAll(tx *gorm.DB, stmts ...string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	if err := gormigrate.New(db, gormigrate.DefaultOptions, versions()).Migrate(); err != nil {
		return fmt.Errorf("migrations: falha ao aplicar: %w", err)
	}
	return nil
}

// RollbackLast desfaz a versão mais recente; usado pelo seed com -rollback.
func RollbackLast(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: db nulo")
	}

	if err := gormigrate.New(db, gormigrate.DefaultOptions, versions()).RollbackLast(); err != nil {
		return fmt.Errorf("migrations: falha ao desfazer: %w", err)
	}
	return nil
}
