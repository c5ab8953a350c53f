package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: é por conexão; uma só garante que todos veem as mesmas tabelas.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestRun_DeveCriarTabelasEIndiceUnico(t *testing.T) {
	db := openDB(t)

	require.NoError(t, Run(db))

	assert.True(t, db.Migrator().HasTable("applicants"))
	assert.True(t, db.Migrator().HasTable("votes"))
	assert.True(t, db.Migrator().HasIndex(&domain.Vote{}, "idx_votes_unique_key"))
	assert.True(t, db.Migrator().HasIndex(&domain.Vote{}, "idx_votes_applicant_created_at"))

	// Rodar de novo não deve reaplicar versões já registradas.
	require.NoError(t, Run(db))

	var aplicadas int64
	require.NoError(t, db.Table("migrations").Count(&aplicadas).Error)
	assert.Equal(t, int64(len(versions())), aplicadas)
}

func TestRollbackLast_DeveDesfazerSomenteUltimaVersao(t *testing.T) {
	db := openDB(t)
	require.NoError(t, Run(db))

	require.NoError(t, RollbackLast(db))

	var ids []string
	require.NoError(t, db.Table("migrations").Pluck("id", &ids).Error)
	assert.NotContains(t, ids, checksVersion)
	assert.True(t, db.Migrator().HasTable("votes"))

	require.NoError(t, Run(db))
}

func TestRun_QuandoDBNulo_DeveFalhar(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, RollbackLast(nil))
}
