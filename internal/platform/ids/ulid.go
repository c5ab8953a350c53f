// Pacote ids gera identificadores de votos (ULID) e de candidatos (UUID).
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marcelojr/votacao-candidatos/internal/domain"
)

// Generator emite ULIDs monotônicos. O timestamp do id vem do mesmo instante gravado em
// created_at, então ordenar por id e por horário dá o mesmo resultado.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *Generator) NewAt(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}

func (g *Generator) New() string {
	return g.NewAt(time.Now().UTC())
}

func (g *Generator) NewVoteID(at time.Time) domain.VoteID {
	return domain.VoteID(g.NewAt(at))
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func DefaultGenerator() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewGenerator()
	})
	return defaultGen
}

func NewULID() string {
	return DefaultGenerator().New()
}
