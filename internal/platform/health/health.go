// Pacote health responde o readiness de API e worker consultando as dependências em paralelo.
package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/marcelojr/votacao-candidatos/internal/platform/logger"
)

const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusDisabled    = "disabled"
)

type probe struct {
	name  string
	check func(context.Context) error
}

// Checker agrega sondas nomeadas. Dependência nil aparece como "disabled" e não derruba o readiness.
type Checker struct {
	probes  []probe
	timeout time.Duration
}

type Report struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (r Report) Healthy() bool { return r.Status == StatusOK }

// Failed lista, em ordem alfabética, os componentes indisponíveis.
func (r Report) Failed() []string {
	var out []string
	for name, status := range r.Components {
		if status != StatusOK && status != StatusDisabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func NewChecker(db *sql.DB, client *redis.Client) *Checker {
	c := &Checker{timeout: 2 * time.Second}

	var dbCheck, redisCheck func(context.Context) error
	if db != nil {
		dbCheck = db.PingContext
	}
	if client != nil {
		redisCheck = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	c.probes = []probe{{name: "postgres", check: dbCheck}, {name: "redis", check: redisCheck}}
	return c
}

func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := make([]string, len(c.probes))
	var g errgroup.Group
	for i, p := range c.probes {
		if p.check == nil {
			status[i] = StatusDisabled
			continue
		}
		// Group sem contexto derivado: uma sonda falha sem cancelar as demais.
		g.Go(func() error {
			if err := p.check(ctx); err != nil {
				status[i] = StatusUnavailable
				return fmt.Errorf("%s: %w", p.name, err)
			}
			status[i] = StatusOK
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("health: dependencia indisponivel", "err", err)
	}

	report := Report{Status: StatusOK, Components: make(map[string]string, len(c.probes))}
	for i, p := range c.probes {
		report.Components[p.name] = status[i]
		if status[i] == StatusUnavailable {
			report.Status = StatusUnavailable
		}
	}
	return report
}

func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := c.Check(r.Context())

		code := http.StatusOK
		if !report.Healthy() {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	}
}
