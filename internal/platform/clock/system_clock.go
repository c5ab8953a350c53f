package clock

import "time"

type SystemClock struct{}

func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Agora devolve o instante em UTC truncado em microssegundos, a precisão do timestamp do Postgres.
func (SystemClock) Agora() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Fixed é um relógio parado usado por testes e pela carga de candidatos.
type Fixed struct {
	Now time.Time
}

func (f Fixed) Agora() time.Time {
	return f.Now
}
