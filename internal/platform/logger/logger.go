// Pacote logger expõe o slog JSON compartilhado pelos binários de votação.
package logger

import (
	"io"
	"log/slog"
	"os"
)

var (
	level         = new(slog.LevelVar)
	defaultLogger = New(os.Stdout)
)

// New cria um logger JSON que respeita o nível global, inclusive quando ele muda depois.
func New(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func L() *slog.Logger {
	return defaultLogger
}

// Component devolve um logger com o campo "component" fixo, usado por cada binário e handler.
func Component(name string) *slog.Logger {
	return defaultLogger.With("component", name)
}

func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput troca o destino do logger global; os testes usam para capturar linhas.
func SetOutput(w io.Writer) {
	defaultLogger = New(w)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}
