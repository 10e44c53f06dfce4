package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// ZapLogger é a implementação concreta da interface Logger sobre o go.uber.org/zap.
// Saída JSON estruturada com timestamp ISO8601.
type ZapLogger struct {
	base *zap.Logger
}

// NewLogger cria e retorna uma nova instância do Logger.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	// AddCallerSkip(1): o caller registrado deve ser quem chamou o adaptador, não o adaptador.
	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return &ZapLogger{base: base}
}

// NewNop retorna um Logger que descarta tudo. Útil em testes de carga/concorrência.
func NewNop() Logger {
	return &ZapLogger{base: zap.NewNop()}
}

// Named retorna um logger filho com o nome do componente (e.g., "inventoryservice").
func Named(l Logger, component string) Logger {
	zl, ok := l.(*ZapLogger)
	if !ok {
		return l
	}
	return &ZapLogger{base: zl.base.Named(component)}
}

// Sync descarrega buffers pendentes. Chamado no encerramento do main.go.
func Sync(l Logger) {
	if zl, ok := l.(*ZapLogger); ok {
		_ = zl.base.Sync()
	}
}

// parseLevel implementa o mapeamento do LOG_LEVEL. Valores desconhecidos viram info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

// Implementações da Interface Logger

func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.base.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.base.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.base.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(msg string, err error) {
	l.base.Error(msg, zap.Error(err))
}

// Fatal registra a mensagem e encerra o processo (os.Exit(1) via zap).
func (l *ZapLogger) Fatal(msg string, err error) {
	l.base.Fatal(msg, zap.Error(err))
}
