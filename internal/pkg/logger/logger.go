package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "airline-reservation"

var log = NewLogger("development")

// Init は環境に応じたロガーを作成してパッケージのロガーとして設定する
func Init(env string) *zap.Logger {
	l := NewLogger(env).With(zap.String("service", serviceName))
	Set(l)
	return l
}

// NewLogger は env が production なら JSON、それ以外は開発用のロガーを作成する
// LOG_LEVEL でレベルを上書きできる
func NewLogger(env string) *zap.Logger {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level, ok := levelFromEnv(os.Getenv("LOG_LEVEL")); ok {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// levelFromEnv は空や解釈できない値なら ok=false を返し、環境ごとの既定レベルを残す
func levelFromEnv(raw string) (zapcore.Level, bool) {
	if raw == "" {
		return zapcore.InfoLevel, false
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return zapcore.InfoLevel, false
	}
	return level, true
}

// Component はワーカーやイベント転送などの構成要素ごとに component を付けたロガーを返す
func Component(name string) *zap.Logger {
	return log.With(zap.String("component", name))
}

func Get() *zap.Logger {
	return log
}

func Set(l *zap.Logger) {
	log = l
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Sync() error {
	return log.Sync()
}
