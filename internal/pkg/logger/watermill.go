package logger

import (
	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
)

// WatermillAdapter は zap.Logger を watermill.LoggerAdapter として使う
type WatermillAdapter struct {
	l *zap.Logger
}

// NewWatermillAdapter は watermill 用のロガーを作成する
func NewWatermillAdapter(l *zap.Logger) *WatermillAdapter {
	return &WatermillAdapter{l: l.With(zap.String("component", "watermill"))}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.l.Error(msg, append(toZapFields(fields), zap.Error(err))...)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.l.Info(msg, toZapFields(fields)...)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.l.Debug(msg, toZapFields(fields)...)
}

// Trace は zap にレベルがないため Debug で出力する
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.l.Debug(msg, toZapFields(fields)...)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{l: a.l.With(toZapFields(fields)...)}
}

func toZapFields(fields watermill.LogFields) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return zf
}

var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)
