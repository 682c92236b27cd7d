package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

// EventPublisher はドメインイベントを tx と同じ単位で発行する
type EventPublisher interface {
	Publish(ctx context.Context, tx transaction.Tx, event any) error
}

// AvailabilityCache は表示用の空席情報キャッシュ
// 取得エラーはすべてキャッシュミスとして扱う
type AvailabilityCache interface {
	Get(ctx context.Context, flightID, classID int64) (*flight.Availability, error)
	Set(ctx context.Context, a *flight.Availability, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...flight.OfferingKey) error
}

// invalidate はコミット後に表示キャッシュを破棄する。失敗しても処理結果には影響しない
func invalidate(ctx context.Context, cache AvailabilityCache, keys ...flight.OfferingKey) {
	if cache == nil || len(keys) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, keys...); err != nil {
		logger.Warn("空席キャッシュの無効化に失敗", zap.Error(err), zap.Int("keys", len(keys)))
	}
}
