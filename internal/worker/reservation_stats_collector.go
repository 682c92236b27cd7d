package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/metrics"
)

// ReservationCounter は状態別の予約数を返すインターフェース
type ReservationCounter interface {
	CountByStatus(ctx context.Context) (map[reservation.Status]int, error)
}

// ReservationStatsCollector は状態別の予約数を定期的にゲージへ反映するワーカー
type ReservationStatsCollector struct {
	reservations ReservationCounter
	metrics      *metrics.Metrics
	interval     time.Duration
	log          *zap.Logger
	stopCh       chan struct{}
	doneCh       chan struct{}
}

// DefaultStatsInterval は interval が 0 以下のときに使う集計間隔
const DefaultStatsInterval = 30 * time.Second

// NewReservationStatsCollector は新しいコレクターを作成
func NewReservationStatsCollector(rc ReservationCounter, m *metrics.Metrics, interval time.Duration) *ReservationStatsCollector {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &ReservationStatsCollector{
		reservations: rc,
		metrics:      m,
		interval:     interval,
		log:          logger.Component("reservation_stats"),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start はコレクターを開始し、停止するまでブロックする
// 起動直後に1回集計する
func (c *ReservationStatsCollector) Start(ctx context.Context) {
	c.log.Info("予約統計コレクター開始", zap.Duration("interval", c.interval))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.doneCh)

	c.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("予約統計コレクター停止（コンテキストキャンセル）")
			return
		case <-c.stopCh:
			c.log.Info("予約統計コレクター停止（シグナル受信）")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// Stop はコレクターを停止
func (c *ReservationStatsCollector) Stop() {
	close(c.stopCh)
	<-c.doneCh
}

var statusLabels = map[reservation.Status]string{
	reservation.StatusActive:    "active",
	reservation.StatusCancelled: "cancelled",
}

func (c *ReservationStatsCollector) collect(ctx context.Context) {
	counts, err := c.reservations.CountByStatus(ctx)
	if err != nil {
		c.log.Error("予約数の集計に失敗", zap.Error(err))
		return
	}
	if c.metrics == nil {
		return
	}
	// 0件の状態も 0 として出す
	for status, label := range statusLabels {
		c.metrics.ActiveReservations.WithLabelValues(label).Set(float64(counts[status]))
	}
	c.log.Debug("予約数を更新",
		zap.Int("active", counts[reservation.StatusActive]),
		zap.Int("cancelled", counts[reservation.StatusCancelled]),
	)
}
