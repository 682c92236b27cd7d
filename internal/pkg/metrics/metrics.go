package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// カート操作の総数（operation: add/update/remove, status: success/capacity/error）
	CartOperationsTotal *prometheus.CounterVec

	// チェックアウトの総数（status: success, empty, capacity, error）
	CheckoutsTotal *prometheus.CounterVec

	// 予約キャンセルの総数（kind: user, admin, flight）
	ReservationCancellationsTotal *prometheus.CounterVec

	// キャンセルで在庫に戻した座席数
	SeatsRestitutedTotal prometheus.Counter

	// 状態別の予約数（status: active, cancelled）
	ActiveReservations *prometheus.GaugeVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		CartOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_operations_total",
				Help: "Total number of cart mutations",
			},
			[]string{"operation", "status"},
		),
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkouts_total",
				Help: "Total number of checkout attempts",
			},
			[]string{"status"},
		),
		ReservationCancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reservation_cancellations_total",
				Help: "Total number of cancelled reservations",
			},
			[]string{"kind"},
		),
		SeatsRestitutedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_restituted_total",
				Help: "Total number of seats returned to inventory by cancellations",
			},
		),
		ActiveReservations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "active_reservations",
				Help: "Current number of reservations by state",
			},
			[]string{"status"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CartOperationsTotal,
		m.CheckoutsTotal,
		m.ReservationCancellationsTotal,
		m.SeatsRestitutedTotal,
		m.ActiveReservations,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
// Init が呼ばれていない場合は nil
func Get() *Metrics {
	return defaultMetrics
}
