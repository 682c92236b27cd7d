package event

import (
	"time"

	"github.com/google/uuid"
)

// Header はドメインイベント共通のヘッダー
type Header struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

// NewHeader は新しいヘッダーを作成する
func NewHeader() Header {
	return Header{
		ID:          uuid.NewString(),
		PublishedAt: time.Now().UTC(),
	}
}

// ReservationCreated はチェックアウトで予約が作成されたことを表す
type ReservationCreated struct {
	Header        Header `json:"header"`
	ReservationID int64  `json:"reservation_id"`
	UserID        int64  `json:"user_id"`
	AgentUserID   *int64 `json:"agent_user_id,omitempty"`
}

// ReservationCancelled は予約がキャンセルされ座席が戻されたことを表す
type ReservationCancelled struct {
	Header          Header `json:"header"`
	ReservationID   int64  `json:"reservation_id"`
	ByAdmin         bool   `json:"by_admin"`
	SeatsRestituted int    `json:"seats_restituted"`
}

// FlightCancelled はフライトがキャンセルされたことを表す
type FlightCancelled struct {
	Header               Header `json:"header"`
	FlightID             int64  `json:"flight_id"`
	Reason               string `json:"reason"`
	AffectedReservations int    `json:"affected_reservations"`
}
