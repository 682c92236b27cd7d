package reservation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status は予約の状態を表す
type Status int

const (
	StatusActive    Status = 1
	StatusCancelled Status = 2
)

// Reservation は予約エンティティを表す
// 座席1席ごとに1件の予約明細を持つ
type Reservation struct {
	ID        int64
	UserID    int64
	Status    Status
	Total     decimal.Decimal
	Code      string
	CreatedAt time.Time
}

// IsActive は予約が有効かを返す
func (r *Reservation) IsActive() bool {
	return r.Status == StatusActive
}

// CheckAccess は requesterID が予約を操作できるかを検証する
func (r *Reservation) CheckAccess(requesterID int64, isAdmin bool) error {
	if isAdmin || r.UserID == requesterID {
		return nil
	}
	return ErrForbidden
}

// Cancel は予約をキャンセル状態にする
// 有効でない予約は何もせず false を返す
func (r *Reservation) Cancel() bool {
	if !r.IsActive() {
		return false
	}
	r.Status = StatusCancelled
	return true
}

// OfferingCount はフライト×クラスごとの座席数
type OfferingCount struct {
	FlightID int64
	ClassID  int64
	Seats    int
}

// TotalSeats は OfferingCount の合計席数を返す
func TotalSeats(counts []OfferingCount) int {
	n := 0
	for _, c := range counts {
		n += c.Seats
	}
	return n
}

// Summary は一覧表示用の予約
type Summary struct {
	ID         int64
	UserID     int64
	Status     Status
	Total      decimal.Decimal
	Code       string
	CreatedAt  time.Time
	BuyerName  string
	BuyerEmail string
}

// ReturnLeg は往復ペアの復路表示情報
type ReturnLeg struct {
	FlightCode         string
	DepartureAt        time.Time
	ArrivalAt          time.Time
	OriginCity         string
	OriginCountry      string
	DestinationCity    string
	DestinationCountry string
}

// DetailItem はフライト×クラスでまとめた予約明細
type DetailItem struct {
	FlightID           int64
	FlightCode         string
	DepartureAt        time.Time
	ArrivalAt          time.Time
	ClassID            int64
	ClassName          string
	Seats              int
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	OriginCity         string
	OriginCountry      string
	DestinationCity    string
	DestinationCountry string
	Return             *ReturnLeg
}

// Detail は予約詳細
type Detail struct {
	Summary
	Items []DetailItem
}

// AdminFilter は管理者用一覧の検索条件
// Query はメール・氏名の部分一致、数値ならユーザーIDにも一致する
// User は数値ならユーザーID、それ以外はメールの部分一致
// Flight は数値ならフライトID、それ以外はフライトコードの部分一致
// To は排他的な上限
type AdminFilter struct {
	Query  string
	User   string
	Code   string
	Flight string
	From   *time.Time
	To     *time.Time
	Status *Status
}

// Normalize は前後の空白を除去する
func (f AdminFilter) Normalize() AdminFilter {
	f.Query = strings.TrimSpace(f.Query)
	f.User = strings.TrimSpace(f.User)
	f.Code = strings.TrimSpace(f.Code)
	f.Flight = strings.TrimSpace(f.Flight)
	return f
}

// State は予約状態カタログの1件
type State struct {
	ID   int
	Name string
}

// DestinationStat は目的地ごとの販売座席数
type DestinationStat struct {
	CityID  int64
	City    string
	Country string
	Tickets int
}
