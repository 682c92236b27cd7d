package flight

import (
	"time"

	"github.com/shopspring/decimal"
)

// State はフライトの運航状態を表す
type State int

const (
	StateProgrammed State = 1
	StateCancelled  State = 2
)

// ParseState は状態IDを検証して State に変換する
func ParseState(id int) (State, error) {
	s := State(id)
	if !s.IsValid() {
		return 0, ErrInvalidState
	}
	return s, nil
}

// IsValid は既知の状態かを返す
func (s State) IsValid() bool {
	return s == StateProgrammed || s == StateCancelled
}

func (s State) String() string {
	switch s {
	case StateProgrammed:
		return "PROGRAMMED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Flight はフライトエンティティを表す
// カタログ側が所有し、在庫エンジンは状態とペアリングのみを扱う
type Flight struct {
	ID             int64
	Code           string
	Active         bool
	State          State
	PairedFlightID *int64
	DepartureAt    time.Time
	ArrivalAt      time.Time
}

// IsBookable は新規の座席確保を受け付けるかを返す
func (f *Flight) IsBookable() bool {
	return f.Active && f.State != StateCancelled
}

// CheckBookable は予約不可の場合に ErrFlightNotBookable を返す
func (f *Flight) CheckBookable() error {
	if !f.IsBookable() {
		return ErrFlightNotBookable
	}
	return nil
}

// PairedID は往復ペアのフライトIDを返す
func (f *Flight) PairedID() (int64, bool) {
	if f.PairedFlightID == nil || *f.PairedFlightID == f.ID {
		return 0, false
	}
	return *f.PairedFlightID, true
}

// TransitionTo は状態遷移を適用する
// 同一状態への遷移は changed=false を返し、キャンセル済みからの復帰は拒否する
func (f *Flight) TransitionTo(target State) (bool, error) {
	if !target.IsValid() {
		return false, ErrInvalidState
	}
	if f.State == target {
		return false, nil
	}
	if f.State == StateCancelled {
		return false, ErrFlightCancelled
	}
	f.State = target
	return true, nil
}

// OfferingKey はフライトとクラスの組を識別する
type OfferingKey struct {
	FlightID int64
	ClassID  int64
}

// Offering はフライト×クラスの販売設定（総座席数と価格）
type Offering struct {
	FlightID int64
	ClassID  int64
	Capacity int
	Price    decimal.Decimal
}

// Key は OfferingKey を返す
func (o *Offering) Key() OfferingKey {
	return OfferingKey{FlightID: o.FlightID, ClassID: o.ClassID}
}

// Availability は空席数の算出結果
type Availability struct {
	FlightID int64
	ClassID  int64
	Capacity int
	Reserved int
	Held     int
}

// Remaining は capacity - reserved - held を返す（負にはならない）
func (a Availability) Remaining() int {
	n := a.Capacity - a.Reserved - a.Held
	if n < 0 {
		return 0
	}
	return n
}

// Check は requested 席を確保できるかを検証する
func (a Availability) Check(requested int, leg Leg) error {
	if requested > a.Remaining() {
		return &CapacityError{Leg: leg, Remaining: a.Remaining()}
	}
	return nil
}
