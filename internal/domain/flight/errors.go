package flight

import (
	"errors"
	"fmt"
)

// Flight ドメインのエラー定義
var (
	ErrFlightNotFound       = errors.New("フライトが見つかりません")
	ErrFlightNotBookable    = errors.New("このフライトは予約を受け付けていません")
	ErrOfferingNotFound     = errors.New("このフライトでは指定クラスを販売していません")
	ErrPriceNotFound        = errors.New("クラスの価格が設定されていません")
	ErrInvalidState         = errors.New("無効なフライト状態です")
	ErrFlightCancelled      = errors.New("キャンセル済みのフライトは状態を変更できません")
	ErrReasonRequired       = errors.New("キャンセル理由は必須です")
	ErrInsufficientCapacity = errors.New("座席数が不足しています")
)

// Leg は往路・復路の区別
type Leg string

const (
	LegOutbound Leg = "outbound"
	LegReturn   Leg = "return"
)

// CapacityError は空席不足を表す
// Max は数量変更時の上限（現在数量 + 空席数）で、追加時は 0
type CapacityError struct {
	Leg       Leg
	Remaining int
	Max       int
}

func (e *CapacityError) Error() string {
	prefix := "座席数が不足しています"
	if e.Leg == LegReturn {
		prefix = "復路の座席数が不足しています"
	}
	if e.Max > 0 {
		return fmt.Sprintf("%s: %d 席まで増やせます", prefix, e.Max)
	}
	return fmt.Sprintf("%s: 残り %d 席", prefix, e.Remaining)
}

// Is は errors.Is(err, ErrInsufficientCapacity) を成立させる
func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}
