package reservation

import "errors"

// Reservation ドメインのエラー定義
var (
	ErrReservationNotFound = errors.New("予約が見つかりません")
	ErrForbidden           = errors.New("この予約を操作する権限がありません")
	ErrNotCancellable      = errors.New("この予約はキャンセルできません")
	ErrInvalidStatus       = errors.New("無効な予約状態です")
)
