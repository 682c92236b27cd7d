package checkout

import (
	"context"
	"errors"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// Checkout のエラー定義
var (
	ErrCartEmpty       = errors.New("カートが空か、既に処理済みです")
	ErrCapacityChanged = errors.New("空席状況が変わったため購入を確定できません")
	ErrNoIdentifier    = errors.New("予約IDを取得できませんでした")
)

// Executor はカートの内容を予約に変換するポート
// 実装は次をすべて tx 内で行う:
//   - カート明細が触れる販売設定をロックし空席を再検証する
//   - 予約と座席ごとの予約明細を作成し、合計と予約コードを確定する
//   - カートを空にする
//
// 再検証に失敗した場合は ErrCapacityChanged を返し、何も適用しない
type Executor interface {
	Execute(ctx context.Context, tx transaction.Tx, userID, cartID int64) (int64, error)
}
