package flight

import (
	"context"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// Repository はフライトと販売設定の永続化インターフェース
// tx が nil の場合はトランザクション外で読み取る
type Repository interface {
	GetByID(ctx context.Context, tx transaction.Tx, id int64, forUpdate bool) (*Flight, error)
	// GetOffering は販売設定を取得する。forUpdate で行ロックを取得する
	GetOffering(ctx context.Context, tx transaction.Tx, flightID, classID int64, forUpdate bool) (*Offering, error)
	ReservedCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error)
	CartHeldCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error)
	IncrementCapacity(ctx context.Context, tx transaction.Tx, flightID, classID int64, delta int) error
	UpdateState(ctx context.Context, tx transaction.Tx, flightID int64, state State) error
	InsertStateReason(ctx context.Context, tx transaction.Tx, flightID int64, state State, reason string) error
	// ClearPairing は自身の参照と自身を指す参照の両方を解除する
	ClearPairing(ctx context.Context, tx transaction.Tx, flightID int64) error
}
