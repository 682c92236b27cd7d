package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// Repository は予約の永続化インターフェース
type Repository interface {
	// GetForUpdate は予約行をロックして取得する
	GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*Reservation, error)
	CountItemsByOffering(ctx context.Context, tx transaction.Tx, reservationID int64) ([]OfferingCount, error)
	UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status Status) error
	UpdateItemsStatus(ctx context.Context, tx transaction.Tx, reservationIDs []int64, status Status) error
	// ListActiveIDsByFlight はフライトの明細を持つ有効な予約をロックして返す
	ListActiveIDsByFlight(ctx context.Context, tx transaction.Tx, flightID int64) ([]int64, error)
	BulkUpdateStatus(ctx context.Context, tx transaction.Tx, ids []int64, status Status) (int, error)
	LinkAgent(ctx context.Context, tx transaction.Tx, reservationID, agentUserID int64) error

	ListByUser(ctx context.Context, userID int64) ([]Summary, error)
	ListAdmin(ctx context.Context, filter AdminFilter) ([]Summary, error)
	GetSummary(ctx context.Context, id int64) (*Summary, error)
	ListDetailItems(ctx context.Context, id int64) ([]DetailItem, error)
	ListStates(ctx context.Context) ([]State, error)
	TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]DestinationStat, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
