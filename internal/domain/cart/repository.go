package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// Repository はカートの永続化インターフェース
type Repository interface {
	// Ensure はユーザーのカートを作成（既存なら何もしない）し、IDを返す
	Ensure(ctx context.Context, tx transaction.Tx, userID int64) (int64, error)
	// Lock はカートの行を tx の終了までロックする。同じカートへのチェックアウトを直列化する
	Lock(ctx context.Context, tx transaction.Tx, cartID int64) error
	GetByUserID(ctx context.Context, tx transaction.Tx, userID int64) (*Cart, error)
	ListSummaryItems(ctx context.Context, cartID int64) ([]SummaryItem, error)
	ListItems(ctx context.Context, tx transaction.Tx, cartID int64) ([]Item, error)
	FindItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) (*Item, error)
	FindItemByOffering(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64) (*Item, error)
	// UpsertItem は既存明細なら数量を加算し、なければ unitPrice で作成する
	UpsertItem(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64, quantity int, unitPrice decimal.Decimal) error
	UpdateItemQuantity(ctx context.Context, tx transaction.Tx, cartID, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) error
	// ReplaceItems はカートの明細をすべて items で置き換える
	ReplaceItems(ctx context.Context, tx transaction.Tx, cartID int64, items []Item) error
	ClearItems(ctx context.Context, tx transaction.Tx, cartID int64) error
}
