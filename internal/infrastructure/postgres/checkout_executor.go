package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/checkout"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// fn_checkout_cart が送出する SQLSTATE
const (
	sqlStateInsufficientCapacity = "RS001"
	sqlStateFlightNotBookable    = "RS002"
	sqlStateCartEmpty            = "RS003"
	sqlStateNotFound             = "RS004"
)

// CheckoutExecutor はストアド関数 fn_checkout_cart でカートを予約に変換する
type CheckoutExecutor struct{ db *sqlx.DB }

func NewCheckoutExecutor(db *sqlx.DB) *CheckoutExecutor {
	return &CheckoutExecutor{db: db}
}

func (e *CheckoutExecutor) Execute(ctx context.Context, tx transaction.Tx, userID, cartID int64) (int64, error) {
	var id sql.NullInt64
	if err := executor(e.db, tx).QueryRowxContext(ctx, `SELECT fn_checkout_cart($1, $2)`, userID, cartID).Scan(&id); err != nil {
		return 0, mapCheckoutError(err)
	}
	if !id.Valid || id.Int64 <= 0 {
		return 0, checkout.ErrNoIdentifier
	}
	return id.Int64, nil
}

func mapCheckoutError(err error) error {
	var pgErr *pq.Error
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("チェックアウト実行に失敗: %w", err)
	}
	switch string(pgErr.Code) {
	case sqlStateInsufficientCapacity:
		remaining, _ := strconv.Atoi(pgErr.Detail)
		return fmt.Errorf("%w: %w", checkout.ErrCapacityChanged, &flight.CapacityError{Leg: flight.LegOutbound, Remaining: remaining})
	case sqlStateFlightNotBookable:
		return flight.ErrFlightNotBookable
	case sqlStateCartEmpty:
		return checkout.ErrCartEmpty
	case sqlStateNotFound:
		return cart.ErrCartNotFound
	default:
		return fmt.Errorf("チェックアウト実行に失敗: %w", err)
	}
}

var _ checkout.Executor = (*CheckoutExecutor)(nil)
