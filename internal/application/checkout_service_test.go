package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/checkout"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/event"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
)

func cartItems() []cart.Item {
	return []cart.Item{
		{ID: 1, CartID: 100, FlightID: 10, ClassID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		{ID: 2, CartID: 100, FlightID: 11, ClassID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("90.00")},
	}
}

func TestCheckoutService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("空のカートは予約を作成しない", func(t *testing.T) {
		tx := newTx(false)
		cr := new(MockCartRepository)
		ex := new(MockExecutor)

		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(100)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(100)).Return([]cart.Item{}, nil)

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), ex, new(MockPublisher), nil)
		id, err := svc.Checkout(ctx, 1)

		assert.ErrorIs(t, err, checkout.ErrCartEmpty)
		assert.Zero(t, id)
		ex.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		tx.AssertCalled(t, "Rollback")
	})

	t.Run("予約IDを返しイベントを同じトランザクションで発行", func(t *testing.T) {
		tx := newTx(true)
		cr := new(MockCartRepository)
		ex := new(MockExecutor)
		pub := new(MockPublisher)
		cache := new(MockAvailabilityCache)

		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(100)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(100)).Return(cartItems(), nil)
		ex.On("Execute", mock.Anything, tx, int64(1), int64(100)).Return(int64(42), nil)
		pub.On("Publish", mock.Anything, tx, mock.MatchedBy(func(e event.ReservationCreated) bool {
			return e.ReservationID == 42 && e.UserID == 1 && e.AgentUserID == nil && e.Header.ID != ""
		})).Return(nil)
		cache.On("Invalidate", mock.Anything, []flight.OfferingKey{{FlightID: 10, ClassID: 1}, {FlightID: 11, ClassID: 1}}).Return(nil)

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), ex, pub, cache)
		id, err := svc.Checkout(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		tx.AssertCalled(t, "Commit")
		pub.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("再検証で空席が足りなければロールバック", func(t *testing.T) {
		tx := newTx(false)
		cr := new(MockCartRepository)
		ex := new(MockExecutor)
		pub := new(MockPublisher)

		capErr := fmt.Errorf("%w: %w", checkout.ErrCapacityChanged, &flight.CapacityError{Leg: flight.LegOutbound, Remaining: 1})
		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(100)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(100)).Return(cartItems(), nil)
		ex.On("Execute", mock.Anything, tx, int64(1), int64(100)).Return(int64(0), capErr)

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), ex, pub, nil)
		_, err := svc.Checkout(ctx, 1)

		assert.ErrorIs(t, err, checkout.ErrCapacityChanged)
		assert.ErrorIs(t, err, flight.ErrInsufficientCapacity)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
		tx.AssertNotCalled(t, "Commit")
	})

	t.Run("イベント発行に失敗したら予約も確定しない", func(t *testing.T) {
		tx := newTx(false)
		cr := new(MockCartRepository)
		ex := new(MockExecutor)
		pub := new(MockPublisher)

		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(100)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(100)).Return(cartItems(), nil)
		ex.On("Execute", mock.Anything, tx, int64(1), int64(100)).Return(int64(42), nil)
		pub.On("Publish", mock.Anything, tx, mock.Anything).Return(errors.New("outbox unavailable"))

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), ex, pub, nil)
		_, err := svc.Checkout(ctx, 1)

		require.Error(t, err)
		tx.AssertCalled(t, "Rollback")
	})

	t.Run("カートのロック取得に失敗したら明細を読まない", func(t *testing.T) {
		tx := newTx(false)
		cr := new(MockCartRepository)
		ex := new(MockExecutor)

		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, tx, int64(100)).Return(errors.New("lock timeout"))

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), ex, new(MockPublisher), nil)
		_, err := svc.Checkout(ctx, 1)

		assert.EqualError(t, err, "lock timeout")
		cr.AssertNotCalled(t, "ListItems", mock.Anything, mock.Anything, mock.Anything)
		ex.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		tx.AssertCalled(t, "Rollback")
	})

	t.Run("トランザクション開始に失敗", func(t *testing.T) {
		tm := new(MockTxManager)
		tm.On("Begin", mock.Anything).Return(nil, errors.New("connection refused"))

		svc := NewCheckoutService(tm, new(MockCartRepository), new(MockReservationRepository), new(MockExecutor), new(MockPublisher), nil)
		_, err := svc.Checkout(ctx, 1)

		assert.EqualError(t, err, "connection refused")
	})
}

func TestCheckoutService_CheckoutOnBehalf(t *testing.T) {
	ctx := context.Background()

	t.Run("代理店のカートを顧客に移して代理店を紐付ける", func(t *testing.T) {
		tx := newTx(true)
		cr := new(MockCartRepository)
		rr := new(MockReservationRepository)
		ex := new(MockExecutor)
		pub := new(MockPublisher)

		items := cartItems()
		cr.On("Ensure", mock.Anything, mock.Anything, int64(5)).Return(int64(500), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(500)).Return(nil)
		cr.On("Ensure", mock.Anything, mock.Anything, int64(1)).Return(int64(100), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(100)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(500)).Return(items, nil)
		cr.On("ClearItems", mock.Anything, mock.Anything, int64(500)).Return(nil)
		cr.On("ReplaceItems", mock.Anything, mock.Anything, int64(100), items).Return(nil)
		ex.On("Execute", mock.Anything, tx, int64(1), int64(100)).Return(int64(77), nil)
		rr.On("LinkAgent", mock.Anything, tx, int64(77), int64(5)).Return(nil)
		pub.On("Publish", mock.Anything, tx, mock.MatchedBy(func(e event.ReservationCreated) bool {
			return e.ReservationID == 77 && e.UserID == 1 && e.AgentUserID != nil && *e.AgentUserID == 5
		})).Return(nil)

		svc := NewCheckoutService(newTxManager(tx), cr, rr, ex, pub, nil)
		id, err := svc.CheckoutOnBehalf(ctx, 5, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(77), id)
		cr.AssertExpectations(t)
		rr.AssertExpectations(t)
		pub.AssertExpectations(t)

		// 代理店のカートを空にしてから再検証する
		var order []string
		for _, call := range cr.Calls {
			if call.Method == "ClearItems" || call.Method == "ReplaceItems" {
				order = append(order, call.Method)
			}
		}
		assert.Equal(t, []string{"ClearItems", "ReplaceItems"}, order)
	})

	t.Run("代理店のカートが空なら失敗", func(t *testing.T) {
		tx := newTx(false)
		cr := new(MockCartRepository)

		cr.On("Ensure", mock.Anything, mock.Anything, int64(5)).Return(int64(500), nil)
		cr.On("Lock", mock.Anything, mock.Anything, int64(500)).Return(nil)
		cr.On("ListItems", mock.Anything, mock.Anything, int64(500)).Return([]cart.Item{}, nil)

		svc := NewCheckoutService(newTxManager(tx), cr, new(MockReservationRepository), new(MockExecutor), new(MockPublisher), nil)
		_, err := svc.CheckoutOnBehalf(ctx, 5, 1)

		assert.ErrorIs(t, err, checkout.ErrCartEmpty)
	})

	t.Run("自分自身を顧客にはできない", func(t *testing.T) {
		tm := new(MockTxManager)
		svc := NewCheckoutService(tm, new(MockCartRepository), new(MockReservationRepository), new(MockExecutor), new(MockPublisher), nil)

		_, err := svc.CheckoutOnBehalf(ctx, 5, 5)

		assert.ErrorIs(t, err, ErrSameAccount)
		tm.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
