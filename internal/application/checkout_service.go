package application

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/checkout"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/event"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

// ErrSameAccount は代理店が自分自身を顧客として購入しようとした場合のエラー
var ErrSameAccount = errors.New("代理店と顧客に同じユーザーは指定できません")

// CheckoutService はカートを予約に変換する
// 空席の最終確認と予約の作成は checkout.Executor が同じトランザクション内で行う
type CheckoutService struct {
	txManager    transaction.Manager
	carts        cart.Repository
	reservations reservation.Repository
	executor     checkout.Executor
	publisher    EventPublisher
	cache        AvailabilityCache
}

func NewCheckoutService(
	tm transaction.Manager,
	cr cart.Repository,
	rr reservation.Repository,
	ex checkout.Executor,
	pub EventPublisher,
	cache AvailabilityCache,
) *CheckoutService {
	return &CheckoutService{
		txManager:    tm,
		carts:        cr,
		reservations: rr,
		executor:     ex,
		publisher:    pub,
		cache:        cache,
	}
}

// Checkout はユーザーのカートを購入し、作成した予約IDを返す
func (s *CheckoutService) Checkout(ctx context.Context, userID int64) (id int64, err error) {
	defer func() { observeCheckout(err) }()

	var touched []flight.OfferingKey
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		cartID, err := s.carts.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}
		// 二重送信された場合、後続はロック解放後に空のカートを見る
		if err := s.carts.Lock(ctx, tx, cartID); err != nil {
			return err
		}
		items, err := s.carts.ListItems(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return checkout.ErrCartEmpty
		}
		touched = offeringKeys(items)

		if id, err = s.executor.Execute(ctx, tx, userID, cartID); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, event.ReservationCreated{
			Header:        event.NewHeader(),
			ReservationID: id,
			UserID:        userID,
		})
	})
	if err != nil {
		return 0, err
	}

	invalidate(ctx, s.cache, touched...)
	logger.Info("予約を作成しました", zap.Int64("reservation_id", id), zap.Int64("user_id", userID))
	return id, nil
}

// CheckoutOnBehalf は代理店のカートを顧客のカートに移し、顧客の予約として購入する
// 顧客のカートの既存明細は置き換えられる。予約には代理店が紐付けられる
func (s *CheckoutService) CheckoutOnBehalf(ctx context.Context, agentID, customerID int64) (id int64, err error) {
	defer func() { observeCheckout(err) }()

	if agentID == customerID {
		return 0, ErrSameAccount
	}

	var touched []flight.OfferingKey
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		agentCartID, err := s.carts.Ensure(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if err := s.carts.Lock(ctx, tx, agentCartID); err != nil {
			return err
		}
		items, err := s.carts.ListItems(ctx, tx, agentCartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return checkout.ErrCartEmpty
		}
		touched = offeringKeys(items)

		customerCartID, err := s.carts.Ensure(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if err := s.carts.Lock(ctx, tx, customerCartID); err != nil {
			return err
		}
		// 代理店側を先に空にしないと再検証で同じ座席を二重に数える
		if err := s.carts.ClearItems(ctx, tx, agentCartID); err != nil {
			return err
		}
		if err := s.carts.ReplaceItems(ctx, tx, customerCartID, items); err != nil {
			return err
		}

		if id, err = s.executor.Execute(ctx, tx, customerID, customerCartID); err != nil {
			return err
		}
		if err := s.reservations.LinkAgent(ctx, tx, id, agentID); err != nil {
			return err
		}
		return s.publisher.Publish(ctx, tx, event.ReservationCreated{
			Header:        event.NewHeader(),
			ReservationID: id,
			UserID:        customerID,
			AgentUserID:   &agentID,
		})
	})
	if err != nil {
		return 0, err
	}

	invalidate(ctx, s.cache, touched...)
	logger.Info("代理店経由で予約を作成しました",
		zap.Int64("reservation_id", id), zap.Int64("agent_user_id", agentID), zap.Int64("user_id", customerID))
	return id, nil
}

func offeringKeys(items []cart.Item) []flight.OfferingKey {
	keys := make([]flight.OfferingKey, 0, len(items))
	for _, it := range items {
		keys = append(keys, flight.OfferingKey{FlightID: it.FlightID, ClassID: it.ClassID})
	}
	return keys
}
