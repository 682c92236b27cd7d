package application

import (
	"context"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// CartService はユーザーのカートを操作する
// 座席を増やす操作はすべて販売設定の行ロックを取ってから空席を検証する
type CartService struct {
	txManager transaction.Manager
	flights   flight.Repository
	carts     cart.Repository
	pairing   *Pairing
	cache     AvailabilityCache
}

func NewCartService(tm transaction.Manager, fr flight.Repository, cr cart.Repository, cache AvailabilityCache) *CartService {
	return &CartService{
		txManager: tm,
		flights:   fr,
		carts:     cr,
		pairing:   NewPairing(fr, cr),
		cache:     cache,
	}
}

type AddItemInput struct {
	UserID      int64
	FlightID    int64
	ClassID     int64
	Quantity    int
	IncludePair bool
}

type UpdateQuantityInput struct {
	UserID   int64
	ItemID   int64
	Quantity int
	SyncPair bool
}

type RemoveItemInput struct {
	UserID   int64
	ItemID   int64
	SyncPair bool
}

// EnsureCart はユーザーのカートIDを返す。なければ作成する
func (s *CartService) EnsureCart(ctx context.Context, userID int64) (int64, error) {
	return s.carts.Ensure(ctx, nil, userID)
}

// GetCart はカートの明細と合計を返す
func (s *CartService) GetCart(ctx context.Context, userID int64) (*cart.Summary, error) {
	cartID, err := s.carts.Ensure(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.ListSummaryItems(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return cart.NewSummary(c, items), nil
}

// AddItem は明細を追加する。既にある場合は数量を加算する
// IncludePair の場合は往復ペアの同じクラスにも同数を追加し、どちらかが確保できなければ何も追加しない
func (s *CartService) AddItem(ctx context.Context, in AddItemInput) (err error) {
	defer func() { observeCartOperation("add", err) }()

	if err := cart.ValidateQuantity(in.Quantity); err != nil {
		return err
	}

	var touched []flight.OfferingKey
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		cartID, err := s.carts.Ensure(ctx, tx, in.UserID)
		if err != nil {
			return err
		}

		outbound, err := bookableFlight(ctx, s.flights, tx, in.FlightID)
		if err != nil {
			return err
		}
		o, a, err := lockOffering(ctx, s.flights, tx, in.FlightID, in.ClassID)
		if err != nil {
			return err
		}
		if err := a.Check(in.Quantity, flight.LegOutbound); err != nil {
			return err
		}
		legs := []*flight.Offering{o}

		if pairedID, ok := outbound.PairedID(); ok && in.IncludePair {
			if _, err := bookableFlight(ctx, s.flights, tx, pairedID); err != nil {
				return err
			}
			po, pa, err := lockOffering(ctx, s.flights, tx, pairedID, in.ClassID)
			if err != nil {
				return err
			}
			if err := pa.Check(in.Quantity, flight.LegReturn); err != nil {
				return err
			}
			legs = append(legs, po)
		}

		for _, leg := range legs {
			if err := s.carts.UpsertItem(ctx, tx, cartID, leg.FlightID, leg.ClassID, in.Quantity, leg.Price); err != nil {
				return err
			}
			touched = append(touched, leg.Key())
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, touched...)
	return nil
}

// UpdateQuantity は明細の数量を変更する
// 減らす場合は空席を検証しない。増やす場合は差分がロック下の空席に収まるかを検証する
func (s *CartService) UpdateQuantity(ctx context.Context, in UpdateQuantityInput) (err error) {
	defer func() { observeCartOperation("update", err) }()

	if err := cart.ValidateQuantity(in.Quantity); err != nil {
		return err
	}

	var touched []flight.OfferingKey
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		cartID, err := s.carts.Ensure(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		item, err := s.carts.FindItem(ctx, tx, cartID, in.ItemID)
		if err != nil {
			return err
		}
		var mirror *cart.Item
		if in.SyncPair {
			if mirror, err = s.pairing.MirrorItem(ctx, tx, cartID, item); err != nil {
				return err
			}
		}

		if err := s.checkGrowth(ctx, tx, item, in.Quantity, flight.LegOutbound); err != nil {
			return err
		}
		// ペア側は自身の現在数量との差分で判定する。減算側の操作でも増える場合がある
		if mirror != nil {
			if err := s.checkGrowth(ctx, tx, mirror, in.Quantity, flight.LegReturn); err != nil {
				return err
			}
		}

		for _, it := range []*cart.Item{item, mirror} {
			if it == nil {
				continue
			}
			if err := s.carts.UpdateItemQuantity(ctx, tx, cartID, it.ID, in.Quantity); err != nil {
				return err
			}
			touched = append(touched, flight.OfferingKey{FlightID: it.FlightID, ClassID: it.ClassID})
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, touched...)
	return nil
}

// checkGrowth は item を quantity に増やせるかを検証する。増えない場合は何もしない
func (s *CartService) checkGrowth(ctx context.Context, tx transaction.Tx, item *cart.Item, quantity int, leg flight.Leg) error {
	delta := quantity - item.Quantity
	if delta <= 0 {
		return nil
	}
	if _, err := bookableFlight(ctx, s.flights, tx, item.FlightID); err != nil {
		return err
	}
	_, a, err := lockOffering(ctx, s.flights, tx, item.FlightID, item.ClassID)
	if err != nil {
		return err
	}
	if remaining := a.Remaining(); delta > remaining {
		return &flight.CapacityError{Leg: leg, Remaining: remaining, Max: item.Quantity + remaining}
	}
	return nil
}

// RemoveItem は明細を削除する。SyncPair の場合はペア側の明細があればそれも削除する
func (s *CartService) RemoveItem(ctx context.Context, in RemoveItemInput) (err error) {
	defer func() { observeCartOperation("remove", err) }()

	var touched []flight.OfferingKey
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		cartID, err := s.carts.Ensure(ctx, tx, in.UserID)
		if err != nil {
			return err
		}
		item, err := s.carts.FindItem(ctx, tx, cartID, in.ItemID)
		if err != nil {
			return err
		}
		var mirror *cart.Item
		if in.SyncPair {
			if mirror, err = s.pairing.MirrorItem(ctx, tx, cartID, item); err != nil {
				return err
			}
		}
		for _, it := range []*cart.Item{item, mirror} {
			if it == nil {
				continue
			}
			if err := s.carts.DeleteItem(ctx, tx, cartID, it.ID); err != nil {
				return err
			}
			touched = append(touched, flight.OfferingKey{FlightID: it.FlightID, ClassID: it.ClassID})
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, touched...)
	return nil
}
