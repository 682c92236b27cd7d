package application

import (
	"context"
	"errors"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// Pairing は往復ペアのフライトとカート明細を解決する
// ペアの作成や変更は行わない
type Pairing struct {
	flights flight.Repository
	carts   cart.Repository
}

func NewPairing(flights flight.Repository, carts cart.Repository) *Pairing {
	return &Pairing{flights: flights, carts: carts}
}

// PairedFlight はフライトの往復ペアのIDを返す。ペアがなければ nil
func (p *Pairing) PairedFlight(ctx context.Context, tx transaction.Tx, flightID int64) (*int64, error) {
	f, err := p.flights.GetByID(ctx, tx, flightID, false)
	if err != nil {
		return nil, err
	}
	id, ok := f.PairedID()
	if !ok {
		return nil, nil
	}
	return &id, nil
}

// MirrorItem は item と同じクラスでペア側フライトの明細を返す
// ペアや明細がなければ nil を返し、呼び出し側はペア側の処理を省略する
func (p *Pairing) MirrorItem(ctx context.Context, tx transaction.Tx, cartID int64, item *cart.Item) (*cart.Item, error) {
	pairedID, err := p.PairedFlight(ctx, tx, item.FlightID)
	if err != nil || pairedID == nil {
		return nil, err
	}
	mirror, err := p.carts.FindItemByOffering(ctx, tx, cartID, *pairedID, item.ClassID)
	if errors.Is(err, cart.ErrItemNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mirror, nil
}
