package application

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/event"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

// FlightService はフライトの状態遷移を管理する
// キャンセルは有効な予約すべてのキャンセルと座席の返却を伴う
type FlightService struct {
	txManager    transaction.Manager
	flights      flight.Repository
	reservations reservation.Repository
	publisher    EventPublisher
	cache        AvailabilityCache
}

func NewFlightService(tm transaction.Manager, fr flight.Repository, rr reservation.Repository, pub EventPublisher, cache AvailabilityCache) *FlightService {
	return &FlightService{txManager: tm, flights: fr, reservations: rr, publisher: pub, cache: cache}
}

type SetStateInput struct {
	FlightID int64
	StateID  int
	Reason   string
}

// SetState はフライトの状態を変更し、キャンセルされた予約の件数を返す
// 同じ状態への変更は理由がなくても何もしない。キャンセル済みのフライトは他の状態に戻せない
func (s *FlightService) SetState(ctx context.Context, in SetStateInput) (int, error) {
	target, err := flight.ParseState(in.StateID)
	if err != nil {
		return 0, err
	}
	reason := strings.TrimSpace(in.Reason)

	var (
		cascaded bool
		affected int
		seats    int
		touched  []flight.OfferingKey
	)
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		f, err := s.flights.GetByID(ctx, tx, in.FlightID, true)
		if err != nil {
			return err
		}
		changed, err := f.TransitionTo(target)
		if err != nil || !changed {
			return err
		}
		if target != flight.StateCancelled {
			return s.flights.UpdateState(ctx, tx, f.ID, target)
		}
		// 理由は実際にキャンセルするときだけ求める。キャンセル済みの再指定は上で何もせず終わる
		if reason == "" {
			return flight.ErrReasonRequired
		}
		affected, seats, touched, err = s.cascade(ctx, tx, f.ID, reason)
		cascaded = err == nil
		return err
	})
	if err != nil {
		return 0, err
	}

	if cascaded {
		s.afterCascade(ctx, in.FlightID, affected, seats, touched)
	}
	return affected, nil
}

// CancelFlightCascade はフライトをキャンセルし、そのフライトの明細を持つ有効な予約をすべてキャンセルする
func (s *FlightService) CancelFlightCascade(ctx context.Context, flightID int64, reason string) (int, error) {
	return s.SetState(ctx, SetStateInput{FlightID: flightID, StateID: int(flight.StateCancelled), Reason: reason})
}

func (s *FlightService) cascade(ctx context.Context, tx transaction.Tx, flightID int64, reason string) (int, int, []flight.OfferingKey, error) {
	if err := s.flights.UpdateState(ctx, tx, flightID, flight.StateCancelled); err != nil {
		return 0, 0, nil, err
	}
	if err := s.flights.InsertStateReason(ctx, tx, flightID, flight.StateCancelled, reason); err != nil {
		return 0, 0, nil, err
	}
	if err := s.flights.ClearPairing(ctx, tx, flightID); err != nil {
		return 0, 0, nil, err
	}

	ids, err := s.reservations.ListActiveIDsByFlight(ctx, tx, flightID)
	if err != nil {
		return 0, 0, nil, err
	}
	var (
		seats   int
		touched []flight.OfferingKey
	)
	for _, id := range ids {
		counts, err := restitute(ctx, s.flights, s.reservations, tx, id)
		if err != nil {
			return 0, 0, nil, err
		}
		seats += reservation.TotalSeats(counts)
		touched = append(touched, countKeys(counts)...)
	}
	if err := s.reservations.UpdateItemsStatus(ctx, tx, ids, reservation.StatusCancelled); err != nil {
		return 0, 0, nil, err
	}
	affected, err := s.reservations.BulkUpdateStatus(ctx, tx, ids, reservation.StatusCancelled)
	if err != nil {
		return 0, 0, nil, err
	}

	if err := s.publisher.Publish(ctx, tx, event.FlightCancelled{
		Header:               event.NewHeader(),
		FlightID:             flightID,
		Reason:               reason,
		AffectedReservations: affected,
	}); err != nil {
		return 0, 0, nil, err
	}
	return affected, seats, touched, nil
}

func (s *FlightService) afterCascade(ctx context.Context, flightID int64, affected, seats int, touched []flight.OfferingKey) {
	invalidate(ctx, s.cache, touched...)
	observeCancellation("flight", affected, seats)
	logger.Info("フライトをキャンセルしました",
		zap.Int64("flight_id", flightID), zap.Int("affected_reservations", affected), zap.Int("seats_restituted", seats))
}
