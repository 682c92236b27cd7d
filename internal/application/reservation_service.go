package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/event"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

const defaultTopDestinationsLimit = 10

type ReservationService struct {
	txManager    transaction.Manager
	reservations reservation.Repository
	flights      flight.Repository
	publisher    EventPublisher
	cache        AvailabilityCache
}

func NewReservationService(tm transaction.Manager, rr reservation.Repository, fr flight.Repository, pub EventPublisher, cache AvailabilityCache) *ReservationService {
	return &ReservationService{txManager: tm, reservations: rr, flights: fr, publisher: pub, cache: cache}
}

// ListByUser はユーザーの予約を新しい順に返す
func (s *ReservationService) ListByUser(ctx context.Context, userID int64) ([]reservation.Summary, error) {
	return s.reservations.ListByUser(ctx, userID)
}

// GetDetail は本人の予約詳細を返す。他人の予約は ErrForbidden
func (s *ReservationService) GetDetail(ctx context.Context, userID, reservationID int64) (*reservation.Detail, error) {
	summary, err := s.reservations.GetSummary(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if summary.UserID != userID {
		return nil, reservation.ErrForbidden
	}
	return s.detail(ctx, summary)
}

// ListAdmin は管理者用の一覧を返す
func (s *ReservationService) ListAdmin(ctx context.Context, filter reservation.AdminFilter) ([]reservation.Summary, error) {
	return s.reservations.ListAdmin(ctx, filter)
}

// GetDetailAdmin は所有者を確認せずに予約詳細を返す
func (s *ReservationService) GetDetailAdmin(ctx context.Context, reservationID int64) (*reservation.Detail, error) {
	summary, err := s.reservations.GetSummary(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, summary)
}

func (s *ReservationService) detail(ctx context.Context, summary *reservation.Summary) (*reservation.Detail, error) {
	items, err := s.reservations.ListDetailItems(ctx, summary.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []reservation.DetailItem{}
	}
	return &reservation.Detail{Summary: *summary, Items: items}, nil
}

// Cancel は予約をキャンセルし、座席を販売設定に戻す
// 既に有効でない予約は何も変更せず false を返す
func (s *ReservationService) Cancel(ctx context.Context, requesterID, reservationID int64, isAdmin bool) (bool, error) {
	var (
		cancelled bool
		seats     int
		touched   []flight.OfferingKey
	)
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		res, err := s.reservations.GetForUpdate(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		if err := res.CheckAccess(requesterID, isAdmin); err != nil {
			return err
		}
		if !res.Cancel() {
			return nil
		}

		counts, err := restitute(ctx, s.flights, s.reservations, tx, res.ID)
		if err != nil {
			return err
		}
		if err := s.reservations.UpdateStatus(ctx, tx, res.ID, res.Status); err != nil {
			return err
		}
		if err := s.reservations.UpdateItemsStatus(ctx, tx, []int64{res.ID}, res.Status); err != nil {
			return err
		}

		seats = reservation.TotalSeats(counts)
		touched = countKeys(counts)
		cancelled = true
		return s.publisher.Publish(ctx, tx, event.ReservationCancelled{
			Header:          event.NewHeader(),
			ReservationID:   res.ID,
			ByAdmin:         isAdmin,
			SeatsRestituted: seats,
		})
	})
	if err != nil {
		return false, err
	}
	if !cancelled {
		return false, nil
	}

	invalidate(ctx, s.cache, touched...)
	kind := "user"
	if isAdmin {
		kind = "admin"
	}
	observeCancellation(kind, 1, seats)
	logger.Info("予約をキャンセルしました",
		zap.Int64("reservation_id", reservationID), zap.Bool("by_admin", isAdmin), zap.Int("seats_restituted", seats))
	return true, nil
}

// CancelForUser は本人による予約キャンセル
func (s *ReservationService) CancelForUser(ctx context.Context, userID, reservationID int64) error {
	ok, err := s.Cancel(ctx, userID, reservationID, false)
	if err != nil {
		return err
	}
	if !ok {
		return reservation.ErrNotCancellable
	}
	return nil
}

// CancelForAdmin は管理者による予約キャンセル
func (s *ReservationService) CancelForAdmin(ctx context.Context, adminID, reservationID int64) error {
	ok, err := s.Cancel(ctx, adminID, reservationID, true)
	if err != nil {
		return err
	}
	if !ok {
		return reservation.ErrNotCancellable
	}
	return nil
}

func (s *ReservationService) ListStates(ctx context.Context) ([]reservation.State, error) {
	return s.reservations.ListStates(ctx)
}

// TopDestinations は有効な予約の座席数が多い目的地を返す
func (s *ReservationService) TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]reservation.DestinationStat, error) {
	if limit <= 0 {
		limit = defaultTopDestinationsLimit
	}
	return s.reservations.TopDestinations(ctx, from, to, limit)
}

// CountByStatus は状態ごとの予約数を返す
func (s *ReservationService) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	return s.reservations.CountByStatus(ctx)
}

// restitute は予約明細をフライト×クラスごとに数え、その席数を販売設定の総座席数に戻す
func restitute(ctx context.Context, flights flight.Repository, reservations reservation.Repository, tx transaction.Tx, reservationID int64) ([]reservation.OfferingCount, error) {
	counts, err := reservations.CountItemsByOffering(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	for _, c := range counts {
		if err := flights.IncrementCapacity(ctx, tx, c.FlightID, c.ClassID, c.Seats); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func countKeys(counts []reservation.OfferingCount) []flight.OfferingKey {
	keys := make([]flight.OfferingKey, 0, len(counts))
	for _, c := range counts {
		keys = append(keys, flight.OfferingKey{FlightID: c.FlightID, ClassID: c.ClassID})
	}
	return keys
}
