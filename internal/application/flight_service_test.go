package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/event"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
)

func TestFlightService_SetState_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input SetStateInput
		want  error
	}{
		{"未知の状態", SetStateInput{FlightID: 1, StateID: 9}, flight.ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := new(MockTxManager)
			svc := NewFlightService(tm, new(MockFlightRepository), new(MockReservationRepository), new(MockPublisher), nil)

			_, err := svc.SetState(ctx, tt.input)

			assert.ErrorIs(t, err, tt.want)
			tm.AssertNotCalled(t, "Begin", mock.Anything)
		})
	}
}

func TestFlightService_SetState(t *testing.T) {
	ctx := context.Background()

	t.Run("キャンセル済みのフライトは予定に戻せない", func(t *testing.T) {
		tx := newTx(false)
		fr := new(MockFlightRepository)
		f := programmedFlight(1, nil)
		f.State = flight.StateCancelled
		fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(f, nil)

		svc := NewFlightService(newTxManager(tx), fr, new(MockReservationRepository), new(MockPublisher), nil)
		_, err := svc.SetState(ctx, SetStateInput{FlightID: 1, StateID: int(flight.StateProgrammed)})

		assert.ErrorIs(t, err, flight.ErrFlightCancelled)
		fr.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("キャンセル済みを再度キャンセルしても何もしない", func(t *testing.T) {
		tx := newTx(true)
		fr := new(MockFlightRepository)
		rr := new(MockReservationRepository)
		f := programmedFlight(1, nil)
		f.State = flight.StateCancelled
		fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(f, nil)

		svc := NewFlightService(newTxManager(tx), fr, rr, new(MockPublisher), nil)
		affected, err := svc.SetState(ctx, SetStateInput{FlightID: 1, StateID: int(flight.StateCancelled), Reason: "weather"})

		require.NoError(t, err)
		assert.Zero(t, affected)
		fr.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		rr.AssertNotCalled(t, "ListActiveIDsByFlight", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("予定のフライトをキャンセルするには理由が必要", func(t *testing.T) {
		tx := newTx(false)
		fr := new(MockFlightRepository)
		rr := new(MockReservationRepository)
		fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(programmedFlight(1, nil), nil)

		svc := NewFlightService(newTxManager(tx), fr, rr, new(MockPublisher), nil)
		_, err := svc.SetState(ctx, SetStateInput{FlightID: 1, StateID: int(flight.StateCancelled), Reason: "  "})

		assert.ErrorIs(t, err, flight.ErrReasonRequired)
		tx.AssertCalled(t, "Rollback")
		fr.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		rr.AssertNotCalled(t, "ListActiveIDsByFlight", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("キャンセル済みを理由なしで再度キャンセルしても何もしない", func(t *testing.T) {
		tx := newTx(true)
		fr := new(MockFlightRepository)
		f := programmedFlight(1, nil)
		f.State = flight.StateCancelled
		fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(f, nil)

		svc := NewFlightService(newTxManager(tx), fr, new(MockReservationRepository), new(MockPublisher), nil)
		affected, err := svc.SetState(ctx, SetStateInput{FlightID: 1, StateID: int(flight.StateCancelled)})

		require.NoError(t, err)
		assert.Zero(t, affected)
		fr.AssertNotCalled(t, "InsertStateReason", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("存在しないフライト", func(t *testing.T) {
		tx := newTx(false)
		fr := new(MockFlightRepository)
		fr.On("GetByID", mock.Anything, tx, int64(404), true).Return(nil, flight.ErrFlightNotFound)

		svc := NewFlightService(newTxManager(tx), fr, new(MockReservationRepository), new(MockPublisher), nil)
		_, err := svc.SetState(ctx, SetStateInput{FlightID: 404, StateID: int(flight.StateProgrammed)})

		assert.ErrorIs(t, err, flight.ErrFlightNotFound)
	})
}

func TestFlightService_CancelFlightCascade(t *testing.T) {
	ctx := context.Background()
	tx := newTx(true)
	fr := new(MockFlightRepository)
	rr := new(MockReservationRepository)
	pub := new(MockPublisher)
	cache := new(MockAvailabilityCache)

	fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(programmedFlight(1, int64Ptr(2)), nil)
	fr.On("UpdateState", mock.Anything, tx, int64(1), flight.StateCancelled).Return(nil)
	fr.On("InsertStateReason", mock.Anything, tx, int64(1), flight.StateCancelled, "機材故障").Return(nil)
	fr.On("ClearPairing", mock.Anything, tx, int64(1)).Return(nil)

	// 3件の有効な予約がフライト1を含む。予約11は往復で復路2も含む
	ids := []int64{10, 11, 12}
	rr.On("ListActiveIDsByFlight", mock.Anything, tx, int64(1)).Return(ids, nil)
	rr.On("CountItemsByOffering", mock.Anything, tx, int64(10)).Return([]reservation.OfferingCount{{FlightID: 1, ClassID: 1, Seats: 2}}, nil)
	rr.On("CountItemsByOffering", mock.Anything, tx, int64(11)).Return([]reservation.OfferingCount{
		{FlightID: 1, ClassID: 1, Seats: 1}, {FlightID: 2, ClassID: 1, Seats: 1},
	}, nil)
	rr.On("CountItemsByOffering", mock.Anything, tx, int64(12)).Return([]reservation.OfferingCount{{FlightID: 1, ClassID: 2, Seats: 3}}, nil)
	fr.On("IncrementCapacity", mock.Anything, tx, int64(1), int64(1), 2).Return(nil).Once()
	fr.On("IncrementCapacity", mock.Anything, tx, int64(1), int64(1), 1).Return(nil).Once()
	fr.On("IncrementCapacity", mock.Anything, tx, int64(2), int64(1), 1).Return(nil).Once()
	fr.On("IncrementCapacity", mock.Anything, tx, int64(1), int64(2), 3).Return(nil).Once()
	rr.On("UpdateItemsStatus", mock.Anything, tx, ids, reservation.StatusCancelled).Return(nil)
	rr.On("BulkUpdateStatus", mock.Anything, tx, ids, reservation.StatusCancelled).Return(3, nil)
	pub.On("Publish", mock.Anything, tx, mock.MatchedBy(func(e event.FlightCancelled) bool {
		return e.FlightID == 1 && e.AffectedReservations == 3 && e.Reason == "機材故障"
	})).Return(nil)
	cache.On("Invalidate", mock.Anything, mock.Anything).Return(nil)

	svc := NewFlightService(newTxManager(tx), fr, rr, pub, cache)
	affected, err := svc.CancelFlightCascade(ctx, 1, " 機材故障 ")

	require.NoError(t, err)
	assert.Equal(t, 3, affected)
	fr.AssertExpectations(t)
	rr.AssertExpectations(t)
	pub.AssertExpectations(t)
	cache.AssertCalled(t, "Invalidate", mock.Anything, []flight.OfferingKey{
		{FlightID: 1, ClassID: 1}, {FlightID: 1, ClassID: 1}, {FlightID: 2, ClassID: 1}, {FlightID: 1, ClassID: 2},
	})
	rr.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFlightService_SetState_Programmed(t *testing.T) {
	tx := newTx(true)
	fr := new(MockFlightRepository)
	f := programmedFlight(1, nil)
	fr.On("GetByID", mock.Anything, tx, int64(1), true).Return(f, nil)

	svc := NewFlightService(newTxManager(tx), fr, new(MockReservationRepository), new(MockPublisher), nil)
	affected, err := svc.SetState(context.Background(), SetStateInput{FlightID: 1, StateID: int(flight.StateProgrammed)})

	require.NoError(t, err)
	assert.Zero(t, affected)
	fr.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
