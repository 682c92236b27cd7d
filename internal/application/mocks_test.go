package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockFlightRepository implements flight.Repository
type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetByID(ctx context.Context, tx transaction.Tx, id int64, forUpdate bool) (*flight.Flight, error) {
	args := m.Called(ctx, tx, id, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetOffering(ctx context.Context, tx transaction.Tx, flightID, classID int64, forUpdate bool) (*flight.Offering, error) {
	args := m.Called(ctx, tx, flightID, classID, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Offering), args.Error(1)
}

func (m *MockFlightRepository) ReservedCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error) {
	args := m.Called(ctx, tx, flightID, classID)
	return args.Int(0), args.Error(1)
}

func (m *MockFlightRepository) CartHeldCount(ctx context.Context, tx transaction.Tx, flightID, classID int64) (int, error) {
	args := m.Called(ctx, tx, flightID, classID)
	return args.Int(0), args.Error(1)
}

func (m *MockFlightRepository) IncrementCapacity(ctx context.Context, tx transaction.Tx, flightID, classID int64, delta int) error {
	args := m.Called(ctx, tx, flightID, classID, delta)
	return args.Error(0)
}

func (m *MockFlightRepository) UpdateState(ctx context.Context, tx transaction.Tx, flightID int64, state flight.State) error {
	args := m.Called(ctx, tx, flightID, state)
	return args.Error(0)
}

func (m *MockFlightRepository) InsertStateReason(ctx context.Context, tx transaction.Tx, flightID int64, state flight.State, reason string) error {
	args := m.Called(ctx, tx, flightID, state, reason)
	return args.Error(0)
}

func (m *MockFlightRepository) ClearPairing(ctx context.Context, tx transaction.Tx, flightID int64) error {
	args := m.Called(ctx, tx, flightID)
	return args.Error(0)
}

// MockCartRepository implements cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) Ensure(ctx context.Context, tx transaction.Tx, userID int64) (int64, error) {
	args := m.Called(ctx, tx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCartRepository) Lock(ctx context.Context, tx transaction.Tx, cartID int64) error {
	args := m.Called(ctx, tx, cartID)
	return args.Error(0)
}

func (m *MockCartRepository) GetByUserID(ctx context.Context, tx transaction.Tx, userID int64) (*cart.Cart, error) {
	args := m.Called(ctx, tx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) ListSummaryItems(ctx context.Context, cartID int64) ([]cart.SummaryItem, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.SummaryItem), args.Error(1)
}

func (m *MockCartRepository) ListItems(ctx context.Context, tx transaction.Tx, cartID int64) ([]cart.Item, error) {
	args := m.Called(ctx, tx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Item), args.Error(1)
}

func (m *MockCartRepository) FindItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) (*cart.Item, error) {
	args := m.Called(ctx, tx, cartID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartRepository) FindItemByOffering(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64) (*cart.Item, error) {
	args := m.Called(ctx, tx, cartID, flightID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartRepository) UpsertItem(ctx context.Context, tx transaction.Tx, cartID, flightID, classID int64, quantity int, unitPrice decimal.Decimal) error {
	args := m.Called(ctx, tx, cartID, flightID, classID, quantity, unitPrice)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateItemQuantity(ctx context.Context, tx transaction.Tx, cartID, itemID int64, quantity int) error {
	args := m.Called(ctx, tx, cartID, itemID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteItem(ctx context.Context, tx transaction.Tx, cartID, itemID int64) error {
	args := m.Called(ctx, tx, cartID, itemID)
	return args.Error(0)
}

func (m *MockCartRepository) ReplaceItems(ctx context.Context, tx transaction.Tx, cartID int64, items []cart.Item) error {
	args := m.Called(ctx, tx, cartID, items)
	return args.Error(0)
}

func (m *MockCartRepository) ClearItems(ctx context.Context, tx transaction.Tx, cartID int64) error {
	args := m.Called(ctx, tx, cartID)
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id int64) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountItemsByOffering(ctx context.Context, tx transaction.Tx, reservationID int64) ([]reservation.OfferingCount, error) {
	args := m.Called(ctx, tx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.OfferingCount), args.Error(1)
}

func (m *MockReservationRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id int64, status reservation.Status) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *MockReservationRepository) UpdateItemsStatus(ctx context.Context, tx transaction.Tx, reservationIDs []int64, status reservation.Status) error {
	args := m.Called(ctx, tx, reservationIDs, status)
	return args.Error(0)
}

func (m *MockReservationRepository) ListActiveIDsByFlight(ctx context.Context, tx transaction.Tx, flightID int64) ([]int64, error) {
	args := m.Called(ctx, tx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockReservationRepository) BulkUpdateStatus(ctx context.Context, tx transaction.Tx, ids []int64, status reservation.Status) (int, error) {
	args := m.Called(ctx, tx, ids, status)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) LinkAgent(ctx context.Context, tx transaction.Tx, reservationID, agentUserID int64) error {
	args := m.Called(ctx, tx, reservationID, agentUserID)
	return args.Error(0)
}

func (m *MockReservationRepository) ListByUser(ctx context.Context, userID int64) ([]reservation.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Summary), args.Error(1)
}

func (m *MockReservationRepository) ListAdmin(ctx context.Context, filter reservation.AdminFilter) ([]reservation.Summary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Summary), args.Error(1)
}

func (m *MockReservationRepository) GetSummary(ctx context.Context, id int64) (*reservation.Summary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Summary), args.Error(1)
}

func (m *MockReservationRepository) ListDetailItems(ctx context.Context, id int64) ([]reservation.DetailItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.DetailItem), args.Error(1)
}

func (m *MockReservationRepository) ListStates(ctx context.Context) ([]reservation.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.State), args.Error(1)
}

func (m *MockReservationRepository) TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]reservation.DestinationStat, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.DestinationStat), args.Error(1)
}

func (m *MockReservationRepository) CountByStatus(ctx context.Context) (map[reservation.Status]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[reservation.Status]int), args.Error(1)
}

// MockExecutor implements checkout.Executor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, tx transaction.Tx, userID, cartID int64) (int64, error) {
	args := m.Called(ctx, tx, userID, cartID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPublisher implements EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, tx transaction.Tx, event any) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

// MockAvailabilityCache implements AvailabilityCache
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) Get(ctx context.Context, flightID, classID int64) (*flight.Availability, error) {
	args := m.Called(ctx, flightID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Availability), args.Error(1)
}

func (m *MockAvailabilityCache) Set(ctx context.Context, a *flight.Availability, ttl time.Duration) error {
	args := m.Called(ctx, a, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, keys ...flight.OfferingKey) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// === Helpers ===

func newTx(commit bool) *MockTx {
	tx := new(MockTx)
	if commit {
		tx.On("Commit").Return(nil)
	} else {
		tx.On("Rollback").Return(nil)
	}
	return tx
}

func newTxManager(tx *MockTx) *MockTxManager {
	tm := new(MockTxManager)
	tm.On("Begin", mock.Anything).Return(tx, nil)
	return tm
}

func programmedFlight(id int64, paired *int64) *flight.Flight {
	return &flight.Flight{ID: id, Code: fmt.Sprintf("JL%03d", id), Active: true, State: flight.StateProgrammed, PairedFlightID: paired}
}

func int64Ptr(v int64) *int64 { return &v }

// expectOffering は販売設定と席数の読み取りを設定する
func expectOffering(fr *MockFlightRepository, flightID, classID int64, capacity, reserved, held int, price string) {
	fr.On("GetOffering", mock.Anything, mock.Anything, flightID, classID, true).
		Return(&flight.Offering{FlightID: flightID, ClassID: classID, Capacity: capacity, Price: decimal.RequireFromString(price)}, nil)
	fr.On("ReservedCount", mock.Anything, mock.Anything, flightID, classID).Return(reserved, nil)
	fr.On("CartHeldCount", mock.Anything, mock.Anything, flightID, classID).Return(held, nil)
}
