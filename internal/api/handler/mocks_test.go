package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
)

// MockCartService はCartServiceInterfaceのモック
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) GetCart(ctx context.Context, userID int64) (*cart.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Summary), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, input application.AddItemInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, input application.UpdateQuantityInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockCartService) RemoveItem(ctx context.Context, input application.RemoveItemInput) error {
	return m.Called(ctx, input).Error(0)
}

// MockCheckoutService はCheckoutServiceInterfaceのモック
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCheckoutService) CheckoutOnBehalf(ctx context.Context, agentID, customerID int64) (int64, error) {
	args := m.Called(ctx, agentID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) ListByUser(ctx context.Context, userID int64) ([]reservation.Summary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Summary), args.Error(1)
}

func (m *MockReservationService) GetDetail(ctx context.Context, userID, reservationID int64) (*reservation.Detail, error) {
	args := m.Called(ctx, userID, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Detail), args.Error(1)
}

func (m *MockReservationService) CancelForUser(ctx context.Context, userID, reservationID int64) error {
	return m.Called(ctx, userID, reservationID).Error(0)
}

func (m *MockReservationService) ListAdmin(ctx context.Context, filter reservation.AdminFilter) ([]reservation.Summary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Summary), args.Error(1)
}

func (m *MockReservationService) GetDetailAdmin(ctx context.Context, reservationID int64) (*reservation.Detail, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Detail), args.Error(1)
}

func (m *MockReservationService) CancelForAdmin(ctx context.Context, adminID, reservationID int64) error {
	return m.Called(ctx, adminID, reservationID).Error(0)
}

func (m *MockReservationService) ListStates(ctx context.Context) ([]reservation.State, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.State), args.Error(1)
}

func (m *MockReservationService) TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]reservation.DestinationStat, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.DestinationStat), args.Error(1)
}

// MockFlightService はFlightServiceInterfaceのモック
type MockFlightService struct {
	mock.Mock
}

func (m *MockFlightService) SetState(ctx context.Context, input application.SetStateInput) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

// MockAvailabilityService はAvailabilityServiceInterfaceのモック
type MockAvailabilityService struct {
	mock.Mock
}

func (m *MockAvailabilityService) GetAvailability(ctx context.Context, flightID, classID int64) (*flight.Availability, error) {
	args := m.Called(ctx, flightID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*flight.Availability), args.Error(1)
}

type testMocks struct {
	cart         *MockCartService
	checkout     *MockCheckoutService
	reservation  *MockReservationService
	flight       *MockFlightService
	availability *MockAvailabilityService
}

// newTestRouter はモックを使ってルーティング込みのEchoを作成する
func newTestRouter() (*echo.Echo, *testMocks) {
	m := &testMocks{
		cart:         new(MockCartService),
		checkout:     new(MockCheckoutService),
		reservation:  new(MockReservationService),
		flight:       new(MockFlightService),
		availability: new(MockAvailabilityService),
	}
	e := NewTestEcho()
	RegisterRoutes(e, Handlers{
		Health:      NewHealthHandler(nil),
		Cart:        NewCartHandler(m.cart),
		Checkout:    NewCheckoutHandler(m.checkout),
		Reservation: NewReservationHandler(m.reservation),
		Admin:       NewAdminHandler(m.reservation, m.flight),
		Flight:      NewFlightHandler(m.availability),
	})
	return e, m
}

// serve はユーザーヘッダー付きでリクエストを送る
func serve(e *echo.Echo, method, target, body, userID, role string) *httptest.ResponseRecorder {
	var req = httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if role != "" {
		req.Header.Set("X-User-Role", role)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
