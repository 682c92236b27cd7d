package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
)

// CartServiceInterface はカートサービスのインターフェース
type CartServiceInterface interface {
	GetCart(ctx context.Context, userID int64) (*cart.Summary, error)
	AddItem(ctx context.Context, input application.AddItemInput) error
	UpdateQuantity(ctx context.Context, input application.UpdateQuantityInput) error
	RemoveItem(ctx context.Context, input application.RemoveItemInput) error
}

// CheckoutServiceInterface は購入サービスのインターフェース
type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, userID int64) (int64, error)
	CheckoutOnBehalf(ctx context.Context, agentID, customerID int64) (int64, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	ListByUser(ctx context.Context, userID int64) ([]reservation.Summary, error)
	GetDetail(ctx context.Context, userID, reservationID int64) (*reservation.Detail, error)
	CancelForUser(ctx context.Context, userID, reservationID int64) error
	ListAdmin(ctx context.Context, filter reservation.AdminFilter) ([]reservation.Summary, error)
	GetDetailAdmin(ctx context.Context, reservationID int64) (*reservation.Detail, error)
	CancelForAdmin(ctx context.Context, adminID, reservationID int64) error
	ListStates(ctx context.Context) ([]reservation.State, error)
	TopDestinations(ctx context.Context, from, to *time.Time, limit int) ([]reservation.DestinationStat, error)
}

// FlightServiceInterface はフライト状態サービスのインターフェース
type FlightServiceInterface interface {
	SetState(ctx context.Context, input application.SetStateInput) (int, error)
}

// AvailabilityServiceInterface は空席照会サービスのインターフェース
type AvailabilityServiceInterface interface {
	GetAvailability(ctx context.Context, flightID, classID int64) (*flight.Availability, error)
}
