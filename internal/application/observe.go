package application

import (
	"errors"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/checkout"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/metrics"
)

// resultLabel はメトリクスの status ラベルを返す
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, flight.ErrInsufficientCapacity), errors.Is(err, checkout.ErrCapacityChanged):
		return "capacity"
	case errors.Is(err, checkout.ErrCartEmpty):
		return "empty"
	case errors.Is(err, transaction.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func observeCartOperation(operation string, err error) {
	if m := metrics.Get(); m != nil {
		m.CartOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
	}
}

func observeCheckout(err error) {
	if m := metrics.Get(); m != nil {
		m.CheckoutsTotal.WithLabelValues(resultLabel(err)).Inc()
	}
}

func observeCancellation(kind string, reservations, seats int) {
	if m := metrics.Get(); m != nil {
		m.ReservationCancellationsTotal.WithLabelValues(kind).Add(float64(reservations))
		m.SeatsRestitutedTotal.Add(float64(seats))
	}
}
