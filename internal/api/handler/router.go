package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-airline-reservation/internal/api/middleware"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Health      *HealthHandler
	Cart        *CartHandler
	Checkout    *CheckoutHandler
	Reservation *ReservationHandler
	Admin       *AdminHandler
	Flight      *FlightHandler
}

// RegisterRoutes は /health, /ready と /api/v1 以下のルートを登録する
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/health", h.Health.Check)
	e.GET("/ready", h.Health.Ready)

	v1 := e.Group("/api/v1", middleware.RequireUser())

	v1.GET("/flights/:id/classes/:class_id/availability", h.Flight.GetAvailability)

	v1.GET("/cart", h.Cart.Get)
	v1.POST("/cart/items", h.Cart.AddItem)
	v1.PUT("/cart/items/:id", h.Cart.UpdateItem)
	v1.DELETE("/cart/items/:id", h.Cart.RemoveItem)

	v1.POST("/checkout", h.Checkout.Checkout)

	v1.GET("/reservations", h.Reservation.List)
	v1.GET("/reservations/:id", h.Reservation.GetByID)
	v1.POST("/reservations/:id/cancel", h.Reservation.Cancel)

	agency := v1.Group("/agency", middleware.RequireRole(middleware.RoleAgency))
	agency.POST("/checkout", h.Checkout.CheckoutOnBehalf)

	admin := v1.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.GET("/reservations", h.Admin.ListReservations)
	admin.GET("/reservations/:id", h.Admin.GetReservation)
	admin.POST("/reservations/:id/cancel", h.Admin.CancelReservation)
	admin.GET("/reservation-states", h.Admin.ListStates)
	admin.GET("/reports/top-destinations", h.Admin.TopDestinations)
	admin.PUT("/flights/:id/state", h.Admin.SetFlightState)
}
