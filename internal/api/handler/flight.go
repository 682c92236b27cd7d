package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type FlightHandler struct {
	service AvailabilityServiceInterface
}

func NewFlightHandler(s AvailabilityServiceInterface) *FlightHandler {
	return &FlightHandler{service: s}
}

type AvailabilityResponse struct {
	FlightID  int64 `json:"flight_id" example:"101"`
	ClassID   int64 `json:"class_id" example:"1"`
	Capacity  int   `json:"capacity" example:"180"`
	Reserved  int   `json:"reserved" example:"120"`
	Held      int   `json:"held" example:"5"`
	Available int   `json:"available" example:"55"`
}

// GetAvailability godoc
// @Summary 空席数を取得
// @Description 表示用の空席数です。座席の確保はカート追加時に改めて検証されます
// @Tags flights
// @Produce json
// @Param id path int true "フライトID"
// @Param class_id path int true "クラスID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /flights/{id}/classes/{class_id}/availability [get]
func (h *FlightHandler) GetAvailability(c echo.Context) error {
	flightID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	classID, err := pathID(c, "class_id")
	if err != nil {
		return err
	}
	a, err := h.service.GetAvailability(c.Request().Context(), flightID, classID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		FlightID: a.FlightID, ClassID: a.ClassID,
		Capacity: a.Capacity, Reserved: a.Reserved, Held: a.Held,
		Available: a.Remaining(),
	})
}
