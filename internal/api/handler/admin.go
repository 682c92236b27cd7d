package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
)

// AdminHandler は管理者向けの予約・フライト操作
type AdminHandler struct {
	reservations ReservationServiceInterface
	flights      FlightServiceInterface
}

func NewAdminHandler(rs ReservationServiceInterface, fs FlightServiceInterface) *AdminHandler {
	return &AdminHandler{reservations: rs, flights: fs}
}

type SetFlightStateRequest struct {
	StateID int    `json:"state_id" validate:"required,gt=0" example:"2"`
	Reason  string `json:"reason" example:"機材故障"`
}

type SetFlightStateResponse struct {
	AffectedReservations int `json:"affected_reservations" example:"3"`
}

type ReservationStateResponse struct {
	ID   int    `json:"id" example:"1"`
	Name string `json:"name" example:"CREATED"`
}

type DestinationStatResponse struct {
	CityID  int64  `json:"city_id" example:"2"`
	City    string `json:"city" example:"Osaka"`
	Country string `json:"country" example:"Japan"`
	Tickets int    `json:"tickets" example:"120"`
}

// ListReservations godoc
// @Summary 予約を検索
// @Description q はメール・氏名（数値ならユーザーID）、user はユーザーIDまたはメール、flight はフライトIDまたはコード。to は含まない
// @Tags admin
// @Produce json
// @Param X-User-ID header int true "管理者のユーザーID"
// @Param X-User-Role header string true "admin"
// @Param q query string false "キーワード"
// @Param user query string false "ユーザー"
// @Param code query string false "予約コード"
// @Param flight query string false "フライト"
// @Param from query string false "作成日の下限 (YYYY-MM-DD)"
// @Param to query string false "作成日の上限 (YYYY-MM-DD)"
// @Param state query int false "予約状態ID"
// @Success 200 {array} ReservationResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Router /admin/reservations [get]
func (h *AdminHandler) ListReservations(c echo.Context) error {
	filter := reservation.AdminFilter{
		Query:  c.QueryParam("q"),
		User:   c.QueryParam("user"),
		Code:   c.QueryParam("code"),
		Flight: c.QueryParam("flight"),
	}
	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		return err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return err
	}
	if raw := c.QueryParam("state"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "予約状態が不正です")
		}
		status := reservation.Status(n)
		filter.Status = &status
	}

	list, err := h.reservations.ListAdmin(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponses(list))
}

// GetReservation godoc
// @Summary 予約の詳細を取得（管理者）
// @Tags admin
// @Produce json
// @Param id path int true "予約ID"
// @Success 200 {object} ReservationDetailResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /admin/reservations/{id} [get]
func (h *AdminHandler) GetReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.reservations.GetDetailAdmin(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationDetailResponse(d))
}

// CancelReservation godoc
// @Summary 予約をキャンセル（管理者）
// @Tags admin
// @Param id path int true "予約ID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /admin/reservations/{id}/cancel [post]
func (h *AdminHandler) CancelReservation(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.reservations.CancelForAdmin(c.Request().Context(), adminID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListStates godoc
// @Summary 予約状態の一覧
// @Tags admin
// @Produce json
// @Success 200 {array} ReservationStateResponse
// @Router /admin/reservation-states [get]
func (h *AdminHandler) ListStates(c echo.Context) error {
	states, err := h.reservations.ListStates(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]ReservationStateResponse, len(states))
	for i, s := range states {
		resp[i] = ReservationStateResponse{ID: s.ID, Name: s.Name}
	}
	return c.JSON(http.StatusOK, resp)
}

// TopDestinations godoc
// @Summary 販売座席数の多い目的地
// @Description 有効な予約のみを集計します
// @Tags admin
// @Produce json
// @Param from query string false "下限 (YYYY-MM-DD)"
// @Param to query string false "上限 (YYYY-MM-DD)"
// @Param limit query int false "件数" default(10)
// @Success 200 {array} DestinationStatResponse
// @Router /admin/reports/top-destinations [get]
func (h *AdminHandler) TopDestinations(c echo.Context) error {
	var from, to *time.Time
	var err error
	if from, err = queryDate(c, "from"); err != nil {
		return err
	}
	if to, err = queryDate(c, "to"); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	stats, err := h.reservations.TopDestinations(c.Request().Context(), from, to, limit)
	if err != nil {
		return err
	}
	resp := make([]DestinationStatResponse, len(stats))
	for i, s := range stats {
		resp[i] = DestinationStatResponse{CityID: s.CityID, City: s.City, Country: s.Country, Tickets: s.Tickets}
	}
	return c.JSON(http.StatusOK, resp)
}

// SetFlightState godoc
// @Summary フライトの状態を変更
// @Description キャンセル（state_id=2）には理由が必要で、有効な予約をすべてキャンセルし座席を在庫に戻します
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "フライトID"
// @Param request body SetFlightStateRequest true "新しい状態"
// @Success 200 {object} SetFlightStateResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "キャンセル済み"
// @Router /admin/flights/{id}/state [put]
func (h *AdminHandler) SetFlightState(c echo.Context) error {
	flightID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req SetFlightStateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	affected, err := h.flights.SetState(c.Request().Context(), application.SetStateInput{
		FlightID: flightID, StateID: req.StateID, Reason: req.Reason,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, SetFlightStateResponse{AffectedReservations: affected})
}
