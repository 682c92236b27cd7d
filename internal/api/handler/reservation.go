package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
)

type ReservationHandler struct {
	service ReservationServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s}
}

type ReservationResponse struct {
	ID         int64     `json:"id" example:"1001"`
	UserID     int64     `json:"user_id" example:"42"`
	Status     string    `json:"status" example:"active"`
	Total      string    `json:"total" example:"280.00"`
	Code       string    `json:"code" example:"RES-20260101-001001"`
	CreatedAt  time.Time `json:"created_at"`
	BuyerName  string    `json:"buyer_name,omitempty" example:"Taro Yamada"`
	BuyerEmail string    `json:"buyer_email,omitempty" example:"taro@example.com"`
}

type ReturnLegResponse struct {
	FlightCode         string    `json:"flight_code" example:"JL102"`
	DepartureAt        time.Time `json:"departure_at"`
	ArrivalAt          time.Time `json:"arrival_at"`
	OriginCity         string    `json:"origin_city"`
	OriginCountry      string    `json:"origin_country"`
	DestinationCity    string    `json:"destination_city"`
	DestinationCountry string    `json:"destination_country"`
}

type ReservationItemResponse struct {
	FlightID           int64              `json:"flight_id" example:"101"`
	FlightCode         string             `json:"flight_code" example:"JL101"`
	DepartureAt        time.Time          `json:"departure_at"`
	ArrivalAt          time.Time          `json:"arrival_at"`
	ClassID            int64              `json:"class_id" example:"1"`
	ClassName          string             `json:"class_name" example:"Economy"`
	Seats              int                `json:"seats" example:"2"`
	UnitPrice          string             `json:"unit_price" example:"100.00"`
	Subtotal           string             `json:"subtotal" example:"200.00"`
	OriginCity         string             `json:"origin_city"`
	OriginCountry      string             `json:"origin_country"`
	DestinationCity    string             `json:"destination_city"`
	DestinationCountry string             `json:"destination_country"`
	Return             *ReturnLegResponse `json:"return,omitempty"`
}

type ReservationDetailResponse struct {
	ReservationResponse
	Items []ReservationItemResponse `json:"items"`
}

func statusName(s reservation.Status) string {
	switch s {
	case reservation.StatusActive:
		return "active"
	case reservation.StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func toReservationResponse(r reservation.Summary) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, UserID: r.UserID, Status: statusName(r.Status),
		Total: r.Total.StringFixed(2), Code: r.Code, CreatedAt: r.CreatedAt,
		BuyerName: r.BuyerName, BuyerEmail: r.BuyerEmail,
	}
}

func toReservationResponses(list []reservation.Summary) []ReservationResponse {
	resp := make([]ReservationResponse, len(list))
	for i, r := range list {
		resp[i] = toReservationResponse(r)
	}
	return resp
}

func toReservationDetailResponse(d *reservation.Detail) ReservationDetailResponse {
	items := make([]ReservationItemResponse, len(d.Items))
	for i, it := range d.Items {
		items[i] = ReservationItemResponse{
			FlightID: it.FlightID, FlightCode: it.FlightCode,
			DepartureAt: it.DepartureAt, ArrivalAt: it.ArrivalAt,
			ClassID: it.ClassID, ClassName: it.ClassName, Seats: it.Seats,
			UnitPrice: it.UnitPrice.StringFixed(2), Subtotal: it.Subtotal.StringFixed(2),
			OriginCity: it.OriginCity, OriginCountry: it.OriginCountry,
			DestinationCity: it.DestinationCity, DestinationCountry: it.DestinationCountry,
		}
		if ret := it.Return; ret != nil {
			items[i].Return = &ReturnLegResponse{
				FlightCode: ret.FlightCode, DepartureAt: ret.DepartureAt, ArrivalAt: ret.ArrivalAt,
				OriginCity: ret.OriginCity, OriginCountry: ret.OriginCountry,
				DestinationCity: ret.DestinationCity, DestinationCountry: ret.DestinationCountry,
			}
		}
	}
	return ReservationDetailResponse{ReservationResponse: toReservationResponse(d.Summary), Items: items}
}

// List godoc
// @Summary ユーザーの予約一覧を取得
// @Description ログインユーザーの予約を新しい順に取得します
// @Tags reservations
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 200 {array} ReservationResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponses(list))
}

// GetByID godoc
// @Summary 予約の詳細を取得
// @Description 明細をフライト×クラスでまとめて返します
// @Tags reservations
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "予約ID"
// @Success 200 {object} ReservationDetailResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.service.GetDetail(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationDetailResponse(d))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 予約をキャンセルし、座席を在庫に戻します
// @Tags reservations
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "予約ID"
// @Success 204
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "キャンセル済み"
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.CancelForUser(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
