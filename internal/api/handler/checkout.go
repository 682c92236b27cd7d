package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	service CheckoutServiceInterface
}

func NewCheckoutHandler(s CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{service: s}
}

type AgencyCheckoutRequest struct {
	CustomerID int64 `json:"customer_id" validate:"required,gt=0" example:"42"`
}

type CheckoutResponse struct {
	ReservationID int64 `json:"reservation_id" example:"1001"`
}

// Checkout godoc
// @Summary カートを購入
// @Description カートの座席を再検証して予約に変換し、カートを空にします
// @Tags checkout
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 201 {object} CheckoutResponse
// @Failure 400 {object} api.ErrorResponse "カートが空"
// @Failure 409 {object} api.ErrorResponse "空席状況が変わった"
// @Router /checkout [post]
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := h.service.Checkout(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{ReservationID: id})
}

// CheckoutOnBehalf godoc
// @Summary 代理店が顧客の代わりに購入
// @Description 代理店のカートを顧客のカートに移して購入し、予約に代理店を記録します
// @Tags agency
// @Accept json
// @Produce json
// @Param X-User-ID header int true "代理店のユーザーID"
// @Param X-User-Role header string true "agency"
// @Param request body AgencyCheckoutRequest true "顧客"
// @Success 201 {object} CheckoutResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /agency/checkout [post]
func (h *CheckoutHandler) CheckoutOnBehalf(c echo.Context) error {
	agentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req AgencyCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id, err := h.service.CheckoutOnBehalf(c.Request().Context(), agentID, req.CustomerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CheckoutResponse{ReservationID: id})
}
