package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
)

type CartHandler struct {
	service CartServiceInterface
}

func NewCartHandler(s CartServiceInterface) *CartHandler {
	return &CartHandler{service: s}
}

type AddCartItemRequest struct {
	FlightID    int64 `json:"flight_id" validate:"required,gt=0" example:"101"`
	ClassID     int64 `json:"class_id" validate:"required,gt=0" example:"1"`
	Quantity    int   `json:"quantity" validate:"required,gte=1" example:"2"`
	IncludePair bool  `json:"include_pair" example:"true"`
}

type UpdateCartItemRequest struct {
	Quantity int  `json:"quantity" validate:"required,gte=1" example:"3"`
	SyncPair bool `json:"sync_pair" example:"true"`
}

type CartItemResponse struct {
	ID                 int64     `json:"id" example:"10"`
	FlightID           int64     `json:"flight_id" example:"101"`
	FlightCode         string    `json:"flight_code" example:"JL101"`
	DepartureAt        time.Time `json:"departure_at"`
	ArrivalAt          time.Time `json:"arrival_at"`
	ClassID            int64     `json:"class_id" example:"1"`
	ClassName          string    `json:"class_name" example:"Economy"`
	Quantity           int       `json:"quantity" example:"2"`
	UnitPrice          string    `json:"unit_price" example:"120.50"`
	Subtotal           string    `json:"subtotal" example:"241.00"`
	OriginCity         string    `json:"origin_city" example:"Tokyo"`
	OriginCountry      string    `json:"origin_country" example:"Japan"`
	DestinationCity    string    `json:"destination_city" example:"Osaka"`
	DestinationCountry string    `json:"destination_country" example:"Japan"`
}

type CartResponse struct {
	ID        int64              `json:"id" example:"1"`
	UserID    int64              `json:"user_id" example:"42"`
	CreatedAt time.Time          `json:"created_at"`
	Total     string             `json:"total" example:"241.00"`
	Items     []CartItemResponse `json:"items"`
}

func toCartResponse(s *cart.Summary) CartResponse {
	items := make([]CartItemResponse, len(s.Items))
	for i, it := range s.Items {
		items[i] = CartItemResponse{
			ID: it.ItemID, FlightID: it.FlightID, FlightCode: it.FlightCode,
			DepartureAt: it.DepartureAt, ArrivalAt: it.ArrivalAt,
			ClassID: it.ClassID, ClassName: it.ClassName, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2), Subtotal: it.Subtotal.StringFixed(2),
			OriginCity: it.OriginCity, OriginCountry: it.OriginCountry,
			DestinationCity: it.DestinationCity, DestinationCountry: it.DestinationCountry,
		}
	}
	return CartResponse{
		ID: s.CartID, UserID: s.UserID, CreatedAt: s.CreatedAt,
		Total: s.Total.StringFixed(2), Items: items,
	}
}

// Get godoc
// @Summary カートを取得
// @Description ログインユーザーのカートを取得します（なければ作成）
// @Tags cart
// @Produce json
// @Param X-User-ID header int true "ユーザーID"
// @Success 200 {object} CartResponse
// @Failure 401 {object} api.ErrorResponse
// @Router /cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	s, err := h.service.GetCart(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCartResponse(s))
}

// AddItem godoc
// @Summary カートに座席を追加
// @Description 空席を確認して座席を確保します。include_pair で往復ペアの復路にも同数を追加します
// @Tags cart
// @Accept json
// @Param X-User-ID header int true "ユーザーID"
// @Param request body AddCartItemRequest true "追加する座席"
// @Success 204
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "空席不足または予約不可"
// @Router /cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req AddCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.AddItem(c.Request().Context(), application.AddItemInput{
		UserID: userID, FlightID: req.FlightID, ClassID: req.ClassID,
		Quantity: req.Quantity, IncludePair: req.IncludePair,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateItem godoc
// @Summary カート明細の数量を変更
// @Description 増やす場合は空席を確認します。sync_pair で往復ペアの明細も同じ数量にします
// @Tags cart
// @Accept json
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "カート明細ID"
// @Param request body UpdateCartItemRequest true "新しい数量"
// @Success 204
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "増やせる上限を max で返す"
// @Router /cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.service.UpdateQuantity(c.Request().Context(), application.UpdateQuantityInput{
		UserID: userID, ItemID: itemID, Quantity: req.Quantity, SyncPair: req.SyncPair,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveItem godoc
// @Summary カート明細を削除
// @Tags cart
// @Param X-User-ID header int true "ユーザーID"
// @Param id path int true "カート明細ID"
// @Param sync_pair query bool false "往復ペアの明細も削除する"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Router /cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	syncPair, _ := strconv.ParseBool(c.QueryParam("sync_pair"))
	if err := h.service.RemoveItem(c.Request().Context(), application.RemoveItemInput{
		UserID: userID, ItemID: itemID, SyncPair: syncPair,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
