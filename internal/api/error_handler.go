package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-airline-reservation/internal/application"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/cart"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/checkout"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/flight"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-airline-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-airline-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
// Remaining と Max は空席不足のときだけ設定される
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      int    `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
	Max       *int   `json:"max,omitempty"`
}

var statusByError = []struct {
	err  error
	code int
}{
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{flight.ErrInvalidState, http.StatusBadRequest},
	{flight.ErrReasonRequired, http.StatusBadRequest},
	{reservation.ErrInvalidStatus, http.StatusBadRequest},
	{checkout.ErrCartEmpty, http.StatusBadRequest},
	{application.ErrSameAccount, http.StatusBadRequest},

	{reservation.ErrForbidden, http.StatusForbidden},

	{cart.ErrCartNotFound, http.StatusNotFound},
	{cart.ErrItemNotFound, http.StatusNotFound},
	{cart.ErrUserNotFound, http.StatusNotFound},
	{flight.ErrFlightNotFound, http.StatusNotFound},
	{flight.ErrOfferingNotFound, http.StatusNotFound},
	{reservation.ErrReservationNotFound, http.StatusNotFound},

	{flight.ErrInsufficientCapacity, http.StatusConflict},
	{checkout.ErrCapacityChanged, http.StatusConflict},
	{flight.ErrFlightNotBookable, http.StatusConflict},
	{flight.ErrFlightCancelled, http.StatusConflict},
	{reservation.ErrNotCancellable, http.StatusConflict},
	{transaction.ErrConflict, http.StatusConflict},
}

// NewErrorResponse はエラーから HTTP ステータスとレスポンスを組み立てる
func NewErrorResponse(err error) (int, ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		message := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
		return he.Code, ErrorResponse{Error: message, Code: he.Code}
	}

	code := http.StatusInternalServerError
	for _, s := range statusByError {
		if errors.Is(err, s.err) {
			code = s.code
			break
		}
	}
	if code == http.StatusInternalServerError {
		return code, ErrorResponse{Error: "内部サーバーエラー", Code: code}
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	// 競合の詳細はドライバのエラーを含むので返さない
	if errors.Is(err, transaction.ErrConflict) {
		resp.Error = transaction.ErrConflict.Error()
		return code, resp
	}
	var capErr *flight.CapacityError
	if errors.As(err, &capErr) {
		remaining := capErr.Remaining
		resp.Remaining = &remaining
		resp.Details = string(capErr.Leg)
		if capErr.Max > 0 {
			limit := capErr.Max
			resp.Max = &limit
		}
	}
	return code, resp
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, resp := NewErrorResponse(err)

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
