package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-airline-reservation/internal/api"
	"github.com/sanosuguru/go-airline-reservation/internal/api/middleware"
)

// NewTestEcho はテスト用のEchoインスタンスを作成する
func NewTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}

// WithUser はテスト用にユーザーIDとロールを設定したコンテキストを返す
func WithUser(c echo.Context, userID int64, role string) echo.Context {
	c.Request().Header.Set(middleware.HeaderUserID, strconv.FormatInt(userID, 10))
	if role != "" {
		c.Request().Header.Set(middleware.HeaderUserRole, role)
	}
	_ = middleware.RequireUser()(func(echo.Context) error { return nil })(c)
	return c
}
