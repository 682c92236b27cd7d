package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// 呼び出し元を識別するヘッダー
// 認証は上流のゲートウェイが行い、ここでは検証済みの値を受け取る
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// ロール
const (
	RoleAdmin  = "admin"
	RoleAgency = "agency"
)

const (
	userIDKey   = "user_id"
	userRoleKey = "user_role"
)

// RequireUser は X-User-ID を検証してコンテキストに格納する
// ヘッダーがない場合は 401、数値でない場合は 400 を返す
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderUserID)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
			}
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return echo.NewHTTPError(http.StatusBadRequest, "ユーザーIDが不正です")
			}
			c.Set(userIDKey, id)
			c.Set(userRoleKey, c.Request().Header.Get(HeaderUserRole))
			return next(c)
		}
	}
}

// RequireRole は X-User-Role が role でなければ 403 を返す
// RequireUser の後に適用する
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserRole(c) != role {
				return echo.NewHTTPError(http.StatusForbidden, "この操作を行う権限がありません")
			}
			return next(c)
		}
	}
}

// UserID は RequireUser が格納したユーザーIDを返す
func UserID(c echo.Context) (int64, bool) {
	id, ok := c.Get(userIDKey).(int64)
	return id, ok
}

// UserRole は呼び出し元のロールを返す
func UserRole(c echo.Context) string {
	if role, ok := c.Get(userRoleKey).(string); ok {
		return role
	}
	return c.Request().Header.Get(HeaderUserRole)
}
