package middleware

import (
	"net/http"

	"authsvc/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのsubが今もDBに存在するか確認。
// 署名が正しくても、消されたユーザーのtokenは通さない。
func UserExistsGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//AuthJWTが入れたuser_idを取得する
			userID, ok := UserID(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("INVALID_TOKEN"))
			}

			//DBから最新のuserを取得する
			user, err := users.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("INVALID_TOKEN"))
			}

			//名前はDBの値で上書き
			c.Set(CtxUserNameKey, user.UserName)

			return next(c)
		}
	}
}
