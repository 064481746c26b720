package middleware

import (
	"net/http"
	"strings"
	"time"

	"authsvc/internal/infra/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"  // string(uuid)
	CtxUserNameKey = "username" // string
)

// access tokenの検証（infra/token.JWTIssuerが実装）
type TokenVerifier interface {
	Verify(raw string, now time.Time) (*token.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// 署名・iss・aud・期限のどれかが駄目なら401 INVALID_TOKEN。
func AuthJWT(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("INVALID_TOKEN"))
			}

			claims, err := v.Verify(rawToken, time.Now())
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("INVALID_TOKEN"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, claims.Subject)
			c.Set(CtxUserNameKey, claims.Name)

			return next(c)
		}
	}
}

// Bearer形式か確認してtokenを抜く
func bearerToken(authz string) (string, bool) {
	parts := strings.SplitN(authz, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// handlerから認証済みユーザー名を取り出す
func UserName(c echo.Context) (string, bool) {
	name, ok := c.Get(CtxUserNameKey).(string)
	return name, ok && name != ""
}

// handlerから認証済みuser idを取り出す
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(CtxUserIDKey).(string)
	return id, ok && id != ""
}
