package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"authsvc/internal/observability"
	auth "authsvc/internal/usecase/auth_usecase"
	"authsvc/internal/validator"

	"github.com/labstack/echo/v4"
)

// refresh tokenを入れるcookie名
const RefreshCookieName = "refreshToken"

// /auth/* のHTTP
type AuthHandler struct {
	svc          *auth.Service
	cookieSecure bool
	now          func() time.Time
}

// DI
func NewAuthHandler(svc *auth.Service, cookieSecure bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure, now: time.Now}
}

// /auth/register, /auth/login のリクエストボディ。
type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	VisitorID string `json:"visitorId"`
	RequestID string `json:"requestId"`
}

// /auth/refresh のリクエストボディ。
type refreshRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// /auth 配下を登録
func (h *AuthHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/refresh", h.refresh)
	g.POST("/logout", h.logout)
}

func (h *AuthHandler) register(c echo.Context) error {
	in, ok, err := h.bindCredentials(c, "register")
	if !ok {
		return err
	}

	out, side, err := h.svc.Register(c.Request().Context(), in, clientMeta(c))
	observability.RecordAuthAttempt("register", outcome(err))
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, side)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	in, ok, err := h.bindCredentials(c, "login")
	if !ok {
		return err
	}

	out, side, err := h.svc.Login(c.Request().Context(), in, clientMeta(c))
	observability.RecordAuthAttempt("login", outcome(err))
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, side)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		observability.RecordAuthAttempt("refresh", "VALIDATION_ERROR")
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: "invalid body"})
	}

	//cookieが無ければ空文字（MissingTokenはService側で判定）
	var plain string
	if ck, err := c.Cookie(RefreshCookieName); err == nil {
		plain = ck.Value
	}

	out, side, err := h.svc.Refresh(c.Request().Context(), auth.RefreshInput{
		RefreshToken: plain,
		Fingerprint:  strings.TrimSpace(req.Fingerprint),
	}, clientMeta(c))
	observability.RecordAuthAttempt("refresh", outcome(err))
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, side)
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) logout(c echo.Context) error {
	var plain string
	if ck, err := c.Cookie(RefreshCookieName); err == nil {
		plain = ck.Value
	}

	out, side, err := h.svc.Logout(c.Request().Context(), plain, clientMeta(c))
	observability.RecordAuthAttempt("logout", outcome(err))

	//成功でも失敗でもcookieは消す
	if side.Clear {
		h.clearRefreshCookie(c)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// bodyを読み、形式チェックまで行う。okがfalseならレスポンスは書き込み済み
func (h *AuthHandler) bindCredentials(c echo.Context, op string) (auth.CredentialsInput, bool, error) {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		observability.RecordAuthAttempt(op, "VALIDATION_ERROR")
		return auth.CredentialsInput{}, false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: "invalid body"})
	}

	if err := validator.ValidateCredentials(req.Email, req.Password, req.VisitorID, req.RequestID); err != nil {
		observability.RecordAuthAttempt(op, "VALIDATION_ERROR")
		return auth.CredentialsInput{}, false, writeError(c, err)
	}

	return auth.CredentialsInput{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		VisitorID: strings.TrimSpace(req.VisitorID),
		RequestID: strings.TrimSpace(req.RequestID),
	}, true, nil
}

// refresh tokenをCookieにセット（session の期限と同じ時刻で切れる）
func (h *AuthHandler) setRefreshCookie(c echo.Context, side auth.CookieSideEffect) {
	if side.PlainRefreshToken == "" {
		return
	}

	maxAge := int(side.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    side.PlainRefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		Expires:  side.ExpiresAt,
		MaxAge:   maxAge,
	})
}

// refresh tokenのCookieを消す
func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// User-AgentとIPを取得（refresh sessionに紐付ける）
func clientMeta(c echo.Context) auth.ClientMeta {
	return auth.ClientMeta{
		UserAgent: c.Request().UserAgent(),
		IP:        c.RealIP(),
	}
}

// メトリクス用の結果ラベル
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, validator.ErrInvalidInput) {
		return "VALIDATION_ERROR"
	}
	return auth.Reason(err)
}
