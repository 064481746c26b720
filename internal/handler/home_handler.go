package handler

import (
	"net/http"

	"authsvc/internal/middleware"

	"github.com/labstack/echo/v4"
)

// GET / （bearer access token 必須）
type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

func (h *HomeHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/", h.greet, mw...)
}

func (h *HomeHandler) greet(c echo.Context) error {
	name, ok := middleware.UserName(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "INVALID_TOKEN"})
	}
	return c.String(http.StatusOK, "Hello, "+name)
}
