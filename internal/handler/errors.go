package handler

import (
	"errors"
	"net/http"

	auth "authsvc/internal/usecase/auth_usecase"
	"authsvc/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// 理由コード → HTTPステータス
var reasonStatus = map[string]int{
	"FORGED_IDENTITY":        http.StatusBadRequest,
	"STALE_IDENTIFICATION":   http.StatusBadRequest,
	"LOW_CONFIDENCE":         http.StatusBadRequest,
	"TOO_MANY_REGISTRATIONS": http.StatusBadRequest,
	"SESSION_NOT_FOUND":      http.StatusBadRequest,
	"MISSING_FINGERPRINT":    http.StatusBadRequest,
	"USER_EXISTS":            http.StatusConflict,
	"INVALID_CREDENTIALS":    http.StatusUnauthorized,
	"MISSING_TOKEN":          http.StatusUnauthorized,
	"INVALID_TOKEN":          http.StatusUnauthorized,
	"TOKEN_EXPIRED":          http.StatusUnauthorized,
	"PROVIDER_ERROR":         http.StatusBadGateway,
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}

	//形式エラーは理由をそのまま返す
	if errors.Is(err, validator.ErrInvalidInput) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: err.Error()})
	}

	reason := auth.Reason(err)
	if status, ok := reasonStatus[reason]; ok {
		msg := err.Error()
		//識別サービスの中身は出さない
		if reason == "PROVIDER_ERROR" {
			msg = "identity verification failed"
		}
		return c.JSON(status, ErrorResponse{Error: reason, Message: msg})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL", Message: "internal error"})
}
