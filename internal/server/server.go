package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"authsvc/internal/handler"
	"authsvc/internal/middleware"
	"authsvc/internal/observability"
	"authsvc/internal/repository"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// shutdown時に処理中リクエストを待つ上限
const shutdownTimeout = 10 * time.Second

// サーバーが必要とする部品
type Deps struct {
	Auth     *handler.AuthHandler
	Home     *handler.HomeHandler
	Verifier middleware.TokenVerifier
	Users    repository.UserRepository
	Logger   *slog.Logger
	// /auth 配下の1IPあたりの秒間リクエスト数（0なら無効）
	RateLimitRPS float64
	// 前段のproxyが付けるX-Forwarded-Forを信用するか
	TrustProxy bool
}

// echoを組み立ててルートを登録する
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(d.TrustProxy)

	e.Use(echomw.Recover())
	e.Use(requestLogger(d.Logger))

	RegisterRoutes(e, d)
	return e
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(observability.Registry, promhttp.HandlerOpts{})))

	g := e.Group("/auth")
	if d.RateLimitRPS > 0 {
		g.Use(rateLimiter(d.RateLimitRPS))
	}
	d.Auth.RegisterRoutes(g)

	d.Home.RegisterRoutes(e, middleware.AuthJWT(d.Verifier), middleware.UserExistsGuard(d.Users))
}

// c.RealIP() の取り方。既定は接続元そのもの（ヘッダは見ない）
func ipExtractor(trustProxy bool) echo.IPExtractor {
	if trustProxy {
		return echo.ExtractIPFromXFFHeader()
	}
	return echo.ExtractIPDirect()
}

// 1リクエスト1行の構造化ログ
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				logger.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
				return nil
			}
			logger.LogAttrs(c.Request().Context(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	})
}

// IPごとのtoken bucket
func rateLimiter(rps float64) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStore(rate.Limit(rps)),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, handler.ErrorResponse{Error: "FORBIDDEN"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, handler.ErrorResponse{Error: "RATE_LIMITED"})
		},
	})
}

// ctxが終わるまでサーバーを動かし、その後graceful shutdownする
func Start(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server started", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	logger.Info("server shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
