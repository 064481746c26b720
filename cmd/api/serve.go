package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"authsvc/internal/handler"
	"authsvc/internal/infra/fingerprint"
	"authsvc/internal/infra/token"
	"authsvc/internal/server"
	auth "authsvc/internal/usecase/auth_usecase"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// HTTPサーバーを起動
func NewServeCmd() *cobra.Command {
	var sweepInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), sweepInterval)
		},
	}
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 0, "delete expired sessions on this interval (0 disables)")

	return cmd
}

func runServe(parent context.Context, sweepInterval time.Duration) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}

	//bcrypt（会員登録：Hash / ログイン：Verify）
	hasher := auth.NewBcryptPasswordHasher(bcrypt.DefaultCost)
	verifier := auth.NewBcryptPasswordVerifier()

	//JWT issuer
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTokenTTL)

	//識別サービス
	identity := fingerprint.NewClient(cfg.FingerprintAPIURL, cfg.FingerprintAPIKey, cfg.FingerprintTimeout)

	//Service生成
	svc := auth.NewService(
		st.users, st.sessions, st.tx,
		identity,
		auth.NewGuard(st.users, clock),
		issuer,
		hasher,
		verifier,
		idGen,
		clock,
		auth.WithAuditLog(st.audit),
		auth.WithLogger(logger),
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
	)

	//Server組み立て
	e := server.New(server.Deps{
		Auth:         handler.NewAuthHandler(svc, cfg.CookieSecure),
		Home:         handler.NewHomeHandler(),
		Verifier:     issuer,
		Users:        st.users,
		Logger:       logger,
		RateLimitRPS: cfg.RateLimitRPS,
		TrustProxy:   cfg.TrustProxy,
	})

	var wg sync.WaitGroup
	if sweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runSweeper(ctx, st.sessions, sweepInterval, clock.Now, logger)
		}()
	}

	err = server.Start(ctx, e, cfg.Addr(), logger)
	stop()
	wg.Wait()
	return err
}
