package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "opinex/docs"
	"opinex/internal/config"
	"opinex/internal/domain/payment"
	"opinex/internal/domain/survey"
	"opinex/internal/domain/user"
	api "opinex/internal/http"
	"opinex/internal/metrics"
	"opinex/internal/platform/cache"
	jwtpkg "opinex/internal/platform/jwt"
	"opinex/internal/platform/logger"
	"opinex/internal/platform/stripe"
	"opinex/internal/repository"
	"opinex/internal/worker"
)

// @title           Opinex API
// @version         1.0
// @description     Survey platform: create surveys, vote yes or no, comment, report and moderate.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg := config.Load()

	lg := logger.New(cfg.LogLevel, "opinex")
	zerolog.DefaultContextLogger = &lg
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal().Err(err).Msg("store connect error")
	}

	surveyCache := cache.New(ctx, cfg.RedisURL, lg)

	userSvc := user.NewService(store.Users)
	surveySvc := survey.NewService(store.Surveys)
	if surveyCache.Enabled() {
		surveySvc.WithCache(surveyCache)
	}

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = stripe.NewGateway(cfg.StripeSecretKey)
	} else {
		lg.Warn().Msg("STRIPE_SECRET_KEY not set, payments disabled")
	}
	paymentSvc := payment.NewService(gateway, cfg.PaymentAmount, cfg.PaymentCurrency)

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)

	events := make(chan worker.SurveyEvent, 100)
	statsWorker := worker.NewStatsWorker(events, surveyCache, lg)

	router := api.NewRouter(api.Deps{
		Users:    userSvc,
		Surveys:  surveySvc,
		Payments: paymentSvc,
		JWT:      jwtMgr,
		Events:   events,
		Ready: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			return surveyCache.Ping(ctx)
		},
		Logger:      lg,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		statsWorker.Run(workerCtx)
		close(workerDone)
	}()

	go func() {
		lg.Info().Str("addr", srv.Addr).Str("driver", cfg.StoreDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("listen error")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server shutdown error")
	}

	cancelWorker()
	<-workerDone

	if err := surveyCache.Close(); err != nil {
		lg.Warn().Err(err).Msg("cache close error")
	}
	if err := store.Close(shutdownCtx); err != nil {
		lg.Warn().Err(err).Msg("store close error")
	}

	lg.Info().Msg("server stopped")
}
