// Command devapi serves the revision API locally, backed by sqlite or
// postgres and seeded with demo content.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-revise/internal/auth/middleware"
	"github.com/mind-engage/mindengage-revise/internal/config"
	"github.com/mind-engage/mindengage-revise/internal/db"
	"github.com/mind-engage/mindengage-revise/internal/devapi"
	"github.com/mind-engage/mindengage-revise/internal/logging"
)

func main() {
	config.LoadDotEnv()
	cfg := config.DevAPIFromEnv()
	log := logging.Console(cfg.LogLevel)

	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Fatal().Err(err).Msg("db driver")
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, driver, cfg.DBDSN, devapi.Schema)
	if err != nil {
		log.Fatal().Err(err).Msg("db open failed")
	}
	defer dbh.Close()
	if err := devapi.Seed(ctx, dbh, bcrypt.DefaultCost); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)

	srv := devapi.New(devapi.NewStore(dbh), authSvc, log, devapi.Options{
		AIDailyLimit: cfg.AIDailyLimit,
		MaxResets:    cfg.MaxResets,
		OTPTTL:       cfg.OTPTTL,
		CORSOrigins:  cfg.CORSOrigins,
	})

	hs := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop, done := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer done()
	go func() {
		<-stop.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		_ = hs.Shutdown(sctx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("db", string(driver)).
		Str("demo_user", devapi.SeedEmail).Msg("listening")
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("serve")
	}
}
