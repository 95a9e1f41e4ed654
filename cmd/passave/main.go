package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/faxmishok/passave-server/internal/auth"
	"github.com/faxmishok/passave-server/internal/config"
	"github.com/faxmishok/passave-server/internal/email"
	httpserver "github.com/faxmishok/passave-server/internal/http"
	"github.com/faxmishok/passave-server/internal/metrics"
	"github.com/faxmishok/passave-server/internal/oauth/google"
	"github.com/faxmishok/passave-server/internal/observability/logger"
	"github.com/faxmishok/passave-server/internal/security/password"
	pgstore "github.com/faxmishok/passave-server/internal/store/pg"
	"github.com/faxmishok/passave-server/internal/token"
	migrations "github.com/faxmishok/passave-server/migrations/postgres"
)

func main() {
	flagConfig := flag.String("config", "config.yaml", "ruta del config YAML")
	flagEnvFile := flag.String("env-file", ".env", "ruta del .env (opcional)")
	flag.Parse()

	if *flagEnvFile != "" {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("env file loaded: %s", *flagEnvFile)
		}
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: os.Getenv("LOG_LEVEL"), ServiceName: "passave"})
	defer func() { _ = logger.Sync() }()
	lg := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ──
	poolCfg, err := pgxpool.ParseConfig(cfg.Storage.DSN)
	if err != nil {
		lg.Fatal("parse dsn", logger.Err(err))
	}
	if cfg.Storage.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Storage.Postgres.MaxConns)
	}
	if s := cfg.Storage.Postgres.ConnMaxLifetime; s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			poolCfg.MaxConnLifetime = d
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		lg.Fatal("connect postgres", logger.Err(err))
	}
	defer pool.Close()

	if err := pgstore.Migrate(ctx, pool, migrations.FS); err != nil {
		lg.Fatal("migrate", logger.Err(err))
	}
	st := pgstore.New(pool)

	// ── Mail ──
	tmpl, err := email.LoadTemplates()
	if err != nil {
		lg.Fatal("load mail templates", logger.Err(err))
	}
	sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	sender.TLSMode = cfg.SMTP.TLS
	sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
	mailer := email.NewMailer(sender, tmpl, cfg.Server.BaseURL)

	// ── Core ──
	toks := token.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.SessionTTL(), cfg.VerifyTTL())
	var fed auth.Federation
	if cfg.Google.Enabled {
		fed = google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL, cfg.Google.Scopes)
	} else {
		fed = disabledFederation{}
	}
	svc := auth.NewService(st, password.NewHasher(cfg.Auth.BcryptCost), toks, mailer, fed, auth.Options{
		TOTPIssuer: cfg.TOTP.Issuer,
		TOTPWindow: cfg.TOTP.Window,
		ResetTTL:   cfg.ResetTTL(),
		VerifyTTL:  cfg.VerifyTTL(),
	})

	if err := metrics.RegisterAuth(nil); err != nil {
		lg.Fatal("register metrics", logger.Err(err))
	}

	// ── HTTP ──
	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Auth: &httpserver.AuthHandler{
			Svc:   svc,
			Store: st,
			Cookie: httpserver.CookiePolicy{
				Name:     cfg.Auth.Session.CookieName,
				Domain:   cfg.Auth.Session.Domain,
				Secure:   cfg.Auth.Session.Secure,
				SameSite: cfg.Auth.Session.SameSite,
			},
		},
		Tokens: toks,
	})

	srv := httpserver.NewServer(cfg.Server.Addr, handler)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	lg.Info("listening", logger.Op(cfg.Server.Addr))

	select {
	case err := <-errCh:
		lg.Fatal("server", logger.Err(err))
	case <-ctx.Done():
		lg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Error("shutdown", logger.Err(err))
		}
	}
}
