package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pazaauto.id/internal/auth"
	"pazaauto.id/internal/backoffice"
	"pazaauto.id/internal/config"
	"pazaauto.id/internal/httpapi"
	"pazaauto.id/internal/obs"
	"pazaauto.id/internal/provision"
	"pazaauto.id/internal/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", os.Getenv("BACKOFFICE_CONFIG"), "path to YAML config")
	dev := flag.Bool("dev", false, "fill in development defaults for missing secrets")
	flag.Parse()

	if err := run(*configPath, *dev); err != nil {
		obs.Logger().Error("backoffice-api stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(configPath string, dev bool) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	load := config.Load
	if dev {
		load = config.LoadWithDefaults
	}
	cfg, err := load(configPath)
	if err != nil {
		return err
	}

	obs.Configure(obs.LogOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Service: "backoffice-api",
		Version: version,
	})
	obs.Init()
	obs.InitBuildInfo(prometheus.DefaultRegisterer, version, commit)
	log := obs.Logger()

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.Bootstrap {
		if err := db.Bootstrap(ctx); err != nil {
			return err
		}
	}

	accounts := store.NewAccounts(db)
	if err := seedAdmin(ctx, accounts, cfg.Seed); err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.Token(), auth.WithPermissionResolver(accounts))
	if err != nil {
		return err
	}
	authn := auth.NewAuthenticator(accounts, accounts, tokens)

	provisioner, err := provision.New(accounts,
		provision.WithPlaceholderHash(cfg.Provision.PlaceholderPasswordHash),
		provision.WithEmailDomain(cfg.Provision.EmailDomain),
	)
	if err != nil {
		return err
	}
	catalog := backoffice.NewCatalog(db, provisioner)

	probe := httpapi.ReadyProbe{DB: db}
	api := httpapi.New(probe, authn, catalog, httpapi.Options{
		Version:      version,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		RateLimit:    cfg.HTTP.RateLimit.Enabled,
		RatePerSec:   cfg.HTTP.RateLimit.RPS,
		RateBurst:    cfg.HTTP.RateLimit.Burst,
		Accounts:     accounts,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.ReadTimeout(),
		ReadHeaderTimeout: cfg.ReadTimeout(),
		WriteTimeout:      cfg.WriteTimeout(),
		IdleTimeout:       cfg.IdleTimeout(),
	}

	errc := make(chan error, 2)
	go func() {
		log.Info("http listening", "addr", srv.Addr, "driver", db.Driver(), "rbac", cfg.Auth.RBACEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		go func() {
			log.Info("grpc health listening", "addr", cfg.GRPC.Addr)
			if err := httpapi.ServeGRPC(ctx, lis, httpapi.NewGRPCServer(probe, version)); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}

func seedAdmin(ctx context.Context, accounts *store.Accounts, seed config.SeedConfig) error {
	if seed.AdminPassword == "" {
		return nil
	}
	hash, err := auth.HashPassword(seed.AdminPassword)
	if err != nil {
		return err
	}
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	created, err := accounts.EnsureAccount(seedCtx, auth.Account{
		Username:     seed.AdminUsername,
		Email:        seed.AdminEmail,
		PasswordHash: hash,
		Active:       true,
		Roles:        []string{auth.RoleAdmin},
	})
	if err != nil {
		return err
	}
	if created {
		obs.Logger().Info("admin account seeded", "username", seed.AdminUsername)
	}
	return nil
}
