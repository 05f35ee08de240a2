package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"adala.org/internal/audit"
	"adala.org/internal/auth"
	"adala.org/internal/config"
	"adala.org/internal/grpcapi"
	"adala.org/internal/httpapi"
	"adala.org/internal/keywords"
	"adala.org/internal/migrate"
	"adala.org/internal/obs"
	"adala.org/internal/review"
	"adala.org/internal/seed"
	"adala.org/internal/settings"
	"adala.org/internal/store/pg"
	"adala.org/internal/stream"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

type stores struct {
	db       *sql.DB
	docs     review.Store
	loader   review.Loader
	audits   audit.Store
	keywords keywords.Store
	seeder   seed.KeywordSeeder
	// settings is nil without a database; the API then keeps them in memory.
	settings settings.Store
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "adala-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("ADALA_CONFIG"))
	if err != nil {
		return err
	}

	logger, err := obs.NewLogger(obs.LogConfig{Env: cfg.Log.Env, Level: cfg.Log.Level})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	obs.SetLogger(logger)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}
	if err := seedIfEmpty(ctx, cfg.Seed, st); err != nil {
		return err
	}

	var dir *auth.Directory
	var issuer *auth.Issuer
	if cfg.Auth.Secret != "" {
		if dir, err = auth.NewDirectory(cfg.Auth.Users); err != nil {
			return fmt.Errorf("auth users: %w", err)
		}
		if issuer, err = auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL, auth.WithIssuerName(cfg.Auth.Issuer)); err != nil {
			return fmt.Errorf("token issuer: %w", err)
		}
	} else {
		logger.Warn("auth.secret is empty; every request acts as the local system user")
	}

	events := stream.New()
	recorder := audit.NewRecorder(st.audits)
	disp := review.NewDispatcher(st.docs, recorder, events)
	ready := httpapi.ReadyCheck{DB: st.db}

	api := httpapi.New(httpapi.Options{
		Version:             version,
		Ready:               ready,
		Dispatcher:          disp,
		Sessions:            review.NewSessions(disp, cfg.Review.PageSize),
		Recorder:            recorder,
		Keywords:            st.keywords,
		Settings:            st.settings,
		Stream:              events,
		Directory:           dir,
		Issuer:              issuer,
		DefaultLang:         cfg.DefaultLang(),
		ConfidenceThreshold: cfg.Review.ConfidenceThreshold,
		RateBurst:           cfg.Rate.Burst,
		RatePerSecond:       cfg.Rate.PerSecond,
		MaxBodyBytes:        cfg.Server.MaxBodyBytes,
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	rpc := grpcapi.New(disp, issuer, ready)
	gs := rpc.NewGRPCServer()
	go rpc.WatchReadiness(ctx, 15*time.Second)

	errc := make(chan error, 2)
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			logger.Info("grpc listening", zap.String("addr", cfg.Server.GRPCAddr))
			if err := gs.Serve(lis); err != nil {
				errc <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errc:
		logger.Error("server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	rpc.Shutdown()
	gs.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("stopped")
	return nil
}

func openStores(ctx context.Context, cfg config.Database) (stores, error) {
	if cfg.DSN == "" {
		docs := review.NewInMemory()
		kws := keywords.NewInMemory()
		return stores{docs: docs, loader: docs, audits: audit.NewInMemory(), keywords: kws, seeder: kws}, nil
	}
	s, err := pg.Open(cfg.DSN, pg.PoolOptions{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return stores{}, err
	}
	applied, err := migrate.NewManager(s.DB()).Up(ctx)
	if err != nil {
		_ = s.Close()
		return stores{}, fmt.Errorf("migrate: %w", err)
	}
	obs.Logger().Info("schema up to date", zap.Strings("applied", applied))
	docs := s.Documents()
	kws := s.Keywords()
	return stores{db: s.DB(), docs: docs, loader: docs, audits: s.Audit(), keywords: kws, seeder: kws, settings: s.Settings()}, nil
}

// seedIfEmpty loads the configured fixture, or the demo fixture, into stores
// that hold no documents yet.
func seedIfEmpty(ctx context.Context, cfg config.Seed, st stores) error {
	docs, err := st.docs.List(ctx)
	if err != nil {
		return fmt.Errorf("inspect documents: %w", err)
	}
	if len(docs) > 0 {
		return nil
	}
	var f seed.Fixture
	if cfg.Path != "" {
		f, err = seed.Load(cfg.Path)
	} else {
		f, err = seed.Demo()
	}
	if err != nil {
		return fmt.Errorf("seed fixture: %w", err)
	}
	counts, err := seed.Apply(ctx, f, seed.Targets{Documents: st.loader, Audit: st.audits, Keywords: st.seeder})
	if err != nil {
		return err
	}
	obs.Logger().Info("stores seeded",
		zap.Int("documents", counts.Documents),
		zap.Int("audit", counts.Audit),
		zap.Int("keywords", counts.Keywords),
	)
	return nil
}
