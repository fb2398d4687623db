package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shift-reconcile/internal/config"
	"shift-reconcile/internal/observability/metrics"
	"shift-reconcile/internal/shift/application"
	shift "shift-reconcile/internal/shift/domain"
	shiftrepo "shift-reconcile/internal/shift/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	cfg = cfg.ForStation(cfg.StationID)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.PingContext(ctx); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	if err := shiftrepo.Migrate(ctx, db); err != nil {
		logger.Fatalf("db migrate error: %v", err)
	}
	if cfg.SeedCatalog {
		seeded, err := shiftrepo.Seed(ctx, db, shift.DefaultCatalog())
		if err != nil {
			logger.Fatalf("db seed error: %v", err)
		}
		if seeded {
			logger.Printf("catalog seeded: station=%s", cfg.StationID)
		}
	}

	metrics.Init(db, logger)

	catalogRepo := shiftrepo.NewCatalogRepository(db)
	shiftRepo := shiftrepo.NewShiftRepository(db)
	draftRepo := shiftrepo.NewDraftRepository(db)
	historyRepo := shiftrepo.NewHistoryRepository(db)

	draftService, err := application.NewDraftService(draftRepo, logger)
	if err != nil {
		logger.Fatalf("draft service init error: %v", err)
	}
	sessionService, err := application.NewSessionService(catalogRepo, catalogRepo, draftService, logger)
	if err != nil {
		logger.Fatalf("session service init error: %v", err)
	}
	if _, err := application.NewCloseService(shiftRepo, draftRepo, cfg.StationID, cfg.ShiftLabels, logger); err != nil {
		logger.Fatalf("close service init error: %v", err)
	}
	historyService, err := application.NewHistoryService(historyRepo, shiftRepo, cfg.StationID, cfg.HistoryLimit)
	if err != nil {
		logger.Fatalf("history service init error: %v", err)
	}

	session, err := sessionService.StartSession(ctx, time.Now(), cfg.ShiftLabels[0])
	if err != nil {
		logger.Fatalf("session start error: %v", err)
	}
	unsynced, err := historyService.ListUnsynced(ctx, 0)
	if err != nil {
		logger.Printf("history unavailable: %v", err)
	}
	logger.Printf("station ready: station=%s dispensers=%d attendants=%d unsynced=%d labels=%v",
		cfg.StationID, len(session.Groups()), len(session.Ledgers()), len(unsynced), cfg.ShiftLabels)

	if cfg.MetricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	logger.Printf("metrics listening on %s", cfg.MetricsAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}
