package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"landwarden.gg/internal/claim"
	"landwarden.gg/internal/classify"
	"landwarden.gg/internal/config"
	"landwarden.gg/internal/correlate"
	"landwarden.gg/internal/persistence/audit"
	"landwarden.gg/internal/playtime"
	"landwarden.gg/internal/protect"
	"landwarden.gg/internal/protocol"
	"landwarden.gg/internal/store"
	"landwarden.gg/internal/store/boltstore"
	"landwarden.gg/internal/store/memstore"
	"landwarden.gg/internal/store/sqlstore"
	"landwarden.gg/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "", "config yaml path (empty: built-in defaults)")
		addr       = flag.String("addr", "", "http listen address (overrides config)")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Listen = *addr
	}

	st, err := openStore(cfg.Storage)
	if err != nil {
		logger.Fatal("open store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	defer st.Close()

	groups, err := classify.LoadGroups(cfg.BlockGroupsPath)
	if err != nil {
		logger.Fatal("load block groups", zap.Error(err))
	}

	auditLog := audit.NewLogger(cfg.AuditDir)
	defer auditLog.Close()

	pt := playtime.NewTracker()
	recs, err := st.LoadPlaytime()
	if err != nil {
		logger.Fatal("load playtime", zap.Error(err))
	}
	for id, rec := range recs {
		pt.Load(id, rec)
	}

	auth := protect.NewAuthority(protect.Options{
		Limits:            cfg.QuotaLimits(),
		PvPInPlayerClaims: cfg.PvPInPlayerClaims,
		ClaimBufferSize:   cfg.ClaimBufferSize,
	}, st, pt, auditLog, logger)
	if err := auth.Load(); err != nil {
		logger.Fatal("load claims", zap.Error(err))
	}

	guard := protect.NewGuard(
		auth,
		correlate.NewWindow(correlate.DefaultTimeout),
		groups.Classify,
		protect.NewNotifier(protect.DenialCooldown),
		logger,
	)

	policy := protocol.PolicySummary{
		StartingClaims:    cfg.StartingClaims,
		ClaimsPerHour:     cfg.ClaimsPerHour,
		MaxClaims:         cfg.MaxClaims,
		ClaimBufferSize:   cfg.ClaimBufferSize,
		PvPInPlayerClaims: cfg.PvPInPlayerClaims,
		ChunkSize:         claim.ChunkSize,
	}
	wsSrv := ws.NewServer(auth, guard, pt, policy, cfg.AllowedOrigins, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if !auth.Ready() {
			http.Error(rw, "storage not loaded", http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP landwarden_claims Total claimed chunks.\n")
		fmt.Fprintf(rw, "# TYPE landwarden_claims gauge\n")
		fmt.Fprintf(rw, "landwarden_claims %d\n", auth.TotalClaims())

		fmt.Fprintf(rw, "# HELP landwarden_storage_ready Whether claim storage loaded.\n")
		fmt.Fprintf(rw, "# TYPE landwarden_storage_ready gauge\n")
		ready := 0
		if auth.Ready() {
			ready = 1
		}
		fmt.Fprintf(rw, "landwarden_storage_ready %d\n", ready)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	ctx, cancel := signalContext()
	defer cancel()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Listen))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})

	// Periodic persistence of playtime records and the ownership snapshot.
	g.Go(func() error {
		interval := time.Duration(cfg.PlaytimeSaveIntervalSecs) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				saveAll(st, auth, pt, logger)
				auth.Flush()
				return nil
			case <-ticker.C:
				saveAll(st, auth, pt, logger)
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("shut down cleanly")
}

func openStore(cfg config.Storage) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return sqlstore.Open(cfg.Path)
	case "bolt":
		return boltstore.Open(cfg.Path)
	case "memory":
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func saveAll(st store.Store, auth *protect.Authority, pt *playtime.Tracker, logger *zap.Logger) {
	if err := st.SavePlaytime(pt.Snapshot(time.Now())); err != nil {
		logger.Warn("save playtime", zap.Error(err))
	}
	if err := st.SaveIndexSnapshot(auth.SnapshotRows()); err != nil {
		logger.Warn("save index snapshot", zap.Error(err))
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
