package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streampay/config"
	"streampay/core/events"
	"streampay/native/streaming"
	"streampay/observability/logging"
	"streampay/rpc"
	"streampay/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logging.Setup("streampayd", "").Error("failed to load configuration", "path", *configFile, "error", err)
		os.Exit(1)
	}
	log := logging.Setup(cfg.ServiceName, cfg.Environment)

	owner, err := cfg.Owner()
	if err != nil {
		log.Error("invalid owner address", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		log.Error("failed to open ledger database", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	state := storage.NewState(db)

	if err := seedParams(state, cfg.PlatformFeePct); err != nil {
		log.Error("failed to seed settlement parameters", "error", err)
		os.Exit(1)
	}

	journal := events.NewJournal(cfg.JournalHistory)
	engine := streaming.NewEngine()
	engine.SetState(state)
	engine.SetEmitter(journal)
	engine.SetOwner(owner)

	server := rpc.NewServer(engine, journal, log)
	rpcSrv := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddress,
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		log.Info("rpc listening", "address", cfg.RPCAddress)
		if err := rpcSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("rpc server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = rpcSrv.Shutdown(ctx)
	_ = metricsSrv.Shutdown(ctx)
}

// seedParams writes the initial parameter block on first boot. Subsequent
// boots keep the persisted values; fee changes go through the admin RPC.
func seedParams(state *storage.State, feePct uint32) error {
	_, ok, err := state.StreamingParamsGet()
	if err != nil || ok {
		return err
	}
	return state.StreamingParamsPut(&streaming.Params{
		FeePercent:   feePct,
		FeePool:      big.NewInt(0),
		NextStreamID: 1,
	})
}
