package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/topology-engine/factfile"
	"github.com/signalsfoundry/topology-engine/internal/api"
	"github.com/signalsfoundry/topology-engine/internal/logging"
	"github.com/signalsfoundry/topology-engine/internal/observability"
	"github.com/signalsfoundry/topology-engine/reloader"
	"github.com/signalsfoundry/topology-engine/topology"
)

func main() {
	httpAddr := flag.String("http-addr", ":8080", "TCP address the query API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	factsPath := flag.String("facts", "configs/topology.yaml", "Path to the fact document (YAML or JSON)")
	reloadEvery := flag.Duration("reload", 0, "Interval between fact-file reloads (0 disables reloading)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}

	load := func(ctx context.Context) (*topology.Snapshot, error) {
		facts, err := factfile.DecodeFile(*factsPath)
		if err != nil {
			return nil, err
		}
		snap, err := topology.Load(ctx, facts, topology.WithLogger(log))
		if err != nil {
			return nil, err
		}
		collector.IncReloads()
		return snap, nil
	}

	snap, err := load(ctx)
	if err != nil {
		var reject *topology.RejectError
		if errors.As(err, &reject) {
			for _, issue := range reject.Issues {
				fmt.Fprintln(os.Stderr, issue)
			}
		}
		log.Error(ctx, "initial topology load failed", logging.Err(err))
		os.Exit(1)
	}
	publishCounts(collector, snap)

	var source api.SnapshotSource = api.StaticSource{Snap: snap}
	var reloadDone <-chan struct{}
	reloadCtx, stopReload := context.WithCancel(ctx)
	defer stopReload()

	if *reloadEvery > 0 {
		r := reloader.New(snap, *reloadEvery, load, log)
		r.AddListener(func(next *topology.Snapshot) {
			publishCounts(collector, next)
		})
		reloadDone = r.Start(reloadCtx)
		source = r
	}

	server := api.NewServer(source, collector, log)
	querySrv := &http.Server{
		Addr:    *httpAddr,
		Handler: server.Handler(),
	}
	metricsSrv := serveMetrics(*metricsAddr, collector, log)

	log.Info(ctx, "starting topology query server",
		logging.String("addr", *httpAddr),
		logging.String("facts", *factsPath),
		logging.Int("warnings", len(snap.Warnings())),
	)
	go func() {
		if err := querySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "query server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	stopReload()
	if reloadDone != nil {
		<-reloadDone
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = querySrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)
}

func publishCounts(collector *observability.Collector, snap *topology.Snapshot) {
	store := snap.Store()
	collector.SetTopologyCounts(len(store.Nodes()), len(store.Links()), len(snap.Warnings()))
}

func serveMetrics(addr string, collector *observability.Collector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
