// Command bitrated runs the bitrate analysis engine as an HTTP daemon:
// it wires the probing, caching, queueing, orchestration and stream-removal
// components together and serves them behind the API router.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gwlsn/bitrated/internal/api"
	"github.com/gwlsn/bitrated/internal/config"
	"github.com/gwlsn/bitrated/internal/jobqueue"
	"github.com/gwlsn/bitrated/internal/logger"
	"github.com/gwlsn/bitrated/internal/mediaprobe"
	"github.com/gwlsn/bitrated/internal/metrics"
	"github.com/gwlsn/bitrated/internal/muxremove"
	"github.com/gwlsn/bitrated/internal/orchestrator"
	"github.com/gwlsn/bitrated/internal/probecache"
	"github.com/gwlsn/bitrated/internal/toolpath"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ./config/bitrated.yaml)")
	listenAddr := flag.String("listen", "", "Override listen address from config")
	appBinDir := flag.String("bin-dir", "", "App-private directory to search for ffprobe/ffmpeg before PATH")
	flag.Parse()

	cfgPath := *configPath
	if cfgPath == "" {
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			cfgPath = envPath
		} else {
			cfgPath = "config/bitrated.yaml"
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("warning: could not load config from %s: %v", cfgPath, err)
		cfg = config.DefaultConfig()
	}

	if envAddr := os.Getenv("LISTEN_ADDR"); envAddr != "" {
		cfg.ListenAddr = envAddr
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	logger.Init(cfg.LogLevel)

	probeBin := toolpath.Find(cfg.ProbePath, *appBinDir)
	if probeBin == "" {
		probeBin = cfg.ProbePath
	}
	muxBin := toolpath.Find(cfg.MuxPath, *appBinDir)
	if muxBin == "" {
		muxBin = cfg.MuxPath
	}

	logger.Info("resolved tool paths", "probe", probeBin, "mux", muxBin)

	invoker := mediaprobe.NewInvoker(probeBin)
	prober := mediaprobe.NewProber(invoker,
		time.Duration(cfg.PacketProbeTimeoutSeconds)*time.Second,
		time.Duration(cfg.FrameProbeTimeoutSeconds)*time.Second)
	cache := probecache.New(prober, time.Duration(cfg.ProbeCacheTTLSeconds)*time.Second)
	queue := jobqueue.New(cfg.MaxParallelJobs)
	orch := orchestrator.New(prober, cache, queue)
	remover := muxremove.New(muxBin, queue, cache)

	registry := prometheus.NewRegistry()
	metrics.Register(registry)

	handler := api.NewHandler(orch, queue, cache, remover)
	router := api.NewRouter(handler)

	mux := http.NewServeMux()
	mux.Handle("/", router)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	logger.Info("starting bitrated", "listen_addr", cfg.ListenAddr, "max_parallel_jobs", cfg.MaxParallelJobs)
	fmt.Printf("bitrated listening on %s\n", cfg.ListenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutdown signal received")
		queue.CancelAll()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("graceful shutdown failed, forcing close", "err", err)
			server.Close()
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	logger.Info("bitrated stopped")
}
