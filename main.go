package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smilyorg/timeship/config"
	"github.com/smilyorg/timeship/httpd"
	"github.com/smilyorg/timeship/log"
	"github.com/smilyorg/timeship/storage"
)

var (
	version = "dev"
	commit  = "none"
)

func printBanner(logger log.Logger, version, commit string) {
	logger.Info().WithField("version", version).WithField("commit", commit).Log("timeship starting")
}

func newLogWriter(cfg config.Config) log.Writer {
	if cfg.LogFormat == "json" {
		return log.NewJSONWriter(os.Stderr, cfg.LogLevel)
	}
	return log.NewConsoleWriter(os.Stderr, cfg.LogLevel, true)
}

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("timeship %s, commit %s\n", version, commit)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "timeship: %s\n", err)
		os.Exit(1)
	}

	logger := log.New("timeship").WithOutput(newLogWriter(cfg))
	printBanner(logger, version, commit)

	registry := storage.NewRegistry()

	local, err := storage.NewLocalFacade("local", cfg.Root)
	if err != nil {
		logger.Error().WithError(err).WithField("root", cfg.Root).Log("failed to open local storage")
		os.Exit(1)
	}
	registry.Register(local)

	defer func() {
		if err := registry.Close(); err != nil {
			logger.Error().WithError(err).Log("error closing storage registry")
		}
	}()

	server, err := httpd.New(cfg, registry, logger.WithComponent("httpd"))
	if err != nil {
		logger.Error().WithError(err).Log("failed to build HTTP server")
		os.Exit(1)
	}

	go func() {
		logger.Info().WithField("root", cfg.Root).Log("serving")
		printListenURLs(logger, cfg.Address, cfg.APIPrefix)

		if err := server.Start(); err != nil {
			logger.Error().WithError(err).Log("server failed")
			if proc, findErr := os.FindProcess(os.Getpid()); findErr == nil {
				proc.Signal(os.Interrupt)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Log("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().WithError(err).Log("server forced to shutdown")
	}

	logger.Info().Log("stopped")
}

// printListenURLs logs the addresses the server is reachable on. Unlike
// original_source/api/internal/network's PrintListenURLs, which walks
// every network interface to report each one, this logs a single URL:
// the configured address, with a wildcard bind host replaced by
// "localhost".
func printListenURLs(logger log.Logger, addr, apiPrefix string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		logger.Warn().WithError(err).WithField("address", addr).Log("could not parse listen address")
		return
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	logger.Info().WithField("url", fmt.Sprintf("http://%s:%s%s", host, port, apiPrefix)).Log("listening")
}
