package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/codrutul/roster/internal/loadtest"
)

// Default configuration constants.
const (
	defaultCharacters = 200
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 10 * time.Second
	defaultSettle     = 5 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:3000", "Base URL of the service")
		origin     = flag.String("origin", "", "Origin for the socket handshake (default: the base URL)")
		characters = flag.Int("characters", defaultCharacters, "Number of characters to create")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", defaultSettle, "How long to wait for the socket to catch up")
		seed       = flag.Uint64("seed", 0, "Synthesizer seed, 0 for random")
		cleanup    = flag.Bool("cleanup", true, "Delete the created characters afterwards")
		logFile    = flag.String("log", "", "Also write the log to this file")
		verbose    = flag.Bool("verbose", false, "Log every failed request")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closer, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:    *baseURL,
		Origin:     *origin,
		Characters: *characters,
		Workers:    *workers,
		Timeout:    *timeout,
		Settle:     *settle,
		Seed:       *seed,
		Cleanup:    *cleanup,
		Verbose:    *verbose,
	}

	if _, err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		stop()
		closer.Close()
		os.Exit(1)
	}
}
