package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/codrutul/roster/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging initializes the process logger on stdout, teed to logFile
// when it is set. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = io.MultiWriter(os.Stdout, file)
		closer = file
	}
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Roster Load Tool
================

Creates characters concurrently against a running roster service, then
checks that the roster size and the statistics pushed over the socket match
the aggregate computed from the roster.

Usage:
  roster-load [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:3000")
  -origin string
        Origin for the socket handshake (default: the base URL)
  -characters int
        Number of characters to create (default 200)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -settle duration
        How long to wait for the socket to catch up (default 5s)
  -seed uint
        Synthesizer seed, 0 for random (default 0)
  -cleanup
        Delete the created characters afterwards (default true)
  -log string
        Also write the log to this file
  -verbose
        Log every failed request
  -help
        Show this help message

Examples:
  roster-load -characters 1000 -workers 16
  roster-load -url http://localhost:8080 -origin http://localhost:5173 -cleanup=false
`)
}
