// Package loadtest drives a running roster service over HTTP and its
// socket, then checks that the pushed statistics match the roster.
package loadtest

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Origin     string        // Origin sent on the socket handshake; defaults to BaseURL
	Characters int           // Number of characters to create
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the socket to catch up
	Seed       uint64        // Synthesizer seed; zero picks a random one
	Cleanup    bool          // Delete created characters afterwards
	Verbose    bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	Baseline      int
	Created       int
	CreateFailed  int
	Deleted       int
	DeleteFailed  int
	FramesSeen    int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	FinalRoster   int
	FinalClasses  int
	SocketMatched bool
}
