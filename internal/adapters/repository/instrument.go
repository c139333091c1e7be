package repository

import (
	"errors"
	"time"

	"github.com/codrutul/roster/pkg/metrics"
)

// observe records latency for one store call and counts unexpected failures.
func observe(backend, op string, start time.Time, err error) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}
