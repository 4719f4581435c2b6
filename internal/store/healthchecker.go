package store

import (
	"time"

	"github.com/glglak/elastic-personalization-poc/internal/health"
	"github.com/rs/zerolog"
)

// NewStoreHealthChecker monitors store health via periodic HealthPing probes.
func NewStoreHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker("store", s, log, probeTimeout)
}
