package searchindex

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/glglak/elastic-personalization-poc/internal/health"
)

type pinger struct{ idx Index }

func (p pinger) HealthPing(ctx context.Context) error { return Ping(ctx, p.idx) }

// NewSearchIndexHealthChecker monitors search index health using the index's
// HealthPinger when implemented, and a probe query otherwise.
func NewSearchIndexHealthChecker(index Index, log zerolog.Logger, probeTimeout time.Duration) *health.PingChecker {
	return health.NewPingChecker("searchindex", pinger{idx: index}, log, probeTimeout)
}
