package searchindex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// queryOnlyIndex implements Index WITHOUT HealthPinger.
type queryOnlyIndex struct{ queryErr error }

func (f queryOnlyIndex) Query(context.Context, Query, int, int) ([]string, error) {
	return nil, f.queryErr
}
func (f queryOnlyIndex) IndexDocument(context.Context, Document) error     { return nil }
func (f queryOnlyIndex) IndexDocuments(context.Context, []Document) error  { return nil }
func (f queryOnlyIndex) DeleteDocument(context.Context, string) error      { return nil }
func (f queryOnlyIndex) EnsureIndex(context.Context) (bool, error)         { return false, nil }
func (f queryOnlyIndex) DeleteIndex(context.Context) error                 { return nil }

func TestSearchIndexHealthChecker_WithHealthPinger(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zerolog.Nop()

	idx := NewMemoryIndex()
	hc := NewSearchIndexHealthChecker(idx, logger, 50*time.Millisecond)
	go hc.Start(ctx, 20*time.Millisecond)
	waitTrue(t, func() bool { return hc.IsHealthy() })

	idx.SetPingError(errors.New("down"))
	waitTrue(t, func() bool { return !hc.IsHealthy() })
}

func TestSearchIndexHealthChecker_FallbackProbeQuery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zerolog.Nop()

	var onlyIndex Index = queryOnlyIndex{}
	hc := NewSearchIndexHealthChecker(onlyIndex, logger, 50*time.Millisecond)
	go hc.Start(ctx, 20*time.Millisecond)
	waitTrue(t, func() bool { return hc.IsHealthy() })

	var onlyIndexBad Index = queryOnlyIndex{queryErr: errors.New("fail")}
	hc2 := NewSearchIndexHealthChecker(onlyIndexBad, logger, 50*time.Millisecond)
	go hc2.Start(ctx, 20*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if hc2.IsHealthy() {
		t.Fatalf("expected unhealthy checker when probe query fails")
	}
}

func waitTrue(t *testing.T, pred func() bool) {
	t.Helper()
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if pred() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met before timeout")
}
