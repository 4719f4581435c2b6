package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeChecker struct {
	name    string
	healthy atomic.Int32
}

func (f *fakeChecker) Name() string                               { return f.name }
func (f *fakeChecker) IsHealthy() bool                            { return f.healthy.Load() == 1 }
func (f *fakeChecker) Start(ctx context.Context, _ time.Duration) { /* no-op */ }

type fakePinger struct{ fail atomic.Bool }

func (p *fakePinger) HealthPing(context.Context) error {
	if p.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestServiceHealthChecker_Transitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := zerolog.Nop()

	a := &fakeChecker{name: "store"}
	b := &fakeChecker{name: "search"}
	a.healthy.Store(1)
	b.healthy.Store(1)

	svc := NewServiceHealthChecker(logger, a, b)
	go svc.Start(ctx, 10*time.Millisecond)

	waitTrue(t, func() bool { return svc.IsHealthy() })

	b.healthy.Store(0)
	waitTrue(t, func() bool { return !svc.IsHealthy() })
	if comps := svc.Components(); comps["store"] != true || comps["search"] != false {
		t.Fatalf("unexpected component map: %v", comps)
	}

	b.healthy.Store(1)
	waitTrue(t, func() bool { return svc.IsHealthy() })
}

func TestPingChecker_FollowsProbeResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := &fakePinger{}
	c := NewPingChecker("search", p, zerolog.Nop(), 50*time.Millisecond)
	if c.IsHealthy() {
		t.Fatalf("checker must start unhealthy")
	}
	go c.Start(ctx, 10*time.Millisecond)

	waitTrue(t, c.IsHealthy)
	p.fail.Store(true)
	waitTrue(t, func() bool { return !c.IsHealthy() })
	p.fail.Store(false)
	waitTrue(t, c.IsHealthy)
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
