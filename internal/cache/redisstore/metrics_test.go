package redisstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mohammed-shakir/cs-wkt/internal/core/observability"
	"github.com/mohammed-shakir/cs-wkt/internal/metrics"
)

func Test_RedisMetrics_MGet_HitMiss(t *testing.T) {
	mr, _ := miniredis.Run()
	defer mr.Close()

	p := metrics.Init(metrics.Config{})
	observability.Init(p.Registerer(), true)

	ctx := context.Background()
	c, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			t.Fatalf("close redis client: %v", cerr)
		}
	}()

	_ = c.Set(ctx, "k:hit", []byte("v"), time.Minute)

	hits := func() float64 { return scrapeValue(t, p, `cache_results_total{outcome="hit",tier="redis"}`) }
	misses := func() float64 { return scrapeValue(t, p, `cache_results_total{outcome="miss",tier="redis"}`) }
	h0, m0 := hits(), misses()

	_, _ = c.MGet(ctx, []string{"k:hit", "k:miss"})

	if d := hits() - h0; d != 1 {
		t.Fatalf("expected 1 hit, delta %v", d)
	}
	if d := misses() - m0; d != 1 {
		t.Fatalf("expected 1 miss, delta %v", d)
	}
}

// scrapeValue returns the sample value of the first line starting with
// prefix, or zero when the series does not exist yet.
func scrapeValue(t *testing.T, p *metrics.Provider, prefix string) float64 {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	for ln := range strings.SplitSeq(rr.Body.String(), "\n") {
		if !strings.HasPrefix(ln, prefix+" ") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimPrefix(ln, prefix+" "), 64)
		if err != nil {
			t.Fatalf("parse %q: %v", ln, err)
		}
		return v
	}
	return 0
}

func TestGatherer_HasRedisHistogram(t *testing.T) {
	p := metrics.Init(metrics.Config{})
	observability.Init(p.Registerer(), true)
	rc := newMini(t)
	_ = rc.Set(context.Background(), "h", []byte("x"), time.Minute)

	n, err := testutil.GatherAndCount(p.Gatherer(), "redis_operation_duration_seconds")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n == 0 {
		t.Fatalf("expected redis_operation_duration_seconds samples")
	}
}
