package invalidation_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammed-shakir/cs-wkt/internal/cache"
	"github.com/mohammed-shakir/cs-wkt/internal/cache/keys"
	"github.com/mohammed-shakir/cs-wkt/internal/cache/redisstore"
	"github.com/mohammed-shakir/cs-wkt/internal/core/config"
	"github.com/mohammed-shakir/cs-wkt/internal/invalidation"
	"github.com/mohammed-shakir/cs-wkt/internal/invalidation/kafkaconsumer"
)

func TestIntegration_Miniredis_GenerationAndMetrics(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	ctx := context.Background()

	rc, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	tc, err := cache.New(rc, cache.Options{OpTimeout: time.Second})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	before := tc.Key("import", "OGC", "", "x")
	tc.Put(ctx, before, []byte("v"), time.Minute)

	cons := kafkaconsumer.New(
		kafkaconsumer.FromConfig(config.InvalidationCfg{Topic: "t", GroupID: "g", DedupeSize: 8}),
		nil,
		tc,
	)
	ev := invalidation.DictionaryEvent{
		Version: 1, Op: "delete", Kind: "datum", Key: "NAD27", Seq: 1, TS: time.Now().UTC(),
	}
	body, _ := json.Marshal(ev)
	msg := &sarama.ConsumerMessage{Topic: "t", Partition: 0, Offset: 1, Value: body}

	if err := cons.ProcessOne(ctx, msg); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if got, err := mr.Get(keys.GenerationKey); err != nil || got != "1" {
		t.Fatalf("shared generation = %q, %v", got, err)
	}
	after := tc.Key("import", "OGC", "", "x")
	if after == before {
		t.Fatalf("key must change with the generation")
	}
	if _, _, ok := tc.Get(ctx, after); ok {
		t.Fatalf("old entry must be unreachable after invalidation")
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	bodyStr := rr.Body.String()
	for _, s := range []string{
		`invalidation_events_total{result="applied"}`,
		"cache_generation",
	} {
		if !strings.Contains(bodyStr, s) {
			t.Fatalf("metrics missing %q; got:\n%s", s, bodyStr)
		}
	}
}
