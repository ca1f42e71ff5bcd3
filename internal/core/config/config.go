package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers []string
	GroupID string
	// DedupeSize bounds the per-key sequence table used to drop replays.
	DedupeSize int
}

type CacheCfg struct {
	Enabled   bool
	LRUSize   int
	RedisAddr string
	// RedisEnabled turns on the shared second tier.
	RedisEnabled bool
	RedisPool    int
	RedisMinIdle int
	// RedisTimeout bounds dial, read and write on the Redis connection.
	RedisTimeout time.Duration
	TTL          time.Duration
	TTLOvr       map[string]time.Duration
	OpTimeout    time.Duration
	// GenSync is how often a replica adopts the shared generation.
	GenSync time.Duration
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool
	LogSampleN int

	NameMapPath    string
	DictionaryPath string
	DefaultFlavor  string
	// AllowSubstitution lets export fall back to the Autodesk flavor when the
	// requested flavor cannot name the projection.
	AllowSubstitution bool
	MaxBodyBytes      int64

	Cache        CacheCfg
	Invalidation InvalidationCfg
	Metrics      MetricsCfg
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),

		NameMapPath:       getenv("NAMEMAP_PATH", ""),
		DictionaryPath:    getenv("DICTIONARY_PATH", ""),
		DefaultFlavor:     getenv("DEFAULT_FLAVOR", "OGC"),
		AllowSubstitution: getbool("ALLOW_FLAVOR_SUBSTITUTION", true),
		MaxBodyBytes:      int64(getint("MAX_BODY_BYTES", 1<<20)),

		Cache: CacheCfg{
			Enabled:      getbool("CACHE_ENABLED", true),
			LRUSize:      getint("CACHE_LRU_SIZE", 4096),
			RedisAddr:    getenv("REDIS_ADDR", ""),
			RedisEnabled: getenv("REDIS_ADDR", "") != "",
			RedisPool:    getint("REDIS_POOL_SIZE", 64),
			RedisMinIdle: getint("REDIS_MIN_IDLE", 4),
			RedisTimeout: getduration("REDIS_TIMEOUT", time.Second),
			TTL:          getduration("CACHE_TTL", 10*time.Minute),
			TTLOvr:       parseDurationMap(getenv("CACHE_TTL_OVERRIDES", "")),
			OpTimeout:    getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			GenSync:      getduration("CACHE_GEN_SYNC", 5*time.Second),
		},
		Invalidation: InvalidationCfg{
			Enabled:    getbool("INVALIDATION_ENABLED", false),
			Topic:      getenv("KAFKA_TOPIC", "cswkt-dictionary"),
			Brokers:    getlist("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:    getenv("KAFKA_GROUP_ID", "cswkt-invalidator"),
			DedupeSize: getint("INVALIDATION_DEDUPE_SIZE", 10000),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
	}
}

// TTLFor returns the cache TTL for a translation direction.
func (c CacheCfg) TTLFor(direction string) time.Duration {
	if d, ok := c.TTLOvr[direction]; ok && d > 0 {
		return d
	}
	return c.TTL
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func getlist(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// parse "import=5m,export=1h" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
