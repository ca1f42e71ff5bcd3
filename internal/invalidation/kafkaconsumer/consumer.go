// Package kafkaconsumer applies dictionary change events from Kafka: it
// updates the local dictionary and bumps the translation cache generation.
package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/cs-wkt/internal/core/model"
	obs "github.com/mohammed-shakir/cs-wkt/internal/core/observability"
	"github.com/mohammed-shakir/cs-wkt/internal/invalidation"
	mylog "github.com/mohammed-shakir/cs-wkt/internal/logger"
)

// Generations is the cache generation counter. cache.Tiered implements it.
type Generations interface {
	Bump(ctx context.Context) (uint64, error)
}

// Dictionary is the writable side of dictionary.Store.
type Dictionary interface {
	Ellipsoid(key string) (model.EllipsoidDef, bool)
	PutEllipsoid(e model.EllipsoidDef)
	PutDatum(d model.DatumDef)
	DeleteEllipsoid(key string) bool
	DeleteDatum(key string) bool
}

// NameMapReleaser drops the loaded name map so the next use rebuilds it.
type NameMapReleaser interface {
	Release()
}

// errInvalid marks events that can never be applied. They are counted and
// skipped instead of blocking the partition.
var errInvalid = errors.New("invalid dictionary event")

type Option func(*Consumer)

func WithDictionary(d Dictionary) Option { return func(c *Consumer) { c.dict = d } }

func WithNameMap(r NameMapReleaser) Option { return func(c *Consumer) { c.names = r } }

func WithZerolog(zl *zerolog.Logger) Option { return func(c *Consumer) { c.zlog = zl } }

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	zlog   *zerolog.Logger
	gens   Generations
	dict   Dictionary
	names  NameMapReleaser
	dedupe *seqDedupe

	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}
}

func New(cfg Config, logger *slog.Logger, gens Generations, opts ...Option) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		cfg:    cfg,
		logger: logger,
		gens:   gens,
		dedupe: newSeqDedupe(cfg.DedupeSize),
		assign: map[int32]struct{}{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.zlog == nil {
		zl := mylog.Build(mylog.Config{Level: "info", Component: "kafka_consumer"}, nil)
		c.zlog = &zl
	}
	return c
}

// Start consumes until ctx ends. It returns early only when the consumer
// group cannot be created.
func (c *Consumer) Start(ctx context.Context) error {
	if c.gens == nil {
		return errors.New("kafkaconsumer: missing dependency (generations)")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() {
		if err := group.Close(); err != nil {
			c.logger.Error("kafka consumer group close", "err", err)
		}
	}()

	go func() {
		for err := range group.Errors() {
			c.logger.Error("kafka group error", "err", err)
		}
	}()

	c.logger.Info("dictionary invalidation consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	backoff := c.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	h := c.handler()
	for {
		if err := group.Consume(ctx, []string{c.cfg.Topic}, h); err != nil {
			c.zlog.Error().Err(err).
				Strs("brokers", c.cfg.Brokers).
				Str("topic", c.cfg.Topic).
				Msg("kafka consumer error")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			c.logger.Info("dictionary invalidation consumer shutting down")
			return nil
		}
	}
}

func (c *Consumer) handler() *groupHandler {
	return &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			c.assignMu.Lock()
			c.assign = map[int32]struct{}{}
			for _, parts := range sess.Claims() {
				for _, p := range parts {
					c.assign[p] = struct{}{}
				}
			}
			c.assigned.Store(true)
			c.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			c.assignMu.Lock()
			c.assigned.Store(false)
			c.assign = map[int32]struct{}{}
			c.assignMu.Unlock()
		},
		process: c.ProcessOne,
	}
}

// Readiness reports whether the consumer currently holds a group session.
func (c *Consumer) Readiness() (ready bool, partitions []int32) {
	if !c.assigned.Load() {
		return false, nil
	}
	c.assignMu.RLock()
	defer c.assignMu.RUnlock()
	for p := range c.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

// ProcessOne applies a single message. Undecodable or invalid events are
// logged and acknowledged; a failed generation bump is returned for retry.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := decode(msg.Value)
	if err != nil {
		obs.IncInvalidation("invalid")
		mylog.FromContext(ctx, c.zlog).Warn().Err(err).
			Str("topic", msg.Topic).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("skipping dictionary event")
		return nil
	}

	dk := ev.DedupeKey()
	if !c.dedupe.shouldApply(dk, ev.Seq) {
		obs.IncInvalidation("duplicate")
		c.logger.Debug("duplicate dictionary event", "key", dk, "seq", ev.Seq)
		return nil
	}

	if err := c.applyDictionary(ev); err != nil {
		obs.IncInvalidation("invalid")
		mylog.FromContext(ctx, c.zlog).Warn().Err(err).
			Str("kind", ev.Kind).Str("key", ev.Key).Uint64("seq", ev.Seq).
			Msg("skipping dictionary event")
		return nil
	}

	gen, err := c.gens.Bump(ctx)
	if err != nil {
		obs.IncInvalidation("error")
		mylog.FromContext(ctx, c.zlog).Error().Err(err).
			Str("kind", ev.Kind).Str("key", ev.Key).
			Int32("partition", msg.Partition).
			Int64("offset", msg.Offset).
			Msg("cache generation bump failed")
		return fmt.Errorf("bump generation: %w", err)
	}
	c.dedupe.record(dk, ev.Seq)
	obs.IncInvalidation("applied")

	mylog.FromContext(ctx, c.zlog).Info().
		Str("event", "invalidation").
		Str("op", ev.Op).Str("kind", ev.Kind).Str("key", ev.Key).
		Uint64("seq", ev.Seq).Uint64("generation", gen).
		Msg("dictionary change applied")
	return nil
}

func decode(b []byte) (invalidation.DictionaryEvent, error) {
	var ev invalidation.DictionaryEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, fmt.Errorf("%w: json decode: %v", errInvalid, err)
	}
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("%w: %v", errInvalid, err)
	}
	return ev, nil
}

func (c *Consumer) applyDictionary(ev invalidation.DictionaryEvent) error {
	if ev.Kind == invalidation.KindNameMap {
		if c.names != nil {
			c.names.Release()
		}
		return nil
	}
	if c.dict == nil {
		return nil
	}
	switch {
	case ev.Op == invalidation.OpDelete && ev.Kind == invalidation.KindEllipsoid:
		c.dict.DeleteEllipsoid(ev.Key)
	case ev.Op == invalidation.OpDelete && ev.Kind == invalidation.KindDatum:
		c.dict.DeleteDatum(ev.Key)
	case ev.Ellipsoid != nil:
		e, err := normalizeEllipsoid(*ev.Ellipsoid)
		if err != nil {
			return fmt.Errorf("%w: %v", errInvalid, err)
		}
		c.dict.PutEllipsoid(e)
	case ev.Datum != nil:
		d := *ev.Datum
		if _, ok := c.dict.Ellipsoid(d.EllipsoidKey); !ok {
			return fmt.Errorf("%w: datum %q references unknown ellipsoid %q", errInvalid, d.Key, d.EllipsoidKey)
		}
		if d.Method == "" {
			d.Method = model.MethodNone
		}
		d.NoTransform = d.Method == model.MethodNone
		c.dict.PutDatum(d)
	}
	return nil
}

// normalizeEllipsoid rederives the dependent fields from the axes or the
// flattening given on the wire.
func normalizeEllipsoid(e model.EllipsoidDef) (model.EllipsoidDef, error) {
	var out model.EllipsoidDef
	if e.Flattening == 0 && e.SemiMinor > 0 {
		if e.SemiMinor > e.SemiMajor {
			return out, fmt.Errorf("%w: semi-minor axis %v exceeds semi-major %v", model.ErrInvalidEllipsoid, e.SemiMinor, e.SemiMajor)
		}
		out = model.NewEllipsoidAxes(e.Key, e.SemiMajor, e.SemiMinor)
	} else {
		if err := model.CheckEllipsoid(e.SemiMajor, e.InverseFlattening()); err != nil {
			return out, err
		}
		out = model.NewEllipsoid(e.Key, e.SemiMajor, e.InverseFlattening())
	}
	out.Description = e.Description
	out.EPSG = e.EPSG
	return out, nil
}
