package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/telemetry"
)

// BreakerSettings configure the circuit breaker kept for each source.
type BreakerSettings struct {
	Failures uint32
	Timeout  time.Duration
}

// Outcome is what one source produced for one collection.
type Outcome struct {
	Source  string
	Kind    models.Kind
	Records []models.RawRecord
	Err     error
}

// Collection is the fan-in of every source, in source order.
type Collection struct {
	Outcomes []Outcome
}

func (c Collection) Records() []models.RawRecord {
	var out []models.RawRecord
	for _, o := range c.Outcomes {
		out = append(out, o.Records...)
	}
	return out
}

func (c Collection) FailedSources() []string {
	out := []string{}
	for _, o := range c.Outcomes {
		if o.Err != nil {
			out = append(out, o.Source)
		}
	}
	return out
}

// AllFailed reports whether kind k had at least one source and none of
// them answered.
func (c Collection) AllFailed(k models.Kind) bool {
	seen := false
	for _, o := range c.Outcomes {
		if o.Kind != k {
			continue
		}
		if o.Err == nil {
			return false
		}
		seen = true
	}
	return seen
}

// Collector runs every source concurrently. A failing source yields an
// empty record set; it never fails the collection.
type Collector struct {
	sources  []Source
	breakers []*gobreaker.CircuitBreaker
	log      *slog.Logger
	metrics  *telemetry.Metrics
}

func NewCollector(sources []Source, bs BreakerSettings, log *slog.Logger, m *telemetry.Metrics) *Collector {
	if bs.Failures == 0 {
		bs.Failures = 3
	}
	c := &Collector{sources: sources, log: log, metrics: m}
	for _, s := range sources {
		c.breakers = append(c.breakers, gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    s.Name(),
			Timeout: bs.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= bs.Failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("source breaker state changed", slog.String("source", name), slog.String("from", from.String()), slog.String("to", to.String()))
				m.SetBreakerState(name, int(to))
			},
		}))
	}
	return c
}

func (c *Collector) Sources() []Source { return c.sources }

func (c *Collector) Collect(ctx context.Context, filter models.Filter) Collection {
	out := make([]Outcome, len(c.sources))
	var g errgroup.Group
	for i, s := range c.sources {
		i, s := i, s
		g.Go(func() error {
			out[i] = c.fetch(ctx, i, s, filter)
			return nil
		})
	}
	_ = g.Wait()
	return Collection{Outcomes: out}
}

func (c *Collector) fetch(ctx context.Context, i int, s Source, filter models.Filter) Outcome {
	o := Outcome{Source: s.Name(), Kind: s.Kind()}
	start := time.Now()
	v, err := c.breakers[i].Execute(func() (res interface{}, ferr error) {
		// un adaptador que entra en pánico cuenta como caído
		defer func() {
			if r := recover(); r != nil {
				res, ferr = nil, fmt.Errorf("panic: %v", r)
			}
		}()
		return s.Fetch(ctx, filter)
	})
	c.metrics.ObserveFetch(o.Source, o.Kind, time.Since(start), err)
	if err != nil {
		o.Err = fmt.Errorf("%s: %w: %w", o.Source, ErrSourceUnavailable, err)
		c.log.Warn("source failed, continuing without it", slog.String("source", o.Source), slog.String("kind", string(o.Kind)), slog.String("err", err.Error()))
		return o
	}
	o.Records = v.([]models.RawRecord)
	c.log.Debug("source fetched", slog.String("source", o.Source), slog.Int("rows", len(o.Records)))
	return o
}
