package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ServiceHealth is one stage's probe outcome.
type ServiceHealth struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
}

// HealthAggregator probes every stage's health endpoint concurrently.
type HealthAggregator struct {
	stages  []Stage
	client  *Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewHealthAggregator creates an aggregator with a per-probe timeout.
func NewHealthAggregator(stages []Stage, client *Client, timeout time.Duration, logger zerolog.Logger) *HealthAggregator {
	return &HealthAggregator{
		stages:  stages,
		client:  client,
		timeout: timeout,
		log:     logger.With().Str("component", "health").Logger(),
	}
}

// Probe checks every stage concurrently and always returns one entry per
// stage, in stage order. A probe that errors, times out, or panics marks its
// stage unhealthy without affecting the others.
func (a *HealthAggregator) Probe(ctx context.Context) []ServiceHealth {
	results := make([]ServiceHealth, len(a.stages))

	g, ctx := errgroup.WithContext(ctx)
	for i, stage := range a.stages {
		i, stage := i, stage
		g.Go(func() error {
			results[i] = ServiceHealth{Name: stage.Name, OK: a.probeOne(ctx, stage)}
			return nil
		})
	}
	g.Wait()

	return results
}

func (a *HealthAggregator) probeOne(ctx context.Context, stage Stage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Str("stage", stage.Name).Msg(fmt.Sprint("health probe panicked: ", r))
			ok = false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	if err := a.client.Get(ctx, stage.URL+stage.Path+"/health"); err != nil {
		a.log.Warn().Err(err).Str("stage", stage.Name).Msg("health probe failed")
		return false
	}
	return true
}
