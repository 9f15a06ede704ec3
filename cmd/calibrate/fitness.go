package main

import (
	"math"
	"sync"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/engine"
	"github.com/lchant/loom/telemetry"
)

// Evaluator scores a personality by running a cohort of lives with it
// and reading off the median final wealth.
type Evaluator struct {
	params  *ParamVector
	cfg     *config.Config
	sim     *engine.Simulator
	base    engine.RunParams
	runs    int
	workers int

	// Best evaluation tracking
	mu          sync.Mutex
	bestFitness float64
	bestHall    *telemetry.HallOfFame
	lastCapture float64
}

// NewEvaluator creates an evaluator over a fixed base scenario. The
// base seed stays constant across evaluations so the optimizer sees a
// deterministic surface.
func NewEvaluator(params *ParamVector, cfg *config.Config, base engine.RunParams, runs, workers int) (*Evaluator, error) {
	sim, err := engine.NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		params:      params,
		cfg:         cfg,
		sim:         sim,
		base:        base,
		runs:        runs,
		workers:     workers,
		bestFitness: math.Inf(1),
	}, nil
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (e *Evaluator) BestHallOfFame() *telemetry.HallOfFame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bestHall
}

// LastCaptureShare returns the window capture share of the most recent
// evaluation.
func (e *Evaluator) LastCaptureShare() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastCapture
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative median total wealth: richer cohorts score lower.
func (e *Evaluator) Evaluate(x []float64) float64 {
	rp := e.base
	rp.Personality = e.params.Personality(x)

	br, err := e.sim.RunBatch(engine.BatchParams{
		Base:    rp,
		Count:   e.runs,
		Workers: e.workers,
	})
	if err != nil {
		return math.Inf(1)
	}

	fitness := -br.WealthP50

	hof := telemetry.NewHallOfFame(e.cfg.HallOfFame)
	for _, res := range br.Results {
		collector := telemetry.NewCollector(res.Seed)
		for _, s := range res.Snapshots {
			collector.Record(s)
		}
		hof.Consider(collector.Flush(res.Died))
	}

	e.mu.Lock()
	if fitness < e.bestFitness {
		e.bestFitness = fitness
		e.bestHall = hof
	}
	e.lastCapture = br.CaptureShare
	e.mu.Unlock()

	return fitness
}
