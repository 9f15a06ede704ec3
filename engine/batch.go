package engine

import (
	"errors"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/lchant/loom/country"
	"github.com/lchant/loom/person"
)

// seedStride keeps neighbouring cohort members on well-separated
// streams.
const seedStride = 1000

// BatchParams frames a cohort: one base scenario fanned out over
// derived seeds.
type BatchParams struct {
	Base    RunParams
	Count   int
	Workers int // 0 uses the CPU count

	// Observe, when set, receives each run's wall-clock duration.
	// It is called from worker goroutines and must be safe for
	// concurrent use.
	Observe func(time.Duration)
}

// BatchResult aggregates a finished cohort. Total wealth folds property
// back in so owners and renters compare fairly.
type BatchResult struct {
	Results []*Result

	WealthMean   float64
	WealthStd    float64
	WealthP50    float64
	WealthP90    float64
	MeanFinalAge float64
	EliteShare   float64 // fraction of lives ending elite
	CaptureShare float64 // fraction that captured the window
	MissShare    float64 // fraction that missed it
}

// RunBatch runs the cohort across a worker pool. Each member gets its
// own derived seed, so results are reproducible regardless of worker
// count or scheduling.
func (s *Simulator) RunBatch(p BatchParams) (*BatchResult, error) {
	if p.Count <= 0 {
		return nil, errors.New("batch count must be positive")
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > p.Count {
		workers = p.Count
	}

	results := make([]*Result, p.Count)
	errs := make([]error, p.Count)
	idx := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				rp := p.Base
				rp.Source = nil
				rp.Seed = p.Base.Seed + uint64(i)*seedStride + 1
				start := time.Now()
				results[i], errs[i] = s.Run(rp)
				if p.Observe != nil {
					p.Observe(time.Since(start))
				}
			}
		}()
	}
	for i := 0; i < p.Count; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return summarize(results), nil
}

func summarize(results []*Result) *BatchResult {
	br := &BatchResult{Results: results}

	wealth := make([]float64, len(results))
	ages := make([]float64, len(results))
	for i, res := range results {
		wealth[i] = res.Final.Wealth + res.Final.PropertyValue
		ages[i] = float64(res.FinalAge)
		if res.Final.Flags.Has(person.FlagElite) {
			br.EliteShare++
		}
		switch res.Window {
		case country.WindowCaptured:
			br.CaptureShare++
		case country.WindowMissed:
			br.MissShare++
		}
	}

	n := float64(len(results))
	br.EliteShare /= n
	br.CaptureShare /= n
	br.MissShare /= n

	br.WealthMean = stat.Mean(wealth, nil)
	br.MeanFinalAge = stat.Mean(ages, nil)
	if len(wealth) > 1 {
		br.WealthStd = stat.StdDev(wealth, nil)
	}
	sort.Float64s(wealth)
	br.WealthP50 = stat.Quantile(0.5, stat.Empirical, wealth, nil)
	br.WealthP90 = stat.Quantile(0.9, stat.Empirical, wealth, nil)
	return br
}
