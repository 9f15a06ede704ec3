package main

import (
	"flag"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/engine"
	"github.com/lchant/loom/person"
	"github.com/lchant/loom/rng"
	"github.com/lchant/loom/runstore"
	"github.com/lchant/loom/telemetry"
)

// progressEvery is how often a running batch reports throughput.
const progressEvery = 5 * time.Second

// options collects run settings. Environment variables provide the
// defaults, CLI flags override them.
type options struct {
	Config        string `env:"LOOM_CONFIG"`
	OutDir        string `env:"LOOM_OUT"`
	DBPath        string `env:"LOOM_DB"`
	City          string `env:"LOOM_CITY"`
	Seed          uint64 `env:"LOOM_SEED"`
	BirthYear     int    `env:"LOOM_BIRTH_YEAR" envDefault:"1980"`
	MaxAge        int    `env:"LOOM_MAX_AGE"`
	Runs          int    `env:"LOOM_RUNS" envDefault:"1"`
	Workers       int    `env:"LOOM_WORKERS"`
	RandomProfile bool   `env:"LOOM_RANDOM_PROFILE"`
}

func main() {
	var opts options
	if err := env.Parse(&opts); err != nil {
		slog.Error("failed to parse environment", "error", err)
		os.Exit(1)
	}

	// CLI flags
	flag.StringVar(&opts.Config, "config", opts.Config, "Path to config.yaml (empty = use defaults)")
	flag.StringVar(&opts.OutDir, "out", opts.OutDir, "Output directory for CSV/JSON files (empty = no files)")
	flag.StringVar(&opts.DBPath, "db", opts.DBPath, "SQLite run archive path (empty = no archive)")
	flag.StringVar(&opts.City, "city", opts.City, "Starting city (empty = config default)")
	flag.Uint64Var(&opts.Seed, "seed", opts.Seed, "RNG seed (0 = time-based)")
	flag.IntVar(&opts.BirthYear, "birth-year", opts.BirthYear, "Year of birth")
	flag.IntVar(&opts.MaxAge, "max-age", opts.MaxAge, "Terminal age (0 = config default)")
	flag.IntVar(&opts.Runs, "runs", opts.Runs, "Number of lives to simulate")
	flag.IntVar(&opts.Workers, "workers", opts.Workers, "Worker goroutines for batches (0 = CPU count)")
	flag.BoolVar(&opts.RandomProfile, "random-profile", opts.RandomProfile, "Draw the birth profile and personality from the seed")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(opts.Config); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if opts.Seed == 0 {
		opts.Seed = uint64(time.Now().UnixNano())
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(cfg, opts); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, opts options) error {
	sim, err := engine.NewSimulator(cfg)
	if err != nil {
		return err
	}

	om, err := telemetry.NewOutputManager(opts.OutDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		return err
	}

	var store *runstore.Store
	if opts.DBPath != "" {
		store, err = runstore.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	profile, personality := buildPerson(cfg, opts)
	base := engine.RunParams{
		Profile:     profile,
		Personality: personality,
		City:        opts.City,
		MaxAge:      opts.MaxAge,
		Seed:        opts.Seed,
	}

	if opts.Runs <= 1 {
		return runSingle(sim, cfg, base, om, store)
	}
	return runBatch(sim, cfg, base, opts, om, store)
}

// buildPerson assembles the base scenario. With -random-profile the
// fields are drawn from the seed; otherwise a fixed mid-range profile
// keeps batches comparable across seeds.
func buildPerson(cfg *config.Config, opts options) (person.BirthProfile, person.Personality) {
	profile := person.BirthProfile{
		BirthYear:          opts.BirthYear,
		Region:             person.RegionUrban,
		FamilyClass:        0.5,
		ParentsEducation:   0.5,
		FamilyStability:    0.7,
		GeneticHealth:      0.7,
		CognitivePotential: 0.6,
	}
	personality := person.Personality{
		Openness:          0.5,
		Conscientiousness: 0.5,
		RiskPreference:    0.5,
		SocialDrive:       0.5,
		Resilience:        0.5,
	}
	if !opts.RandomProfile {
		return profile, personality
	}

	r := rng.NewSeeded(opts.Seed)
	profile.BirthYear = cfg.Simulation.BaseYear + 1 + r.IntN(51)
	if r.Bool(0.5) {
		profile.Region = person.RegionRural
	}
	profile.FamilyClass = r.Uniform(0, 1)
	profile.ParentsEducation = r.Uniform(0, 1)
	profile.FamilyStability = r.Uniform(0, 1)
	profile.GeneticHealth = r.Uniform(0.5, 0.9)
	profile.CognitivePotential = r.Uniform(0.3, 0.8)

	personality = person.Personality{
		Openness:          r.Uniform(0, 1),
		Conscientiousness: r.Uniform(0, 1),
		RiskPreference:    r.Uniform(0, 1),
		SocialDrive:       r.Uniform(0, 1),
		Resilience:        r.Uniform(0, 1),
	}
	return profile, personality
}

// runSingle simulates one life and streams its full trajectory through
// the event detector and output files.
func runSingle(sim *engine.Simulator, cfg *config.Config, base engine.RunParams, om *telemetry.OutputManager, store *runstore.Store) error {
	slog.Info("starting run",
		"seed", base.Seed,
		"birth_year", base.Profile.BirthYear,
		"city", base.City,
	)

	res, err := sim.Run(base)
	if err != nil {
		return err
	}

	detector := telemetry.NewEventDetector(cfg.Telemetry)
	collector := telemetry.NewCollector(res.Seed)
	for _, s := range res.Snapshots {
		if err := om.WriteSnapshot(s); err != nil {
			return err
		}
		for _, ev := range detector.Check(s) {
			ev.LogEvent()
			if err := om.WriteEvent(ev); err != nil {
				return err
			}
			collector.RecordEvents(1)
		}
		collector.Record(s)
	}

	ls := collector.Flush(res.Died)
	ls.LogStats()
	if err := om.WriteLife(ls); err != nil {
		return err
	}

	if store != nil {
		id, err := store.SaveRun(ls, telemetry.Trajectory{
			Version:   telemetry.SnapshotVersion,
			Seed:      res.Seed,
			Snapshots: res.Snapshots,
		})
		if err != nil {
			return err
		}
		slog.Info("run archived", "run_id", id)
	}
	return nil
}

// runBatch fans the base scenario out over derived seeds, folding each
// finished life into the cohort summary, hall of fame, and archive.
func runBatch(sim *engine.Simulator, cfg *config.Config, base engine.RunParams, opts options, om *telemetry.OutputManager, store *runstore.Store) error {
	slog.Info("starting batch",
		"runs", opts.Runs,
		"workers", opts.Workers,
		"base_seed", base.Seed,
		"birth_year", base.Profile.BirthYear,
	)

	perf := telemetry.NewPerfCollector(cfg.Telemetry.HistorySize)

	stop := make(chan struct{})
	var progress sync.WaitGroup
	progress.Add(1)
	go func() {
		defer progress.Done()
		ticker := time.NewTicker(progressEvery)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				stats := perf.Stats()
				stats.LogStats()
				if err := om.WritePerf(stats); err != nil {
					slog.Error("failed to write perf row", "error", err)
				}
			}
		}
	}()

	br, err := sim.RunBatch(engine.BatchParams{
		Base:    base,
		Count:   opts.Runs,
		Workers: opts.Workers,
		Observe: perf.Observe,
	})
	close(stop)
	progress.Wait()
	if err != nil {
		return err
	}

	cohort := telemetry.NewCohort()
	hof := telemetry.NewHallOfFame(cfg.HallOfFame)
	for _, res := range br.Results {
		detector := telemetry.NewEventDetector(cfg.Telemetry)
		collector := telemetry.NewCollector(res.Seed)
		for _, s := range res.Snapshots {
			collector.RecordEvents(len(detector.Check(s)))
			collector.Record(s)
		}

		ls := collector.Flush(res.Died)
		cohort.Add(ls)
		hof.Consider(ls)
		if err := om.WriteLife(ls); err != nil {
			return err
		}

		if store != nil {
			_, err := store.SaveRun(ls, telemetry.Trajectory{
				Version:   telemetry.SnapshotVersion,
				Seed:      res.Seed,
				Snapshots: res.Snapshots,
			})
			if err != nil {
				return err
			}
		}
	}

	summary := cohort.Summary()
	summary.LogSummary()
	if err := om.WriteSummary(summary); err != nil {
		return err
	}
	if err := om.WriteHallOfFame(hof); err != nil {
		return err
	}

	final := perf.Stats()
	final.LogStats()
	if err := om.WritePerf(final); err != nil {
		return err
	}

	if store != nil {
		if n, err := store.CountRuns(); err == nil {
			slog.Info("archive updated", "total_runs", n)
		}
	}
	return nil
}
