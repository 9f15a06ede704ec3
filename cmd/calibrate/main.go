// Package main calibrates the five personality dimensions with
// Nelder-Mead, searching for the temperament that maximizes a cohort's
// median final wealth under a fixed birth scenario.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/lchant/loom/config"
	"github.com/lchant/loom/engine"
	"github.com/lchant/loom/person"
)

// formatDuration formats a duration as h/m/s for progress lines.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	runs := flag.Int("runs", 64, "Lives per evaluation")
	workers := flag.Int("workers", 0, "Worker goroutines per evaluation (0 = CPU count)")
	maxEvals := flag.Int("max-evals", 150, "Maximum number of evaluations")
	seed := flag.Uint64("seed", 42, "Base seed shared by every evaluation")
	birthYear := flag.Int("birth-year", 1980, "Year of birth for the scenario")
	city := flag.String("city", "", "Starting city (empty = config default)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Load base config
	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	params := NewParamVector()

	base := engine.RunParams{
		Profile: person.BirthProfile{
			BirthYear:          *birthYear,
			Region:             person.RegionUrban,
			FamilyClass:        0.5,
			ParentsEducation:   0.5,
			FamilyStability:    0.7,
			GeneticHealth:      0.7,
			CognitivePotential: 0.6,
		},
		City: *city,
		Seed: *seed,
	}

	evaluator, err := NewEvaluator(params, cfg, base, *runs, *workers)
	if err != nil {
		log.Fatalf("failed to build evaluator: %v", err)
	}

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			return evaluator.Evaluate(raw)
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; each one is parallel inside
	}

	method := &optimize.NelderMead{}

	// Open evaluation log
	logPath := filepath.Join(*outputDir, "calibrate_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "fitness", "median_wealth", "capture_share"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	logWriter.Write(header)

	evalCount := 0
	bestFitness := 1e18
	var bestParams []float64
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		raw := params.Denormalize(x)
		clamped := params.Clamp(raw)
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = make([]float64, len(clamped))
			copy(bestParams, clamped)
		}

		capture := evaluator.LastCaptureShare()
		row := []string{
			strconv.Itoa(evalCount),
			fmt.Sprintf("%.2f", fitness),
			fmt.Sprintf("%.2f", -fitness),
			fmt.Sprintf("%.3f", capture),
		}
		for _, v := range clamped {
			row = append(row, fmt.Sprintf("%.4f", v))
		}
		logWriter.Write(row)
		logWriter.Flush()

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: median_wealth=%.0f capture=%.2f (best=%.0f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, -fitness, capture, -bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting Nelder-Mead calibration with %d parameters, max_evals=%d\n",
		dim, *maxEvals)
	fmt.Printf("Lives per evaluation: %d, base seed: %d, birth year: %d\n",
		*runs, *seed, *birthYear)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("calibration ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	totalTime := time.Since(startTime)
	fmt.Printf("\nCalibration complete after %d evaluations in %s\n", evalCount, formatDuration(totalTime))
	fmt.Printf("Best median wealth: %.0f\n", -bestFitness)

	fmt.Println("\nBest personality:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.4f\n", spec.Name, bestParams[i])
	}

	// Save best personality
	best := params.Personality(bestParams)
	bestPath := filepath.Join(*outputDir, "best_personality.json")
	bestData, err := json.MarshalIndent(best, "", "  ")
	if err != nil {
		log.Printf("failed to marshal personality: %v", err)
	} else if err := os.WriteFile(bestPath, bestData, 0644); err != nil {
		log.Printf("failed to write personality: %v", err)
	} else {
		fmt.Printf("\nBest personality saved to: %s\n", bestPath)
	}

	// Save the effective config beside it so the run is reproducible
	configOutPath := filepath.Join(*outputDir, "config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write config: %v", err)
	}

	// Save hall of fame from the best evaluation
	if hof := evaluator.BestHallOfFame(); hof != nil {
		hofPath := filepath.Join(*outputDir, "hall_of_fame.json")
		hofData, err := json.MarshalIndent(hof, "", "  ")
		if err != nil {
			log.Printf("failed to marshal hall of fame: %v", err)
		} else if err := os.WriteFile(hofPath, hofData, 0644); err != nil {
			log.Printf("failed to write hall of fame: %v", err)
		} else {
			fmt.Printf("Hall of fame saved to: %s\n", hofPath)
		}
	}
}
