// Package benchmarks runs directed microbenchmarks through the verification
// runner and reports how the core's timing configuration affects them.
//
// Every benchmark is verified against the golden model while it is timed,
// so a timing configuration that changes what the core computes shows up as
// a failed benchmark.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/coreverif/config"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/kernel"
	"github.com/sarchlab/coreverif/tb"
	"github.com/sarchlab/coreverif/timing/latency"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// RunID identifies the verification run
	RunID string `json:"run_id"`

	// BusCycles is the number of clock cycles of the whole run, including
	// reset
	BusCycles uint64 `json:"bus_cycles"`

	// SimulatedCycles is the number of cycles the core ran since reset
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	FetchStalls uint64 `json:"fetch_stalls"`
	ExecStalls  uint64 `json:"exec_stalls"`
	MemStalls   uint64 `json:"mem_stalls"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// Compared is the number of scoreboard comparisons
	Compared int `json:"compared"`

	// Passed reports whether every comparison matched
	Passed bool `json:"passed"`

	// Error describes why the run failed
	Error string `json:"error,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Program is driven into the core in order
	Program []*insts.Instruction
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Timing is the core's timing configuration
	Timing *latency.TimingConfig

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Timing:  latency.DefaultTimingConfig(),
		Output:  os.Stdout,
		Verbose: false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Timing == nil {
		config.Timing = latency.DefaultTimingConfig()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() []BenchmarkResult {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		results = append(results, h.runBenchmark(bench))
	}

	return results
}

func (h *Harness) runBenchmark(bench Benchmark) BenchmarkResult {
	cfg := config.Default()
	cfg.Timing = h.config.Timing.Clone()
	cfg.NumInstructions = len(bench.Program)

	test := &tb.Test{
		Name:        "bench." + bench.Name,
		Description: bench.Description,
		Setup: func(b *tb.Bench) error {
			b.Program = bench.Program
			return nil
		},
		Run: func(p *kernel.Process, env *tb.Env, b *tb.Bench) error {
			seq := &tb.ProgramSequence{Program: b.Program}
			return seq.Body(p, env.Sequencer)
		},
	}

	start := time.Now()
	run := tb.NewRunner(cfg).RunTest(test)
	wallTime := time.Since(start)

	stats := run.Pipeline
	result := BenchmarkResult{
		Name:                bench.Name,
		Description:         bench.Description,
		RunID:               run.RunID,
		BusCycles:           run.Cycles,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.Instructions,
		CPI:                 stats.CPI(),
		FetchStalls:         stats.FetchStalls,
		ExecStalls:          stats.ExecStalls,
		MemStalls:           stats.MemStalls,
		DCacheHits:          stats.Cache.Hits,
		DCacheMisses:        stats.Cache.Misses,
		Compared:            run.Report.Compared,
		Passed:              run.Passed(),
		WallTime:            wallTime,
	}

	if run.Err != nil {
		result.Error = run.Err.Error()
	}

	return result
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	out := h.config.Output

	_, _ = fmt.Fprintln(out, "=== coreverif Timing Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		verdict := "PASSED"
		if !r.Passed {
			verdict = "FAILED"
		}

		_, _ = fmt.Fprintf(out, "Benchmark: %s (%s)\n", r.Name, verdict)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		if r.Error != "" {
			_, _ = fmt.Fprintf(out, "  Error: %s\n", r.Error)
		}
		_, _ = fmt.Fprintln(out, "  --- Timing ---")
		_, _ = fmt.Fprintf(out, "  Bus Cycles:           %d\n", r.BusCycles)
		_, _ = fmt.Fprintf(out, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(out, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(out, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Fetch Stalls:         %d\n", r.FetchStalls)
		_, _ = fmt.Fprintf(out, "  Exec Stalls:          %d\n", r.ExecStalls)
		_, _ = fmt.Fprintf(out, "  Mem Stalls:           %d\n", r.MemStalls)

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(out, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(out, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(out, "  Misses: %d\n", r.DCacheMisses)
		}

		if h.config.Verbose {
			_, _ = fmt.Fprintf(out, "  Run ID: %s\n", r.RunID)
			_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		}
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,passed,cycles,instructions,cpi,fetch_stalls,exec_stalls,mem_stalls,dcache_hits,dcache_misses")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%t,%d,%d,%.3f,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Passed,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.FetchStalls,
			r.ExecStalls,
			r.MemStalls,
			r.DCacheHits,
			r.DCacheMisses,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	Timestamp string                `json:"timestamp"`
	Timing    *latency.TimingConfig `json:"timing"`
	Results   []BenchmarkResult     `json:"results"`
	Summary   ReportSummary         `json:"summary"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int     `json:"total_benchmarks"`
	Failed            int     `json:"failed"`
	TotalCycles       uint64  `json:"total_cycles"`
	TotalInstructions uint64  `json:"total_instructions"`
	AverageCPI        float64 `json:"average_cpi"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	s := ReportSummary{TotalBenchmarks: len(results)}

	for _, r := range results {
		s.TotalCycles += r.SimulatedCycles
		s.TotalInstructions += r.InstructionsRetired
		if !r.Passed {
			s.Failed++
		}
	}

	if s.TotalInstructions > 0 {
		s.AverageCPI = float64(s.TotalCycles) / float64(s.TotalInstructions)
	}

	return s
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Timing:    h.config.Timing,
		Results:   results,
		Summary:   Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
