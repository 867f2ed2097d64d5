package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/coreverif/config"
	"github.com/sarchlab/coreverif/record"
	"github.com/sarchlab/coreverif/tb"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	configPath   string
	envFile      string
	seed         uint64
	num          int
	createErrors bool
	passive      bool
	program      string
	recordPath   string
	trace        bool
	verbose      bool
}

var logger = log.New(os.Stderr, "", 0)

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [test...]",
		Short: "Run verification tests (default: core_all_test).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			runnerOpts, err := opts.runnerOptions(cfg)
			if err != nil {
				return err
			}

			return runTests(cfg, args, runnerOpts, os.Stdout)
		},
	}

	opts.bind(cmd)

	return cmd
}

func (o *runOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "JSON run configuration")
	f.StringVar(&o.envFile, "env", ".env", "env file with COREVERIF_* settings")
	f.Uint64Var(&o.seed, "seed", 0, "instruction generator seed")
	f.IntVarP(&o.num, "num", "n", 0, "number of random instructions")
	f.BoolVar(&o.createErrors, "create-errors", false,
		"expect the scoreboard to find mismatches")
	f.BoolVar(&o.passive, "passive", false,
		"collect results with a monitor instead of the driver")
	f.StringVar(&o.program, "program", "",
		"directed program for core_program_test (hex or RV32 ELF)")
	f.StringVar(&o.recordPath, "record", "",
		"record comparisons to this SQLite database")
	f.BoolVar(&o.trace, "trace", false, "log every bus transaction")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
}

// loadConfig builds the run configuration. The JSON file is applied first,
// then the env file and COREVERIF_* variables, then the flags given on the
// command line.
func (o *runOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.LoadEnv(o.envFile); err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("seed") {
		cfg.Seed = o.seed
	}
	if f.Changed("num") {
		cfg.NumInstructions = o.num
	}
	if f.Changed("create-errors") {
		cfg.CreateErrors = o.createErrors
	}
	if f.Changed("passive") {
		cfg.PassiveResults = o.passive
	}
	if f.Changed("program") {
		cfg.ProgramPath = o.program
	}
	if f.Changed("record") {
		cfg.RecordPath = o.recordPath
	}
	if f.Changed("verbose") {
		cfg.Verbose = o.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (o *runOptions) runnerOptions(cfg *config.Config) ([]tb.RunnerOption, error) {
	opts := []tb.RunnerOption{tb.WithRunnerLogger(logger)}
	if o.trace {
		opts = append(opts, tb.WithHook(tb.NewTransactionLogger(logger)))
	}

	if cfg.RecordPath != "" {
		recorder, err := record.NewSQLiteRecorder(cfg.RecordPath)
		if err != nil {
			return nil, err
		}
		atexit.Register(func() {
			logger.Printf("recorded %d runs to %s",
				recorder.Runs(), recorder.Path())
		})
		opts = append(opts, tb.WithHook(recorder))
	}

	return opts, nil
}

// runTests runs the named tests, core_all_test when names is empty, and
// prints one line per test to w. It fails when any test fails.
func runTests(
	cfg *config.Config,
	names []string,
	opts []tb.RunnerOption,
	w io.Writer,
) error {
	if len(names) == 0 {
		names = []string{"core_all_test"}
	}

	failed := 0
	for _, name := range names {
		result := tb.NewRunner(cfg, opts...).Run(name)

		fmt.Fprintf(w, "%-20s %s  run=%s seed=%d cycles=%d compared=%d mismatches=%d\n",
			result.Test, result.Verdict(), result.RunID, result.Seed,
			result.Cycles, result.Report.Compared, result.Report.Mismatches)
		if result.Err != nil {
			fmt.Fprintf(w, "  %v\n", result.Err)
		}

		if !result.Passed() {
			failed++
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d tests failed", failed, len(names))
	}

	return nil
}
