package tb

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/sarchlab/coreverif/config"
	"github.com/sarchlab/coreverif/insts"
	"github.com/sarchlab/coreverif/kernel"
	"github.com/sarchlab/coreverif/loader"
	"github.com/sarchlab/coreverif/timing/pipeline"
)

// ErrUnknownTest is returned when running a test that is not registered.
var ErrUnknownTest = errors.New("unknown test")

// Bench is what a test may adjust before the simulation is built.
type Bench struct {
	Config      *config.Config
	CoreOptions []pipeline.PipelineOption
	Program     []*insts.Instruction
}

// Test is a named verification scenario. Setup runs before the simulation
// is built; Run runs as the test process and returns once all stimulus was
// handed to the sequencer.
type Test struct {
	Name        string
	Description string
	Setup       func(b *Bench) error
	Run         func(p *kernel.Process, env *Env, b *Bench) error
}

var registry = map[string]*Test{}

// Register adds a test. Registering a name twice panics.
func Register(t *Test) {
	if _, dup := registry[t.Name]; dup {
		panic(fmt.Sprintf("tb: test %q registered twice", t.Name))
	}
	registry[t.Name] = t
}

// Lookup finds a registered test.
func Lookup(name string) (*Test, error) {
	t, ok := registry[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownTest, name)
	}
	return t, nil
}

// Tests returns all registered tests sorted by name.
func Tests() []*Test {
	tests := make([]*Test, 0, len(registry))
	for _, t := range registry {
		tests = append(tests, t)
	}

	sort.Slice(tests, func(i, j int) bool {
		return tests[i].Name < tests[j].Name
	})

	return tests
}

func runRandom(p *kernel.Process, env *Env, b *Bench) error {
	seq := NewRandomSequence(b.Config.NumInstructions, b.Config.Seed)
	return seq.Body(p, env.Sequencer)
}

func init() {
	Register(&Test{
		Name:        "core_all_test",
		Description: "random instructions on a clean core",
		Run:         runRandom,
	})

	Register(&Test{
		Name: "core_error_test",
		Description: "random instructions on a core with a corrupted " +
			"writeback path; passes when the scoreboard notices",
		Setup: func(b *Bench) error {
			b.Config.CreateErrors = true
			b.CoreOptions = append(b.CoreOptions,
				pipeline.WithFault(pipeline.Fault{XORMask: 1}))
			return nil
		},
		Run: runRandom,
	})

	Register(&Test{
		Name:        "core_program_test",
		Description: "directed program from program_path",
		Setup: func(b *Bench) error {
			if b.Config.ProgramPath == "" {
				return errors.New("core_program_test needs program_path")
			}

			prog, err := loader.Load(b.Config.ProgramPath)
			if err != nil {
				return err
			}
			if prog.Len() == 0 {
				return errors.Errorf("%s holds no instruction",
					b.Config.ProgramPath)
			}

			b.Program = prog.Instructions
			return nil
		},
		Run: func(p *kernel.Process, env *Env, b *Bench) error {
			seq := &ProgramSequence{Program: b.Program}
			return seq.Body(p, env.Sequencer)
		},
	})
}
