package insts

import "math/rand/v2"

// Generator produces random, syntactically valid instructions. Two
// generators created with the same seed and options produce the same stream.
type Generator struct {
	rng     *rand.Rand
	ops     []Op
	numRegs int
}

// GeneratorOption is a functional option for configuring the Generator.
type GeneratorOption func(*Generator)

// WithOps restricts the generator to the given opcodes.
func WithOps(ops ...Op) GeneratorOption {
	return func(g *Generator) {
		g.ops = append([]Op(nil), ops...)
	}
}

// WithRegisterLimit draws registers from x0..x(n-1) only. Fewer registers
// give more read-after-write dependencies between consecutive instructions.
func WithRegisterLimit(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 && n <= NumRegs {
			g.numRegs = n
		}
	}
}

// AllOps lists every supported opcode.
func AllOps() []Op {
	ops := make([]Op, 0, len(encodings))
	for op := OpADD; op <= OpLW; op++ {
		ops = append(ops, op)
	}
	return ops
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64, opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		ops:     AllOps(),
		numRegs: NumRegs,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Next returns a new random instruction.
func (g *Generator) Next() *Instruction {
	op := g.ops[g.rng.IntN(len(g.ops))]

	rd := g.reg()
	rs1 := g.reg()
	rs2 := g.reg()

	var imm int32
	switch {
	case IsShiftImm(op):
		imm = int32(g.rng.IntN(shamtMax + 1))
	case op == OpLUI:
		imm = int32(g.rng.Uint32() & upperImmMask)
	default:
		imm = int32(g.rng.IntN(immMax-immMin+1)) + immMin
	}

	return MustEncode(op, rd, rs1, rs2, imm)
}

func (g *Generator) reg() uint8 {
	return uint8(g.rng.IntN(g.numRegs))
}
