package benchmarks

import "github.com/sarchlab/coreverif/insts"

// GetMicrobenchmarks returns the directed programs used to check the core
// under each timing configuration. Each program targets one stage.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		shiftSequence(),
		loadSequential(),
		upperImmediate(),
		mixedOperations(),
	}
}

func op(o insts.Op, rd, rs1, rs2 uint8, imm int32) *insts.Instruction {
	return insts.MustEncode(o, rd, rs1, rs2, imm)
}

// 20 independent ADDIs to different registers.
func arithmeticSequential() Benchmark {
	prog := make([]*insts.Instruction, 0, 20)
	for i := 0; i < 20; i++ {
		rd := uint8(i%5 + 1)
		prog = append(prog, op(insts.OpADDI, rd, rd, 0, 1))
	}

	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "20 independent ADDI operations - ALU path",
		Program:     prog,
	}
}

// Every instruction reads the previous result.
func dependencyChain() Benchmark {
	prog := []*insts.Instruction{op(insts.OpADDI, 1, 0, 0, 1)}
	for i := 0; i < 19; i++ {
		prog = append(prog, op(insts.OpADD, 1, 1, 1, 0))
	}

	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs - register file read after write",
		Program:     prog,
	}
}

func shiftSequence() Benchmark {
	return Benchmark{
		Name:        "shift_sequence",
		Description: "immediate and register shifts - shift latency",
		Program: []*insts.Instruction{
			op(insts.OpADDI, 1, 0, 0, -1),
			op(insts.OpSRLI, 2, 1, 0, 4),
			op(insts.OpSRAI, 3, 1, 0, 31),
			op(insts.OpSLLI, 4, 2, 0, 8),
			op(insts.OpADDI, 5, 0, 0, 3),
			op(insts.OpSLL, 6, 4, 5, 0),
			op(insts.OpSRL, 7, 6, 5, 0),
			op(insts.OpSRA, 8, 1, 5, 0),
		},
	}
}

// Loads from a handful of addresses, so a data cache sees repeated lines.
func loadSequential() Benchmark {
	prog := []*insts.Instruction{op(insts.OpADDI, 1, 0, 0, 0x100)}
	for i := 0; i < 12; i++ {
		prog = append(prog, op(insts.OpLW, uint8(i%4+2), 1, 0, int32(i%3)*4))
	}

	return Benchmark{
		Name:        "load_sequential",
		Description: "12 loads over 3 words - data bus and cache",
		Program:     prog,
	}
}

func upperImmediate() Benchmark {
	return Benchmark{
		Name:        "upper_immediate",
		Description: "LUI/ADDI constant building",
		Program: []*insts.Instruction{
			op(insts.OpLUI, 1, 0, 0, 0x12345000),
			op(insts.OpADDI, 1, 1, 0, 0x678),
			op(insts.OpLUI, 2, 0, 0, -0x1000),
			op(insts.OpORI, 2, 2, 0, 0x7ff),
			op(insts.OpXOR, 3, 1, 2, 0),
		},
	}
}

func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "ALU, compare, shift and load mix",
		Program: []*insts.Instruction{
			op(insts.OpADDI, 1, 0, 0, 40),
			op(insts.OpADDI, 2, 0, 0, -7),
			op(insts.OpSUB, 3, 1, 2, 0),
			op(insts.OpSLT, 4, 2, 1, 0),
			op(insts.OpSLTU, 5, 2, 1, 0),
			op(insts.OpSLTI, 6, 2, 0, 0),
			op(insts.OpSLTIU, 7, 1, 0, 41),
			op(insts.OpLW, 8, 3, 0, 8),
			op(insts.OpAND, 9, 8, 1, 0),
			op(insts.OpOR, 10, 9, 2, 0),
			op(insts.OpANDI, 11, 10, 0, 0xff),
			op(insts.OpXORI, 12, 11, 0, -1),
			op(insts.OpSLLI, 13, 12, 0, 2),
		},
	}
}
