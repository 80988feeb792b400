package dse

import (
	"testing"

	"github.com/SpiNNakerManchester/DataSpecification/allocator"
)

func assert(t *testing.T, cond bool, format string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// commandBuilder assembles a raw little-endian command stream for tests,
// mirroring vm/compile.go's assembler-style helpers but operating directly
// on opcodes/fields rather than a text format.
type commandBuilder struct {
	words []uint32
}

func (b *commandBuilder) word(w uint32) *commandBuilder {
	b.words = append(b.words, w)
	return b
}

// cmd packs a command word: dataLen (0-3), opcode, fieldUsage (3 bits:
// dest,src1,src2), destReg, src1Reg, src2Reg, and opcode-specific low bits.
func (b *commandBuilder) cmd(dataLen uint8, op Opcode, fieldUsage, dest, src1, src2, low uint32) *commandBuilder {
	w := (uint32(dataLen) << 28) | (uint32(op) << 20) | (fieldUsage << 16) | (dest << 12) | (src1 << 8) | (src2 << 4) | low
	return b.word(w)
}

func (b *commandBuilder) endSpec() *commandBuilder {
	return b.cmd(0, OpEndSpec, 0, 0, 0, 0, 0)
}

func (b *commandBuilder) bytes() []byte {
	out := make([]byte, 0, len(b.words)*4)
	for _, w := range b.words {
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}

func newTestExecutor(buf []byte) (*Executor, *allocator.BumpAllocator) {
	alloc := allocator.NewBumpAllocator(4096)
	return NewExecutor(buf, alloc, 0, nil), alloc
}
