package dse

import "testing"

func TestSimpleLayout(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpReserve, 0, 0, 0, 0, 0).word(0x100)
	b.cmd(0, OpSwitchFocus, 0, 0, 0, 0, 0)
	b.cmd(1, OpWrite, 0, 2 /*size=4*/, 0, 0, 1 /*rep=1*/).word(0x12345678)
	b.endSpec()

	ex, alloc := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	region, err := ex.Regions.Get(0)
	assert(t, err == nil, "region 0 should be allocated: %v", err)
	assert(t, region.Size == 0x100, "expected size 0x100, got %#x", region.Size)

	arena := alloc.Bytes()
	got := arena[region.Start : region.Start+4]
	want := []byte{0x78, 0x56, 0x34, 0x12}
	for i := range want {
		assert(t, got[i] == want[i], "byte %d: expected %#x, got %#x", i, want[i], got[i])
	}

	var regions [maxRegions]*MemoryRegion
	regions = ex.Regions.All()
	out := Serialize(regions, nil)
	assert(t, len(out) == PointerTableHeaderByteSize+4*maxRegions, "unexpected header+table length %d", len(out))
}

func TestUnfilledZeroing(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpReserve, 0, 0, 0, 0x8 /*unfilled*/, 2 /*region*/).word(0x20)
	b.endSpec()

	ex, alloc := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	region, err := ex.Regions.Get(2)
	assert(t, err == nil, "region 2 should be allocated: %v", err)
	assert(t, region.Unfilled, "expected region to be marked unfilled")
	assert(t, region.Size == 0x20, "expected size 0x20, got %#x", region.Size)

	arena := alloc.Bytes()
	for i := uint64(0); i < 0x20; i++ {
		assert(t, arena[region.Start+i] == 0, "expected zero byte at offset %d", i)
	}
}

func TestStructWrite(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(0, OpStartStruct, 0, 4, 0, 0, 0)
	b.cmd(2, OpStructElem, 0, 0, 0, 0, 0).word(uint32(TypeUint8)).word(0xFF)
	b.cmd(2, OpStructElem, 0, 0, 0, 0, 0).word(uint32(TypeUint16)).word(0x1234)
	b.cmd(2, OpStructElem, 0, 0, 0, 0, 0).word(uint32(TypeUint32)).word(0xDEADBEEF)
	b.cmd(0, OpEndStruct, 0, 0, 0, 0, 0)
	b.cmd(1, OpReserve, 0, 0, 0, 0, 0).word(0x40)
	b.cmd(0, OpSwitchFocus, 0, 0, 0, 0, 0)
	b.cmd(0, OpWriteStruct, 0, 4, 0, 0, 2 /*rep*/)
	b.endSpec()

	ex, alloc := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	region, err := ex.Regions.Get(0)
	assert(t, err == nil, "region 0 should be allocated: %v", err)

	arena := alloc.Bytes()
	got := arena[region.Start : region.Start+14]
	want := []byte{0xFF, 0x34, 0x12, 0xEF, 0xBE, 0xAD, 0xDE, 0xFF, 0x34, 0x12, 0xEF, 0xBE, 0xAD, 0xDE}
	for i := range want {
		assert(t, got[i] == want[i], "byte %d: expected %#x, got %#x", i, want[i], got[i])
	}
}

func TestLoopSumOfWrites(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpReserve, 0, 0, 0, 0, 0).word(0x40)
	b.cmd(0, OpSwitchFocus, 0, 0, 0, 0, 0)
	b.cmd(3, OpLoop, 0, 0, 0, 0, 0).word(0).word(4).word(1)
	b.cmd(1, OpWrite, 0, 0 /*size=1*/, 0, 0, 1 /*rep=1*/).word(0xAA)
	b.cmd(0, OpEndLoop, 0, 0, 0, 0, 0)
	b.endSpec()

	ex, alloc := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	region, err := ex.Regions.Get(0)
	assert(t, err == nil, "region 0 should be allocated: %v", err)

	arena := alloc.Bytes()
	for i := uint64(0); i < 4; i++ {
		assert(t, arena[region.Start+i] == 0xAA, "byte %d: expected 0xAA, got %#x", i, arena[region.Start+i])
	}
}

func TestArithmeticSub(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpMv, 0, 0, 0, 0, 0).word(10)
	b.cmd(1, OpMv, 0, 1, 0, 0, 0).word(3)
	b.cmd(0, OpArithOp, 0x7 /*dest,src1,src2 in use*/, 2, 0, 1, 0x9 /*signed|sub*/)
	b.endSpec()

	ex, _ := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	v, err := ex.Regs.Get(2)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v == 7, "expected R2 == 7, got %d", v)
}

func TestConstructorReadOnlyArg(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpStartConstructor, 0, 0, 0, 0, 1 /*argCount=1*/).word(0x1 /*readOnlyMask*/)
	b.cmd(2, OpWriteParam, 0, 0 /*struct slot 0*/, 0, 0, 0).word(0).word(0xFFFFFFFF)
	b.cmd(0, OpEndConstructor, 0, 0, 0, 0, 0)
	b.cmd(0, OpStartStruct, 0, 8, 0, 0, 0)
	b.cmd(2, OpStructElem, 0, 0, 0, 0, 0).word(uint32(TypeUint32)).word(0x1111)
	b.cmd(0, OpEndStruct, 0, 0, 0, 0, 0)
	b.cmd(1, OpConstruct, 0, 0, 0, 0, 0).word(8)
	b.endSpec()

	ex, _ := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	s, err := ex.Structs.Get(8)
	assert(t, err == nil, "struct 8 should still exist: %v", err)
	assert(t, s.Elements[0].Data == 0x1111, "expected struct 8 elem 0 unchanged at 0x1111, got %#x", s.Elements[0].Data)
}

func TestIfElseBranching(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(1, OpMv, 0, 0, 0, 0, 0).word(5)
	// IF R0 == 0 (false) -> ELSE branch
	b.cmd(0, OpIf, 0x2 /*src1 in use*/, 0, 0, 0, 6 /*op: src1==0*/)
	b.cmd(1, OpMv, 0, 1, 0, 0, 0).word(111) // skipped
	b.cmd(0, OpElse, 0, 0, 0, 0, 0)
	b.cmd(1, OpMv, 0, 1, 0, 0, 0).word(222) // taken
	b.cmd(0, OpEndIf, 0, 0, 0, 0, 0)
	b.endSpec()

	ex, _ := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "unexpected error: %v", err)

	v, err := ex.Regs.Get(1)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, v == 222, "expected R1 == 222, got %d", v)
}

func TestUnknownOpcodeIsFatal(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(0, Opcode(0x99), 0, 0, 0, 0, 0)
	b.endSpec()

	ex, _ := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err != nil, "expected an error for an unknown opcode")
}

func TestReservedStubsAreNonFatal(t *testing.T) {
	b := &commandBuilder{}
	b.cmd(0, OpDeclareRNG, 0, 0, 0, 0, 0)
	b.cmd(0, OpReformat, 0, 0, 0, 0, 0)
	b.endSpec()

	ex, _ := newTestExecutor(b.bytes())
	err := ex.Run()
	assert(t, err == nil, "reserved stub opcodes should not abort the program: %v", err)
}
