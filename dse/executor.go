package dse

import (
	"fmt"

	"github.com/SpiNNakerManchester/DataSpecification/allocator"
)

// maxPrintTextBytes bounds PRINT_TXT's inline payload, per spec.md's limits
// table (print-text ≤ 11 bytes).
const maxPrintTextBytes = 11

// Executor is the dispatch loop (C6): it owns every other component
// (decoder via command.go, registers, region manager, struct/constructor
// tables, call stack) and drives them one command at a time. Loops and
// constructor calls are modelled iteratively over the call stack, and
// conditionals by scanning forward, rather than by recursing the host Go
// call stack, per spec.md §9's "avoid host-stack growth" design note.
type Executor struct {
	buf []byte
	pc  int // word index into buf

	Regs    Registers
	Regions *RegionManager
	Structs StructTable
	Ctors   ConstructorTable
	Calls   CallStack

	Log LogSink

	breakpoints map[int]bool

	// structBuildID/structBuildElem track the struct currently being
	// populated between START_STRUCT and END_STRUCT.
	structBuildID   uint8
	structBuildElem int
}

// NewExecutor builds an executor over a whole program buffer, wiring a
// fresh RegionManager against alloc and appID (the launch record's "future
// application id", stamped onto every region for reporting).
func NewExecutor(buf []byte, alloc allocator.BackingAllocator, appID uint8, sink LogSink) *Executor {
	if sink == nil {
		sink = NewStdLogSink(nil)
	}
	return &Executor{
		buf:         buf,
		Regions:     NewRegionManager(alloc, appID),
		Log:         sink,
		breakpoints: make(map[int]bool),
	}
}

// Run drives the dispatch loop to completion: buffer exhaustion or
// END_SPEC ends the outermost execution cleanly; any other error is fatal
// and aborts the program, per spec.md §7.
func (e *Executor) Run() error {
	for {
		if e.pc*4 >= len(e.buf) {
			return nil
		}

		cmd, next, err := decodeCommand(e.buf, e.pc)
		if err != nil {
			return err
		}

		if cmd.Opcode() == OpEndSpec {
			return nil
		}

		at := e.pc
		e.pc = next
		if err := e.dispatch(cmd); err != nil {
			return fmt.Errorf("dse: opcode %s at word %d: %w", cmd.Opcode(), at, err)
		}
	}
}

// SetBreakpoint and StepOnce are debug-mode tooling adapted from the
// teacher's RunProgramDebugMode breakpoint map; ambient development
// tooling, not exercised by the default CLI run path.
func (e *Executor) SetBreakpoint(pc int) {
	e.breakpoints[pc] = true
}

func (e *Executor) AtBreakpoint() bool {
	return e.breakpoints[e.pc]
}

// StepOnce executes exactly one command and reports whether the program has
// reached its end.
func (e *Executor) StepOnce() (done bool, err error) {
	if e.pc*4 >= len(e.buf) {
		return true, nil
	}
	cmd, next, err := decodeCommand(e.buf, e.pc)
	if err != nil {
		return true, err
	}
	if cmd.Opcode() == OpEndSpec {
		return true, nil
	}
	e.pc = next
	return false, e.dispatch(cmd)
}

func (e *Executor) dispatch(cmd Command) error {
	op := cmd.Opcode()

	switch op {
	case OpNop:
		return nil
	case OpBreak:
		return errBreakOpcode

	case OpReserve:
		return e.execReserve(cmd)
	case OpFree:
		return e.execFree(cmd)
	case OpSwitchFocus:
		return e.execSwitchFocus(cmd)

	case OpWrite:
		return e.execWrite(cmd)
	case OpWriteArray:
		return e.execWriteArray(cmd)
	case OpWriteStruct:
		return e.execWriteStruct(cmd)

	case OpRead:
		return e.execRead(cmd)
	case OpGetWrPtr:
		return e.execGetWrPtr(cmd)
	case OpSetWrPtr:
		return e.execSetWrPtr(cmd)
	case OpAlignWrPtr:
		return e.execAlignWrPtr(cmd)
	case OpBlockCopy:
		return e.execBlockCopy(cmd)

	case OpStartStruct:
		return e.execStartStruct(cmd)
	case OpStructElem:
		return e.execStructElem(cmd)
	case OpEndStruct:
		return nil // sync point; execStartStruct's prescan allocated the struct and each STRUCT_ELEM filled one element

	case OpWriteParam:
		return e.execWriteParam(cmd)
	case OpReadParam:
		return e.execReadParam(cmd)
	case OpCopyParam:
		return e.execCopyParam(cmd)
	case OpCopyStruct:
		return e.execCopyStruct(cmd)

	case OpLoop:
		return e.execLoop(cmd)
	case OpEndLoop:
		return e.execEndLoop(cmd)
	case OpBreakLoop:
		return e.execBreakLoop(cmd)

	case OpIf:
		return e.execIf(cmd)
	case OpElse:
		return e.execElse(cmd)
	case OpEndIf:
		return nil

	case OpStartConstructor:
		return e.execStartConstructor(cmd)
	case OpEndConstructor:
		return e.execEndConstructor(cmd)
	case OpConstruct:
		return e.execConstruct(cmd)

	case OpMv:
		return e.execMv(cmd)
	case OpArithOp:
		return e.execArithOp(cmd)
	case OpLogicOp:
		return e.execLogicOp(cmd)

	case OpPrintVal:
		return e.execPrintVal(cmd)
	case OpPrintTxt:
		return e.execPrintTxt(cmd)
	case OpPrintStruct:
		return e.execPrintStruct(cmd)

	default:
		if op.reservedStub() {
			e.Log.Printf("unimplemented opcode %s", op)
			return nil
		}
		return errUnknownOpcode
	}
}

// --- Memory regions -------------------------------------------------------

func (e *Executor) execReserve(cmd Command) error {
	if cmd.DataLen != 1 {
		return errMalformedCommand
	}
	region := uint8(cmd.Word & 0x1F)
	size := roundUp4(cmd.DataWords[0])
	unfilled := (cmd.Word>>7)&0x1 != 0
	return e.Regions.Reserve(region, size, unfilled)
}

func (e *Executor) execFree(cmd Command) error {
	region := uint8(cmd.Word & 0x1F)
	return e.Regions.Free(region)
}

func (e *Executor) execSwitchFocus(cmd Command) error {
	var region uint8
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		region = uint8(v)
	} else {
		region = uint8((cmd.Word >> 8) & 0xF)
	}
	return e.Regions.SwitchFocus(region)
}

func roundUp4(size uint32) uint32 {
	return (size + 3) &^ 3
}

// --- Writing ---------------------------------------------------------------

// sizeCode reads WRITE/WRITE_ARRAY's shared 2-bit size field at bits 13:12
// (the low half of the nibble spec.md's layout calls dest_reg — unused by
// these opcodes since they write to memory, not a register). READ needs
// that nibble for its destination register and takes its size code from
// bits 1:0 instead.
func (c Command) sizeCode() uint8 {
	return uint8((c.Word >> 12) & 0x3)
}

func dataSize(code uint8) int {
	return 1 << code
}

func (e *Executor) execWrite(cmd Command) error {
	var nRepeats int
	if cmd.Src2InUse() {
		v, err := e.Regs.Get(cmd.Src2Reg())
		if err != nil {
			return err
		}
		nRepeats = int(v)
	} else {
		nRepeats = int(cmd.Word & 0xFF)
	}

	size := dataSize(cmd.sizeCode())

	var value uint64
	switch {
	case cmd.Src1InUse() && cmd.DataLen == 0:
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		value = v
	case cmd.DataLen == 1 && size != 8:
		value = uint64(cmd.DataWords[0])
	case cmd.DataLen == 2 && size == 8:
		value = (uint64(cmd.DataWords[0]) << 32) | uint64(cmd.DataWords[1])
	default:
		return errMalformedCommand
	}

	region, err := e.Regions.Current()
	if err != nil {
		return err
	}
	for i := 0; i < nRepeats; i++ {
		if err := e.writeValue(region, value, size); err != nil {
			return err
		}
	}
	return nil
}

// writeValue writes the low size bytes of value, little-endian, at the
// region's write cursor, advancing it and failing on overflow (ported from
// write_value + execute_write's bounds check).
func (e *Executor) writeValue(region *MemoryRegion, value uint64, size int) error {
	if uint64(size) > region.remaining() {
		return errRegionFull
	}
	off := region.Cursor - region.Start
	arena := e.Regions.alloc.Bytes()
	for i := 0; i < size; i++ {
		arena[region.Start+off+uint64(i)] = byte(value >> (8 * uint(i)))
	}
	region.Cursor += uint64(size)
	return nil
}

func (e *Executor) execWriteArray(cmd Command) error {
	if cmd.DataLen != 1 {
		return errMalformedCommand
	}
	elementSize := dataSize(cmd.sizeCode())
	length := int(cmd.DataWords[0])
	totalBytes := length * elementSize

	byteOff := e.pc * 4
	if byteOff+totalBytes > len(e.buf) {
		return errMalformedCommand
	}

	region, err := e.Regions.Current()
	if err != nil {
		return err
	}
	for i := 0; i < length; i++ {
		var v uint64
		for b := 0; b < elementSize; b++ {
			v |= uint64(e.buf[byteOff+i*elementSize+b]) << (8 * uint(b))
		}
		if err := e.writeValue(region, v, elementSize); err != nil {
			return err
		}
	}

	wordsConsumed := (totalBytes + 3) / 4
	e.pc += wordsConsumed
	return nil
}

func (e *Executor) execWriteStruct(cmd Command) error {
	structID := cmd.DestReg()
	s, err := e.Structs.Get(structID)
	if err != nil {
		return err
	}

	var nRepeats int
	if cmd.Src2InUse() {
		v, err := e.Regs.Get(cmd.Src2Reg())
		if err != nil {
			return err
		}
		nRepeats = int(v)
	} else {
		nRepeats = int(cmd.Word & 0xFF)
	}

	region, err := e.Regions.Current()
	if err != nil {
		return err
	}
	for i := 0; i < nRepeats; i++ {
		for _, elem := range s.Elements {
			size, err := elem.Type.sizeOf()
			if err != nil {
				return err
			}
			if err := e.writeValue(region, elem.Data, size); err != nil {
				return err
			}
		}
	}
	return nil
}

// --- Reading / pointer manipulation -----------------------------------------

func (e *Executor) execRead(cmd Command) error {
	region, err := e.Regions.Current()
	if err != nil {
		return err
	}
	size := dataSize(uint8(cmd.Word & 0x3))
	if uint64(size) > region.remaining() {
		return errRegionFull
	}

	arena := e.Regions.alloc.Bytes()
	off := region.Cursor - region.Start
	var v uint64
	for i := 0; i < size; i++ {
		v |= uint64(arena[region.Start+off+uint64(i)]) << (8 * uint(i))
	}
	region.Cursor += uint64(size)

	return e.Regs.Set(cmd.DestReg(), v)
}

func (e *Executor) execGetWrPtr(cmd Command) error {
	region, err := e.Regions.Current()
	if err != nil {
		return err
	}
	return e.Regs.Set(cmd.DestReg(), region.Cursor-region.Start)
}

func (e *Executor) execSetWrPtr(cmd Command) error {
	region, err := e.Regions.Current()
	if err != nil {
		return err
	}

	var value uint64
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		value = v
	} else if cmd.DataLen >= 1 {
		value = uint64(cmd.DataWords[0])
	} else {
		return errMalformedCommand
	}

	relative := cmd.Word&0x1 != 0
	if relative {
		region.Cursor = region.Cursor + value
	} else {
		region.Cursor = region.Start + value
	}
	if region.Cursor < region.Start || region.Cursor > region.Start+uint64(region.Size) {
		return errRegionFull
	}
	return nil
}

func (e *Executor) execAlignWrPtr(cmd Command) error {
	region, err := e.Regions.Current()
	if err != nil {
		return err
	}

	var n uint64
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		n = v
	} else {
		n = uint64(cmd.Word & 0xF)
	}

	align := uint64(1) << n
	off := region.Cursor - region.Start
	aligned := (off + align - 1) &^ (align - 1)
	region.Cursor = region.Start + aligned
	if region.Cursor > region.Start+uint64(region.Size) {
		return errRegionFull
	}

	if cmd.DestInUse() {
		return e.Regs.Set(cmd.DestReg(), aligned)
	}
	return nil
}

func (e *Executor) execBlockCopy(cmd Command) error {
	cursor := 0
	next := func() (uint64, error) {
		if cursor >= int(cmd.DataLen) {
			return 0, errMalformedCommand
		}
		v := cmd.DataWords[cursor]
		cursor++
		return uint64(v), nil
	}

	dest, err := e.resolveOperand(cmd.DestInUse(), cmd.DestReg(), next)
	if err != nil {
		return err
	}
	src, err := e.resolveOperand(cmd.Src1InUse(), cmd.Src1Reg(), next)
	if err != nil {
		return err
	}
	length, err := e.resolveOperand(cmd.Src2InUse(), cmd.Src2Reg(), next)
	if err != nil {
		return err
	}

	arena := e.Regions.alloc.Bytes()
	if dest+length > uint64(len(arena)) || src+length > uint64(len(arena)) {
		return errRegionFull
	}
	copy(arena[dest:dest+length], arena[src:src+length])
	return nil
}

func (e *Executor) resolveOperand(inUse bool, reg uint8, next func() (uint64, error)) (uint64, error) {
	if inUse {
		return e.Regs.Get(reg)
	}
	return next()
}

// --- Structs -----------------------------------------------------------------

func (e *Executor) execStartStruct(cmd Command) error {
	id := cmd.DestReg()
	count, bodyEnd, err := e.countStructElements(e.pc)
	if err != nil {
		return err
	}
	if err := e.Structs.New(id, count); err != nil {
		return err
	}
	e.structBuildID = id
	e.structBuildElem = 0
	_ = bodyEnd
	return nil
}

// countStructElements scans forward from pc (the word right after
// START_STRUCT) counting STRUCT_ELEM commands up to the matching END_STRUCT,
// without executing anything — the "count elements on a first scan" step
// spec.md's START_STRUCT bullet calls for.
func (e *Executor) countStructElements(pc int) (count int, bodyEnd int, err error) {
	depth := 0
	for {
		cmd, next, derr := decodeCommand(e.buf, pc)
		if derr != nil {
			return 0, 0, derr
		}
		switch cmd.Opcode() {
		case OpStartStruct:
			depth++
		case OpEndStruct:
			if depth == 0 {
				return count, next, nil
			}
			depth--
		case OpStructElem:
			if depth == 0 {
				count++
			}
		}
		pc = next
	}
}

func (e *Executor) execStructElem(cmd Command) error {
	if cmd.DataLen < 1 {
		return errMalformedCommand
	}
	typ := DataType(cmd.DataWords[0] & 0xFF)
	var initial uint64
	if cmd.DataLen >= 2 {
		initial = uint64(cmd.DataWords[1])
	}

	id := e.structBuildID
	elem := e.structBuildElem
	e.structBuildElem++

	if err := e.Structs.SetElementType(id, elem, typ); err != nil {
		return err
	}
	return e.Structs.SetElementValue(id, elem, initial)
}

func (e *Executor) execWriteParam(cmd Command) error {
	structID := cmd.DestReg()

	var elemID int
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		elemID = int(v)
	} else if cmd.DataLen >= 1 {
		elemID = int(cmd.DataWords[0])
	} else {
		return errMalformedCommand
	}

	var value uint64
	if cmd.Src2InUse() {
		v, err := e.Regs.Get(cmd.Src2Reg())
		if err != nil {
			return err
		}
		value = v
	} else if cmd.DataLen >= 2 {
		value = uint64(cmd.DataWords[1])
	} else {
		return errMalformedCommand
	}

	return e.Structs.SetElementValue(structID, elemID, value)
}

func (e *Executor) execReadParam(cmd Command) error {
	var structID uint8
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		structID = uint8(v)
	} else if cmd.DataLen >= 1 {
		structID = uint8(cmd.DataWords[0])
	} else {
		return errMalformedCommand
	}

	var elemID int
	if cmd.Src2InUse() {
		v, err := e.Regs.Get(cmd.Src2Reg())
		if err != nil {
			return err
		}
		elemID = int(v)
	} else if cmd.DataLen >= 2 {
		elemID = int(cmd.DataWords[1])
	} else {
		return errMalformedCommand
	}

	s, err := e.Structs.Get(structID)
	if err != nil {
		return err
	}
	if elemID < 0 || elemID >= len(s.Elements) {
		return errStructElementRange
	}
	return e.Regs.Set(cmd.DestReg(), s.Elements[elemID].Data)
}

func (e *Executor) execCopyParam(cmd Command) error {
	if cmd.DestInUse() {
		var srcStruct uint8
		if cmd.Src1InUse() {
			v, err := e.Regs.Get(cmd.Src1Reg())
			if err != nil {
				return err
			}
			srcStruct = uint8(v)
		} else if cmd.DataLen >= 1 {
			srcStruct = uint8(cmd.DataWords[0])
		} else {
			return errMalformedCommand
		}

		var srcElem int
		if cmd.Src2InUse() {
			v, err := e.Regs.Get(cmd.Src2Reg())
			if err != nil {
				return err
			}
			srcElem = int(v)
		} else if cmd.DataLen >= 2 {
			srcElem = int(cmd.DataWords[1])
		} else {
			return errMalformedCommand
		}

		s, err := e.Structs.Get(srcStruct)
		if err != nil {
			return err
		}
		if srcElem < 0 || srcElem >= len(s.Elements) {
			return errStructElementRange
		}
		return e.Regs.Set(cmd.DestReg(), s.Elements[srcElem].Data)
	}

	if cmd.DataLen < 3 {
		return errMalformedCommand
	}
	destStruct := uint8(cmd.DataWords[0])
	srcStruct := uint8(cmd.DataWords[1])
	destElem := int(cmd.DataWords[2] & 0xFF)
	srcElem := int((cmd.DataWords[2] >> 8) & 0xFF)

	src, err := e.Structs.Get(srcStruct)
	if err != nil {
		return err
	}
	if srcElem < 0 || srcElem >= len(src.Elements) {
		return errStructElementRange
	}
	return e.Structs.SetElementValue(destStruct, destElem, src.Elements[srcElem].Data)
}

func (e *Executor) execCopyStruct(cmd Command) error {
	var destID uint8
	if cmd.DestInUse() {
		v, err := e.Regs.Get(cmd.DestReg())
		if err != nil {
			return err
		}
		destID = uint8(v)
	} else {
		destID = cmd.DestReg()
	}

	var srcID uint8
	if cmd.Src1InUse() {
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		srcID = uint8(v)
	} else {
		srcID = cmd.Src1Reg()
	}

	src, err := e.Structs.Get(srcID)
	if err != nil {
		return err
	}
	return e.Structs.Put(destID, copyOf(src))
}

// --- Control flow: LOOP / IF / CONSTRUCT ------------------------------------

func (e *Executor) execLoop(cmd Command) error {
	counterReg := cmd.DestReg()

	cursor := 0
	next := func() (uint64, error) {
		if cursor >= int(cmd.DataLen) {
			return 0, errMalformedCommand
		}
		v := cmd.DataWords[cursor]
		cursor++
		return uint64(v), nil
	}

	start, err := e.resolveOperand(cmd.Src1InUse(), cmd.Src1Reg(), next)
	if err != nil {
		return err
	}
	end, err := e.resolveOperand(cmd.Src2InUse(), cmd.Src2Reg(), next)
	if err != nil {
		return err
	}
	// step always comes from whatever trailing data word is left, per
	// spec.md's LOOP(dest=counter, start, end, step): only two field-usage
	// bits are available for start/end, so step can never be register-borne.
	step := uint64(1)
	if cursor < int(cmd.DataLen) {
		step, _ = next()
	}

	bodyStart := e.pc

	if start >= end {
		landed, _, err := e.scanForward(bodyStart, OpLoop, OpEndLoop, 0)
		if err != nil {
			return err
		}
		e.pc = landed
		return nil
	}

	if err := e.Regs.Set(counterReg, start); err != nil {
		return err
	}
	return e.Calls.Push(callFrame{
		kind:     frameLoop,
		returnPC: bodyStart,
		loopReg:  counterReg,
		loopEnd:  int64(end),
		loopStep: int64(step),
	})
}

func staticWord(cmd Command, idx int) func() (uint64, error) {
	return func() (uint64, error) {
		if idx >= int(cmd.DataLen) {
			return 0, errMalformedCommand
		}
		return uint64(cmd.DataWords[idx]), nil
	}
}

func (e *Executor) execEndLoop(cmd Command) error {
	frame, err := e.Calls.Top()
	if err != nil {
		return errLoopNotOpen
	}
	if frame.kind != frameLoop {
		return errLoopNotOpen
	}

	counter, err := e.Regs.Get(frame.loopReg)
	if err != nil {
		return err
	}
	next := int64(counter) + frame.loopStep
	if next < frame.loopEnd {
		if err := e.Regs.Set(frame.loopReg, uint64(next)); err != nil {
			return err
		}
		e.pc = frame.returnPC
		return nil
	}

	_, err = e.Calls.Pop()
	return err
}

func (e *Executor) execBreakLoop(cmd Command) error {
	frame, err := e.Calls.Top()
	if err != nil {
		return errLoopNotOpen
	}
	if frame.kind != frameLoop {
		return errLoopNotOpen
	}
	if _, err := e.Calls.Pop(); err != nil {
		return err
	}

	landed, _, err := e.scanForward(e.pc, OpLoop, OpEndLoop, 0)
	if err != nil {
		return err
	}
	e.pc = landed
	return nil
}

func (e *Executor) execIf(cmd Command) error {
	src1, err := e.Regs.Get(cmd.Src1Reg())
	if err != nil {
		return err
	}

	op := cmd.Word & 0x7
	trueResult := false

	if op == 6 { // src1 == 0
		trueResult = src1 == 0
	} else if op == 7 { // src1 != 0
		trueResult = src1 != 0
	} else {
		var src2 uint64
		if cmd.Src2InUse() {
			src2, err = e.Regs.Get(cmd.Src2Reg())
			if err != nil {
				return err
			}
		} else if cmd.DataLen >= 1 {
			src2 = uint64(cmd.DataWords[0])
		}

		switch op {
		case 0:
			trueResult = src1 == src2
		case 1:
			trueResult = src1 != src2
		case 2:
			trueResult = src1 <= src2
		case 3:
			trueResult = src1 < src2
		case 4:
			trueResult = src1 >= src2
		case 5:
			trueResult = src1 > src2
		}
	}

	if trueResult {
		return nil
	}

	landed, _, err := e.scanForward(e.pc, OpIf, OpEndIf, OpElse)
	if err != nil {
		return err
	}
	e.pc = landed
	return nil
}

func (e *Executor) execElse(cmd Command) error {
	landed, _, err := e.scanForward(e.pc, OpIf, OpEndIf, 0)
	if err != nil {
		return err
	}
	e.pc = landed
	return nil
}

// scanForward scans commands from pc without executing them, tracking
// nesting of the (open, close) opcode pair. If sibling is nonzero and is
// encountered at depth 0 before close, scanning stops there too. Returns the
// word index immediately after whichever boundary was found.
func (e *Executor) scanForward(pc int, open, close, sibling Opcode) (landed int, hitSibling bool, err error) {
	depth := 0
	for {
		cmd, next, derr := decodeCommand(e.buf, pc)
		if derr != nil {
			return 0, false, derr
		}
		switch cmd.Opcode() {
		case open:
			depth++
		case close:
			if depth == 0 {
				return next, false, nil
			}
			depth--
		case sibling:
			if sibling != 0 && depth == 0 {
				return next, true, nil
			}
		}
		pc = next
	}
}

func (e *Executor) execStartConstructor(cmd Command) error {
	id := cmd.DestReg()
	argCount := uint8(cmd.Word & 0x7)
	var readOnlyMask uint8
	if cmd.DataLen >= 1 {
		readOnlyMask = uint8(cmd.DataWords[0] & 0xFF)
	}

	bodyStart := e.pc
	landed, _, err := e.scanForward(bodyStart, OpStartConstructor, OpEndConstructor, 0)
	if err != nil {
		return err
	}

	if err := e.Ctors.Define(&Constructor{
		ID:           id,
		ArgCount:     argCount,
		ReadOnlyMask: readOnlyMask,
		BodyStart:    bodyStart,
		BodyEnd:      landed,
	}); err != nil {
		return err
	}

	e.pc = landed
	return nil
}

func (e *Executor) execEndConstructor(cmd Command) error {
	frame, err := e.Calls.Top()
	if err != nil || frame.kind != frameConstructor {
		return errMalformedCommand
	}
	popped, _ := e.Calls.Pop()
	unbindArgs(&e.Structs, popped.ctorSaves)
	e.pc = popped.returnPC
	return nil
}

func (e *Executor) execConstruct(cmd Command) error {
	id := cmd.DestReg()
	ctor, err := e.Ctors.Get(id)
	if err != nil {
		return err
	}

	args := make([]uint8, ctor.ArgCount)
	wordIdx, byteIdx := 0, 0
	for i := uint8(0); i < ctor.ArgCount; i++ {
		if wordIdx >= int(cmd.DataLen) {
			return errConstructorArgs
		}
		args[i] = uint8(cmd.DataWords[wordIdx] >> (8 * uint(byteIdx)))
		byteIdx++
		if byteIdx == 4 {
			byteIdx = 0
			wordIdx++
		}
	}

	saves, err := bindArgs(&e.Structs, ctor, args)
	if err != nil {
		return err
	}

	if err := e.Calls.Push(callFrame{
		kind:      frameConstructor,
		returnPC:  e.pc,
		ctorSaves: saves,
	}); err != nil {
		return err
	}

	e.pc = ctor.BodyStart
	return nil
}

// --- Arithmetic / logic / move ----------------------------------------------

func (e *Executor) execMv(cmd Command) error {
	var value uint64
	switch {
	case cmd.Src1InUse():
		v, err := e.Regs.Get(cmd.Src1Reg())
		if err != nil {
			return err
		}
		value = v
	case cmd.DataLen == 1:
		value = uint64(cmd.DataWords[0])
	case cmd.DataLen == 2:
		value = (uint64(cmd.DataWords[0]) << 32) | uint64(cmd.DataWords[1])
	default:
		return errMalformedCommand
	}
	return e.Regs.Set(cmd.DestReg(), value)
}

func (e *Executor) execArithOp(cmd Command) error {
	signed := cmd.Word&0x8 != 0
	arithOp := cmd.Word & 0x3

	cursor := 0
	next := func() (uint64, error) {
		if cursor >= int(cmd.DataLen) {
			return 0, errMalformedCommand
		}
		v := cmd.DataWords[cursor]
		cursor++
		if signed {
			return uint64(int64(int32(v))), nil
		}
		return uint64(v), nil
	}

	src1, err := e.resolveOperand(cmd.Src1InUse(), cmd.Src1Reg(), next)
	if err != nil {
		return err
	}
	src2, err := e.resolveOperand(cmd.Src2InUse(), cmd.Src2Reg(), next)
	if err != nil {
		return err
	}

	var result uint64
	if signed {
		a, b := int64(src1), int64(src2)
		switch arithOp {
		case 0:
			result = uint64(a + b)
		case 1:
			result = uint64(a - b)
		case 2:
			result = uint64(a * b)
		default:
			return errMalformedCommand
		}
	} else {
		switch arithOp {
		case 0:
			result = src1 + src2
		case 1:
			result = src1 - src2
		case 2:
			result = src1 * src2
		default:
			return errMalformedCommand
		}
	}

	return e.Regs.Set(cmd.DestReg(), result)
}

func (e *Executor) execLogicOp(cmd Command) error {
	logicOp := cmd.Word & 0x7

	cursor := 0
	next := func() (uint64, error) {
		if cursor >= int(cmd.DataLen) {
			return 0, errMalformedCommand
		}
		v := cmd.DataWords[cursor]
		cursor++
		return uint64(v), nil
	}

	src1, err := e.resolveOperand(cmd.Src1InUse(), cmd.Src1Reg(), next)
	if err != nil {
		return err
	}

	if logicOp == 5 { // not ignores src2
		return e.Regs.Set(cmd.DestReg(), ^src1)
	}

	src2, err := e.resolveOperand(cmd.Src2InUse(), cmd.Src2Reg(), next)
	if err != nil {
		return err
	}

	var result uint64
	switch logicOp {
	case 0:
		result = src1 << src2
	case 1:
		result = src1 >> src2
	case 2:
		result = src1 | src2
	case 3:
		result = src1 & src2
	case 4:
		result = src1 ^ src2
	default:
		return errMalformedCommand
	}
	return e.Regs.Set(cmd.DestReg(), result)
}

// --- Diagnostics -------------------------------------------------------------

func (e *Executor) execPrintVal(cmd Command) error {
	value, err := e.resolveOperand(cmd.Src1InUse(), cmd.Src1Reg(), staticWord(cmd, 0))
	if err != nil {
		return err
	}
	e.Log.Printf("PRINT_VAL: %d (0x%x)", value, value)
	return nil
}

func (e *Executor) execPrintTxt(cmd Command) error {
	var raw []byte
	for i := 0; i < int(cmd.DataLen); i++ {
		w := cmd.DataWords[i]
		raw = append(raw, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	end := len(raw)
	for i, b := range raw {
		if b == 0 {
			end = i
			break
		}
	}
	if end > maxPrintTextBytes {
		return errTextTooLong
	}
	e.Log.Printf("PRINT_TXT: %s", string(raw[:end]))
	return nil
}

func (e *Executor) execPrintStruct(cmd Command) error {
	id := cmd.DestReg()
	s, err := e.Structs.Get(id)
	if err != nil {
		return err
	}
	e.Log.Printf("PRINT_STRUCT %d: %+v", id, s.Elements)
	return nil
}
