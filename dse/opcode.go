package dse

// Opcode identifies the operation encoded in bits 27:20 of a command word.
// Values and names match the SpiNNaker DataSpecification commands.h table
// exactly so that programs compiled against the original toolchain execute
// unchanged.
type Opcode uint8

const (
	OpBreak               Opcode = 0x00
	OpNop                 Opcode = 0x01
	OpReserve             Opcode = 0x02
	OpFree                Opcode = 0x03
	OpDeclareRNG          Opcode = 0x05
	OpDeclareRandomDist   Opcode = 0x06
	OpGetRandomNumber     Opcode = 0x07
	OpStartStruct         Opcode = 0x10
	OpStructElem          Opcode = 0x11
	OpEndStruct           Opcode = 0x12
	OpStartPackSpec       Opcode = 0x1A
	OpPackParam           Opcode = 0x1B
	OpEndPackSpec         Opcode = 0x1C
	OpStartConstructor    Opcode = 0x20
	OpEndConstructor      Opcode = 0x25
	OpConstruct           Opcode = 0x40
	OpRead                Opcode = 0x41
	OpWrite               Opcode = 0x42
	OpWriteArray          Opcode = 0x43
	OpWriteStruct         Opcode = 0x44
	OpBlockCopy           Opcode = 0x45
	OpSwitchFocus         Opcode = 0x50
	OpLoop                Opcode = 0x51
	OpBreakLoop           Opcode = 0x52
	OpEndLoop             Opcode = 0x53
	OpIf                  Opcode = 0x55
	OpElse                Opcode = 0x56
	OpEndIf               Opcode = 0x57
	OpMv                  Opcode = 0x60
	OpGetWrPtr            Opcode = 0x63
	OpSetWrPtr            Opcode = 0x64
	OpResetWrPtr          Opcode = 0x65
	OpAlignWrPtr          Opcode = 0x66
	OpArithOp             Opcode = 0x67
	OpLogicOp             Opcode = 0x68
	OpReformat            Opcode = 0x6A
	OpCopyStruct          Opcode = 0x70
	OpCopyParam           Opcode = 0x71
	OpWriteParam          Opcode = 0x72
	OpReadParam           Opcode = 0x73
	OpWriteParamComponent Opcode = 0x74
	OpPrintVal            Opcode = 0x80
	OpPrintTxt            Opcode = 0x81
	OpPrintStruct         Opcode = 0x82
	OpEndSpec             Opcode = 0xFF
)

var opcodeNames = map[Opcode]string{
	OpBreak:               "BREAK",
	OpNop:                 "NOP",
	OpReserve:             "RESERVE",
	OpFree:                "FREE",
	OpDeclareRNG:          "DECLARE_RNG",
	OpDeclareRandomDist:   "DECLARE_RANDOM_DIST",
	OpGetRandomNumber:     "GET_RANDOM_NUMBER",
	OpStartStruct:         "START_STRUCT",
	OpStructElem:          "STRUCT_ELEM",
	OpEndStruct:           "END_STRUCT",
	OpStartPackSpec:       "START_PACKSPEC",
	OpPackParam:           "PACK_PARAM",
	OpEndPackSpec:         "END_PACKSPEC",
	OpStartConstructor:    "START_CONSTRUCTOR",
	OpEndConstructor:      "END_CONSTRUCTOR",
	OpConstruct:           "CONSTRUCT",
	OpRead:                "READ",
	OpWrite:               "WRITE",
	OpWriteArray:          "WRITE_ARRAY",
	OpWriteStruct:         "WRITE_STRUCT",
	OpBlockCopy:           "BLOCK_COPY",
	OpSwitchFocus:         "SWITCH_FOCUS",
	OpLoop:                "LOOP",
	OpBreakLoop:           "BREAK_LOOP",
	OpEndLoop:             "END_LOOP",
	OpIf:                  "IF",
	OpElse:                "ELSE",
	OpEndIf:               "END_IF",
	OpMv:                  "MV",
	OpGetWrPtr:            "GET_WR_PTR",
	OpSetWrPtr:            "SET_WR_PTR",
	OpResetWrPtr:          "RESET_WR_PTR",
	OpAlignWrPtr:          "ALIGN_WR_PTR",
	OpArithOp:             "ARITH_OP",
	OpLogicOp:             "LOGIC_OP",
	OpReformat:            "REFORMAT",
	OpCopyStruct:          "COPY_STRUCT",
	OpCopyParam:           "COPY_PARAM",
	OpWriteParam:          "WRITE_PARAM",
	OpReadParam:           "READ_PARAM",
	OpWriteParamComponent: "WRITE_PARAM_COMPONENT",
	OpPrintVal:            "PRINT_VAL",
	OpPrintTxt:            "PRINT_TXT",
	OpPrintStruct:         "PRINT_STRUCT",
	OpEndSpec:             "END_SPEC",
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return "UNKNOWN_OPCODE"
}

// reservedStub reports whether an opcode is recognised-but-inert per
// spec.md (RNG declarations, PACK_PARAM/REFORMAT). The executor logs and
// continues rather than treating these as unknown instructions.
func (o Opcode) reservedStub() bool {
	switch o {
	case OpDeclareRNG, OpDeclareRandomDist, OpGetRandomNumber,
		OpStartPackSpec, OpPackParam, OpEndPackSpec, OpReformat:
		return true
	default:
		return false
	}
}
