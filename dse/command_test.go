package dse

import "testing"

func TestDecodeCommandFields(t *testing.T) {
	// dataLen=2, opcode=0x42 (WRITE), fieldUsage=0b101 (dest,src2), dest=3,
	// src1=0, src2=7, low=0xA.
	word := (uint32(2) << 28) | (uint32(0x42) << 20) | (uint32(0b101) << 16) |
		(uint32(3) << 12) | (uint32(0) << 8) | (uint32(7) << 4) | uint32(0xA)

	buf := make([]byte, 12)
	buf[0], buf[1], buf[2], buf[3] = byte(word), byte(word>>8), byte(word>>16), byte(word>>24)
	buf[4], buf[5], buf[6], buf[7] = 0x11, 0x22, 0x33, 0x44
	buf[8], buf[9], buf[10], buf[11] = 0x55, 0x66, 0x77, 0x88

	cmd, next, err := decodeCommand(buf, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, next == 3, "expected next word index 3, got %d", next)
	assert(t, cmd.Length() == 2, "expected dataLen 2, got %d", cmd.Length())
	assert(t, cmd.Opcode() == OpWrite, "expected WRITE opcode, got %s", cmd.Opcode())
	assert(t, cmd.DestInUse(), "expected dest in use")
	assert(t, !cmd.Src1InUse(), "expected src1 not in use")
	assert(t, cmd.Src2InUse(), "expected src2 in use")
	assert(t, cmd.DestReg() == 3, "expected destReg 3, got %d", cmd.DestReg())
	assert(t, cmd.Src2Reg() == 7, "expected src2Reg 7, got %d", cmd.Src2Reg())
	assert(t, cmd.DataWords[0] == 0x44332211, "unexpected data word 0: %#x", cmd.DataWords[0])
	assert(t, cmd.DataWords[1] == 0x88776655, "unexpected data word 1: %#x", cmd.DataWords[1])
}

func TestDecodeCommandTruncatedBuffer(t *testing.T) {
	word := uint32(1) << 28 // dataLen=1, but no data word follows
	buf := []byte{byte(word), byte(word >> 8), byte(word >> 16), byte(word >> 24)}

	_, _, err := decodeCommand(buf, 0)
	assert(t, err == errMalformedCommand, "expected errMalformedCommand, got %v", err)
}
