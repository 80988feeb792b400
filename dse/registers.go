package dse

// maxRegisters is the fixed register file size, matching the original's
// MAX_REGISTERS and RESERVE's argument encoding (a 5-bit region id packed
// alongside a 4-bit register nibble elsewhere in the command word).
const maxRegisters = 16

// Registers is the executor's register file: a fixed bank of 64-bit general
// purpose registers, widened from the original's 32-bit uint32_t registers[]
// so that addresses and 8-byte WRITE values fit in a single register (per
// spec.md's requirement that registers be at least 64 bits).
type Registers struct {
	slots [maxRegisters]uint64
}

func (r *Registers) Get(idx uint8) (uint64, error) {
	if int(idx) >= maxRegisters {
		return 0, errBadRegisterIndex
	}
	return r.slots[idx], nil
}

func (r *Registers) Set(idx uint8, value uint64) error {
	if int(idx) >= maxRegisters {
		return errBadRegisterIndex
	}
	r.slots[idx] = value
	return nil
}
