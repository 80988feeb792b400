package dse

import "encoding/binary"

// Magic/version constants, ported verbatim from constants.h.
const (
	appDataMagicNum uint32 = 0xAD130AD6
	dseVersion      uint32 = 0x00010000
)

// PointerTableHeaderByteSize is the fixed header size (magic + version),
// matching APP_PTR_TABLE_HEADER_BYTE_SIZE.
const PointerTableHeaderByteSize = 8

// WriteHeader appends the magic number and DSE version word, matching
// write_header/pointer_table_header_alloc.
func WriteHeader(buf []byte) []byte {
	var hdr [PointerTableHeaderByteSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], appDataMagicNum)
	binary.LittleEndian.PutUint32(hdr[4:8], dseVersion)
	return append(buf, hdr[:]...)
}

// WritePointerTable appends the fixed 16-entry pointer table: one 4-byte
// word per region slot, the region's start address if allocated, 0
// otherwise — mirroring write_pointer_table's loop over MAX_MEM_REGIONS.
func WritePointerTable(buf []byte, regions [maxRegions]*MemoryRegion) []byte {
	var word [4]byte
	for _, r := range regions {
		var addr uint32
		if r != nil {
			addr = uint32(r.Start)
		}
		binary.LittleEndian.PutUint32(word[:], addr)
		buf = append(buf, word[:]...)
	}
	return buf
}

// Serialize produces the full output buffer: header, pointer table, and the
// whole raw arena, which holds every allocated region's bytes (§6 "Output
// format").
func Serialize(regions [maxRegions]*MemoryRegion, arena []byte) []byte {
	out := make([]byte, 0, PointerTableHeaderByteSize+4*maxRegions+len(arena))
	out = WriteHeader(out)
	out = WritePointerTable(out, regions)
	out = append(out, arena...)
	return out
}
