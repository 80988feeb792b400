package dse

import "github.com/SpiNNakerManchester/DataSpecification/allocator"

// maxRegions is the fixed region table size (MAX_MEM_REGIONS in the
// original), also the size of the output pointer table.
const maxRegions = 16

// MemoryRegion tracks one reserved, named block of the target address
// space: its size, start address, write cursor and whether it was declared
// "unfilled" (RESERVE's bit 7 — zero-initialized at reserve time and
// reported as such; WRITE/WRITE_ARRAY/WRITE_STRUCT do not check the flag).
type MemoryRegion struct {
	Size     uint32
	Start    uint64
	Cursor   uint64 // absolute address of the next byte to write
	Unfilled bool
	AppID    uint8
}

func (r *MemoryRegion) remaining() uint64 {
	return uint64(r.Size) - (r.Cursor - r.Start)
}

// RegionManager implements spec.md's component C4: RESERVE/FREE/
// SWITCH_FOCUS plus the write cursor bookkeeping every WRITE* opcode relies
// on. It holds no bytes itself — all storage comes from the configured
// allocator.BackingAllocator, addressed through the arena-relative
// addresses the allocator hands back.
type RegionManager struct {
	regions [maxRegions]*MemoryRegion
	current int // -1 when no region has focus, mirrors current_region
	alloc   allocator.BackingAllocator
	appID   uint8
}

func NewRegionManager(alloc allocator.BackingAllocator, appID uint8) *RegionManager {
	return &RegionManager{current: -1, alloc: alloc, appID: appID}
}

func (rm *RegionManager) Reserve(id uint8, size uint32, unfilled bool) error {
	if int(id) >= maxRegions {
		return errBadRegisterIndex
	}
	if rm.regions[id] != nil {
		return errRegionInUse
	}

	addr, _, err := rm.alloc.Alloc(size, rm.appID, unfilled)
	if err != nil {
		return errArenaExhausted
	}

	rm.regions[id] = &MemoryRegion{
		Size:     size,
		Start:    addr,
		Cursor:   addr,
		Unfilled: unfilled,
		AppID:    rm.appID,
	}
	return nil
}

func (rm *RegionManager) Free(id uint8) error {
	if int(id) >= maxRegions {
		return errBadRegisterIndex
	}
	r := rm.regions[id]
	if r == nil {
		return errRegionUnallocated
	}
	if err := rm.alloc.Free(r.Start); err != nil {
		return err
	}
	rm.regions[id] = nil
	if rm.current == int(id) {
		rm.current = -1
	}
	return nil
}

func (rm *RegionManager) SwitchFocus(id uint8) error {
	if int(id) >= maxRegions {
		return errBadRegisterIndex
	}
	if rm.regions[id] == nil {
		return errRegionUnallocated
	}
	rm.current = int(id)
	return nil
}

// Current returns the region with focus, failing exactly as the original
// does when WRITE* runs before any SWITCH_FOCUS.
func (rm *RegionManager) Current() (*MemoryRegion, error) {
	if rm.current < 0 {
		return nil, errNoRegionSelected
	}
	r := rm.regions[rm.current]
	if r == nil {
		return nil, errRegionUnallocated
	}
	return r, nil
}

func (rm *RegionManager) Get(id uint8) (*MemoryRegion, error) {
	if int(id) >= maxRegions {
		return nil, errBadRegisterIndex
	}
	r := rm.regions[id]
	if r == nil {
		return nil, errRegionUnallocated
	}
	return r, nil
}

// All returns the fixed-size region table for output serialisation.
func (rm *RegionManager) All() [maxRegions]*MemoryRegion {
	return rm.regions
}
