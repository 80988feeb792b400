// Package report renders the optional memory-map report (spec.md §4.4/§6's
// generate_report output): one line per occupied region plus the raw
// [16]MemoryRegionRecord array the output stage can serialise alongside the
// pointer table.
package report

import (
	"fmt"
	"io"

	"github.com/SpiNNakerManchester/DataSpecification/dse"
)

// MemoryRegionRecord is the report's per-region summary, independent of the
// dse package's internal MemoryRegion so the report can be generated from
// data read back out of a RegionManager without exposing its internals.
type MemoryRegionRecord struct {
	ID       uint8
	Start    uint64
	Size     uint32
	Unfilled bool
	AppID    uint8
}

// Collect builds the fixed 16-entry record array spec.md's pointer table
// shadows, one entry per region id, zero-valued for regions never reserved.
func Collect(regions [16]*dse.MemoryRegion) [16]MemoryRegionRecord {
	var out [16]MemoryRegionRecord
	for id, r := range regions {
		if r == nil {
			continue
		}
		out[id].ID = uint8(id)
		out[id].Start = r.Start
		out[id].Size = r.Size
		out[id].Unfilled = r.Unfilled
		out[id].AppID = r.AppID
	}
	return out
}

// Write renders one line per occupied region to w, following the original's
// write_pointer_table log line ("Region %d address %x size %d bytes, %s")
// nearly verbatim, with "unfilled"/"filled" standing in for the original's
// free-text status suffix.
func Write(w io.Writer, records [16]MemoryRegionRecord) error {
	for _, r := range records {
		if r.Size == 0 && r.Start == 0 {
			continue
		}
		status := "filled"
		if r.Unfilled {
			status = "unfilled"
		}
		if _, err := fmt.Fprintf(w, "Region %d address %x size %d bytes, %s\n", r.ID, r.Start, r.Size, status); err != nil {
			return err
		}
	}
	return nil
}
