// Command dsexec runs a data specification program against a simulated
// target memory and writes out the header + pointer table followed by the
// arena image (and, optionally, a memory-map report).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SpiNNakerManchester/DataSpecification/allocator"
	"github.com/SpiNNakerManchester/DataSpecification/dse"
	"github.com/SpiNNakerManchester/DataSpecification/ingest"
	"github.com/SpiNNakerManchester/DataSpecification/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dsexec",
		Short: "Data specification executor — lay out a target memory image from a spec program",
	}

	var (
		arenaSize   uint32
		appID       uint8
		futureAppID uint8
		outputPath  string
		fragment    int
		genReport   bool
	)

	runCmd := &cobra.Command{
		Use:   "run [spec-file]",
		Short: "Execute a data specification program read from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading spec file: %w", err)
			}

			var program []byte
			if fragment > 0 {
				program, err = runFragmented(raw, fragment, futureAppID, genReport)
				if err != nil {
					return err
				}
			} else {
				program, err = ingest.WholeBuffer(raw, ingest.LaunchRecord{
					ProgramLength:  uint32(len(raw)),
					FutureAppID:    futureAppID,
					GenerateReport: genReport,
				})
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
			}

			alloc := allocator.NewBumpAllocator(arenaSize)
			exec := dse.NewExecutor(program, alloc, futureAppID, nil)
			if err := exec.Run(); err != nil {
				return fmt.Errorf("executing spec: %w", err)
			}

			out := dse.Serialize(exec.Regions.All(), alloc.Bytes())
			if outputPath != "" {
				if err := os.WriteFile(outputPath, out, 0o644); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}
				fmt.Printf("Wrote %d bytes to %s\n", len(out), outputPath)
			} else {
				fmt.Printf("Executed %s: %d bytes of output\n", args[0], len(out))
			}

			if genReport {
				records := report.Collect(exec.Regions.All())
				if err := report.Write(os.Stdout, records); err != nil {
					return fmt.Errorf("writing report: %w", err)
				}
			}
			return nil
		},
	}
	runCmd.Flags().Uint32Var(&arenaSize, "arena-size", 1<<20, "Size in bytes of the simulated backing arena")
	runCmd.Flags().Uint8Var(&appID, "app-id", 0, "Application id the executor runs as")
	runCmd.Flags().Uint8Var(&futureAppID, "future-app-id", 0, "Application id stamped onto allocated regions")
	runCmd.Flags().StringVar(&outputPath, "output", "", "File to write the serialised header, pointer table and arena image to (stdout summary if empty)")
	runCmd.Flags().IntVar(&fragment, "fragment", 0, "Chop the input into N-byte chunks and drive them through the fragmented ingest adapter instead of reading it whole")
	runCmd.Flags().BoolVar(&genReport, "report", false, "Also print the memory-map report")

	rootCmd.AddCommand(runCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runFragmented exercises the sequencing/reassembly path end to end: the
// whole file is chopped into chunkSize-byte chunks, each submitted to a
// RingAdapter in order, then drained back into one contiguous buffer.
func runFragmented(raw []byte, chunkSize int, futureAppID uint8, genReport bool) ([]byte, error) {
	ring := ingest.NewRingAdapter(len(raw) + chunkSize)

	seq := uint8(0)
	for off := 0; off < len(raw); off += chunkSize {
		end := off + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		chunk := ingest.Chunk{Region: 0, Sequence: seq, Payload: raw[off:end]}
		if err := ring.Submit(chunk); err != nil {
			return nil, fmt.Errorf("fragment %d: %w", seq, err)
		}
		seq++
	}

	return ring.Drain(ring.Available())
}
