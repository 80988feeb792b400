package dse

import (
	"fmt"
	"log"
)

// LogSink is the diagnostics collaborator PRINT_VAL/PRINT_TXT/PRINT_STRUCT
// and unimplemented-opcode notices write through — an external collaborator
// per spec.md §1, kept as an interface so tests can capture output the way
// vm/vm.go's stdout *bufio.Writer lets tests redirect VM output.
type LogSink interface {
	Printf(format string, args ...interface{})
}

// StdLogSink wraps the standard library logger, the default sink wired by
// NewExecutor. The teacher never reaches for a structured logging library
// (fmt.Println/Printf throughout vm/vm.go and vm/run.go); this keeps that
// texture.
type StdLogSink struct {
	logger *log.Logger
}

func NewStdLogSink(logger *log.Logger) *StdLogSink {
	return &StdLogSink{logger: logger}
}

func (s *StdLogSink) Printf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
		return
	}
	fmt.Printf(format+"\n", args...)
}
