// Package diag defines the narrow output-sink interface the command layer
// and the defragmenter both accept as a constructor argument, and a default
// implementation backed by the standard logger, matching the plain,
// unadorned style the command-line entry point already uses elsewhere.
package diag

import (
	"log"
	"os"
)

// Sink is an output collaborator for progress and diagnostic messages. It
// is intentionally narrow: no levels, no structured fields.
type Sink interface {
	Printf(format string, args ...interface{})
	Println(args ...interface{})
}

type stdSink struct {
	logger *log.Logger
}

// NewStdSink returns a Sink backed by log.New(os.Stdout, "", 0).
func NewStdSink() Sink {
	return stdSink{logger: log.New(os.Stdout, "", 0)}
}

func (s stdSink) Printf(format string, args ...interface{}) {
	s.logger.Printf(format, args...)
}

func (s stdSink) Println(args ...interface{}) {
	s.logger.Println(args...)
}
