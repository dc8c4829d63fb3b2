package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// levelRank orders levels so a logger can drop entries below its threshold
var levelRank = map[string]int{
	"DEBUG": 0,
	"INFO":  1,
	"WARN":  2,
	"ERROR": 3,
}

// WriterLogger writes one line per entry to an io.Writer. Metadata is
// appended as compact JSON when present.
type WriterLogger struct {
	out      io.Writer
	minLevel int
}

// NewWriterLogger creates a logger for the given writer and minimum level
// ("debug", "info", "warn", "error")
func NewWriterLogger(out io.Writer, minLevel string) *WriterLogger {
	rank, ok := levelRank[strings.ToUpper(minLevel)]
	if !ok {
		rank = levelRank["INFO"]
	}
	return &WriterLogger{out: out, minLevel: rank}
}

// NewStdoutLogger creates a stdout logger at the given minimum level
func NewStdoutLogger(minLevel string) *WriterLogger {
	return NewWriterLogger(os.Stdout, minLevel)
}

// NewStderrLogger creates a stderr logger at the given minimum level
func NewStderrLogger(minLevel string) *WriterLogger {
	return NewWriterLogger(os.Stderr, minLevel)
}

func (l *WriterLogger) Log(level, message string, metadata map[string]interface{}) {
	normalized := strings.ToUpper(level)
	rank, ok := levelRank[normalized]
	if !ok {
		rank = levelRank["INFO"]
	}
	if rank < l.minLevel {
		return
	}
	timestamp := time.Now().UTC().Format(time.RFC3339)
	if len(metadata) == 0 {
		fmt.Fprintf(l.out, "%s [%s] %s\n", timestamp, normalized, message)
		return
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		fmt.Fprintf(l.out, "%s [%s] %s\n", timestamp, normalized, message)
		return
	}
	fmt.Fprintf(l.out, "%s [%s] %s %s\n", timestamp, normalized, message, encoded)
}
