package utils

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

const lineTerminatorConstant = "\n"

// FlushingWriter serializes writes from concurrent producers and flushes buffered
// destinations after each write so long-running commands stream their output.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps the provided writer. Wrapping an existing FlushingWriter returns it unchanged.
func NewFlushingWriter(writer io.Writer) *FlushingWriter {
	if existing, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return existing
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return len(data), nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	return flushingWriter.writeAndFlush(data)
}

// WriteLinef formats a single report line, appending a newline when missing.
func (flushingWriter *FlushingWriter) WriteLinef(format string, arguments ...any) error {
	line := fmt.Sprintf(format, arguments...)
	if !strings.HasSuffix(line, lineTerminatorConstant) {
		line += lineTerminatorConstant
	}
	_, writeError := flushingWriter.Write([]byte(line))
	return writeError
}

func (flushingWriter *FlushingWriter) writeAndFlush(data []byte) (int, error) {
	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(interface{ Flush() error }); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}
